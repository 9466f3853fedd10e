package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createSlotsTable = `
CREATE TABLE IF NOT EXISTS slots (
	name       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type postgresSlotRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSlotRepository(db *pgxpool.Pool) SlotRepository {
	return &postgresSlotRepository{db: db}
}

// EnsureSchema creates the slots table if it does not exist.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, createSlotsTable); err != nil {
		return fmt.Errorf("failed to create slots table: %w", err)
	}
	return nil
}

func (r *postgresSlotRepository) Load(ctx context.Context, slot string) ([]byte, error) {
	var payload string
	err := r.db.QueryRow(ctx, "SELECT payload FROM slots WHERE name = $1", slot).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	return []byte(payload), nil
}

func (r *postgresSlotRepository) Save(ctx context.Context, slot string, payload []byte) error {
	upsertQuery := `
		INSERT INTO slots (name, payload, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	if _, err := r.db.Exec(ctx, upsertQuery, slot, string(payload)); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	return nil
}
