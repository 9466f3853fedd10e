package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

type fileSlotRepository struct {
	dir string
}

// NewFileSlotRepository keeps each slot in <dir>/<slot>.json.
func NewFileSlotRepository(dir string) SlotRepository {
	return &fileSlotRepository{dir: dir}
}

func (r *fileSlotRepository) Load(ctx context.Context, slot string) ([]byte, error) {
	if err := validateSlot(slot); err != nil {
		return nil, err
	}

	payload, err := os.ReadFile(r.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	return payload, nil
}

// Save writes to a temp file and renames it over the slot, so a crash never
// leaves a half-written payload behind.
func (r *fileSlotRepository) Save(ctx context.Context, slot string, payload []byte) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create slot directory: %w", err)
	}

	tmp, err := os.CreateTemp(r.dir, "."+slot+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync slot %s: %w", slot, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close slot %s: %w", slot, err)
	}

	if err := os.Rename(tmp.Name(), r.path(slot)); err != nil {
		return fmt.Errorf("failed to replace slot %s: %w", slot, err)
	}
	return nil
}

func (r *fileSlotRepository) path(slot string) string {
	return filepath.Join(r.dir, slot+".json")
}
