package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const slotKeyPrefix = "horrorvault:slot:"

type redisSlotRepository struct {
	client *redis.Client
}

func NewRedisSlotRepository(client *redis.Client) SlotRepository {
	return &redisSlotRepository{client: client}
}

func (r *redisSlotRepository) Load(ctx context.Context, slot string) ([]byte, error) {
	payload, err := r.client.Get(ctx, slotKeyPrefix+slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot %s: %w", slot, err)
	}
	return payload, nil
}

func (r *redisSlotRepository) Save(ctx context.Context, slot string, payload []byte) error {
	if err := r.client.Set(ctx, slotKeyPrefix+slot, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to write slot %s: %w", slot, err)
	}
	return nil
}
