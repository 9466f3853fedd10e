package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrSlotEmpty is returned by Load when nothing has been saved under a slot.
var ErrSlotEmpty = errors.New("slot is empty")

// SlotRepository stores one opaque payload per named slot. Save replaces the
// whole payload.
type SlotRepository interface {
	Load(ctx context.Context, slot string) ([]byte, error)
	Save(ctx context.Context, slot string, payload []byte) error
}

func validateSlot(slot string) error {
	if slot == "" || slot == "." || slot == ".." || strings.ContainsAny(slot, `/\`) {
		return fmt.Errorf("invalid slot name %q", slot)
	}
	return nil
}
