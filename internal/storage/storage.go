// Package storage defines the delivery journal and its implementations.
package storage

import (
	"context"

	"quake_bot/internal/model"
)

// Stats holds delivery counters across all chats.
type Stats struct {
	Sent   int64 `json:"sent"`
	Failed int64 `json:"failed"`
}

// Journal is the interface for all delivery persistence operations.
type Journal interface {
	RecordDelivery(ctx context.Context, d model.Delivery) error
	WasDelivered(ctx context.Context, chatID, eventID string) (bool, error)
	Recent(ctx context.Context, chatID string, limit int) ([]model.Delivery, error)
	Stats(ctx context.Context) (Stats, error)

	Close() error
}
