package repositories

import (
	"context"

	"chat-ledger.backend/internal/domain/entities"
)

// PinRepository defines pin bookkeeping operations
type PinRepository interface {
	Save(ctx context.Context, entry *entities.PinEntry) error
	GetByCID(ctx context.Context, cid string) (*entities.PinEntry, error)
	ListByWallet(ctx context.Context, wallet string) ([]*entities.PinEntry, error)
	// FindByTags returns entries of backend whose tags contain filter.
	FindByTags(ctx context.Context, backend string, filter entities.SnapshotTags) ([]*entities.PinEntry, error)
	Delete(ctx context.Context, cid string) error
}
