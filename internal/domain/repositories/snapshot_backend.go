package repositories

import (
	"context"

	"chat-ledger.backend/internal/domain/entities"
)

// SnapshotBackend stores and indexes opaque tagged blobs on a content-addressed network
type SnapshotBackend interface {
	// Name identifies the backend in logs, metrics and pin bookkeeping.
	Name() string
	// Store writes blob and returns its content address. Identical content yields the same address.
	Store(ctx context.Context, blob []byte) (string, error)
	// Pin attaches queryable tags to an already stored blob.
	Pin(ctx context.Context, cid string, tags entities.SnapshotTags) error
	// Unpin is best effort; content may stay reachable through other replicas.
	Unpin(ctx context.Context, cid string) bool
	// Query returns every pin whose tags contain filter, unordered.
	Query(ctx context.Context, filter entities.SnapshotTags) ([]entities.PinRef, error)
	// Fetch returns the blob for cid or domainerrors.ErrSnapshotNotFound.
	Fetch(ctx context.Context, cid string) ([]byte, error)
}
