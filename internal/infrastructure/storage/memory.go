package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/domain/repositories"
)

// BackendMemory is the name of the in-process backend
const BackendMemory = "memory"

type memoryPin struct {
	tags     entities.SnapshotTags
	pinnedAt time.Time
}

// MemoryBackend keeps blobs and pins in process. Addresses are real CIDv1 (raw, sha2-256)
// so identical content maps to the same address as on a node.
type MemoryBackend struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	pins  map[string]memoryPin
	clock *pinClock
	index repositories.PinRepository
}

// NewMemoryBackend creates an empty memory backend. index is optional pin bookkeeping.
func NewMemoryBackend(index repositories.PinRepository) *MemoryBackend {
	return &MemoryBackend{
		blobs: make(map[string][]byte),
		pins:  make(map[string]memoryPin),
		clock: newPinClock(),
		index: index,
	}
}

func (b *MemoryBackend) Name() string { return BackendMemory }

// ComputeCID returns the CIDv1 of blob.
func ComputeCID(blob []byte) (string, error) {
	mh, err := multihash.Sum(blob, multihash.SHA2_256, -1)
	if err != nil {
		return "", fmt.Errorf("hash blob: %w", err)
	}
	return cid.NewCidV1(cid.Raw, mh).String(), nil
}

func (b *MemoryBackend) Store(_ context.Context, blob []byte) (string, error) {
	id, err := ComputeCID(blob)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.blobs[id]; !ok {
		b.blobs[id] = append([]byte(nil), blob...)
	}
	return id, nil
}

func (b *MemoryBackend) Pin(ctx context.Context, cid string, tags entities.SnapshotTags) error {
	at := b.clock.next()
	stored := tags.With(entities.TagTimestamp, at.Format(time.RFC3339Nano))
	b.mu.Lock()
	b.pins[cid] = memoryPin{tags: stored, pinnedAt: at}
	b.mu.Unlock()

	if b.index == nil {
		return nil
	}
	return b.index.Save(ctx, &entities.PinEntry{
		CID:           cid,
		Backend:       BackendMemory,
		WalletAddress: stored[entities.TagWalletAddress],
		Tags:          stored,
		PinnedAt:      at,
	})
}

func (b *MemoryBackend) Unpin(ctx context.Context, cid string) bool {
	b.mu.Lock()
	_, ok := b.pins[cid]
	delete(b.pins, cid)
	b.mu.Unlock()

	if b.index != nil {
		_ = b.index.Delete(ctx, cid)
	}
	return ok
}

func (b *MemoryBackend) Query(_ context.Context, filter entities.SnapshotTags) ([]entities.PinRef, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var refs []entities.PinRef
	for id, p := range b.pins {
		if p.tags.Matches(filter) {
			refs = append(refs, entities.PinRef{CID: id, PinnedAt: p.pinnedAt, Tags: p.tags.Clone()})
		}
	}
	return refs, nil
}

func (b *MemoryBackend) Fetch(_ context.Context, cid string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	blob, ok := b.blobs[cid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domainerrors.ErrSnapshotNotFound, cid)
	}
	return append([]byte(nil), blob...), nil
}

var _ repositories.SnapshotBackend = (*MemoryBackend)(nil)
