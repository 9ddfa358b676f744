package storage

import (
	"context"
	"strings"
	"sync"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
)

const testWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

// fakeIndex is an in-memory PinRepository.
type fakeIndex struct {
	mu      sync.Mutex
	entries map[string]*entities.PinEntry
	saveErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{entries: make(map[string]*entities.PinEntry)}
}

func (f *fakeIndex) Save(_ context.Context, entry *entities.PinEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	cp := *entry
	cp.Tags = entry.Tags.Clone()
	f.entries[entry.CID] = &cp
	return nil
}

func (f *fakeIndex) GetByCID(_ context.Context, cid string) (*entities.PinEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[cid]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return e, nil
}

func (f *fakeIndex) ListByWallet(_ context.Context, wallet string) ([]*entities.PinEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.PinEntry
	for _, e := range f.entries {
		if strings.EqualFold(e.WalletAddress, wallet) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeIndex) FindByTags(_ context.Context, backend string, filter entities.SnapshotTags) ([]*entities.PinEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.PinEntry
	for _, e := range f.entries {
		if e.Backend == backend && e.Tags.Matches(filter) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeIndex) Delete(_ context.Context, cid string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, cid)
	return nil
}

func (f *fakeIndex) has(cid string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[cid]
	return ok
}

func conversationTags(convID string) entities.SnapshotTags {
	return entities.NewSnapshotTags("test", entities.SnapshotTypeConversation, testWallet).
		With(entities.TagConversationID, convID)
}
