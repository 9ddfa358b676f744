package repositories

import (
	"context"
	"strings"
	"sync"
	"time"

	"chat-ledger.backend/internal/domain/repositories"
)

type nonceEntry struct {
	nonce     string
	expiresAt time.Time
}

// MemoryNonceStore keeps nonces in process. Expired entries read as absent and are
// removed by Sweep.
type MemoryNonceStore struct {
	mu      sync.Mutex
	entries map[string]nonceEntry
	now     func() time.Time
}

func NewMemoryNonceStore() *MemoryNonceStore {
	return &MemoryNonceStore{
		entries: make(map[string]nonceEntry),
		now:     time.Now,
	}
}

func nonceKey(wallet string) string {
	return strings.ToLower(wallet)
}

// Put stores nonce for wallet, replacing any previous one. ttl <= 0 never expires.
func (s *MemoryNonceStore) Put(_ context.Context, wallet, nonce string, ttl time.Duration) error {
	entry := nonceEntry{nonce: nonce}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[nonceKey(wallet)] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryNonceStore) Get(_ context.Context, wallet string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[nonceKey(wallet)]
	if !ok || s.expired(entry) {
		return "", false, nil
	}
	return entry.nonce, true, nil
}

func (s *MemoryNonceStore) Consume(_ context.Context, wallet, nonce string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nonceKey(wallet)
	entry, ok := s.entries[key]
	if !ok || s.expired(entry) || entry.nonce != nonce {
		return false, nil
	}
	delete(s.entries, key)
	return true, nil
}

// Sweep drops expired nonces and returns how many were removed.
func (s *MemoryNonceStore) Sweep(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored nonces, expired ones included.
func (s *MemoryNonceStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryNonceStore) expired(e nonceEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

var _ repositories.NonceStore = (*MemoryNonceStore)(nil)
