package repositories

import (
	"context"
	"time"
)

// NonceStore keeps at most one active nonce per wallet
type NonceStore interface {
	// Put stores nonce for wallet, replacing any previous one.
	Put(ctx context.Context, wallet, nonce string, ttl time.Duration) error
	// Get returns the active nonce; ok is false when none is stored or it expired.
	Get(ctx context.Context, wallet string) (nonce string, ok bool, err error)
	// Consume deletes the nonce only if it still equals nonce.
	Consume(ctx context.Context, wallet, nonce string) (bool, error)
}
