package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultNoncePrefix = "auth:nonce:"

// consumeScript deletes the key only while it still holds the verified nonce, so a
// nonce issued between verification and consumption survives.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NonceStore keeps authentication nonces in Redis, one key per wallet
type NonceStore struct {
	client *redis.Client
	prefix string
}

// NewNonceStore creates a nonce store. An empty prefix uses "auth:nonce:".
func NewNonceStore(c *redis.Client, prefix string) *NonceStore {
	if prefix == "" {
		prefix = defaultNoncePrefix
	}
	return &NonceStore{client: c, prefix: prefix}
}

func (s *NonceStore) key(wallet string) string {
	return s.prefix + strings.ToLower(wallet)
}

// Put stores nonce for wallet, replacing any previous one
func (s *NonceStore) Put(ctx context.Context, wallet, nonce string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(wallet), nonce, ttl).Err()
}

// Get returns the active nonce for wallet
func (s *NonceStore) Get(ctx context.Context, wallet string) (string, bool, error) {
	nonce, err := s.client.Get(ctx, s.key(wallet)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return nonce, true, nil
}

// Consume deletes the wallet's nonce if it still equals nonce
func (s *NonceStore) Consume(ctx context.Context, wallet, nonce string) (bool, error) {
	n, err := consumeScript.Run(ctx, s.client, []string{s.key(wallet)}, nonce).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
