package storage

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"chat-ledger.backend/internal/config"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/pkg/logger"
)

var errUnpinFailed = errors.New("unpin failed")

var (
	newLocalNode = func(cfg config.StorageConfig, index repositories.PinRepository) (*LocalNodeBackend, error) {
		return NewLocalNodeBackend(cfg.IPFSAPIURL, index, cfg.RequestTimeout, retryConfigFrom(cfg))
	}
	pingLocalNode = func(b *LocalNodeBackend) bool {
		return b.Ping()
	}
	pingPinata = func(ctx context.Context, b *PinataBackend) error {
		return b.Ping(ctx)
	}
)

// NewBackend selects the snapshot backend once at startup. Any backend that cannot be
// used falls back to the in-process one; the failure is logged, never returned.
func NewBackend(ctx context.Context, cfg config.StorageConfig, index repositories.PinRepository) repositories.SnapshotBackend {
	backend, err := selectBackend(ctx, cfg, index)
	if err != nil {
		logger.Warn(ctx, "snapshot backend unavailable, using in-memory storage",
			zap.String("requested", cfg.Backend),
			zap.Error(err),
		)
		backend = NewMemoryBackend(index)
	}
	logger.Info(ctx, "snapshot backend selected", zap.String("backend", backend.Name()))
	return Instrument(backend)
}

func selectBackend(ctx context.Context, cfg config.StorageConfig, index repositories.PinRepository) (repositories.SnapshotBackend, error) {
	switch cfg.Backend {
	case BackendLocal:
		if index == nil {
			return nil, fmt.Errorf("%w: local node needs a pin index", domainerrors.ErrStorageUnavailable)
		}
		b, err := newLocalNode(cfg, index)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domainerrors.ErrStorageUnavailable, err)
		}
		if !pingLocalNode(b) {
			return nil, fmt.Errorf("%w: ipfs node at %s is not reachable", domainerrors.ErrStorageUnavailable, cfg.IPFSAPIURL)
		}
		return b, nil

	case BackendPinata:
		if !cfg.HasPinataCredentials() {
			return nil, fmt.Errorf("%w: pinata credentials missing", domainerrors.ErrStorageUnavailable)
		}
		b, err := NewPinataBackend(PinataConfig{
			APIURL:    cfg.PinataAPIURL,
			JWT:       cfg.PinataJWT,
			APIKey:    cfg.PinataAPIKey,
			SecretKey: cfg.PinataSecretKey,
			Gateways:  cfg.Gateways,
			PageLimit: cfg.PinataPageLimit,
			Timeout:   cfg.RequestTimeout,
			CacheSize: cfg.CacheSize,
			Retry:     retryConfigFrom(cfg),
		}, index)
		if err != nil {
			return nil, err
		}
		if err := pingPinata(ctx, b); err != nil {
			return nil, fmt.Errorf("%w: %v", domainerrors.ErrStorageUnavailable, err)
		}
		return b, nil

	case BackendMemory, "", "none", "mock":
		return NewMemoryBackend(index), nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", domainerrors.ErrStorageUnavailable, cfg.Backend)
}

func retryConfigFrom(cfg config.StorageConfig) RetryConfig {
	rc := DefaultRetryConfig()
	if cfg.MaxRetries >= 0 {
		rc.MaxRetries = cfg.MaxRetries
	}
	return rc
}
