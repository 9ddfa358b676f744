package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/internal/infrastructure/storage"
	"chat-ledger.backend/pkg/logger"
)

const fetchConcurrency = 8

// queryPins runs a tag query and absorbs failures as an empty result.
func queryPins(ctx context.Context, backend repositories.SnapshotBackend, filter entities.SnapshotTags) []entities.PinRef {
	pins, err := backend.Query(ctx, filter)
	if err != nil {
		logger.Warn(ctx, "Snapshot query failed, treating as empty",
			zap.String("backend", backend.Name()),
			zap.Any("filter", filter),
			zap.Error(fmt.Errorf("%w: %v", domainerrors.ErrRemoteQueryFailure, err)),
		)
		return nil
	}
	return pins
}

// fetchSnapshot fetches and parses one pinned snapshot.
func fetchSnapshot[T any](ctx context.Context, backend repositories.SnapshotBackend, cid string, parse func([]byte) (T, error)) (T, error) {
	var zero T
	blob, err := backend.Fetch(ctx, cid)
	if err != nil {
		return zero, err
	}
	doc, err := parse(blob)
	if err != nil {
		return zero, fmt.Errorf("snapshot %s: %w", cid, err)
	}
	return doc, nil
}

// resolveSnapshot fetches the latest pin among pins. ok is false when nothing usable was found.
func resolveSnapshot[T any](ctx context.Context, backend repositories.SnapshotBackend, pins []entities.PinRef, parse func([]byte) (T, error)) (T, string, bool) {
	var zero T
	latest, ok := storage.ResolveLatest(pins)
	if !ok {
		return zero, "", false
	}
	doc, err := fetchSnapshot(ctx, backend, latest.CID, parse)
	if err != nil {
		logSkippedSnapshot(ctx, latest.CID, err)
		return zero, "", false
	}
	return doc, latest.CID, true
}

// fetchLatestPerTag keeps the newest pin per value of key and fetches them concurrently.
// Snapshots that cannot be fetched or parsed are skipped.
func fetchLatestPerTag[T any](ctx context.Context, backend repositories.SnapshotBackend, pins []entities.PinRef, key string, parse func([]byte) (T, error)) map[string]T {
	latest := storage.LatestByTag(pins, key)

	var mu sync.Mutex
	out := make(map[string]T, len(latest))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for id, pin := range latest {
		g.Go(func() error {
			doc, err := fetchSnapshot(gctx, backend, pin.CID, parse)
			if err != nil {
				logSkippedSnapshot(gctx, pin.CID, err)
				return nil
			}
			mu.Lock()
			out[id] = doc
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func logSkippedSnapshot(ctx context.Context, cid string, err error) {
	level := logger.Warn
	if errors.Is(err, domainerrors.ErrSnapshotNotFound) {
		level = logger.Debug
	}
	level(ctx, "Skipping unreadable snapshot", zap.String("cid", cid), zap.Error(err))
}
