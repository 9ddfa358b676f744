package storage

import (
	"context"
	"time"

	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/internal/infrastructure/metrics"
)

type instrumented struct {
	next repositories.SnapshotBackend
}

// Instrument wraps backend so every operation is counted and timed.
func Instrument(backend repositories.SnapshotBackend) repositories.SnapshotBackend {
	if backend == nil {
		return nil
	}
	if _, ok := backend.(*instrumented); ok {
		return backend
	}
	return &instrumented{next: backend}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	metrics.ObserveStorage(i.next.Name(), op, err, time.Since(start))
}

func (i *instrumented) Name() string { return i.next.Name() }

func (i *instrumented) Store(ctx context.Context, blob []byte) (string, error) {
	start := time.Now()
	cid, err := i.next.Store(ctx, blob)
	i.observe("store", start, err)
	return cid, err
}

func (i *instrumented) Pin(ctx context.Context, cid string, tags entities.SnapshotTags) error {
	start := time.Now()
	err := i.next.Pin(ctx, cid, tags)
	i.observe("pin", start, err)
	return err
}

func (i *instrumented) Unpin(ctx context.Context, cid string) bool {
	start := time.Now()
	ok := i.next.Unpin(ctx, cid)
	var err error
	if !ok {
		err = errUnpinFailed
	}
	i.observe("unpin", start, err)
	return ok
}

func (i *instrumented) Query(ctx context.Context, filter entities.SnapshotTags) ([]entities.PinRef, error) {
	start := time.Now()
	refs, err := i.next.Query(ctx, filter)
	i.observe("query", start, err)
	return refs, err
}

func (i *instrumented) Fetch(ctx context.Context, cid string) ([]byte, error) {
	start := time.Now()
	blob, err := i.next.Fetch(ctx, cid)
	i.observe("fetch", start, err)
	return blob, err
}
