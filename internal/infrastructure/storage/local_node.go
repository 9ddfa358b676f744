package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/domain/repositories"
)

// BackendLocal is the name of the Kubo node backend
const BackendLocal = "local"

// maxSnapshotSize bounds what Fetch will read from a node or gateway
const maxSnapshotSize = 8 << 20

// LocalNodeBackend talks to a Kubo node over its HTTP RPC API. Kubo has no metadata
// query, so tags live in the pin index.
type LocalNodeBackend struct {
	sh    *shell.Shell
	index repositories.PinRepository
	retry RetryConfig
	clock *pinClock
}

// NewLocalNodeBackend creates a backend for the node at apiURL. index is required.
func NewLocalNodeBackend(apiURL string, index repositories.PinRepository, timeout time.Duration, retry RetryConfig) (*LocalNodeBackend, error) {
	if index == nil {
		return nil, errors.New("local node backend requires a pin index")
	}
	sh := shell.NewShell(apiURL)
	if timeout > 0 {
		sh.SetTimeout(timeout)
	}
	return &LocalNodeBackend{sh: sh, index: index, retry: retry, clock: newPinClock()}, nil
}

func (b *LocalNodeBackend) Name() string { return BackendLocal }

// Ping reports whether the node answers.
func (b *LocalNodeBackend) Ping() bool {
	return b.sh.IsUp()
}

func (b *LocalNodeBackend) Store(ctx context.Context, blob []byte) (string, error) {
	var id string
	err := retry(ctx, b.retry, func(context.Context) error {
		var err error
		id, err = b.sh.Add(bytes.NewReader(blob), shell.CidVersion(1), shell.RawLeaves(true), shell.Pin(false))
		return err
	})
	if err != nil {
		return "", fmt.Errorf("ipfs add: %w", err)
	}
	return id, nil
}

func (b *LocalNodeBackend) Pin(ctx context.Context, cid string, tags entities.SnapshotTags) error {
	err := retry(ctx, b.retry, func(ctx context.Context) error {
		return b.sh.Request("pin/add", cid).Option("recursive", true).Exec(ctx, nil)
	})
	if err != nil {
		return fmt.Errorf("ipfs pin add %s: %w", cid, err)
	}

	at := b.clock.next()
	return b.index.Save(ctx, &entities.PinEntry{
		CID:           cid,
		Backend:       BackendLocal,
		WalletAddress: tags[entities.TagWalletAddress],
		Tags:          tags.With(entities.TagTimestamp, at.Format(time.RFC3339Nano)),
		PinnedAt:      at,
	})
}

func (b *LocalNodeBackend) Unpin(ctx context.Context, cid string) bool {
	err := retry(ctx, b.retry, func(ctx context.Context) error {
		return b.sh.Request("pin/rm", cid).Option("recursive", true).Exec(ctx, nil)
	})
	if ierr := b.index.Delete(ctx, cid); ierr != nil && err == nil {
		err = ierr
	}
	return err == nil
}

func (b *LocalNodeBackend) Query(ctx context.Context, filter entities.SnapshotTags) ([]entities.PinRef, error) {
	entries, err := b.index.FindByTags(ctx, BackendLocal, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrRemoteQueryFailure, err)
	}
	refs := make([]entities.PinRef, 0, len(entries))
	for _, e := range entries {
		refs = append(refs, entities.PinRef{CID: e.CID, PinnedAt: e.PinnedAt, Tags: e.Tags})
	}
	return refs, nil
}

func (b *LocalNodeBackend) Fetch(ctx context.Context, cid string) ([]byte, error) {
	var blob []byte
	err := retry(ctx, b.retry, func(ctx context.Context) error {
		resp, err := b.sh.Request("cat", cid).Send(ctx)
		if err != nil {
			return err
		}
		defer resp.Close()
		if resp.Error != nil {
			return resp.Error
		}
		blob, err = io.ReadAll(io.LimitReader(resp.Output, maxSnapshotSize))
		return err
	})
	if err != nil {
		var shellErr *shell.Error
		if errors.As(err, &shellErr) {
			return nil, fmt.Errorf("%w: %s: %s", domainerrors.ErrSnapshotNotFound, cid, shellErr.Message)
		}
		return nil, fmt.Errorf("ipfs cat %s: %w", cid, err)
	}
	return blob, nil
}

var _ repositories.SnapshotBackend = (*LocalNodeBackend)(nil)
