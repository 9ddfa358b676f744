package usecases

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/internal/infrastructure/storage"
	"chat-ledger.backend/pkg/logger"
	"chat-ledger.backend/pkg/utils"
	"chat-ledger.backend/pkg/wallet"
)

// PinUsecase exposes a wallet's pin bookkeeping
type PinUsecase struct {
	backend repositories.SnapshotBackend
	pins    repositories.PinRepository
}

// NewPinUsecase creates a new pin usecase
func NewPinUsecase(backend repositories.SnapshotBackend, pins repositories.PinRepository) *PinUsecase {
	return &PinUsecase{backend: backend, pins: pins}
}

// List returns one page of the wallet's pins, newest first.
func (u *PinUsecase) List(ctx context.Context, walletAddress string, page utils.PaginationParams) ([]*entities.PinEntry, utils.PaginationMeta, error) {
	owner, err := wallet.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	entries, err := u.pins.ListByWallet(ctx, owner)
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	meta := utils.CalculateMeta(int64(len(entries)), page.Page, page.Limit)
	return utils.PageSlice(entries, page), meta, nil
}

// Unpin releases a snapshot owned by the wallet. Removal is best effort: the
// content may stay reachable through other replicas. Mint records and the newest
// snapshot of a conversation are refused with ErrPinInUse.
func (u *PinUsecase) Unpin(ctx context.Context, walletAddress, cid string) (*entities.UnpinResult, error) {
	entry, err := u.pins.GetByCID(ctx, cid)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrSnapshotNotFound
		}
		return nil, err
	}
	if !wallet.SameAddress(entry.WalletAddress, walletAddress) {
		return nil, domainerrors.ErrSnapshotNotFound
	}
	if err := u.ensureReleasable(ctx, entry); err != nil {
		return nil, err
	}

	result := &entities.UnpinResult{
		CID:      cid,
		Backend:  u.backend.Name(),
		Unpinned: u.backend.Unpin(ctx, cid),
	}
	if result.Unpinned {
		result.Message = "Content unpinned; copies held by other nodes may remain reachable"
	} else {
		result.Message = "Unpin failed; content is still pinned"
		logger.Warn(ctx, "Unpin failed", zap.String("cid", cid), zap.String("backend", result.Backend))
	}
	return result, nil
}

// ensureReleasable fails when removing entry would change what readers resolve.
func (u *PinUsecase) ensureReleasable(ctx context.Context, entry *entities.PinEntry) error {
	switch entities.SnapshotType(entry.Tags[entities.TagType]) {
	case entities.SnapshotTypeMintRecord:
		return domainerrors.ErrPinInUse
	case entities.SnapshotTypeConversation:
		id := entry.Tags[entities.TagConversationID]
		if id == "" {
			return domainerrors.ErrPinInUse
		}
		filter := conversationFilter(id)

		refs, err := u.backend.Query(ctx, filter)
		if err != nil {
			logger.Warn(ctx, "Pin query failed, using pin index only", zap.String("conversation_id", id), zap.Error(err))
			refs = nil
		}
		indexed, err := u.pins.FindByTags(ctx, entry.Backend, filter)
		if err != nil {
			return err
		}
		refs = append(refs, entities.PinRef{CID: entry.CID, PinnedAt: entry.PinnedAt, Tags: entry.Tags})
		for _, e := range indexed {
			refs = append(refs, entities.PinRef{CID: e.CID, PinnedAt: e.PinnedAt, Tags: e.Tags})
		}

		latest, ok := storage.ResolveLatest(refs)
		if !ok || latest.CID == entry.CID {
			return domainerrors.ErrPinInUse
		}
	}
	return nil
}
