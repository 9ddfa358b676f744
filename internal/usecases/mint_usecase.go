package usecases

import (
	"context"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/internal/infrastructure/metrics"
	"chat-ledger.backend/internal/infrastructure/storage"
	"chat-ledger.backend/pkg/logger"
	"chat-ledger.backend/pkg/utils"
	"chat-ledger.backend/pkg/wallet"
)

const (
	mintLockPrefix         = "mint:"
	conversationLockPrefix = "conversation:"
)

// MintUsecase tokenizes conversation messages and tracks the resulting mint records
type MintUsecase struct {
	backend       repositories.SnapshotBackend
	conversations *ConversationUsecase
	minter        repositories.Minter
	appID         string
	gateway       string
	locks         *utils.KeyedMutex
	cache         *lru.Cache[string, *entities.MintRecord]
	now           func() time.Time
}

// NewMintUsecase creates a new mint usecase
func NewMintUsecase(
	backend repositories.SnapshotBackend,
	conversations *ConversationUsecase,
	minter repositories.Minter,
	appID, gateway string,
	cacheSize int,
) *MintUsecase {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, _ := lru.New[string, *entities.MintRecord](cacheSize)
	return &MintUsecase{
		backend:       backend,
		conversations: conversations,
		minter:        minter,
		appID:         appID,
		gateway:       gateway,
		locks:         utils.NewKeyedMutex(),
		cache:         cache,
		now:           time.Now,
	}
}

// Create mints a subset of a conversation. A conversation is minted at most once,
// whatever subset a later request names.
func (u *MintUsecase) Create(ctx context.Context, walletAddress string, input *entities.CreateMintInput) (*entities.MintResponse, error) {
	owner, err := ensureSameWallet(walletAddress, input.UserAddress)
	if err != nil {
		return nil, err
	}
	title, err := ensureTitle(input.Title, "")
	if err != nil {
		return nil, err
	}

	unlock := u.locks.Lock(conversationLockPrefix + input.ConversationID)
	defer unlock()

	conv, err := u.conversations.Get(ctx, input.ConversationID, owner)
	if err != nil {
		return nil, err
	}

	existing, err := u.FindByConversation(ctx, conv.ID, owner)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 || conv.HasMintedMessages() {
		return nil, domainerrors.ErrAlreadyMinted
	}

	messageIDs, err := selectMessages(conv, input.MessageIDs)
	if err != nil {
		return nil, err
	}

	if title == "" {
		title = conv.Title
	}
	metadataCID, err := u.pinMetadata(ctx, conv, owner, title, input.Description, messageIDs)
	if err != nil {
		return nil, err
	}

	receipt, err := u.minter.ListData(ctx, metadataCID, input.Price)
	if err != nil {
		metrics.ObserveMint("failed")
		logger.Error(ctx, "Minting failed",
			zap.String("conversation_id", conv.ID),
			zap.String("metadata_cid", metadataCID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", domainerrors.ErrMintFailed, err)
	}

	record := &entities.MintRecord{
		ID:             utils.NewID(),
		ConversationID: conv.ID,
		MessageIDs:     messageIDs,
		WalletAddress:  owner,
		IPFSHash:       metadataCID,
		MetadataURL:    ipfsURL(metadataCID),
		GatewayURL:     gatewayURL(u.gateway, metadataCID),
		TxHash:         null.NewString(receipt.TxHash, receipt.TxHash != ""),
		TokenID:        null.Int64FromPtr(receipt.TokenID),
		ListingID:      null.Int64FromPtr(receipt.ListingID),
		Network:        receipt.Network,
		Price:          input.Price,
		IsListed:       receipt.ListingID != nil,
		MintedAt:       u.now().UTC(),
	}
	if err := u.persist(ctx, record); err != nil {
		metrics.ObserveMint("error")
		return nil, err
	}

	if _, err := u.conversations.SetMintedFlags(ctx, conv.ID, owner, messageIDs); err != nil {
		// the record is pinned and blocks re-minting, so the flags are retried by the next write
		logger.Error(ctx, "Failed to flag minted messages",
			zap.String("conversation_id", conv.ID),
			zap.String("mint_id", record.ID),
			zap.Error(err),
		)
	}

	metrics.ObserveMint("success")
	logger.Info(ctx, "Conversation minted",
		zap.String("conversation_id", conv.ID),
		zap.String("mint_id", record.ID),
		zap.Int("messages", len(messageIDs)),
		zap.String("tx_hash", receipt.TxHash),
	)

	return &entities.MintResponse{
		MintID:         record.ID,
		ConversationID: conv.ID,
		MessageIDs:     append([]string(nil), messageIDs...),
		MetadataURL:    record.MetadataURL,
		IPFSHash:       metadataCID,
		GatewayURL:     record.GatewayURL,
		TokenID:        receipt.TokenID,
		TxHash:         receipt.TxHash,
		ListingID:      receipt.ListingID,
		Message:        receipt.Message,
	}, nil
}

// selectMessages resolves the minted subset. No ids means every unminted message;
// explicit ids must all exist and are pruned of already minted ones.
func selectMessages(conv *entities.Conversation, requested []string) ([]string, error) {
	if len(requested) == 0 {
		ids := conv.UnmintedMessageIDs()
		if len(ids) == 0 {
			return nil, domainerrors.ErrNothingToMint
		}
		return ids, nil
	}

	seen := make(map[string]bool, len(requested))
	ids := make([]string, 0, len(requested))
	for _, id := range requested {
		idx := conv.MessageIndex(id)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", domainerrors.ErrUnknownMessageID, id)
		}
		if seen[id] || conv.Messages[idx].IsMinted {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, domainerrors.ErrNothingToMint
	}
	return ids, nil
}

func (u *MintUsecase) pinMetadata(ctx context.Context, conv *entities.Conversation, owner, title, description string, messageIDs []string) (string, error) {
	if description == "" {
		description = "Tokenized conversation by " + owner
	}

	selected := make([]entities.MetadataMessage, 0, len(messageIDs))
	for _, id := range messageIDs {
		m := conv.Messages[conv.MessageIndex(id)]
		selected = append(selected, entities.MetadataMessage{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.Timestamp,
		})
	}

	meta := &entities.MintMetadata{
		Name:           title,
		Description:    description,
		Owner:          owner,
		ConversationID: conv.ID,
		MessageIDs:     messageIDs,
		Conversation:   selected,
		CreatedAt:      u.now().UTC(),
	}
	blob, err := meta.Marshal()
	if err != nil {
		return "", fmt.Errorf("failed to encode mint metadata: %w", err)
	}
	cid, err := u.backend.Store(ctx, blob)
	if err != nil {
		return "", fmt.Errorf("failed to store mint metadata: %w", err)
	}

	tags := entities.NewSnapshotTags(u.appID, entities.SnapshotTypeNFTMetadata, owner).
		With(entities.TagConversationID, conv.ID)
	if err := u.backend.Pin(ctx, cid, tags); err != nil {
		return "", fmt.Errorf("failed to pin mint metadata: %w", err)
	}
	return cid, nil
}

// UpdateListing toggles the marketplace listing of a mint. Message flags are untouched.
func (u *MintUsecase) UpdateListing(ctx context.Context, mintID, walletAddress string, input *entities.UpdateListingInput) (*entities.MintRecord, error) {
	unlock := u.locks.Lock(mintLockPrefix + mintID)
	defer unlock()

	record, err := u.Get(ctx, mintID, walletAddress)
	if err != nil {
		return nil, err
	}

	record.IsListed = input.IsListed
	record.Price = input.Price
	if input.ListingID != nil {
		record.ListingID = null.Int64FromPtr(input.ListingID)
	}
	if err := u.persist(ctx, record); err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// Get returns a mint record owned by walletAddress.
func (u *MintUsecase) Get(ctx context.Context, mintID, walletAddress string) (*entities.MintRecord, error) {
	if mintID == "" {
		return nil, domainerrors.ErrMintNotFound
	}

	record, ok := u.cache.Get(mintID)
	if ok {
		record = record.Clone()
	} else {
		pins := queryPins(ctx, u.backend, entities.SnapshotTags{
			entities.TagType:   string(entities.SnapshotTypeMintRecord),
			entities.TagMintID: mintID,
		})
		var cid string
		record, cid, ok = resolveSnapshot(ctx, u.backend, pins, entities.ParseMintRecordSnapshot)
		if !ok || record.ID != mintID {
			return nil, domainerrors.ErrMintNotFound
		}
		record.SnapshotCID = cid
		u.cache.Add(mintID, record.Clone())
	}

	if !wallet.SameAddress(record.WalletAddress, walletAddress) {
		return nil, domainerrors.ErrMintNotFound
	}
	return record, nil
}

// ListForWallet returns the latest state of every mint of walletAddress, newest first.
func (u *MintUsecase) ListForWallet(ctx context.Context, walletAddress string) ([]*entities.MintRecord, error) {
	owner, err := wallet.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	return u.collect(ctx, entities.TagFilter(entities.SnapshotTypeMintRecord, owner), owner, ""), nil
}

// FindByConversation returns the mints of one conversation owned by walletAddress.
func (u *MintUsecase) FindByConversation(ctx context.Context, conversationID, walletAddress string) ([]*entities.MintRecord, error) {
	owner, err := wallet.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	filter := entities.TagFilter(entities.SnapshotTypeMintRecord, owner).
		With(entities.TagConversationID, conversationID)
	return u.collect(ctx, filter, owner, conversationID), nil
}

// collect applies latest-wins per mint id and merges cached records that the index
// may not show yet.
func (u *MintUsecase) collect(ctx context.Context, filter entities.SnapshotTags, owner, conversationID string) []*entities.MintRecord {
	pins := queryPins(ctx, u.backend, filter)
	latest := storage.LatestByTag(pins, entities.TagMintID)

	uncached := make([]entities.PinRef, 0, len(latest))
	for id, pin := range latest {
		if !u.cache.Contains(id) {
			uncached = append(uncached, pin)
		}
	}

	matches := func(r *entities.MintRecord) bool {
		return wallet.SameAddress(r.WalletAddress, owner) &&
			(conversationID == "" || r.ConversationID == conversationID)
	}

	byID := make(map[string]*entities.MintRecord)
	for id, record := range fetchLatestPerTag(ctx, u.backend, uncached, entities.TagMintID, entities.ParseMintRecordSnapshot) {
		if record.ID != id || !matches(record) {
			continue
		}
		record.SnapshotCID = latest[id].CID
		u.cache.Add(id, record.Clone())
		byID[id] = record
	}
	for _, cached := range u.cache.Values() {
		if matches(cached) {
			byID[cached.ID] = cached.Clone()
		}
	}

	out := make([]*entities.MintRecord, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MintedAt.Equal(out[j].MintedAt) {
			return out[i].MintedAt.After(out[j].MintedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (u *MintUsecase) persist(ctx context.Context, record *entities.MintRecord) error {
	blob, err := record.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("failed to encode mint record: %w", err)
	}
	cid, err := u.backend.Store(ctx, blob)
	if err != nil {
		return fmt.Errorf("failed to store mint record: %w", err)
	}

	tags := entities.NewSnapshotTags(u.appID, entities.SnapshotTypeMintRecord, record.WalletAddress).
		With(entities.TagMintID, record.ID).
		With(entities.TagConversationID, record.ConversationID)
	if err := u.backend.Pin(ctx, cid, tags); err != nil {
		return fmt.Errorf("failed to pin mint record: %w", err)
	}

	record.SnapshotCID = cid
	u.cache.Add(record.ID, record.Clone())
	return nil
}
