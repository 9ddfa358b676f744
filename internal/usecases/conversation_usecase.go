package usecases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/internal/infrastructure/storage"
	"chat-ledger.backend/pkg/logger"
	"chat-ledger.backend/pkg/utils"
	"chat-ledger.backend/pkg/wallet"
)

const defaultCacheSize = 1024

// ConversationUsecase persists conversations as full-state snapshots and rebuilds
// the current state from the newest pin.
type ConversationUsecase struct {
	backend repositories.SnapshotBackend
	appID   string
	gateway string
	locks   *utils.KeyedMutex
	cache   *lru.Cache[string, *entities.Conversation]
	now     func() time.Time
}

// NewConversationUsecase creates a new conversation usecase
func NewConversationUsecase(backend repositories.SnapshotBackend, appID, gateway string, cacheSize int) *ConversationUsecase {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, _ := lru.New[string, *entities.Conversation](cacheSize)
	return &ConversationUsecase{
		backend: backend,
		appID:   appID,
		gateway: gateway,
		locks:   utils.NewKeyedMutex(),
		cache:   cache,
		now:     time.Now,
	}
}

// Create starts an empty conversation owned by walletAddress.
func (u *ConversationUsecase) Create(ctx context.Context, walletAddress, title string) (*entities.Conversation, error) {
	owner, err := wallet.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, err
	}
	title, err = ensureTitle(title, DefaultConversationTitle)
	if err != nil {
		return nil, err
	}

	now := u.now().UTC()
	conv := &entities.Conversation{
		ID:            utils.NewID(),
		WalletAddress: owner,
		Title:         title,
		Messages:      []entities.ChatMessage{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	unlock := u.locks.Lock(conv.ID)
	defer unlock()

	if err := u.persist(ctx, conv); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Conversation created",
		zap.String("conversation_id", conv.ID),
		zap.String("cid", conv.SnapshotCID),
	)
	return conv.Clone(), nil
}

// AddMessage appends a message and re-persists the whole conversation.
func (u *ConversationUsecase) AddMessage(ctx context.Context, id, walletAddress string, role entities.MessageRole, content string) (*entities.ChatMessage, error) {
	if err := ensureRole(role); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, domainerrors.ErrEmptyMessage
	}

	unlock := u.locks.Lock(id)
	defer unlock()

	conv, err := u.Get(ctx, id, walletAddress)
	if err != nil {
		return nil, err
	}

	now := u.now().UTC()
	msg := entities.ChatMessage{
		ID:        utils.NewID(),
		Role:      role,
		Content:   content,
		Timestamp: now,
	}
	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = now

	if err := u.persist(ctx, conv); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Get returns the current state of a conversation owned by walletAddress. Conversations
// of other wallets are reported as not found.
func (u *ConversationUsecase) Get(ctx context.Context, id, walletAddress string) (*entities.Conversation, error) {
	conv, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !wallet.SameAddress(conv.WalletAddress, walletAddress) {
		return nil, domainerrors.ErrConversationNotFound
	}
	return conv, nil
}

// ListForWallet returns the latest state of every conversation of walletAddress,
// most recently updated first. Superseded snapshots are never pruned, so the cost
// grows with the wallet's whole snapshot history.
func (u *ConversationUsecase) ListForWallet(ctx context.Context, walletAddress string) ([]*entities.Conversation, error) {
	owner, err := wallet.NormalizeAddress(walletAddress)
	if err != nil {
		return nil, err
	}

	pins := queryPins(ctx, u.backend, entities.TagFilter(entities.SnapshotTypeConversation, owner))
	uncached := make([]entities.PinRef, 0, len(pins))
	for _, pin := range pins {
		if !u.cache.Contains(pin.Tags[entities.TagConversationID]) {
			uncached = append(uncached, pin)
		}
	}

	fetched := fetchLatestPerTag(ctx, u.backend, uncached, entities.TagConversationID, entities.ParseConversationSnapshot)
	latest := storage.LatestByTag(uncached, entities.TagConversationID)

	byID := make(map[string]*entities.Conversation, len(fetched))
	for id, conv := range fetched {
		if conv.ID != id || !wallet.SameAddress(conv.WalletAddress, owner) {
			continue
		}
		conv.SnapshotCID = latest[id].CID
		u.cache.Add(id, conv.Clone())
		byID[id] = conv
	}

	// cached state is at least as new as anything this process pinned
	for _, cached := range u.cache.Values() {
		if wallet.SameAddress(cached.WalletAddress, owner) {
			byID[cached.ID] = cached.Clone()
		}
	}

	out := make([]*entities.Conversation, 0, len(byID))
	for _, conv := range byID {
		out = append(out, conv)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// SetMintedFlags marks messageIDs as minted. Flags are only ever set, never cleared.
func (u *ConversationUsecase) SetMintedFlags(ctx context.Context, id, walletAddress string, messageIDs []string) (*entities.Conversation, error) {
	unlock := u.locks.Lock(id)
	defer unlock()

	conv, err := u.Get(ctx, id, walletAddress)
	if err != nil {
		return nil, err
	}

	want := make(map[string]struct{}, len(messageIDs))
	for _, mid := range messageIDs {
		want[mid] = struct{}{}
	}

	changed := false
	for i := range conv.Messages {
		if _, ok := want[conv.Messages[i].ID]; ok && !conv.Messages[i].IsMinted {
			conv.Messages[i].IsMinted = true
			changed = true
		}
	}
	if !changed {
		return conv, nil
	}

	conv.UpdatedAt = u.now().UTC()
	if err := u.persist(ctx, conv); err != nil {
		return nil, err
	}
	return conv.Clone(), nil
}

// History lists every pinned version of a conversation, newest first.
func (u *ConversationUsecase) History(ctx context.Context, id, walletAddress string) ([]entities.ConversationVersion, error) {
	conv, err := u.Get(ctx, id, walletAddress)
	if err != nil {
		return nil, err
	}

	pins := queryPins(ctx, u.backend, conversationFilter(id))
	storage.SortNewestFirst(pins)

	versions := make([]entities.ConversationVersion, 0, len(pins)+1)
	seen := make(map[string]bool, len(pins))
	for _, pin := range pins {
		if seen[pin.CID] || !wallet.SameAddress(pin.Tags[entities.TagWalletAddress], conv.WalletAddress) {
			continue
		}
		seen[pin.CID] = true
		versions = append(versions, entities.ConversationVersion{
			CID:        pin.CID,
			PinnedAt:   pin.PinnedAt,
			GatewayURL: gatewayURL(u.gateway, pin.CID),
		})
	}

	// the latest write may not be visible in the index yet
	if conv.SnapshotCID != "" && !seen[conv.SnapshotCID] {
		versions = append([]entities.ConversationVersion{{
			CID:        conv.SnapshotCID,
			PinnedAt:   conv.UpdatedAt,
			GatewayURL: gatewayURL(u.gateway, conv.SnapshotCID),
		}}, versions...)
	}
	return versions, nil
}

func conversationFilter(id string) entities.SnapshotTags {
	return entities.SnapshotTags{
		entities.TagType:           string(entities.SnapshotTypeConversation),
		entities.TagConversationID: id,
	}
}

// load returns a private copy of the conversation, cache first.
func (u *ConversationUsecase) load(ctx context.Context, id string) (*entities.Conversation, error) {
	if id == "" {
		return nil, domainerrors.ErrConversationNotFound
	}
	if cached, ok := u.cache.Get(id); ok {
		return cached.Clone(), nil
	}

	pins := queryPins(ctx, u.backend, conversationFilter(id))
	conv, cid, ok := resolveSnapshot(ctx, u.backend, pins, entities.ParseConversationSnapshot)
	if !ok || conv.ID != id {
		return nil, domainerrors.ErrConversationNotFound
	}
	conv.SnapshotCID = cid
	u.cache.Add(id, conv.Clone())
	return conv, nil
}

// persist stores and pins the full state, then refreshes the cache. Callers hold the id lock.
func (u *ConversationUsecase) persist(ctx context.Context, conv *entities.Conversation) error {
	blob, err := conv.MarshalSnapshot()
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}
	cid, err := u.backend.Store(ctx, blob)
	if err != nil {
		return fmt.Errorf("failed to store conversation snapshot: %w", err)
	}

	tags := entities.NewSnapshotTags(u.appID, entities.SnapshotTypeConversation, conv.WalletAddress).
		With(entities.TagConversationID, conv.ID)
	if err := u.backend.Pin(ctx, cid, tags); err != nil {
		return fmt.Errorf("failed to pin conversation snapshot: %w", err)
	}

	conv.SnapshotCID = cid
	u.cache.Add(conv.ID, conv.Clone())
	return nil
}

// IsNotFound reports whether err means the conversation is absent or not visible to the caller.
func IsNotFound(err error) bool {
	return errors.Is(err, domainerrors.ErrConversationNotFound) || errors.Is(err, domainerrors.ErrMintNotFound)
}
