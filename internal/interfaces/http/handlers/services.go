package handlers

import (
	"context"

	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/pkg/utils"
)

// WalletAuthService issues challenges and sessions for wallets
type WalletAuthService interface {
	IssueNonce(ctx context.Context, address string) (*entities.NonceChallenge, error)
	Login(ctx context.Context, input *entities.WalletAuthInput) (*entities.WalletAuthResponse, error)
}

// ConversationService manages a wallet's conversations
type ConversationService interface {
	Create(ctx context.Context, walletAddress, title string) (*entities.Conversation, error)
	AddMessage(ctx context.Context, id, walletAddress string, role entities.MessageRole, content string) (*entities.ChatMessage, error)
	Get(ctx context.Context, id, walletAddress string) (*entities.Conversation, error)
	ListForWallet(ctx context.Context, walletAddress string) ([]*entities.Conversation, error)
	History(ctx context.Context, id, walletAddress string) ([]entities.ConversationVersion, error)
}

// ChatService runs a chat turn
type ChatService interface {
	Chat(ctx context.Context, walletAddress string, req *entities.ChatRequest) (*entities.ChatResponse, error)
}

// MintService tokenizes conversations and tracks their listings
type MintService interface {
	Create(ctx context.Context, walletAddress string, input *entities.CreateMintInput) (*entities.MintResponse, error)
	UpdateListing(ctx context.Context, mintID, walletAddress string, input *entities.UpdateListingInput) (*entities.MintRecord, error)
	Get(ctx context.Context, mintID, walletAddress string) (*entities.MintRecord, error)
	ListForWallet(ctx context.Context, walletAddress string) ([]*entities.MintRecord, error)
	FindByConversation(ctx context.Context, conversationID, walletAddress string) ([]*entities.MintRecord, error)
}

// PinService exposes pin bookkeeping
type PinService interface {
	List(ctx context.Context, walletAddress string, page utils.PaginationParams) ([]*entities.PinEntry, utils.PaginationMeta, error)
	Unpin(ctx context.Context, walletAddress, cid string) (*entities.UnpinResult, error)
}
