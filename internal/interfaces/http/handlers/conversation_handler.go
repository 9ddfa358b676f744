package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/interfaces/http/response"
	"chat-ledger.backend/pkg/wallet"
)

// ConversationHandler handles conversation endpoints
type ConversationHandler struct {
	conversations ConversationService
	mints         MintService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(conversations ConversationService, mints MintService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, mints: mints}
}

type conversationResponse struct {
	*entities.Conversation
	IPFSHash string `json:"ipfs_hash,omitempty"`
}

func newConversationResponse(conv *entities.Conversation) conversationResponse {
	return conversationResponse{Conversation: conv, IPFSHash: conv.SnapshotCID}
}

// CreateConversation starts an empty conversation
// POST /api/v1/conversations
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	var input entities.CreateConversationInput
	if c.Request.ContentLength != 0 && !bindJSON(c, &input) {
		return
	}
	if input.WalletAddress != "" && !wallet.SameAddress(input.WalletAddress, walletAddress) {
		response.Error(c, domainerrors.ErrWalletMismatch)
		return
	}

	conv, err := h.conversations.Create(c.Request.Context(), walletAddress, input.Title)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, newConversationResponse(conv))
}

// ListConversations lists the wallet's conversations, most recent first
// GET /api/v1/conversations
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	convs, err := h.conversations.ListForWallet(c.Request.Context(), walletAddress)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]entities.ConversationListItem, 0, len(convs))
	for _, conv := range convs {
		items = append(items, conv.ListItem())
	}
	response.Success(c, http.StatusOK, gin.H{
		"conversations": items,
		"total":         len(items),
	})
}

// GetConversation returns a conversation with all its messages
// GET /api/v1/conversations/:id
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	conv, err := h.conversations.Get(c.Request.Context(), c.Param("id"), walletAddress)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, newConversationResponse(conv))
}

// AddMessage appends a message to a conversation
// POST /api/v1/conversations/:id/messages
func (h *ConversationHandler) AddMessage(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	var input entities.AddMessageInput
	if !bindJSON(c, &input) {
		return
	}

	msg, err := h.conversations.AddMessage(c.Request.Context(), c.Param("id"), walletAddress, input.Role, input.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, msg)
}

// GetHistory lists the snapshots of a conversation, newest first
// GET /api/v1/conversations/:id/history
func (h *ConversationHandler) GetHistory(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	versions, err := h.conversations.History(c.Request.Context(), c.Param("id"), walletAddress)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"conversation_id": c.Param("id"),
		"versions":        versions,
	})
}

// ListConversationMints lists mint records created from a conversation
// GET /api/v1/conversations/:id/mints
func (h *ConversationHandler) ListConversationMints(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if _, err := h.conversations.Get(c.Request.Context(), id, walletAddress); err != nil {
		response.Error(c, err)
		return
	}

	records, err := h.mints.FindByConversation(c.Request.Context(), id, walletAddress)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"mints": records})
}
