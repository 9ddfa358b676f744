package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/internal/interfaces/http/response"
)

// ChatHandler handles chat turns
type ChatHandler struct {
	chatService ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat sends a message and returns the assistant reply
// POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	var req entities.ChatRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.chatService.Chat(c.Request.Context(), walletAddress, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}
