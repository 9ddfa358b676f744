package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/internal/interfaces/http/middleware"
	"chat-ledger.backend/internal/interfaces/http/response"
)

// AuthHandler handles wallet authentication endpoints
type AuthHandler struct {
	authService WalletAuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService WalletAuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// GetNonce issues a sign-in challenge
// GET /api/v1/auth/nonce/:address
func (h *AuthHandler) GetNonce(c *gin.Context) {
	challenge, err := h.authService.IssueNonce(c.Request.Context(), c.Param("address"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, challenge)
}

// Verify exchanges a signed challenge for a session token
// POST /api/v1/auth/verify
func (h *AuthHandler) Verify(c *gin.Context) {
	var input entities.WalletAuthInput
	if !bindJSON(c, &input) {
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, authResponse)
}

// GetMe returns the session of the current wallet
// GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	info := entities.SessionInfo{WalletAddress: walletAddress}
	if v, exists := c.Get(middleware.SessionExpiryKey); exists {
		if expiresAt, ok := v.(time.Time); ok {
			info.ExpiresAt = expiresAt
		}
	}
	response.Success(c, http.StatusOK, info)
}
