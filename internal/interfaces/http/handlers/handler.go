package handlers

import (
	"github.com/gin-gonic/gin"

	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/interfaces/http/middleware"
	"chat-ledger.backend/internal/interfaces/http/response"
)

// requireWallet returns the session wallet or writes a 401.
func requireWallet(c *gin.Context) (string, bool) {
	walletAddress, ok := middleware.GetWallet(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Wallet session required"))
		return "", false
	}
	return walletAddress, true
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return false
	}
	return true
}
