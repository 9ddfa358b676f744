package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/interfaces/http/response"
	"chat-ledger.backend/pkg/logger"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// WalletKey is the context key for the authenticated wallet
	WalletKey = "walletAddress"
	// SessionExpiryKey is the context key for the token expiry
	SessionExpiryKey = "sessionExpiresAt"
)

// SessionValidator resolves a bearer token to its wallet session
type SessionValidator interface {
	Session(token string) (*entities.SessionInfo, error)
}

// WalletAuthMiddleware requires a valid wallet session token
func WalletAuthMiddleware(sessions SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			response.Abort(c, domainerrors.Unauthorized("Authorization header is required"))
			return
		}
		if len(authHeader) < len(BearerPrefix) || !strings.EqualFold(authHeader[:len(BearerPrefix)], BearerPrefix) {
			response.Abort(c, domainerrors.Unauthorized("Invalid authorization format. Use: Bearer <token>"))
			return
		}

		session, err := sessions.Session(strings.TrimSpace(authHeader[len(BearerPrefix):]))
		if err != nil {
			logger.Debug(c.Request.Context(), "Session rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			response.Abort(c, err)
			return
		}

		c.Set(WalletKey, session.WalletAddress)
		c.Set(SessionExpiryKey, session.ExpiresAt)
		c.Request = c.Request.WithContext(logger.WithWallet(c.Request.Context(), session.WalletAddress))
		c.Next()
	}
}

// GetWallet gets the authenticated wallet from context
func GetWallet(c *gin.Context) (string, bool) {
	v, exists := c.Get(WalletKey)
	if !exists {
		return "", false
	}
	wallet, ok := v.(string)
	return wallet, ok && wallet != ""
}
