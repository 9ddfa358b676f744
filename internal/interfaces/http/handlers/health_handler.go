package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chat-ledger.backend/internal/interfaces/http/response"
)

// HealthHandler reports liveness
type HealthHandler struct {
	storage string
	now     func() time.Time
}

// NewHealthHandler creates a health handler reporting the active storage backend
func NewHealthHandler(storage string) *HealthHandler {
	return &HealthHandler{storage: storage, now: time.Now}
}

// Health returns service status
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"status":  "ok",
		"storage": h.storage,
		"time":    h.now().UTC().Format(time.RFC3339),
	})
}
