package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/interfaces/http/response"
	"chat-ledger.backend/pkg/utils"
)

// PinHandler handles pin administration
type PinHandler struct {
	pinService PinService
}

// NewPinHandler creates a new pin handler
func NewPinHandler(pinService PinService) *PinHandler {
	return &PinHandler{pinService: pinService}
}

// ListPins lists the wallet's pinned snapshots
// GET /api/v1/pins?page=1&limit=20
func (h *PinHandler) ListPins(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	var query utils.PaginationParams
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, domainerrors.BadRequest(err.Error()))
		return
	}
	page := utils.GetPaginationParams(query.Page, query.Limit)

	pins, meta, err := h.pinService.List(c.Request.Context(), walletAddress, page)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"items": pins,
		"meta":  meta,
	})
}

// Unpin releases a pinned snapshot
// DELETE /api/v1/pins/:cid
func (h *PinHandler) Unpin(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	result, err := h.pinService.Unpin(c.Request.Context(), walletAddress, c.Param("cid"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}
