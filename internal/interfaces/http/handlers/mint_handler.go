package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/internal/interfaces/http/response"
)

// MintHandler handles mint endpoints
type MintHandler struct {
	mintService MintService
}

// NewMintHandler creates a new mint handler
func NewMintHandler(mintService MintService) *MintHandler {
	return &MintHandler{mintService: mintService}
}

// CreateMint tokenizes the unminted messages of a conversation
// POST /api/v1/mint
func (h *MintHandler) CreateMint(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	var input entities.CreateMintInput
	if !bindJSON(c, &input) {
		return
	}

	resp, err := h.mintService.Create(c.Request.Context(), walletAddress, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

// ListMints lists the wallet's mint records
// GET /api/v1/mint
func (h *MintHandler) ListMints(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	records, err := h.mintService.ListForWallet(c.Request.Context(), walletAddress)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"mints": records,
		"total": len(records),
	})
}

// GetMint returns one mint record
// GET /api/v1/mint/:id
func (h *MintHandler) GetMint(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	record, err := h.mintService.Get(c.Request.Context(), c.Param("id"), walletAddress)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, record)
}

// UpdateListing changes the marketplace listing of a mint
// PATCH /api/v1/mint/:id/listing
func (h *MintHandler) UpdateListing(c *gin.Context) {
	walletAddress, ok := requireWallet(c)
	if !ok {
		return
	}

	var input entities.UpdateListingInput
	if !bindJSON(c, &input) {
		return
	}

	record, err := h.mintService.UpdateListing(c.Request.Context(), c.Param("id"), walletAddress, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, record)
}
