package repositories

import (
	"context"

	"chat-ledger.backend/internal/domain/entities"
)

// Minter lists a metadata document on the marketplace contract
type Minter interface {
	// ListData records dataHash for sale at price (in native token units).
	ListData(ctx context.Context, dataHash string, price float64) (*entities.ChainReceipt, error)
}
