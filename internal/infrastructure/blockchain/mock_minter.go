package blockchain

import (
	"context"
	"strings"
	"sync/atomic"

	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/internal/domain/repositories"
)

// MockTxHash is the transaction hash reported by the mock minter
var MockTxHash = "0x" + strings.Repeat("a", 64)

// MockMinter hands out sequential token ids without touching a chain
type MockMinter struct {
	network string
	last    atomic.Int64
}

func NewMockMinter(network string) *MockMinter {
	return &MockMinter{network: network}
}

func (m *MockMinter) ListData(_ context.Context, _ string, _ float64) (*entities.ChainReceipt, error) {
	id := m.last.Add(1)
	return &entities.ChainReceipt{
		TxHash:  MockTxHash,
		TokenID: &id,
		Network: m.network,
		Message: "NFT minted successfully (pseudo mode)",
	}, nil
}

var _ repositories.Minter = (*MockMinter)(nil)
