package blockchain

import (
	"context"

	"go.uber.org/zap"

	"chat-ledger.backend/internal/config"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/pkg/logger"
)

// NewMinter returns the marketplace client when the chain is configured and mocks are
// off, and the mock minter otherwise.
func NewMinter(ctx context.Context, cfg config.BlockchainConfig, useMocks bool, factory *ClientFactory) repositories.Minter {
	if useMocks {
		return NewMockMinter(cfg.Network)
	}
	if cfg.RPCURL == "" || cfg.ContractAddress == "" || cfg.OwnerPrivateKey == "" {
		logger.Warn(ctx, "blockchain not configured, using mock minter",
			zap.Bool("rpc_url_set", cfg.RPCURL != ""),
			zap.Bool("contract_set", cfg.ContractAddress != ""),
			zap.Bool("owner_key_set", cfg.OwnerPrivateKey != ""),
		)
		return NewMockMinter(cfg.Network)
	}

	client, err := factory.GetEVMClient(cfg.RPCURL)
	if err != nil {
		logger.Warn(ctx, "blockchain node unreachable, using mock minter", zap.Error(err))
		return NewMockMinter(cfg.Network)
	}
	if cfg.ChainID != 0 && client.ChainID() != nil && client.ChainID().Int64() != cfg.ChainID {
		logger.Warn(ctx, "rpc chain id differs from configured chain id",
			zap.Int64("configured", cfg.ChainID),
			zap.String("rpc", client.ChainID().String()),
		)
	}

	m, err := NewMarketplaceClient(client, cfg.ContractAddress, cfg.OwnerPrivateKey, cfg.Network, cfg.ReceiptTimeout)
	if err != nil {
		logger.Warn(ctx, "invalid marketplace configuration, using mock minter", zap.Error(err))
		return NewMockMinter(cfg.Network)
	}
	logger.Info(ctx, "marketplace minter ready",
		zap.String("network", cfg.Network),
		zap.String("contract", cfg.ContractAddress),
		zap.String("sender", m.Sender().Hex()),
	)
	return m
}
