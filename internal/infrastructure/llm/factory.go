package llm

import (
	"context"

	"go.uber.org/zap"

	"chat-ledger.backend/internal/config"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/pkg/logger"
)

// NewChatModel picks the provider client, falling back to the mock model when mocks
// are on or the provider is not configured.
func NewChatModel(ctx context.Context, cfg config.LLMConfig, useMocks bool) repositories.ChatModel {
	mock := NewMockModel(cfg.MockReply, cfg.DefaultModel)
	if useMocks || cfg.Provider == ProviderMock || cfg.Provider == "" {
		logger.Info(ctx, "using mock chat model")
		return mock
	}

	client, err := NewOpenAIClient(OpenAIConfig{
		BaseURL:       cfg.BaseURL,
		APIKey:        cfg.APIKey,
		DefaultModel:  cfg.DefaultModel,
		FallbackModel: cfg.FallbackModel,
		Timeout:       cfg.Timeout,
	}, mock)
	if err != nil {
		logger.Warn(ctx, "chat provider not configured, using mock chat model",
			zap.String("provider", cfg.Provider),
			zap.Error(err),
		)
		return mock
	}
	logger.Info(ctx, "chat provider ready", zap.String("provider", cfg.Provider), zap.String("base_url", cfg.BaseURL))
	return client
}
