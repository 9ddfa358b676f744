package llm

import (
	"context"
	"strings"
	"time"

	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/internal/domain/repositories"
)

const (
	ProviderMock   = "mock"
	ProviderOpenAI = "openai"

	defaultMockReply = "Hello world"
)

// MockModel answers every prompt with a fixed reply
type MockModel struct {
	reply        string
	defaultModel string
}

func NewMockModel(reply, defaultModel string) *MockModel {
	if reply == "" {
		reply = defaultMockReply
	}
	return &MockModel{reply: reply, defaultModel: defaultModel}
}

func (m *MockModel) Complete(_ context.Context, _ []entities.CompletionMessage, opts entities.CompletionOptions) (*entities.Completion, error) {
	start := time.Now()
	model := opts.Model
	if model == "" {
		model = m.defaultModel
	}
	return &entities.Completion{
		Content:    m.reply,
		Model:      model,
		Provider:   ProviderMock,
		TokensUsed: len(strings.Fields(m.reply)),
		Latency:    time.Since(start),
	}, nil
}

var _ repositories.ChatModel = (*MockModel)(nil)
