package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/infrastructure/llm"
	"chat-ledger.backend/internal/infrastructure/storage"
	"chat-ledger.backend/internal/usecases"
)

func TestChatUsecase_NewConversationWithMockModel(t *testing.T) {
	conversations := newConversationUsecase(storage.NewMemoryBackend(nil))
	uc := usecases.NewChatUsecase(conversations, llm.NewMockModel("", "gpt-4o-mini"), 0)
	w := newTestWallet(t)
	ctx := context.Background()

	resp, err := uc.Chat(ctx, w.address, &entities.ChatRequest{Message: "  What is IPFS?  "})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", resp.Response)
	assert.Equal(t, llm.ProviderMock, resp.Provider)
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.NotEmpty(t, resp.IPFSHash)

	conv, err := conversations.Get(ctx, resp.ConversationID, w.address)
	require.NoError(t, err)
	assert.Equal(t, "What is IPFS?", conv.Title)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, resp.UserMessageID, conv.Messages[0].ID)
	assert.Equal(t, "What is IPFS?", conv.Messages[0].Content)
	assert.Equal(t, resp.AssistantMessageID, conv.Messages[1].ID)
	assert.Equal(t, entities.RoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, conv.SnapshotCID, resp.IPFSHash)
}

func TestChatUsecase_TrimsHistory(t *testing.T) {
	conversations := newConversationUsecase(storage.NewMemoryBackend(nil))
	model := new(MockChatModel)
	uc := usecases.NewChatUsecase(conversations, model, 3)
	w := newTestWallet(t)
	ctx := context.Background()

	conv, err := conversations.Create(ctx, w.address, "")
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		_, err := conversations.AddMessage(ctx, conv.ID, w.address, entities.RoleUser, fmt.Sprintf("m%d", i))
		require.NoError(t, err)
	}

	model.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []entities.CompletionMessage) bool {
		return len(msgs) == 3 && msgs[0].Content == "m2" && msgs[2].Content == "latest"
	}), entities.CompletionOptions{Model: "gpt-x", Temperature: 0.2, MaxTokens: 128}).
		Return(&entities.Completion{Content: "ok", Model: "gpt-x", Provider: "openai", TokensUsed: 7, Latency: 15 * time.Millisecond}, nil).Once()

	resp, err := uc.Chat(ctx, w.address, &entities.ChatRequest{
		ConversationID: conv.ID,
		Message:        "latest",
		Model:          "gpt-x",
		Temperature:    0.2,
		MaxTokens:      128,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15), resp.LatencyMS)
	assert.Equal(t, 7, resp.TokensUsed)
	assert.Equal(t, conv.ID, resp.ConversationID)
	model.AssertExpectations(t)
}

func TestChatUsecase_Errors(t *testing.T) {
	conversations := newConversationUsecase(storage.NewMemoryBackend(nil))
	model := new(MockChatModel)
	uc := usecases.NewChatUsecase(conversations, model, 0)
	w := newTestWallet(t)
	ctx := context.Background()

	_, err := uc.Chat(ctx, w.address, &entities.ChatRequest{Message: " "})
	assert.ErrorIs(t, err, domainerrors.ErrEmptyMessage)

	_, err = uc.Chat(ctx, w.address, &entities.ChatRequest{Message: "hi", WalletAddress: newTestWallet(t).address})
	assert.ErrorIs(t, err, domainerrors.ErrWalletMismatch)

	_, err = uc.Chat(ctx, w.address, &entities.ChatRequest{Message: "hi", ConversationID: "missing"})
	assert.ErrorIs(t, err, domainerrors.ErrConversationNotFound)

	model.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("provider down")).Once()
	_, err = uc.Chat(ctx, w.address, &entities.ChatRequest{Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat completion failed")
}
