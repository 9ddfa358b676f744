package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/pkg/logger"
)

const DefaultMaxHistory = 30

// ChatUsecase runs one chat turn: persist the user message, ask the model, persist the reply
type ChatUsecase struct {
	conversations *ConversationUsecase
	model         repositories.ChatModel
	maxHistory    int
	now           func() time.Time
}

// NewChatUsecase creates a new chat usecase
func NewChatUsecase(conversations *ConversationUsecase, model repositories.ChatModel, maxHistory int) *ChatUsecase {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &ChatUsecase{
		conversations: conversations,
		model:         model,
		maxHistory:    maxHistory,
		now:           time.Now,
	}
}

// Chat appends req.Message to its conversation, creating one titled after the
// message when no id is given, and returns the model reply.
func (u *ChatUsecase) Chat(ctx context.Context, walletAddress string, req *entities.ChatRequest) (*entities.ChatResponse, error) {
	owner, err := ensureSameWallet(walletAddress, req.WalletAddress)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Message)
	if content == "" {
		return nil, domainerrors.ErrEmptyMessage
	}

	convID := req.ConversationID
	if convID == "" {
		conv, err := u.conversations.Create(ctx, owner, titleFromMessage(content))
		if err != nil {
			return nil, err
		}
		convID = conv.ID
	}

	userMsg, err := u.conversations.AddMessage(ctx, convID, owner, entities.RoleUser, content)
	if err != nil {
		return nil, err
	}

	conv, err := u.conversations.Get(ctx, convID, owner)
	if err != nil {
		return nil, err
	}

	started := u.now()
	completion, err := u.model.Complete(ctx, trimHistory(conv.Messages, u.maxHistory), entities.CompletionOptions{
		Model:       req.Model,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		logger.Error(ctx, "Chat model failed", zap.String("conversation_id", convID), zap.Error(err))
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	latency := completion.Latency
	if latency == 0 {
		latency = u.now().Sub(started)
	}

	reply, err := u.conversations.AddMessage(ctx, convID, owner, entities.RoleAssistant, completion.Content)
	if err != nil {
		return nil, err
	}

	conv, err = u.conversations.Get(ctx, convID, owner)
	if err != nil {
		return nil, err
	}

	return &entities.ChatResponse{
		Response:           completion.Content,
		Model:              completion.Model,
		Provider:           completion.Provider,
		TokensUsed:         completion.TokensUsed,
		LatencyMS:          latency.Milliseconds(),
		ConversationID:     convID,
		UserMessageID:      userMsg.ID,
		AssistantMessageID: reply.ID,
		IPFSHash:           conv.SnapshotCID,
	}, nil
}

// trimHistory keeps the newest max messages as model input.
func trimHistory(messages []entities.ChatMessage, max int) []entities.CompletionMessage {
	if len(messages) > max {
		messages = messages[len(messages)-max:]
	}
	out := make([]entities.CompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, entities.CompletionMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
