package repositories

import (
	"context"

	"chat-ledger.backend/internal/domain/entities"
)

// ChatModel produces the assistant reply for a prompt
type ChatModel interface {
	Complete(ctx context.Context, messages []entities.CompletionMessage, opts entities.CompletionOptions) (*entities.Completion, error)
}
