package entities

import "time"

// ChatRequest is a single chat turn from a wallet
type ChatRequest struct {
	ConversationID string  `json:"conversation_id"`
	Message        string  `json:"message" binding:"required"`
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature" binding:"gte=0,lte=1"`
	MaxTokens      int     `json:"max_tokens" binding:"omitempty,gte=64,lte=4096"`
	WalletAddress  string  `json:"wallet_address"`
}

// ChatResponse is the assistant reply plus persistence references
type ChatResponse struct {
	Response           string  `json:"response"`
	Model              string  `json:"model"`
	Provider           string  `json:"provider"`
	TokensUsed         int     `json:"tokens_used"`
	LatencyMS          int64   `json:"latency_ms"`
	ConversationID     string  `json:"conversation_id"`
	UserMessageID      string  `json:"user_message_id"`
	AssistantMessageID string  `json:"assistant_message_id"`
	IPFSHash           string  `json:"ipfs_hash"`
	Cost               float64 `json:"cost"`
}

// CompletionMessage is one entry of the prompt sent to a chat model
type CompletionMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// CompletionOptions tunes a single completion
type CompletionOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Completion is a chat model reply
type Completion struct {
	Content    string
	Model      string
	Provider   string
	TokensUsed int
	Latency    time.Duration
}
