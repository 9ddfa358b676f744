package entities

import (
	"encoding/json"
	"time"
)

// MessageRole represents the author of a chat message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleSystem    MessageRole = "system"
)

// Valid reports whether r is one of the known roles.
func (r MessageRole) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// ChatMessage is a single message of a conversation
type ChatMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	IsMinted  bool        `json:"is_minted"`
}

// Conversation is the full state of a chat. Every mutation is persisted as a new
// snapshot of the whole value; SnapshotCID points at the latest one.
type Conversation struct {
	ID            string        `json:"id"`
	WalletAddress string        `json:"wallet_address"`
	Title         string        `json:"title"`
	Messages      []ChatMessage `json:"messages"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	SnapshotCID   string        `json:"-"`
}

// Clone returns a deep copy.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = make([]ChatMessage, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}

// MessageIndex returns the position of message id, or -1.
func (c *Conversation) MessageIndex(id string) int {
	for i := range c.Messages {
		if c.Messages[i].ID == id {
			return i
		}
	}
	return -1
}

// UnmintedMessageIDs lists the ids of messages not yet minted, in chat order.
func (c *Conversation) UnmintedMessageIDs() []string {
	ids := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		if !m.IsMinted {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// HasMintedMessages reports whether any message is minted.
func (c *Conversation) HasMintedMessages() bool {
	for _, m := range c.Messages {
		if m.IsMinted {
			return true
		}
	}
	return false
}

// MarshalSnapshot serializes the conversation into its snapshot document.
func (c *Conversation) MarshalSnapshot() ([]byte, error) {
	doc := *c
	if doc.Messages == nil {
		doc.Messages = []ChatMessage{}
	}
	return json.Marshal(&doc)
}

// ParseConversationSnapshot validates and decodes a conversation snapshot.
func ParseConversationSnapshot(blob []byte) (*Conversation, error) {
	if err := validateDocument(conversationSchema, blob); err != nil {
		return nil, err
	}
	var conv Conversation
	if err := json.Unmarshal(blob, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ConversationListItem is the summary returned by list endpoints
type ConversationListItem struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	WalletAddress      string    `json:"wallet_address"`
	MessageCount       int       `json:"message_count"`
	LastMessagePreview string    `json:"last_message_preview,omitempty"`
	HasMintedMessages  bool      `json:"has_minted_messages"`
	SnapshotCID        string    `json:"ipfs_hash,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

const previewLength = 80

// ListItem summarizes the conversation.
func (c *Conversation) ListItem() ConversationListItem {
	item := ConversationListItem{
		ID:                c.ID,
		Title:             c.Title,
		WalletAddress:     c.WalletAddress,
		MessageCount:      len(c.Messages),
		HasMintedMessages: c.HasMintedMessages(),
		SnapshotCID:       c.SnapshotCID,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
	if n := len(c.Messages); n > 0 {
		preview := []rune(c.Messages[n-1].Content)
		if len(preview) > previewLength {
			preview = append(preview[:previewLength], '…')
		}
		item.LastMessagePreview = string(preview)
	}
	return item
}

// CreateConversationInput represents input for creating a conversation
type CreateConversationInput struct {
	Title         string `json:"title"`
	WalletAddress string `json:"wallet_address"`
}

// AddMessageInput represents input for appending a message
type AddMessageInput struct {
	Role    MessageRole `json:"role" binding:"required"`
	Content string      `json:"content" binding:"required"`
}

// ConversationVersion is one historical snapshot of a conversation
type ConversationVersion struct {
	CID        string    `json:"ipfs_hash"`
	PinnedAt   time.Time `json:"pinned_at"`
	GatewayURL string    `json:"gateway_url,omitempty"`
}
