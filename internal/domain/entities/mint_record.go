package entities

import (
	"encoding/json"
	"time"

	"github.com/volatiletech/null/v8"
)

// MintRecord tokenizes a subset of a conversation's messages. Identity and the
// minted message set never change; only the listing fields toggle.
type MintRecord struct {
	ID             string   `json:"id"`
	ConversationID string   `json:"conversation_id"`
	MessageIDs     []string `json:"message_ids"`
	WalletAddress  string   `json:"wallet_address"`

	IPFSHash    string `json:"ipfs_hash"`
	MetadataURL string `json:"metadata_url"`
	GatewayURL  string `json:"gateway_url"`

	TxHash    null.String `json:"tx_hash"`
	TokenID   null.Int64  `json:"token_id"`
	ListingID null.Int64  `json:"listing_id"`
	Network   string      `json:"network,omitempty"`

	Price    float64   `json:"price"`
	IsListed bool      `json:"is_listed"`
	MintedAt time.Time `json:"minted_at"`

	SnapshotCID string `json:"-"`
}

// Clone returns a deep copy.
func (r *MintRecord) Clone() *MintRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.MessageIDs = append([]string(nil), r.MessageIDs...)
	return &out
}

// MarshalSnapshot serializes the record into its snapshot document.
func (r *MintRecord) MarshalSnapshot() ([]byte, error) {
	doc := *r
	if doc.MessageIDs == nil {
		doc.MessageIDs = []string{}
	}
	return json.Marshal(&doc)
}

// ParseMintRecordSnapshot validates and decodes a mint record snapshot.
func ParseMintRecordSnapshot(blob []byte) (*MintRecord, error) {
	if err := validateDocument(mintRecordSchema, blob); err != nil {
		return nil, err
	}
	var rec MintRecord
	if err := json.Unmarshal(blob, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// MetadataMessage is a message as it appears in token metadata
type MetadataMessage struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// MintMetadata is the document referenced by the on-chain token
type MintMetadata struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Owner          string            `json:"owner"`
	ConversationID string            `json:"conversation_id"`
	MessageIDs     []string          `json:"message_ids"`
	Conversation   []MetadataMessage `json:"conversation"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Marshal serializes the metadata document after validating its shape.
func (m *MintMetadata) Marshal() ([]byte, error) {
	blob, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	if err := validateDocument(mintMetadataSchema, blob); err != nil {
		return nil, err
	}
	return blob, nil
}

// CreateMintInput represents a mint request
type CreateMintInput struct {
	ConversationID string   `json:"conversation_id" binding:"required"`
	MessageIDs     []string `json:"message_ids"`
	Title          string   `json:"conversation_title"`
	Description    string   `json:"description" binding:"max=280"`
	UserAddress    string   `json:"user_address"`
	Price          float64  `json:"price" binding:"gte=0"`
}

// UpdateListingInput toggles the marketplace listing of a mint
type UpdateListingInput struct {
	ListingID *int64  `json:"listing_id"`
	Price     float64 `json:"price" binding:"gte=0"`
	IsListed  bool    `json:"is_listed"`
}

// ChainReceipt is what the minting collaborator reports back
type ChainReceipt struct {
	TxHash      string `json:"tx_hash"`
	TokenID     *int64 `json:"token_id,omitempty"`
	ListingID   *int64 `json:"listing_id,omitempty"`
	Network     string `json:"network"`
	BlockNumber uint64 `json:"block_number,omitempty"`
	Message     string `json:"message,omitempty"`
}

// MintResponse is returned after a successful mint
type MintResponse struct {
	MintID         string   `json:"mint_id"`
	ConversationID string   `json:"conversation_id"`
	MessageIDs     []string `json:"message_ids"`
	MetadataURL    string   `json:"metadataUrl"`
	IPFSHash       string   `json:"ipfs_hash"`
	GatewayURL     string   `json:"gatewayUrl"`
	TokenID        *int64   `json:"token_id,omitempty"`
	TxHash         string   `json:"tx_hash,omitempty"`
	ListingID      *int64   `json:"listing_id,omitempty"`
	Message        string   `json:"message,omitempty"`
}
