package entities

import (
	"strings"
	"time"
)

// SnapshotType is the entity kind a snapshot holds
type SnapshotType string

const (
	SnapshotTypeConversation SnapshotType = "conversation"
	SnapshotTypeMintRecord   SnapshotType = "mint_record"
	SnapshotTypeNFTMetadata  SnapshotType = "nft_metadata"
)

// Tag keys attached to every pinned snapshot
const (
	TagWalletAddress  = "wallet_address"
	TagType           = "type"
	TagApp            = "app"
	TagConversationID = "conversation_id"
	TagMintID         = "mint_id"
	TagTimestamp      = "timestamp"
)

// SnapshotTags is the queryable metadata of a pin. Values are compared by exact match.
type SnapshotTags map[string]string

// NewSnapshotTags builds the base tag set for a snapshot owned by wallet.
func NewSnapshotTags(app string, typ SnapshotType, wallet string) SnapshotTags {
	tags := SnapshotTags{
		TagType:          string(typ),
		TagWalletAddress: strings.ToLower(wallet),
		TagTimestamp:     time.Now().UTC().Format(time.RFC3339Nano),
	}
	if app != "" {
		tags[TagApp] = app
	}
	return tags
}

// TagFilter builds an exact-match filter. Empty values are skipped.
func TagFilter(typ SnapshotType, wallet string) SnapshotTags {
	filter := SnapshotTags{TagType: string(typ)}
	if wallet != "" {
		filter[TagWalletAddress] = strings.ToLower(wallet)
	}
	return filter
}

// Clone returns a copy of t.
func (t SnapshotTags) Clone() SnapshotTags {
	out := make(SnapshotTags, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	return out
}

// With returns a copy of t with key set to value.
func (t SnapshotTags) With(key, value string) SnapshotTags {
	out := t.Clone()
	out[key] = value
	return out
}

// Matches reports whether every key of filter is present in t with the same value.
func (t SnapshotTags) Matches(filter SnapshotTags) bool {
	for k, v := range filter {
		if t[k] != v {
			return false
		}
	}
	return true
}

// Time parses the timestamp tag, returning the zero time when absent.
func (t SnapshotTags) Time() time.Time {
	ts, err := time.Parse(time.RFC3339Nano, t[TagTimestamp])
	if err != nil {
		return time.Time{}
	}
	return ts
}

// PinRef is one query hit: a pinned content address and when it was pinned.
type PinRef struct {
	CID      string       `json:"cid"`
	PinnedAt time.Time    `json:"pinned_at"`
	Tags     SnapshotTags `json:"tags,omitempty"`
}

// PinEntry is the bookkeeping needed to unpin a snapshot later.
type PinEntry struct {
	CID           string       `json:"cid"`
	Backend       string       `json:"backend"`
	PinID         string       `json:"pin_id,omitempty"`
	WalletAddress string       `json:"wallet_address"`
	Tags          SnapshotTags `json:"tags,omitempty"`
	PinnedAt      time.Time    `json:"pinned_at"`
}

// UnpinResult reports a best-effort unpin
type UnpinResult struct {
	CID      string `json:"ipfs_hash"`
	Unpinned bool   `json:"unpinned"`
	Backend  string `json:"service"`
	Message  string `json:"message"`
}
