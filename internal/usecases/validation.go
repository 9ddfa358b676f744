package usecases

import (
	"strings"
	"unicode/utf8"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/pkg/wallet"
)

const (
	DefaultConversationTitle = "New Conversation"
	MaxTitleLength           = 120
	chatTitleLength          = 50
)

// ensureTitle trims title, substitutes fallback when blank and enforces MaxTitleLength.
func ensureTitle(title, fallback string) (string, error) {
	cleaned := strings.TrimSpace(title)
	if cleaned == "" {
		cleaned = fallback
	}
	if utf8.RuneCountInString(cleaned) > MaxTitleLength {
		return "", domainerrors.ErrTitleTooLong
	}
	return cleaned, nil
}

// ensureSameWallet rejects a body-claimed wallet that differs from the authenticated one.
// An empty claim is accepted.
func ensureSameWallet(authenticated, claimed string) (string, error) {
	normalized, err := wallet.NormalizeAddress(authenticated)
	if err != nil {
		return "", err
	}
	if claimed != "" && !wallet.SameAddress(normalized, claimed) {
		return "", domainerrors.ErrWalletMismatch
	}
	return normalized, nil
}

func ensureRole(role entities.MessageRole) error {
	if !role.Valid() {
		return domainerrors.ErrInvalidRole
	}
	return nil
}

// titleFromMessage derives a conversation title from the opening chat message.
func titleFromMessage(content string) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= chatTitleLength {
		return content
	}
	return strings.TrimSpace(string(runes[:chatTitleLength])) + "…"
}

// gatewayURL joins a gateway base URL with cid.
func gatewayURL(gateway, cid string) string {
	if gateway == "" || cid == "" {
		return ""
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return gateway + cid
}

func ipfsURL(cid string) string {
	return "ipfs://" + cid
}
