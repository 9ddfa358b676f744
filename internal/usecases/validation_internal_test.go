package usecases

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
)

func TestEnsureTitle(t *testing.T) {
	got, err := ensureTitle("  ", DefaultConversationTitle)
	require.NoError(t, err)
	assert.Equal(t, "New Conversation", got)

	got, err = ensureTitle(strings.Repeat("é", MaxTitleLength), "")
	require.NoError(t, err)
	assert.Len(t, []rune(got), MaxTitleLength)

	_, err = ensureTitle(strings.Repeat("a", MaxTitleLength+1), "")
	assert.ErrorIs(t, err, domainerrors.ErrTitleTooLong)
}

func TestEnsureSameWallet(t *testing.T) {
	const addr = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	got, err := ensureSameWallet(strings.ToLower(addr), "")
	require.NoError(t, err)
	assert.Equal(t, addr, got)

	_, err = ensureSameWallet(addr, "0X5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED")
	require.NoError(t, err)

	_, err = ensureSameWallet(addr, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359")
	assert.ErrorIs(t, err, domainerrors.ErrWalletMismatch)

	_, err = ensureSameWallet("bad", "")
	assert.ErrorIs(t, err, domainerrors.ErrMalformedAddress)
}

func TestTitleFromMessage(t *testing.T) {
	assert.Equal(t, "hello there", titleFromMessage("hello\n  there"))

	long := strings.Repeat("word ", 20)
	got := titleFromMessage(long)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len([]rune(got)), chatTitleLength+1)
}

func TestGatewayURL(t *testing.T) {
	assert.Equal(t, "https://ipfs.io/ipfs/bafy", gatewayURL("https://ipfs.io/ipfs/", "bafy"))
	assert.Equal(t, "https://ipfs.io/ipfs/bafy", gatewayURL("https://ipfs.io/ipfs", "bafy"))
	assert.Empty(t, gatewayURL("", "bafy"))
	assert.Equal(t, "ipfs://bafy", ipfsURL("bafy"))
}

func TestSelectMessages(t *testing.T) {
	conv := &entities.Conversation{Messages: []entities.ChatMessage{
		{ID: "a", IsMinted: true},
		{ID: "b"},
		{ID: "c"},
	}}

	ids, err := selectMessages(conv, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids)

	ids, err = selectMessages(conv, []string{"c", "a", "c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids)

	_, err = selectMessages(conv, []string{"a"})
	assert.ErrorIs(t, err, domainerrors.ErrNothingToMint)

	_, err = selectMessages(conv, []string{"b", "zzz"})
	assert.ErrorIs(t, err, domainerrors.ErrUnknownMessageID)

	minted := &entities.Conversation{Messages: []entities.ChatMessage{{ID: "a", IsMinted: true}}}
	_, err = selectMessages(minted, nil)
	assert.ErrorIs(t, err, domainerrors.ErrNothingToMint)
}

func TestTrimHistory(t *testing.T) {
	msgs := []entities.ChatMessage{
		{Role: entities.RoleUser, Content: "1"},
		{Role: entities.RoleAssistant, Content: "2"},
		{Role: entities.RoleUser, Content: "3"},
	}
	out := trimHistory(msgs, 2)
	require.Len(t, out, 2)
	assert.Equal(t, "2", out[0].Content)
	assert.Equal(t, entities.RoleUser, out[1].Role)

	assert.Len(t, trimHistory(msgs, 10), 3)
}
