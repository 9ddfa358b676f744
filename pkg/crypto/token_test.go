package crypto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandomToken(t *testing.T) {
	token, err := GenerateRandomToken(16)
	assert.NoError(t, err)
	assert.Len(t, token, 32) // hex encoded

	nonce, err := GenerateNonce()
	assert.NoError(t, err)
	assert.Len(t, nonce, 2*NonceBytes)
	assert.NotEqual(t, token, nonce)
}

func TestGenerateRandomToken_ErrorBranch(t *testing.T) {
	origRandRead := randomRead
	t.Cleanup(func() { randomRead = origRandRead })

	randomRead = func([]byte) (int, error) {
		return 0, errors.New("rand failed")
	}
	_, err := GenerateNonce()
	assert.Error(t, err)
}
