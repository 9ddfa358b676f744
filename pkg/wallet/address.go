package wallet

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	domainerrors "chat-ledger.backend/internal/domain/errors"
)

const addressLength = 42

// NormalizeAddress validates a hex wallet address and returns its EIP-55 checksum form.
func NormalizeAddress(address string) (string, error) {
	if len(address) != addressLength {
		return "", fmt.Errorf("%w: expected %d characters, got %d", domainerrors.ErrMalformedAddress, addressLength, len(address))
	}
	if address[0] != '0' || (address[1] != 'x' && address[1] != 'X') {
		return "", fmt.Errorf("%w: missing 0x prefix", domainerrors.ErrMalformedAddress)
	}
	body := address[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return "", fmt.Errorf("%w: non-hex characters", domainerrors.ErrMalformedAddress)
	}

	return common.HexToAddress(body).Hex(), nil
}

// MustNormalize panics on malformed input. Intended for constants and tests.
func MustNormalize(address string) string {
	out, err := NormalizeAddress(address)
	if err != nil {
		panic(err)
	}
	return out
}

// SameAddress reports whether a and b identify the same wallet.
func SameAddress(a, b string) bool {
	na, err := NormalizeAddress(a)
	if err != nil {
		return false
	}
	nb, err := NormalizeAddress(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(na, nb)
}

// Key is the lowercase form used for map keys and storage tags.
func Key(address string) string {
	return strings.ToLower(address)
}
