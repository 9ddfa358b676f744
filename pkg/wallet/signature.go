package wallet

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	domainerrors "chat-ledger.backend/internal/domain/errors"
)

const signatureLength = 65

// RecoverAddress returns the checksum address that produced an EIP-191 personal_sign
// signature over message. Both 27/28 and 0/1 recovery ids are accepted.
func RecoverAddress(message, signature string) (string, error) {
	if !strings.HasPrefix(signature, "0x") && !strings.HasPrefix(signature, "0X") {
		signature = "0x" + signature
	}
	sig, err := hexutil.Decode(strings.ToLower(signature))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domainerrors.ErrSignatureInvalid, err)
	}
	if len(sig) != signatureLength {
		return "", fmt.Errorf("%w: expected %d bytes, got %d", domainerrors.ErrSignatureInvalid, signatureLength, len(sig))
	}

	switch sig[crypto.RecoveryIDOffset] {
	case 27, 28:
		sig[crypto.RecoveryIDOffset] -= 27
	case 0, 1:
	default:
		return "", fmt.Errorf("%w: bad recovery id", domainerrors.ErrSignatureInvalid)
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domainerrors.ErrSignatureInvalid, err)
	}
	return crypto.PubkeyToAddress(*pub).Hex(), nil
}

// VerifySignature reports whether signature over message was produced by address.
func VerifySignature(address, message, signature string) bool {
	recovered, err := RecoverAddress(message, signature)
	if err != nil {
		return false
	}
	return SameAddress(recovered, address)
}

// SignMessage produces a personal_sign signature with v in {27, 28}. Used by tests and the CLI helper.
func SignMessage(message string, hexKey string) (string, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return "", err
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), key)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}
