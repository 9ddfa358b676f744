package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"

	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/pkg/wallet"
)

var (
	printfFn = fmt.Printf
	fatalfFn = log.Fatalf
)

type signedChallenge struct {
	Address   string
	Message   string
	Signature string
}

// resolveMessage accepts either a bare nonce or the full challenge text.
func resolveMessage(arg string) string {
	if strings.HasPrefix(arg, entities.ChallengePrefix) {
		return arg
	}
	return entities.ChallengeMessage(arg)
}

func signChallenge(hexKey, nonceOrMessage string) (*signedChallenge, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	message := resolveMessage(nonceOrMessage)
	sig, err := wallet.SignMessage(message, hexKey)
	if err != nil {
		return nil, err
	}
	return &signedChallenge{
		Address:   crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Message:   message,
		Signature: sig,
	}, nil
}

func main() {
	if len(os.Args) < 3 {
		fatalfFn("usage: sign-challenge <private-key-hex> <nonce|message>")
		return
	}

	signed, err := signChallenge(os.Args[1], os.Args[2])
	if err != nil {
		fatalfFn("Failed to sign challenge: %v", err)
		return
	}

	printfFn("address=%s\n", signed.Address)
	printfFn("message=%s\n", signed.Message)
	printfFn("signature=%s\n", signed.Signature)
}
