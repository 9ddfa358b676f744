package main

import (
	"flag"
	"fmt"
	"log"

	"chat-ledger.backend/pkg/crypto"
)

const minSecretBytes = 16

func validateInputs(format string, size int) error {
	if format != "env" && format != "raw" {
		return fmt.Errorf("invalid format: %s (allowed: env, raw)", format)
	}
	if size < minSecretBytes {
		return fmt.Errorf("invalid bytes: %d (minimum %d)", size, minSecretBytes)
	}
	return nil
}

func buildSecret(format string, size int) (string, error) {
	if err := validateInputs(format, size); err != nil {
		return "", err
	}
	secret, err := crypto.GenerateRandomToken(size)
	if err != nil {
		return "", err
	}
	if format == "raw" {
		return secret, nil
	}
	return "JWT_SECRET=" + secret, nil
}

func main() {
	format := flag.String("format", "env", "output format: env or raw")
	size := flag.Int("bytes", 32, "secret entropy in bytes")
	flag.Parse()

	line, err := buildSecret(*format, *size)
	if err != nil {
		log.Fatalf("failed to generate secret: %v", err)
	}
	fmt.Println(line)
}
