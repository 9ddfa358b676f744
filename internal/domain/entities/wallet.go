package entities

import "time"

// ChallengePrefix is prepended to the nonce to build the message a wallet signs.
const ChallengePrefix = "Sign this message to authenticate: "

// ChallengeMessage returns the exact string a wallet must sign for nonce.
func ChallengeMessage(nonce string) string {
	return ChallengePrefix + nonce
}

// NonceChallenge is returned when a wallet asks to authenticate
type NonceChallenge struct {
	Nonce         string    `json:"nonce"`
	Message       string    `json:"message"`
	WalletAddress string    `json:"wallet_address"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// WalletAuthInput represents a signed challenge
type WalletAuthInput struct {
	Address   string `json:"address" binding:"required"`
	Message   string `json:"message" binding:"required"`
	Signature string `json:"signature" binding:"required"`
}

// WalletAuthResponse carries the session token issued after verification
type WalletAuthResponse struct {
	AccessToken   string    `json:"access_token"`
	TokenType     string    `json:"token_type"`
	ExpiresAt     time.Time `json:"expires_at"`
	WalletAddress string    `json:"wallet_address"`
}

// SessionInfo describes the authenticated wallet of a request
type SessionInfo struct {
	WalletAddress string    `json:"wallet_address"`
	ExpiresAt     time.Time `json:"expires_at"`
}
