package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/internal/infrastructure/metrics"
	"chat-ledger.backend/pkg/crypto"
	"chat-ledger.backend/pkg/jwt"
	"chat-ledger.backend/pkg/logger"
	"chat-ledger.backend/pkg/wallet"
)

// MockNonce is issued to every wallet when mock authentication is enabled
const MockNonce = "mock-nonce"

const tokenTypeBearer = "bearer"

var generateNonce = crypto.GenerateNonce

// WalletAuthUsecase runs the nonce challenge-response login and issues sessions
type WalletAuthUsecase struct {
	nonces     repositories.NonceStore
	jwtService *jwt.JWTService
	nonceTTL   time.Duration
	mockMode   bool
	now        func() time.Time
}

// NewWalletAuthUsecase creates a new wallet auth usecase
func NewWalletAuthUsecase(nonces repositories.NonceStore, jwtService *jwt.JWTService, nonceTTL time.Duration, mockMode bool) *WalletAuthUsecase {
	return &WalletAuthUsecase{
		nonces:     nonces,
		jwtService: jwtService,
		nonceTTL:   nonceTTL,
		mockMode:   mockMode,
		now:        time.Now,
	}
}

// IssueNonce stores a fresh nonce for address, superseding any earlier one.
func (u *WalletAuthUsecase) IssueNonce(ctx context.Context, address string) (*entities.NonceChallenge, error) {
	normalized, err := wallet.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	nonce := MockNonce
	if !u.mockMode {
		if nonce, err = generateNonce(); err != nil {
			return nil, err
		}
	}

	if err := u.nonces.Put(ctx, wallet.Key(normalized), nonce, u.nonceTTL); err != nil {
		return nil, fmt.Errorf("failed to store nonce: %w", err)
	}

	challenge := &entities.NonceChallenge{
		Nonce:         nonce,
		Message:       entities.ChallengeMessage(nonce),
		WalletAddress: normalized,
	}
	if u.nonceTTL > 0 {
		challenge.ExpiresAt = u.now().Add(u.nonceTTL).UTC()
	}
	return challenge, nil
}

// Verify checks a signed challenge and consumes the nonce on success. The nonce is
// left in place on every failure.
func (u *WalletAuthUsecase) Verify(ctx context.Context, address, message, signature string) (string, error) {
	normalized, err := wallet.NormalizeAddress(address)
	if err != nil {
		return "", err
	}
	key := wallet.Key(normalized)

	nonce, ok, err := u.nonces.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to load nonce: %w", err)
	}
	if !ok {
		return "", domainerrors.ErrNonceNotFound
	}

	if !u.mockMode && message != entities.ChallengeMessage(nonce) {
		if strings.HasPrefix(message, entities.ChallengePrefix) {
			// a challenge for a superseded or consumed nonce
			return "", domainerrors.ErrNonceNotFound
		}
		return "", domainerrors.ErrMessageMismatch
	}

	recovered, err := wallet.RecoverAddress(message, signature)
	if err != nil {
		return "", err
	}
	if !wallet.SameAddress(recovered, normalized) {
		return "", domainerrors.ErrSignatureInvalid
	}

	consumed, err := u.nonces.Consume(ctx, key, nonce)
	if err != nil {
		return "", fmt.Errorf("failed to consume nonce: %w", err)
	}
	if !consumed {
		// superseded or consumed by a concurrent request
		return "", domainerrors.ErrNonceNotFound
	}
	return normalized, nil
}

// Login verifies the signed challenge and issues a session token. Protocol failures
// are reported as one generic authentication error.
func (u *WalletAuthUsecase) Login(ctx context.Context, input *entities.WalletAuthInput) (*entities.WalletAuthResponse, error) {
	address, err := u.Verify(ctx, input.Address, input.Message, input.Signature)
	if err != nil {
		switch {
		case domainerrors.IsAuthFailure(err), errors.Is(err, domainerrors.ErrMalformedAddress):
			metrics.ObserveAuth("rejected")
			logger.Warn(ctx, "Wallet authentication rejected",
				zap.String("address", input.Address),
				zap.Error(err),
			)
			return nil, domainerrors.AuthenticationFailed(err)
		default:
			metrics.ObserveAuth("error")
			return nil, err
		}
	}

	token, expiresAt, err := u.jwtService.GenerateToken(address)
	if err != nil {
		metrics.ObserveAuth("error")
		return nil, err
	}

	metrics.ObserveAuth("success")
	logger.Info(logger.WithWallet(ctx, address), "Wallet authenticated")

	return &entities.WalletAuthResponse{
		AccessToken:   token,
		TokenType:     tokenTypeBearer,
		ExpiresAt:     expiresAt.UTC(),
		WalletAddress: address,
	}, nil
}

// Session validates a bearer token and returns the wallet it is bound to.
func (u *WalletAuthUsecase) Session(token string) (*entities.SessionInfo, error) {
	claims, err := u.jwtService.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	address, err := wallet.NormalizeAddress(claims.WalletAddress)
	if err != nil {
		return nil, domainerrors.ErrTokenInvalid
	}
	info := &entities.SessionInfo{WalletAddress: address}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return info, nil
}
