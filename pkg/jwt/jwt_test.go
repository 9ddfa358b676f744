package jwt

import (
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestJWTService_GenerateAndValidate(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		svc, err := NewJWTService("secret", alg, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, alg, svc.Algorithm())

		token, expiresAt, err := svc.GenerateToken(testWallet)
		assert.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.WithinDuration(t, time.Now().Add(time.Minute), expiresAt, 2*time.Second)

		claims, err := svc.ValidateToken(token)
		assert.NoError(t, err)
		assert.Equal(t, testWallet, claims.WalletAddress)
		assert.Equal(t, expiresAt.Unix(), claims.ExpiresAt.Unix())
	}
}

func TestNewJWTService_RejectsBadConfig(t *testing.T) {
	_, err := NewJWTService("secret", "RS256", time.Minute)
	assert.Error(t, err)

	_, err = NewJWTService("", "HS256", time.Minute)
	assert.Error(t, err)

	svc, err := NewJWTService("secret", "", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, DefaultAlgorithm, svc.Algorithm())
}

func TestJWTService_ValidateInvalidToken(t *testing.T) {
	svc, err := NewJWTService("secret", "HS256", time.Minute)
	require.NoError(t, err)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateExpiredToken(t *testing.T) {
	svc, err := NewJWTService("secret", "HS256", -time.Second)
	require.NoError(t, err)

	token, _, err := svc.GenerateToken(testWallet)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_ValidateWrongSecretOrAlgorithm(t *testing.T) {
	issuer, err := NewJWTService("secret-a", "HS256", time.Minute)
	require.NoError(t, err)
	token, _, err := issuer.GenerateToken(testWallet)
	require.NoError(t, err)

	otherSecret, err := NewJWTService("secret-b", "HS256", time.Minute)
	require.NoError(t, err)
	_, err = otherSecret.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	otherAlg, err := NewJWTService("secret-a", "HS512", time.Minute)
	require.NoError(t, err)
	_, err = otherAlg.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateWrongSigningMethod(t *testing.T) {
	svc, err := NewJWTService("secret", "HS256", time.Minute)
	require.NoError(t, err)

	claims := gjwt.MapClaims{
		"wallet_address": testWallet,
		"exp":            time.Now().Add(time.Minute).Unix(),
		"iat":            time.Now().Unix(),
		"nbf":            time.Now().Unix(),
	}
	unsigned := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims)
	tokenStr, err := unsigned.SignedString(gjwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	_, err = svc.ValidateToken(tokenStr)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_MissingWalletClaim(t *testing.T) {
	svc, err := NewJWTService("secret", "HS256", time.Minute)
	require.NoError(t, err)

	token := gjwt.NewWithClaims(gjwt.SigningMethodHS256, gjwt.MapClaims{
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	tokenStr, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokenStr)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_SignError(t *testing.T) {
	orig := signJWTToken
	t.Cleanup(func() { signJWTToken = orig })
	signJWTToken = func(*gjwt.Token, []byte) (string, error) {
		return "", errors.New("sign failed")
	}

	svc, err := NewJWTService("secret", "HS256", time.Minute)
	require.NoError(t, err)
	_, _, err = svc.GenerateToken(testWallet)
	assert.Error(t, err)
}
