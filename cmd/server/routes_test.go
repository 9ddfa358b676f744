package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-ledger.backend/internal/config"
	"chat-ledger.backend/internal/infrastructure/blockchain"
	"chat-ledger.backend/internal/infrastructure/datasources/database"
	"chat-ledger.backend/internal/infrastructure/llm"
	infraRepos "chat-ledger.backend/internal/infrastructure/repositories"
	"chat-ledger.backend/internal/infrastructure/storage"
	"chat-ledger.backend/internal/interfaces/http/handlers"
	"chat-ledger.backend/internal/interfaces/http/middleware"
	"chat-ledger.backend/internal/usecases"
	"chat-ledger.backend/pkg/jwt"
	"chat-ledger.backend/pkg/wallet"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := baseTestConfig("routes_" + t.Name())()

	db, err := database.NewConnection(cfg.Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, infraRepos.Migrate(db))

	pinRepo := infraRepos.NewPinRepository(db)
	backend := storage.Instrument(storage.NewMemoryBackend(pinRepo))
	jwtService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.Expiry)
	require.NoError(t, err)

	gateway := cfg.Storage.PrimaryGateway()
	auth := usecases.NewWalletAuthUsecase(infraRepos.NewMemoryNonceStore(), jwtService, cfg.Auth.NonceTTL, false)
	conversations := usecases.NewConversationUsecase(backend, cfg.Storage.AppID, gateway, cfg.Storage.CacheSize)
	mints := usecases.NewMintUsecase(backend, conversations, blockchain.NewMockMinter("test"), cfg.Storage.AppID, gateway, cfg.Storage.CacheSize)
	chat := usecases.NewChatUsecase(conversations, llm.NewMockModel("Hello world", "gpt-4o-mini"), cfg.LLM.MaxHistory)

	return newRouter(cfg, routeDeps{
		authHandler:         handlers.NewAuthHandler(auth),
		conversationHandler: handlers.NewConversationHandler(conversations, mints),
		chatHandler:         handlers.NewChatHandler(chat),
		mintHandler:         handlers.NewMintHandler(mints),
		pinHandler:          handlers.NewPinHandler(usecases.NewPinUsecase(backend, pinRepo)),
		healthHandler:       handlers.NewHealthHandler(backend.Name()),
		walletAuth:          middleware.WalletAuthMiddleware(auth),
		nonceLimiter:        middleware.NewRateLimiter(100, 100).Middleware(),
	})
}

func call(t *testing.T, r http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "" && bytes.HasPrefix(rec.Body.Bytes(), []byte("{")) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func login(t *testing.T, r http.Handler) (string, string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	rec, challenge := call(t, r, http.MethodGet, "/api/v1/auth/nonce/"+address, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	message := challenge["message"].(string)
	sig, err := wallet.SignMessage(message, hex.EncodeToString(crypto.FromECDSA(key)))
	require.NoError(t, err)

	rec, session := call(t, r, http.MethodPost, "/api/v1/auth/verify", "", map[string]string{
		"address":   address,
		"message":   message,
		"signature": sig,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	return session["access_token"].(string), address
}

func TestRouter_HealthMetricsAndCORS(t *testing.T) {
	r := newTestServer(t)

	rec, body := call(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "memory", body["storage"])
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec, _ = call(t, r, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	pre := httptest.NewRecorder()
	r.ServeHTTP(pre, req)
	assert.Equal(t, http.StatusNoContent, pre.Code)
	assert.Equal(t, "http://localhost:3000", pre.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	r := newTestServer(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/auth/me"},
		{http.MethodGet, "/api/v1/conversations"},
		{http.MethodPost, "/api/v1/chat"},
		{http.MethodGet, "/api/v1/mint"},
		{http.MethodGet, "/api/v1/pins"},
	} {
		rec, _ := call(t, r, route.method, route.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route.path)
	}

	rec, body := call(t, r, http.MethodGet, "/api/v1/conversations", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", body["code"])
}

func TestRouter_ChatMintAndPinFlow(t *testing.T) {
	r := newTestServer(t)
	token, address := login(t, r)

	rec, me := call(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, wallet.SameAddress(address, me["wallet_address"].(string)))

	rec, reply := call(t, r, http.MethodPost, "/api/v1/chat", token, map[string]any{"message": "What is a CID?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello world", reply["response"])
	convID := reply["conversation_id"].(string)
	require.NotEmpty(t, convID)
	assert.NotEmpty(t, reply["ipfs_hash"])

	rec, list := call(t, r, http.MethodGet, "/api/v1/conversations", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, list["total"])

	rec, conv := call(t, r, http.MethodGet, "/api/v1/conversations/"+convID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "What is a CID?", conv["title"])
	assert.Len(t, conv["messages"], 2)

	rec, minted := call(t, r, http.MethodPost, "/api/v1/mint", token, map[string]any{"conversation_id": convID, "price": 1.5})
	require.Equal(t, http.StatusCreated, rec.Code)
	mintID := minted["mint_id"].(string)
	assert.Len(t, minted["message_ids"], 2)

	rec, _ = call(t, r, http.MethodPost, "/api/v1/mint", token, map[string]any{"conversation_id": convID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, record := call(t, r, http.MethodGet, "/api/v1/mint/"+mintID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, convID, record["conversation_id"])

	rec, updated := call(t, r, http.MethodPatch, "/api/v1/mint/"+mintID+"/listing", token, map[string]any{"price": 3, "is_listed": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, updated["is_listed"])

	rec, convMints := call(t, r, http.MethodGet, "/api/v1/conversations/"+convID+"/mints", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, convMints["mints"], 1)

	rec, history := call(t, r, http.MethodGet, "/api/v1/conversations/"+convID+"/history", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, history["versions"])

	rec, pins := call(t, r, http.MethodGet, "/api/v1/pins?page=1&limit=2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, pins["items"], 2)

	other, _ := login(t, r)
	rec, _ = call(t, r, http.MethodGet, "/api/v1/conversations/"+convID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = call(t, r, http.MethodGet, "/api/v1/mint/"+mintID, other, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_NonceRateLimited(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Server: config.ServerConfig{AllowedOrigins: []string{"*"}}}
	nonces := infraRepos.NewMemoryNonceStore()
	jwtService, err := jwt.NewJWTService("secret", "HS256", time.Hour)
	require.NoError(t, err)
	auth := usecases.NewWalletAuthUsecase(nonces, jwtService, time.Minute, false)

	r := gin.New()
	applyCORSMiddleware(r, cfg.Server.AllowedOrigins)
	registerAPIV1Routes(r, routeDeps{
		authHandler:         handlers.NewAuthHandler(auth),
		conversationHandler: &handlers.ConversationHandler{},
		chatHandler:         &handlers.ChatHandler{},
		mintHandler:         &handlers.MintHandler{},
		pinHandler:          &handlers.PinHandler{},
		walletAuth:          middleware.WalletAuthMiddleware(auth),
		nonceLimiter:        middleware.NewRateLimiter(0.001, 1).Middleware(),
	})

	path := "/api/v1/auth/nonce/0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	rec, _ := call(t, r, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, _ = call(t, r, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestApplyCORSMiddleware_CredentialsOnlyForListedOrigins(t *testing.T) {
	gin.SetMode(gin.TestMode)

	preflight := func(r *gin.Engine, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/anything", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	for _, origins := range [][]string{nil, {"*"}} {
		r := gin.New()
		applyCORSMiddleware(r, origins)
		rec := preflight(r, "https://evil.example")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://evil.example", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
	}

	r := gin.New()
	applyCORSMiddleware(r, []string{"https://app.example/", "*"})
	rec := preflight(r, "https://app.example")
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	rec = preflight(r, "https://other.example")
	assert.Equal(t, "https://other.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	r = gin.New()
	applyCORSMiddleware(r, []string{"https://app.example"})
	rec = preflight(r, "https://other.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}
