package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"chat-ledger.backend/internal/interfaces/http/middleware"
)

const (
	testWallet  = "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	otherWallet = "0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359"
)

func newTestRouter(walletAddress string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if walletAddress != "" {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.WalletKey, walletAddress)
			c.Set(middleware.SessionExpiryKey, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
			c.Next()
		})
	}
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
