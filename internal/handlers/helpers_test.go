package handlers_test

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"cryptocasino-backend/internal/config"
	"cryptocasino-backend/internal/services"
)

const (
	testCommerceSecret = "commerce-secret"
	testAPISecret      = "api-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testVerifier() *services.WebhookVerifier {
	return services.NewWebhookVerifier(&config.Config{
		CommerceAPISecret: testCommerceSecret,
		CoinbaseAPISecret: testAPISecret,
	})
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// authedRequest builds a gin context carrying an authenticated session,
// the way the auth middleware would leave it.
func authedRequest(t *testing.T, method, target string, body interface{}, email, sessionID string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("email", email)
	c.Set("session_id", sessionID)
	return c, w
}

func rawRequest(t *testing.T, method, target string, body []byte, headers map[string]string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		c.Request.Header.Set(k, v)
	}
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
