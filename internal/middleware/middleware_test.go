package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(Recovery(), RequestID())
	api := r.Group("", APIKey("anon"), AuthMiddleware(secret))
	api.GET("/me", func(c *gin.Context) {
		claims := Claims(c)
		c.JSON(http.StatusOK, gin.H{"user": UserID(c), "email": claims.Email})
	})
	api.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenRoundTrip(t *testing.T) {
	tok, err := NewToken(secret, "a", "a@example.com", "alice", time.Hour)
	require.NoError(t, err)
	claims, err := ParseToken(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "a", claims.Subject)
	assert.Equal(t, "alice", claims.Username)

	_, err = ParseToken("other", tok)
	assert.Error(t, err)

	_, err = NewToken("", "a", "", "", time.Hour)
	assert.Error(t, err)
}

func TestParseTokenRejectsExpiredAndUnsigned(t *testing.T) {
	tok, err := NewToken(secret, "a", "", "", -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(secret, tok)
	assert.Error(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "a"})
	s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ParseToken(secret, s)
	assert.Error(t, err)
}

func TestAPIKeyRequired(t *testing.T) {
	tok, _ := NewToken(secret, "a", "a@example.com", "", time.Hour)
	w := do(newEngine(), "/me", map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}

func TestAuthRequired(t *testing.T) {
	w := do(newEngine(), "/me", map[string]string{APIKeyHeader: "anon"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(newEngine(), "/me", map[string]string{APIKeyHeader: "anon", "Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticatedRequest(t *testing.T) {
	tok, _ := NewToken(secret, "a", "a@example.com", "", time.Hour)
	w := do(newEngine(), "/me", map[string]string{
		APIKeyHeader:    "anon",
		"Authorization": "Bearer " + tok,
		RequestIDHeader: "req-42",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"a","email":"a@example.com"}`, w.Body.String())
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestRecoveryAnswersRetryable500(t *testing.T) {
	tok, _ := NewToken(secret, "a", "", "", time.Hour)
	w := do(newEngine(), "/panic", map[string]string{APIKeyHeader: "anon", "Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Something went wrong","retry":true}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
