package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"todoshare/pkg/logger"
)

const (
	// UserKey holds the authenticated user id in the gin context.
	UserKey = "user"
	// ClaimsKey holds the verified *SessionClaims in the gin context.
	ClaimsKey = "claims"

	APIKeyHeader = "apikey"
)

// SessionClaims is the token payload: the subject is the user id, email and
// username seed the caller's profile at sign-in.
type SessionClaims struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// NewToken signs a session token for userID valid for ttl.
func NewToken(secret, userID, email, username string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("empty signing secret")
	}
	now := time.Now()
	claims := SessionClaims{
		Email:    email,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies an HS256 session token.
func ParseToken(secret, token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// APIKey rejects requests that do not present the public API key.
func APIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(APIKeyHeader)
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
			return
		}
		c.Next()
	}
}

// AuthMiddleware verifies the bearer token and stores the user id under UserKey.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		auth := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if auth == "" || !strings.HasPrefix(auth, prefix) {
			logger.Debug(ctx, "Missing or invalid Authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		if secret == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Server misconfiguration"})
			return
		}
		claims, err := ParseToken(secret, strings.TrimSpace(auth[len(prefix):]))
		if err != nil {
			logger.Debug(ctx, "JWT parse failed", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set(UserKey, claims.Subject)
		c.Set(ClaimsKey, claims)
		c.Request = c.Request.WithContext(logger.WithUserID(ctx, claims.Subject))
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" outside AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserKey)
}

// Claims returns the verified token claims, or nil outside AuthMiddleware.
func Claims(c *gin.Context) *SessionClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*SessionClaims)
	return claims
}
