// Package auth verifies bearer tokens issued by the surrounding
// application's session layer. Token issuance, user management, and role
// checks live there; this service only validates the shared-secret JWT
// and exposes the tenant/user identity it carries.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ClaimsContextKey is the key used to store verified claims in Gin context
const ClaimsContextKey = "claims"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoClaims     = errors.New("no claims in context")
)

// Claims represents the JWT claims this service consumes
type Claims struct {
	UserID   string `json:"user_id"`   // UUID stored as string
	TenantID string `json:"tenant_id"` // UUID stored as string
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens against a shared secret
type Verifier struct {
	jwtSecret []byte
}

// NewVerifier creates a new token verifier
func NewVerifier(jwtSecret string) *Verifier {
	return &Verifier{jwtSecret: []byte(jwtSecret)}
}

// validateToken validates a JWT token and returns claims
func (v *Verifier) validateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrUnauthorized
	}
	if claims.TenantID == "" || claims.UserID == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// Middleware returns a Gin middleware that rejects requests without a
// valid bearer token and stores the verified claims in the context.
func (v *Verifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := v.validateToken(parts[1])
		if err != nil {
			slog.Warn("Invalid token", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

// ClaimsFromContext extracts the verified claims from the Gin context
func ClaimsFromContext(c *gin.Context) (*Claims, error) {
	value, exists := c.Get(ClaimsContextKey)
	if !exists {
		return nil, ErrNoClaims
	}
	claims, ok := value.(*Claims)
	if !ok {
		return nil, ErrNoClaims
	}
	return claims, nil
}

// TenantID returns the tenant UUID from the verified claims
func TenantID(c *gin.Context) (uuid.UUID, error) {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.TenantID)
}

// UserID returns the user UUID from the verified claims
func UserID(c *gin.Context) (uuid.UUID, error) {
	claims, err := ClaimsFromContext(c)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(claims.UserID)
}
