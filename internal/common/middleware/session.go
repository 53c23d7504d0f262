package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by SessionAuth. Handlers must check ContextMiniAppValidated
// before trusting ContextFID: it is only ever set by this middleware, so its
// absence means the request did not pass mini-app validation.
const (
	ContextFID              = "fid"
	ContextWalletAddress    = "wallet_address"
	ContextMiniAppValidated = "miniapp_validated"
	ContextRequestTimestamp = "request_timestamp"
)

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	FID           int64  `json:"fid"`
	WalletAddress string `json:"walletAddress"`
	// Unix seconds at issuance. Token staleness is judged from this value,
	// not from the exp claim.
	Timestamp int64 `json:"timestamp"`
	jwt.RegisteredClaims
}

// SessionAuth validates the bearer session token and injects the caller's
// identity into the request context. Tokens older than maxAge are rejected
// with a distinct re-authentication reason.
func SessionAuth(secret string, maxAge time.Duration) gin.HandlerFunc {
	key := []byte(secret)

	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		claims := &SessionClaims{}
		// Claim validation is disabled so that the issuance timestamp below is
		// the sole source of truth for staleness, independent of exp.
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		}, jwt.WithoutClaimsValidation())
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if claims.FID == 0 || claims.Timestamp <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		if time.Since(time.Unix(claims.Timestamp, 0)) > maxAge {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired, please sign in again"})
			return
		}

		c.Set(ContextFID, claims.FID)
		c.Set(ContextWalletAddress, claims.WalletAddress)
		c.Set(ContextMiniAppValidated, true)
		c.Set(ContextRequestTimestamp, time.Now().UnixMilli())
		c.Next()
	}
}

// FIDFromContext returns the authenticated caller's fid, refusing requests
// that did not pass through SessionAuth.
func FIDFromContext(c *gin.Context) (int64, bool) {
	if validated, _ := c.Get(ContextMiniAppValidated); validated != true {
		return 0, false
	}
	fid, ok := c.Get(ContextFID)
	if !ok {
		return 0, false
	}
	id, ok := fid.(int64)
	return id, ok
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}
