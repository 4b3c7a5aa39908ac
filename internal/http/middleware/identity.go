package middleware

import (
	"net/http"
	"strings"

	"oink_ledger/internal/service"

	"github.com/gin-gonic/gin"
)

// FIDKey is the gin context key of the authenticated fid.
const FIDKey = "fid"

// Identity verifies the bearer token of the identity provider and stores its
// fid under FIDKey. With nil tokens identity is not enforced and requests
// pass through untouched.
func Identity(tokens *service.IdentityTokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokens == nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		fid, err := tokens.Parse(strings.TrimSpace(raw))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(FIDKey, fid)
		c.Next()
	}
}

// ActingFID returns the fid set by Identity, if any.
func ActingFID(c *gin.Context) (string, bool) {
	fid := c.GetString(FIDKey)
	return fid, fid != ""
}
