package identity

import (
	"crypto/subtle"
	"net/http"

	"github.com/frankieli/players_bet/pkg/logger"
	"github.com/gin-gonic/gin"
)

// HostKeyHeader carries the game host's shared secret
const HostKeyHeader = "X-Host-Key"

// HostKeyMiddleware guards routes only the game host may call.
// An empty key leaves the routes open, which suits local runs.
func HostKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader(HostKeyHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			logger.Warn(c.Request.Context()).
				Str("path", c.FullPath()).
				Msg("Host route called without a valid host key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "host key required"})
			return
		}
		c.Next()
	}
}

// BearerToken returns the token from the Authorization header, or the
// token query parameter when the header is absent
func BearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return h
	}
	return c.Query("token")
}
