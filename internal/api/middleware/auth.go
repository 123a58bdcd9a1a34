package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/liliang-cn/askpdf/internal/api/response"
	"github.com/liliang-cn/askpdf/internal/domain"
)

// Auth guards a route group with an API key passed as X-API-Key or as a
// bearer token. An empty apiKey disables the check.
func Auth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		key := c.GetHeader("X-API-Key")
		if key == "" {
			key, _ = strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			response.Error(c, domain.ErrUnauthorized)
			return
		}
		c.Next()
	}
}
