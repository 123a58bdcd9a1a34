package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit stops reading a request body after n bytes. Reads past the limit
// fail with *http.MaxBytesError. n <= 0 disables the limit.
func BodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n > 0 && c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
