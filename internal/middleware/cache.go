package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// PrivateCacheControl sets a private Cache-Control header for
// authorized per-user responses. The exam paper is immutable while the
// window is open, so clients may briefly cache it.
func PrivateCacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", maxAgeSeconds))
		c.Next()
	}
}
