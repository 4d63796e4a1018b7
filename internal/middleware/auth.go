package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminKeyHeader carries the back office API key.
const AdminKeyHeader = "X-Admin-Key"

// AdminKey guards back office routes with a shared key. An empty key
// disables the check, which is only meant for local development.
func AdminKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}

		provided := c.GetHeader(AdminKeyHeader)
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "A valid " + AdminKeyHeader + " header is required",
				},
			})
			c.Abort()
			return
		}

		c.Set("admin", true)
		c.Next()
	}
}
