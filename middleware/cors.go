package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Cors mirrors the permissive edge headers: the relay sits behind a gateway
// that already did origin policy, so everything is allowed here.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "authorization, x-client-info, apikey, content-type")

		if c.Request.Method == http.MethodOptions {
			c.String(http.StatusOK, "ok")
			c.Abort()
			return
		}
		c.Next()
	}
}
