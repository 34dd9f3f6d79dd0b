package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	clientIDKey       = "clientId"
	clientLabelKey    = "clientLabel"
	clientIDHeader    = "X-Client-Id"
	maxClientLabelLen = 128
)

// Identity keys the caller by client IP. The X-Client-Id header is caller
// controlled, so it is kept as a log label only and never selects a quota
// window or rate-limit bucket.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			// API Gateway sets RemoteAddr to a bare source IP without a port.
			ip = strings.TrimSpace(c.Request.RemoteAddr)
		}
		c.Set(clientIDKey, "ip:"+ip)

		label := strings.TrimSpace(c.GetHeader(clientIDHeader))
		if len(label) > maxClientLabelLen {
			label = label[:maxClientLabelLen]
		}
		if label != "" {
			c.Set(clientLabelKey, label)
		}
		c.Next()
	}
}

// ClientIDFromContext fetches the client ID set by the Identity middleware.
func ClientIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(clientIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// ClientLabelFromContext returns the X-Client-Id label, if the caller sent one.
func ClientLabelFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(clientLabelKey)
}
