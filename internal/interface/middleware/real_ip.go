package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// ConfigureClientIP decides which peers may report the client address. Forwarding headers
// (X-Forwarded-For, X-Real-IP) are honoured only when the direct peer is in proxies; an
// empty list trusts no one. platform "cloudflare" additionally trusts CF-Connecting-IP and
// must only be set when the service is reachable through Cloudflare alone.
func ConfigureClientIP(engine *gin.Engine, proxies []string, platform string) error {
	if len(proxies) == 0 {
		proxies = nil
	}
	if err := engine.SetTrustedProxies(proxies); err != nil {
		return fmt.Errorf("trusted proxies: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(platform)) {
	case "":
		engine.TrustedPlatform = ""
	case "cloudflare":
		engine.TrustedPlatform = gin.PlatformCloudflare
	case "appengine", "google-app-engine":
		engine.TrustedPlatform = gin.PlatformGoogleAppEngine
	default:
		return fmt.Errorf("unknown trusted platform %q", platform)
	}
	return nil
}

// RealIP stores the resolved client IP under the "real_ip" context key. Resolution follows
// the engine's trust settings, see ConfigureClientIP.
func RealIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("real_ip", c.ClientIP())
		c.Next()
	}
}
