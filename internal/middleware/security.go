// security.go sets protective response headers on every route. The service is
// a JSON API whose responses can carry revealed secrets, so on top of the
// usual browser hardening every response is marked uncacheable: a reveal
// response sitting in a shared proxy cache would defeat the envelope
// encryption entirely.
package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders selects which protective headers are emitted.
type SecurityHeaders struct {
	// HSTSMaxAge is the Strict-Transport-Security max-age in seconds.
	// Zero disables the header (useful behind a TLS-terminating proxy
	// that sets its own).
	HSTSMaxAge int
	// HSTSIncludeSubdomains extends HSTS to subdomains.
	HSTSIncludeSubdomains bool
	// FrameOptions is the X-Frame-Options value; empty disables it.
	FrameOptions string
	// ContentSecurityPolicy is emitted verbatim when non-empty.
	ContentSecurityPolicy string
	// ReferrerPolicy is emitted verbatim when non-empty.
	ReferrerPolicy string
	// NoStore marks every response uncacheable (Cache-Control: no-store).
	NoStore bool
}

// VaultSecurityHeaders returns the header set used in production. The CSP is
// "default-src 'none'" because no route serves HTML; anything rendering a
// response from this API in a browser context gets nothing to execute.
func VaultSecurityHeaders() SecurityHeaders {
	return SecurityHeaders{
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
		FrameOptions:          "DENY",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
		NoStore:               true,
	}
}

// SecurityHeadersMiddleware applies the configured headers to every response.
func SecurityHeadersMiddleware(h SecurityHeaders) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.HSTSMaxAge > 0 {
			v := "max-age=" + strconv.Itoa(h.HSTSMaxAge)
			if h.HSTSIncludeSubdomains {
				v += "; includeSubDomains"
			}
			c.Header("Strict-Transport-Security", v)
		}

		if h.FrameOptions != "" {
			c.Header("X-Frame-Options", h.FrameOptions)
		}
		if h.ContentSecurityPolicy != "" {
			c.Header("Content-Security-Policy", h.ContentSecurityPolicy)
		}
		if h.ReferrerPolicy != "" {
			c.Header("Referrer-Policy", h.ReferrerPolicy)
		}

		if h.NoStore {
			// Reveal and list responses must never land in any cache,
			// shared or private.
			c.Header("Cache-Control", "no-store")
			c.Header("Pragma", "no-cache")
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Cross-Origin-Resource-Policy", "same-origin")
		c.Header("Cross-Origin-Opener-Policy", "same-origin")

		c.Next()
	}
}
