package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeadersConfig holds configuration for security headers
type SecurityHeadersConfig struct {
	TLSEnabled bool // Whether TLS is enabled (for HSTS header)
	// ImageSources are extra img-src origins, e.g. the CDN serving the map
	ImageSources []string
}

// SecurityHeaders creates middleware that adds security headers to responses.
func SecurityHeaders(config *SecurityHeadersConfig) func(http.Handler) http.Handler {
	imgSrc := "'self' data:"
	if config != nil && len(config.ImageSources) > 0 {
		imgSrc += " " + strings.Join(config.ImageSources, " ")
	}
	csp := "default-src 'self'; img-src " + imgSrc + "; style-src 'self' 'unsafe-inline'"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			if config != nil && config.TLSEnabled {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			h.Set("Content-Security-Policy", csp)
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

			next.ServeHTTP(w, r)
		})
	}
}
