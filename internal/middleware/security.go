package middleware

import (
	"net/http"
	"strconv"

	"github.com/angeloszaimis/experiments-viewer/config"
)

// IsSecure reports whether the request reached the service over TLS, either
// directly or through a proxy setting X-Forwarded-Proto.
func IsSecure(r *http.Request) bool {
	return r.TLS != nil || r.Header.Get(config.ProxySSLHeader) == config.ProxySSLValue
}

// Security redirects plain HTTP to HTTPS when sslRedirect is set and adds
// the HSTS, nosniff and XSS filter headers.
func Security(sslRedirect bool) Stage {
	hsts := "max-age=" + strconv.Itoa(int(config.HSTSMaxAge.Seconds()))

	return Stage{Name: "security", Wrap: func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			secure := IsSecure(r)

			if sslRedirect && !secure {
				target := "https://" + r.Host + r.URL.RequestURI()
				http.Redirect(w, r, target, http.StatusMovedPermanently)
				return
			}

			h := w.Header()
			if secure {
				h.Set("Strict-Transport-Security", hsts)
			}
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-XSS-Protection", "1; mode=block")

			next.ServeHTTP(w, r)
		})
	}}
}

// XFrame denies framing unless the handler chose another policy.
func XFrame() Stage {
	return Stage{Name: "xframe", Wrap: func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Frame-Options", config.XFrameOptions)
			next.ServeHTTP(w, r)
		})
	}}
}
