package middleware

import (
	"crypto/sha256"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/angeloszaimis/experiments-viewer/config"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFHeaderName = "X-CSRFToken"
	CSRFFieldName  = "csrfmiddlewaretoken"
)

// CSRF rejects unsafe requests without a valid token. The signing key is
// derived from secretKey.
func CSRF(secretKey string, logger *slog.Logger) Stage {
	key := sha256.Sum256([]byte(secretKey))

	protect := csrf.Protect(key[:],
		csrf.CookieName(CSRFCookieName),
		csrf.RequestHeader(CSRFHeaderName),
		csrf.FieldName(CSRFFieldName),
		csrf.HttpOnly(config.CSRFCookieHTTPOnly),
		csrf.Secure(config.CSRFCookieSecure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("CSRF validation failed",
				slog.String("path", r.URL.Path),
				slog.String("method", r.Method),
				slog.String("reason", csrf.FailureReason(r).Error()))
			http.Error(w, "CSRF verification failed. Request aborted.", http.StatusForbidden)
		})),
	)

	return Stage{Name: "csrf", Wrap: func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsSecure(r) {
				r = csrf.PlaintextHTTPRequest(r)
			}
			protected.ServeHTTP(w, r)
		})
	}}
}
