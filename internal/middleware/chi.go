package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// Recover turns handler panics into 500 responses.
func Recover() Stage {
	return Stage{Name: "recover", Wrap: chimw.Recoverer}
}

// RequestID tags every request with an id and resolves the client address
// from X-Forwarded-For and X-Real-IP.
func RequestID() Stage {
	return Stage{Name: "request-id", Wrap: func(next http.Handler) http.Handler {
		return chimw.RequestID(chimw.RealIP(next))
	}}
}

// RequestIDFrom returns the id assigned by the request-id stage.
func RequestIDFrom(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}
