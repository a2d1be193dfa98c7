package accounts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/angeloszaimis/experiments-viewer/internal/session"
	"github.com/angeloszaimis/experiments-viewer/internal/store"
)

type userKey struct{}

// UserFrom returns the signed-in user of the request, if any.
func UserFrom(ctx context.Context) (store.User, bool) {
	u, ok := ctx.Value(userKey{}).(store.User)
	return u, ok
}

// WithUser attaches u to ctx.
func WithUser(ctx context.Context, u store.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// Authenticate attaches the user named by the session to the request
// context. Anonymous requests pass through unchanged.
func Authenticate(users UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := sess.Get(sessionUserID)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				flushSession(sess, logger)
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.GetUser(r.Context(), id)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					flushSession(sess, logger)
				} else {
					logger.Warn("Failed to load user", slog.Int64("user_id", id), slog.String("error", err.Error()))
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func flushSession(sess *session.Session, logger *slog.Logger) {
	if err := sess.Flush(); err != nil {
		logger.Warn("Failed to flush session", slog.String("error", err.Error()))
	}
}
