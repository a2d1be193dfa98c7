package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/angeloszaimis/experiments-viewer/internal/store"
)

const CookieName = "sessionid"

// Backend persists sessions. *store.Store implements it.
type Backend interface {
	LoadSession(ctx context.Context, key string) (store.SessionRecord, error)
	SaveSession(ctx context.Context, rec store.SessionRecord) error
	DeleteSession(ctx context.Context, key string) error
}

type Options struct {
	Secure bool
	MaxAge time.Duration
}

type Manager struct {
	sessions *scs.SessionManager
	logger   *slog.Logger
}

func NewManager(backend Backend, opts Options, logger *slog.Logger) *Manager {
	sm := scs.New()
	sm.Store = backendStore{backend: backend}
	if opts.MaxAge > 0 {
		sm.Lifetime = opts.MaxAge
	}
	sm.Cookie.Name = CookieName
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = opts.Secure
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Persist = true
	sm.ErrorFunc = func(w http.ResponseWriter, r *http.Request, err error) {
		logger.Error("Session failure", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}

	return &Manager{sessions: sm, logger: logger}
}

type contextKey struct{}

// FromContext returns the session attached by Manager.Middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}

// NewContext attaches s to ctx.
func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// Middleware loads the session named by the request cookie and commits it
// before the first byte of the response goes out.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return m.sessions.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := &Session{sm: m.sessions, ctx: r.Context()}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
	}))
}

// backendStore adapts a Backend to scs.Store and scs.CtxStore.
type backendStore struct {
	backend Backend
}

func (b backendStore) Find(token string) ([]byte, bool, error) {
	return b.FindCtx(context.Background(), token)
}

func (b backendStore) Commit(token string, data []byte, expiry time.Time) error {
	return b.CommitCtx(context.Background(), token, data, expiry)
}

func (b backendStore) Delete(token string) error {
	return b.DeleteCtx(context.Background(), token)
}

func (b backendStore) FindCtx(ctx context.Context, token string) ([]byte, bool, error) {
	rec, err := b.backend.LoadSession(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec.Data, true, nil
}

func (b backendStore) CommitCtx(ctx context.Context, token string, data []byte, expiry time.Time) error {
	return b.backend.SaveSession(ctx, store.SessionRecord{Key: token, Data: data, Expiry: expiry})
}

func (b backendStore) DeleteCtx(ctx context.Context, token string) error {
	return b.backend.DeleteSession(ctx, token)
}
