package accounts

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/angeloszaimis/experiments-viewer/config"
	"github.com/angeloszaimis/experiments-viewer/internal/circuitbreaker"
	"github.com/angeloszaimis/experiments-viewer/internal/router"
	"github.com/angeloszaimis/experiments-viewer/internal/session"
	"github.com/angeloszaimis/experiments-viewer/internal/store"
)

// Session keys.
const (
	sessionState       = "oidc_state"
	sessionNonce       = "oidc_nonce"
	sessionVerifier    = "oidc_code_verifier"
	sessionNext        = "oidc_login_next"
	sessionUserID      = "_auth_user_id"
	sessionAccessToken = "oidc_access_token"
)

// Breaker names of the provider endpoints.
const (
	endpointToken    = "token"
	endpointUserInfo = "userinfo"
)

// UserStore persists signed-in users. *store.Store implements it.
type UserStore interface {
	UpsertUser(ctx context.Context, u store.User) (store.User, error)
	GetUser(ctx context.Context, id int64) (store.User, error)
}

type Options struct {
	OIDC           config.OIDC
	Scopes         []string
	RequestTimeout time.Duration
	// IsStaff decides whether a user signing in with email gets staff.
	IsStaff    func(email string) bool
	HTTPClient *http.Client
}

type Handler struct {
	opts     Options
	oauth    *oauth2.Config
	client   *http.Client
	users    UserStore
	breakers *circuitbreaker.Registry
	logger   *slog.Logger
	urls     URLs
}

const defaultRequestTimeout = 10 * time.Second

func New(opts Options, users UserStore, breakers *circuitbreaker.Registry, logger *slog.Logger) *Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.RequestTimeout}
	}
	if opts.IsStaff == nil {
		opts.IsStaff = func(string) bool { return false }
	}

	return &Handler{
		opts: opts,
		oauth: &oauth2.Config{
			ClientID:     opts.OIDC.ClientID,
			ClientSecret: opts.OIDC.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   opts.OIDC.AuthorizationEndpoint,
				TokenURL:  opts.OIDC.TokenEndpoint,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: opts.Scopes,
		},
		client:   client,
		users:    users,
		breakers: breakers,
		logger:   logger,
	}
}

// Routes returns the sub-table mounted under /accounts/.
func (h *Handler) Routes() (*router.Table, error) {
	return router.NewTable(
		router.Get("/authenticate/", RouteLogin, http.HandlerFunc(h.login)),
		router.Get("/callback/", RouteCallback, http.HandlerFunc(h.callback)),
		router.Post("/logout/", RouteLogout, http.HandlerFunc(h.logout)),
	)
}

// Resolve renders the login related URLs once the full route table exists.
// It must be called before the handler serves requests.
func (h *Handler) Resolve(r router.Resolver) (URLs, error) {
	urls, err := ResolveURLs(r)
	if err != nil {
		return URLs{}, err
	}
	h.urls = urls
	return urls, nil
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	state, err := randomToken()
	if err != nil {
		h.logger.Error("Failed to generate state", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	nonce, err := randomToken()
	if err != nil {
		h.logger.Error("Failed to generate nonce", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	verifier := oauth2.GenerateVerifier()

	sess.Set(sessionState, state)
	sess.Set(sessionNonce, nonce)
	sess.Set(sessionVerifier, verifier)
	if next := r.URL.Query().Get("next"); isSafeRedirect(next) {
		sess.Set(sessionNext, next)
	} else {
		sess.Pop(sessionNext)
	}

	redirectURI := absoluteURL(r, h.urls.Callback)
	authURL := h.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("redirect_uri", redirectURI),
	)

	http.Redirect(w, r, authURL, http.StatusFound)
}

func (h *Handler) callback(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	user, err := h.completeLogin(r, sess)
	if err != nil {
		h.logger.Warn("Login failed", slog.String("error", err.Error()))
		sess.Pop(sessionState)
		sess.Pop(sessionNonce)
		sess.Pop(sessionVerifier)
		http.Redirect(w, r, h.urls.LoginFailure, http.StatusFound)
		return
	}

	next, ok := sess.Pop(sessionNext)
	if !ok || !isSafeRedirect(next) {
		next = h.urls.LoginRedirect
	}

	h.logger.Info("User logged in",
		slog.Int64("user_id", user.ID),
		slog.Bool("staff", user.IsStaff))

	http.Redirect(w, r, next, http.StatusFound)
}

func (h *Handler) completeLogin(r *http.Request, sess *session.Session) (store.User, error) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		return store.User{}, fmt.Errorf("provider returned error %q: %s", e, q.Get("error_description"))
	}

	state, _ := sess.Pop(sessionState)
	nonce, _ := sess.Pop(sessionNonce)
	verifier, _ := sess.Pop(sessionVerifier)
	if state == "" || q.Get("state") != state {
		return store.User{}, errors.New("state mismatch")
	}
	code := q.Get("code")
	if code == "" {
		return store.User{}, errors.New("authorization code missing")
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.RequestTimeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, h.client)

	var token *oauth2.Token
	err := h.breakers.DoIf(endpointToken, func() error {
		var err error
		token, err = h.oauth.Exchange(ctx, code,
			oauth2.VerifierOption(verifier),
			oauth2.SetAuthURLParam("redirect_uri", absoluteURL(r, h.urls.Callback)),
		)
		return err
	}, providerFailure)
	if err != nil {
		return store.User{}, fmt.Errorf("exchange code: %w", err)
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken == "" {
		return store.User{}, errors.New("token response has no id_token")
	}
	if _, err := verifyIDToken(rawIDToken, h.opts.OIDC.ClientID, h.opts.OIDC.ClientSecret, nonce); err != nil {
		return store.User{}, err
	}

	info, err := h.userInfo(ctx, token)
	if err != nil {
		return store.User{}, err
	}
	if info.Email == "" {
		return store.User{}, errors.New("userinfo has no email")
	}

	accessToken := ""
	if h.opts.OIDC.StoreAccessToken {
		accessToken = token.AccessToken
	}

	user, err := h.users.UpsertUser(r.Context(), store.User{
		Email:       info.Email,
		Username:    info.Email,
		IsStaff:     h.opts.IsStaff(info.Email),
		AccessToken: accessToken,
		LastLogin:   time.Now(),
	})
	if err != nil {
		return store.User{}, err
	}

	if err := sess.CycleKey(); err != nil {
		return store.User{}, fmt.Errorf("cycle session key: %w", err)
	}
	sess.Set(sessionUserID, strconv.FormatInt(user.ID, 10))
	if accessToken != "" {
		sess.Set(sessionAccessToken, accessToken)
	}

	return user, nil
}

type userInfo struct {
	Subject string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
}

func (h *Handler) userInfo(ctx context.Context, token *oauth2.Token) (userInfo, error) {
	var info userInfo
	err := h.breakers.DoIf(endpointUserInfo, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.opts.OIDC.UserInfoEndpoint, nil)
		if err != nil {
			return err
		}
		token.SetAuthHeader(req)

		res, err := h.client.Do(req)
		if err != nil {
			return err
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusOK {
			return &statusError{endpoint: endpointUserInfo, code: res.StatusCode}
		}
		return json.NewDecoder(res.Body).Decode(&info)
	}, providerFailure)
	if err != nil {
		return userInfo{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	return info, nil
}

type statusError struct {
	endpoint string
	code     int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned %d", e.endpoint, e.code)
}

// providerFailure reports whether err means the provider is unavailable.
// Responses below 500 are answers about the request, such as an invalid or
// replayed code, and must not trip the breaker shared by every login.
func providerFailure(err error) bool {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return re.Response.StatusCode >= http.StatusInternalServerError
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError
	}
	return true
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		flushSession(sess, h.logger)
	}
	if user, ok := UserFrom(r.Context()); ok {
		h.logger.Info("User logged out", slog.Int64("user_id", user.ID))
	}
	http.Redirect(w, r, h.urls.LogoutRedirect, http.StatusFound)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// isSafeRedirect accepts same-host absolute paths only.
func isSafeRedirect(next string) bool {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return false
	}
	u, err := url.Parse(next)
	return err == nil && u.Scheme == "" && u.Host == ""
}

func absoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get(config.ProxySSLHeader) == config.ProxySSLValue {
		scheme = "https"
	}
	return (&url.URL{Scheme: scheme, Host: r.Host, Path: path}).String()
}
