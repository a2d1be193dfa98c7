package admin

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/csrf"

	"github.com/angeloszaimis/experiments-viewer/internal/accounts"
	"github.com/angeloszaimis/experiments-viewer/internal/router"
	"github.com/angeloszaimis/experiments-viewer/internal/store"
)

const (
	RouteIndex   = "admin:index"
	RouteToggle  = "admin:experiment-toggle"
	RouteMetrics = "admin:metrics"
)

// ExperimentStore is what the admin reads and changes. *store.Store
// implements it.
type ExperimentStore interface {
	ListExperiments(ctx context.Context) ([]store.Experiment, error)
	SetExperimentEnabled(ctx context.Context, id int64, enabled bool) error
}

type Admin struct {
	store    ExperimentStore
	metrics  http.Handler
	logger   *slog.Logger
	resolver router.Resolver
	loginURL string
	logout   string
}

func New(s ExperimentStore, metrics http.Handler, logger *slog.Logger) *Admin {
	return &Admin{store: s, metrics: metrics, logger: logger}
}

// Routes returns the sub-table mounted under /admin/.
func (a *Admin) Routes() (*router.Table, error) {
	return router.NewTable(
		router.Get("/", RouteIndex, a.staffOnly(http.HandlerFunc(a.index))),
		router.Post("/experiments/{id:int}/toggle/", RouteToggle, a.staffOnly(http.HandlerFunc(a.toggle))),
		router.Get("/metrics/", RouteMetrics, a.staffOnly(a.metrics)),
	)
}

// Resolve keeps r for rendering links and resolves the login and logout
// paths. It must be called before the admin serves requests.
func (a *Admin) Resolve(r router.Resolver) error {
	urls, err := accounts.ResolveURLs(r)
	if err != nil {
		return err
	}
	a.resolver = r
	a.loginURL = urls.Login
	a.logout = urls.Logout
	return nil
}

// staffOnly sends anonymous users to the login page and refuses other
// non-staff users.
func (a *Admin) staffOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := accounts.UserFrom(r.Context())
		if !ok {
			target := a.loginURL + "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		if !user.IsStaff {
			a.logger.Warn("Non-staff user denied admin access", slog.Int64("user_id", user.ID))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type experimentRow struct {
	store.Experiment
	TogglePath string
}

type indexPage struct {
	User        store.User
	Experiments []experimentRow
	LogoutPath  string
	MetricsPath string
	CSRFField   template.HTML
}

func (a *Admin) index(w http.ResponseWriter, r *http.Request) {
	experiments, err := a.store.ListExperiments(r.Context())
	if err != nil {
		a.logger.Error("Failed to list experiments", slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	metricsPath, err := a.resolver.PathFor(RouteMetrics, nil)
	if err != nil {
		a.renderError(w, err)
		return
	}

	user, _ := accounts.UserFrom(r.Context())
	page := indexPage{
		User:        user,
		Experiments: make([]experimentRow, 0, len(experiments)),
		LogoutPath:  a.logout,
		MetricsPath: metricsPath,
		CSRFField:   csrf.TemplateField(r),
	}
	for _, e := range experiments {
		path, err := a.resolver.PathFor(RouteToggle, router.Params{"id": strconv.FormatInt(e.ID, 10)})
		if err != nil {
			a.renderError(w, err)
			return
		}
		page.Experiments = append(page.Experiments, experimentRow{Experiment: e, TogglePath: path})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		a.logger.Error("Failed to render admin index", slog.String("error", err.Error()))
	}
}

func (a *Admin) toggle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	enabled, err := strconv.ParseBool(r.PostFormValue("enabled"))
	if err != nil {
		http.Error(w, "enabled must be true or false", http.StatusBadRequest)
		return
	}

	if err := a.store.SetExperimentEnabled(r.Context(), id, enabled); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		a.logger.Error("Failed to toggle experiment", slog.Int64("experiment_id", id), slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	user, _ := accounts.UserFrom(r.Context())
	a.logger.Info("Experiment toggled",
		slog.Int64("experiment_id", id),
		slog.Bool("enabled", enabled),
		slog.Int64("user_id", user.ID))

	index, err := a.resolver.PathFor(RouteIndex, nil)
	if err != nil {
		a.renderError(w, err)
		return
	}
	http.Redirect(w, r, index, http.StatusSeeOther)
}

func (a *Admin) renderError(w http.ResponseWriter, err error) {
	a.logger.Error("Failed to resolve admin path", slog.String("error", err.Error()))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
