package dockerflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/angeloszaimis/experiments-viewer/internal/healthcheck"
	"github.com/angeloszaimis/experiments-viewer/internal/middleware"
)

const (
	PathVersion     = "/__version__"
	PathHeartbeat   = "/__heartbeat__"
	PathLBHeartbeat = "/__lbheartbeat__"
)

const (
	statusOK    = "ok"
	statusError = "error"
)

// Checker is a dependency probed by the heartbeat. *healthcheck.Monitor
// implements it.
type Checker interface {
	Name() string
	Status() healthcheck.Status
	Check(ctx context.Context) healthcheck.Status
}

type Dockerflow struct {
	version []byte
	checks  []Checker
	logger  *slog.Logger
}

// New reads the version file once. A missing file is not an error; the
// version endpoint then answers 404.
func New(versionPath string, checks []Checker, logger *slog.Logger) (*Dockerflow, error) {
	d := &Dockerflow{checks: checks, logger: logger}

	data, err := os.ReadFile(versionPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("Version file not found", slog.String("path", versionPath))
	case err != nil:
		return nil, fmt.Errorf("read version file: %w", err)
	default:
		if !json.Valid(data) {
			return nil, fmt.Errorf("version file %s is not valid JSON", versionPath)
		}
		d.version = data
	}

	return d, nil
}

// Stage answers the operational endpoints and logs a summary of every
// request.
func (d *Dockerflow) Stage() middleware.Stage {
	return middleware.Stage{Name: "dockerflow", Wrap: d.Middleware}
}

func (d *Dockerflow) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		switch r.URL.Path {
		case PathVersion:
			d.serveVersion(rec, r)
		case PathHeartbeat:
			d.serveHeartbeat(rec, r)
		case PathLBHeartbeat:
			rec.WriteHeader(http.StatusOK)
		default:
			next.ServeHTTP(rec, r)
		}

		d.summary(r, rec.status, time.Since(start))
	})
}

func (d *Dockerflow) serveVersion(w http.ResponseWriter, r *http.Request) {
	if d.version == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "version.json not found"})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.version)
}

type heartbeat struct {
	Status  string                        `json:"status"`
	Checks  map[string]string             `json:"checks"`
	Details map[string]healthcheck.Status `json:"details"`
}

func (d *Dockerflow) serveHeartbeat(w http.ResponseWriter, r *http.Request) {
	hb := heartbeat{
		Status:  statusOK,
		Checks:  make(map[string]string, len(d.checks)),
		Details: make(map[string]healthcheck.Status, len(d.checks)),
	}

	for _, c := range d.checks {
		status := c.Status()
		if status.CheckedAt.IsZero() {
			status = c.Check(r.Context())
		}
		hb.Details[c.Name()] = status
		if status.Healthy {
			hb.Checks[c.Name()] = statusOK
			continue
		}
		hb.Checks[c.Name()] = statusError
		hb.Status = statusError
	}

	code := http.StatusOK
	if hb.Status != statusOK {
		code = http.StatusInternalServerError
	}
	writeJSON(w, code, hb)
}

func (d *Dockerflow) summary(r *http.Request, status int, elapsed time.Duration) {
	errno := 0
	if status >= http.StatusInternalServerError {
		errno = 1
	}

	d.logger.Info("request.summary",
		slog.Int("errno", errno),
		slog.String("agent", r.UserAgent()),
		slog.String("lang", r.Header.Get("Accept-Language")),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("code", status),
		slog.Int64("t", elapsed.Milliseconds()),
		slog.String("rid", middleware.RequestIDFrom(r.Context())),
		slog.String("remote", r.RemoteAddr))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
