package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/angeloszaimis/experiments-viewer/internal/store"
)

// Path parameter names captured by the route table.
const (
	ParamExperimentSlug = "exp_slug"
	ParamExperimentID   = "exp_id"
	ParamMetricID       = "metric_id"
)

const (
	detailNotFound    = "Not found."
	detailServerError = "A server error occurred."
)

// ExperimentStore reads experiments. *store.Store implements it.
type ExperimentStore interface {
	ListExperiments(ctx context.Context) ([]store.Experiment, error)
	GetExperiment(ctx context.Context, id int64) (store.ExperimentDetail, error)
	GetMetric(ctx context.Context, experimentID, metricID int64) (store.MetricData, error)
}

type API struct {
	store  ExperimentStore
	logger *slog.Logger
}

func New(s ExperimentStore, logger *slog.Logger) *API {
	return &API{store: s, logger: logger}
}

// ListExperiments serves GET /v2/experiments/.
func (a *API) ListExperiments(w http.ResponseWriter, r *http.Request) {
	experiments, err := a.store.ListExperiments(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	out := experimentListJSON{Experiments: make([]experimentJSON, 0, len(experiments))}
	for _, e := range experiments {
		out.Experiments = append(out.Experiments, newExperimentJSON(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// ExperimentBySlug serves GET /v2/experiments/{exp_slug}/.
func (a *API) ExperimentBySlug(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, ParamExperimentSlug)
	if !ok {
		return
	}

	detail, err := a.store.GetExperiment(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newExperimentDetailJSON(detail))
}

// MetricByID serves GET /v2/experiments/{exp_id}/metrics/{metric_id}/.
func (a *API) MetricByID(w http.ResponseWriter, r *http.Request) {
	expID, ok := pathID(w, r, ParamExperimentID)
	if !ok {
		return
	}
	metricID, ok := pathID(w, r, ParamMetricID)
	if !ok {
		return
	}

	data, err := a.store.GetMetric(r.Context(), expID, metricID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newMetricJSON(data))
}

// pathID converts a captured digit string. The route table guarantees the
// digits; only overflow can fail here.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorJSON{Detail: "Invalid " + name + "."})
		return 0, false
	}
	return id, true
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorJSON{Detail: detailNotFound})
		return
	}

	a.logger.Error("API request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorJSON{Detail: detailServerError})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
