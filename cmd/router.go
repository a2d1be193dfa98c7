package main

import (
	"net/http"

	"github.com/angeloszaimis/experiments-viewer/internal/api"
	"github.com/angeloszaimis/experiments-viewer/internal/router"
)

const (
	RouteExperiments      = "v2-experiments"
	RouteExperimentBySlug = "v2-experiment-by-slug"
	RouteMetricByID       = "v2-metric-by-id"
	RouteIndex            = "index"
)

// setupRouter builds the service route table. Entries are tried in order and
// the wildcard index must stay last.
func setupRouter(a *api.API, accountsTable, adminTable *router.Table, index http.Handler) (*router.Table, error) {
	return router.NewTable(
		router.Get("/v2/experiments/", RouteExperiments, http.HandlerFunc(a.ListExperiments)),
		router.Get("/v2/experiments/{"+api.ParamExperimentSlug+":int}/", RouteExperimentBySlug,
			http.HandlerFunc(a.ExperimentBySlug)),
		router.Get("/v2/experiments/{"+api.ParamExperimentID+":int}/metrics/{"+api.ParamMetricID+":int}/", RouteMetricByID,
			http.HandlerFunc(a.MetricByID)),
		router.Include("/accounts/*", accountsTable),
		router.Include("/admin/*", adminTable),
		router.Get("*", RouteIndex, index),
	)
}
