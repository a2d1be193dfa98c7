package handler

import (
	"log/slog"
	"net/http"
	"time"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/angeloszaimis/experiments-viewer/internal/metrics"
	"github.com/angeloszaimis/experiments-viewer/internal/router"
)

const unnamedRoute = "unnamed"

type Dispatcher struct {
	logger           *slog.Logger
	table            *router.Table
	metricsCollector *metrics.Collector
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func NewDispatcher(logger *slog.Logger, table *router.Table, collector *metrics.Collector) *Dispatcher {
	return &Dispatcher{
		logger:           logger,
		table:            table,
		metricsCollector: collector,
	}
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	match, ok := d.table.Match(r.URL.Path, r.Method)
	if !ok {
		d.logger.Warn("No route matched", slog.String("path", r.URL.Path))
		http.NotFound(w, r)
		return
	}

	name := match.Route.Name
	if name == "" {
		name = unnamedRoute
	}

	span := trace.SpanFromContext(r.Context())
	span.SetName(r.Method + " " + name)
	span.SetAttributes(semconv.HTTPRoute(name))

	d.metricsCollector.Emit(metrics.MetricEvent{
		Type:      metrics.EventRequestReceived,
		Timestamp: time.Now(),
		Route:     name,
	})

	start := time.Now()
	wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

	d.serve(wrapped, r, match)

	d.metricsCollector.Emit(metrics.MetricEvent{
		Type:       metrics.EventResponseCompleted,
		Timestamp:  time.Now(),
		Route:      name,
		Duration:   time.Since(start),
		StatusCode: wrapped.statusCode,
	})
}

func (d *Dispatcher) serve(w http.ResponseWriter, r *http.Request, match router.Match) {
	if !match.MethodAllowed {
		w.Header().Set("Allow", match.Route.Allow())
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		d.logger.Debug("Method not allowed",
			slog.String("route", match.Route.Name),
			slog.String("method", r.Method))
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	for name, value := range match.Params {
		r.SetPathValue(name, value)
	}

	d.logger.Debug("Dispatching request",
		slog.String("route", match.Route.Name),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	match.Handler().ServeHTTP(w, r)
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
