// Package metrics provides in-process request metrics for the service.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Request counts per route name
//   - Response times with percentile calculations (P50, P95, P99)
//   - HTTP status code distribution per route
//   - The last known state of health checks (e.g. the database)
//
// The collector runs in a dedicated goroutine and processes events without blocking
// the request path. Emit never blocks: when the buffer is full the event is dropped.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventResponseCompleted,
//		Route:      "v2-experiments",
//		Duration:   15 * time.Millisecond,
//		StatusCode: 200,
//	})
//
//	snapshot := collector.Snapshot()
//
// Storage is guarded by sync.RWMutex and shutdown drains pending events.
package metrics
