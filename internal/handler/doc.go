// Package handler dispatches requests through the route table to the matched
// route's handler and reports per-route request metrics.
package handler
