// Package api serves the read-only JSON API over experiments and their
// metrics consumed by the frontend.
package api
