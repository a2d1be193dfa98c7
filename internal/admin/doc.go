// Package admin is the staff-only surface: enabling and disabling experiments
// and reading the request metrics.
package admin
