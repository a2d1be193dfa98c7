// Package store persists experiments, metrics, users and sessions in SQLite
// or PostgreSQL. Queries are written once with '?' placeholders and rebound
// for the engine in use.
package store
