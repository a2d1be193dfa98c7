// Package logger provides structured logging with configurable level and format.
// It wraps the standard log/slog package: "verbose" renders human readable
// key=value lines, "json" renders one JSON object per line for log shippers.
// Every logger carries the service name and the deployment environment.
package logger
