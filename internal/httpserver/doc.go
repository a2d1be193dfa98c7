// Package httpserver runs the service's http.Server with validated listen
// address, bounded timeouts and graceful shutdown.
package httpserver
