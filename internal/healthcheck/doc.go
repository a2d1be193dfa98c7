// Package healthcheck periodically probes dependencies of the service, such as
// the database, and remembers whether the last probe succeeded.
package healthcheck
