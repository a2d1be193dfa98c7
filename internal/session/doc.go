// Package session keeps per-browser state on the server. Only the session key
// travels in the cookie; values live in the database. Loading, committing and
// token rotation are handled by scs; this package adapts it to the store and
// exposes the string-valued view the handlers use.
package session
