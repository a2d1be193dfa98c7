// Package middleware composes the request pipeline of the service from named
// stages. Every stage may answer a request itself or hand it on and adjust
// the response on the way out.
package middleware
