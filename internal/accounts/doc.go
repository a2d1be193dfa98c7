// Package accounts signs users in through an OpenID Connect provider using
// the authorization code flow with PKCE, and attaches the signed-in user to
// every request.
package accounts
