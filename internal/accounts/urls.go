package accounts

import (
	"github.com/angeloszaimis/experiments-viewer/internal/router"
)

// Route names of the accounts sub-table.
const (
	RouteLogin    = "oidc_authentication_init"
	RouteCallback = "oidc_authentication_callback"
	RouteLogout   = "oidc_logout"
	RouteIndex    = "index"
)

// URLs are the login related paths, resolved once from the route table.
type URLs struct {
	Login          string
	Logout         string
	Callback       string
	LoginRedirect  string
	LogoutRedirect string
	LoginFailure   string
}

// ResolveURLs renders every login related path with r.
func ResolveURLs(r router.Resolver) (URLs, error) {
	paths, err := router.ResolveAll(r, RouteLogin, RouteLogout, RouteCallback, RouteIndex)
	if err != nil {
		return URLs{}, err
	}
	return URLs{
		Login:          paths[RouteLogin],
		Logout:         paths[RouteLogout],
		Callback:       paths[RouteCallback],
		LoginRedirect:  paths[RouteIndex],
		LogoutRedirect: paths[RouteIndex],
		LoginFailure:   paths[RouteIndex],
	}, nil
}
