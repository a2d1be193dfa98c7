package router

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnknownRoute is returned by PathFor for names no route declares.
var ErrUnknownRoute = errors.New("router: unknown route")

// Params holds captured path parameters by name. Values are always strings.
type Params map[string]string

// Route binds a pattern to a handler, or to a sub-table when built with Include.
type Route struct {
	Name    string
	Pattern string
	// Methods restricts the route. Empty means any method; GET implies HEAD.
	Methods []string
	Handler http.Handler
	Include *Table

	compiled *pattern
}

// Get declares a GET (and HEAD) route.
func Get(pattern, name string, h http.Handler) Route {
	return Route{Name: name, Pattern: pattern, Methods: []string{http.MethodGet}, Handler: h}
}

// Post declares a POST route.
func Post(pattern, name string, h http.Handler) Route {
	return Route{Name: name, Pattern: pattern, Methods: []string{http.MethodPost}, Handler: h}
}

// Include delegates every path matching pattern to sub. The pattern must end
// with '*'.
func Include(pattern string, sub *Table) Route {
	return Route{Pattern: pattern, Include: sub}
}

// Allows reports whether the route accepts method.
func (r *Route) Allows(method string) bool {
	if len(r.Methods) == 0 {
		return true
	}
	for _, m := range r.Methods {
		if m == method || (m == http.MethodGet && method == http.MethodHead) {
			return true
		}
	}
	return false
}

// Allow lists the accepted methods in the form used by the Allow header.
func (r *Route) Allow() string {
	methods := append([]string(nil), r.Methods...)
	for _, m := range r.Methods {
		if m == http.MethodGet {
			methods = append(methods, http.MethodHead)
			break
		}
	}
	methods = append(methods, http.MethodOptions)
	return strings.Join(methods, ", ")
}

// Match is the result of a successful lookup.
type Match struct {
	Route  *Route
	Params Params
	// MethodAllowed is false when the first matching route does not accept the
	// request method. Later routes are not consulted in that case.
	MethodAllowed bool
}

// Handler returns the matched route's handler.
func (m Match) Handler() http.Handler {
	if m.Route == nil {
		return nil
	}
	return m.Route.Handler
}

// Table is an ordered, immutable sequence of routes.
type Table struct {
	routes []Route
	names  map[string][]*pattern
}

// NewTable compiles every pattern and indexes every named route, including the
// named routes of included sub-tables. It fails on malformed patterns,
// duplicate names and routes without a handler.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{
		routes: make([]Route, len(routes)),
		names:  make(map[string][]*pattern),
	}
	copy(t.routes, routes)

	for i := range t.routes {
		rt := &t.routes[i]

		p, err := compilePattern(rt.Pattern)
		if err != nil {
			return nil, err
		}
		rt.compiled = p

		if rt.Include != nil {
			if !p.wildcard {
				return nil, fmt.Errorf("router: include pattern %q must end with '*'", rt.Pattern)
			}
			for name, chain := range rt.Include.names {
				full := append([]*pattern{p}, chain...)
				if err := t.index(name, full); err != nil {
					return nil, err
				}
			}
			continue
		}

		if rt.Handler == nil {
			return nil, fmt.Errorf("router: route %q (%s) has no handler", rt.Name, rt.Pattern)
		}
		if rt.Name != "" {
			if err := t.index(rt.Name, []*pattern{p}); err != nil {
				return nil, err
			}
		}
	}

	return t, nil
}

func (t *Table) index(name string, chain []*pattern) error {
	if _, exists := t.names[name]; exists {
		return fmt.Errorf("router: duplicate route name %q", name)
	}
	t.names[name] = chain
	return nil
}

// Match returns the first route matching path. The boolean is false only when
// the table has no catch-all route and nothing matched.
func (t *Table) Match(path, method string) (Match, bool) {
	return t.match(path, method, nil)
}

func (t *Table) match(path, method string, inherited Params) (Match, bool) {
	for i := range t.routes {
		rt := &t.routes[i]

		captured, rest, ok := rt.compiled.match(path)
		if !ok {
			continue
		}
		params := mergeParams(inherited, captured)

		if rt.Include != nil {
			if m, ok := rt.Include.match(rest, method, params); ok {
				return m, true
			}
			continue
		}

		return Match{
			Route:         rt,
			Params:        params,
			MethodAllowed: rt.Allows(method),
		}, true
	}

	return Match{}, false
}

func mergeParams(a, b Params) Params {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make(Params, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Names lists the named routes reachable from the table in no particular order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.names))
	for name := range t.names {
		names = append(names, name)
	}
	return names
}
