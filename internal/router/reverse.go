package router

import (
	"fmt"
	"strings"
)

// Resolver renders named routes into paths.
type Resolver interface {
	PathFor(name string, params Params) (string, error)
}

// PathFor renders the named route with params. Routes inside included
// sub-tables render with the include prefix. The catch-all renders as "/".
func (t *Table) PathFor(name string, params Params) (string, error) {
	chain, ok := t.names[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}

	var b strings.Builder
	for i, p := range chain {
		s, err := p.render(params)
		if err != nil {
			return "", err
		}
		if i < len(chain)-1 {
			s = strings.TrimSuffix(s, "/")
		}
		b.WriteString(s)
	}

	path := b.String()
	if path == "" {
		return "/", nil
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path, nil
}

// ResolveAll renders every name in names without parameters, failing on the
// first route that cannot be rendered.
func ResolveAll(r Resolver, names ...string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		path, err := r.PathFor(name, nil)
		if err != nil {
			return nil, err
		}
		out[name] = path
	}
	return out, nil
}
