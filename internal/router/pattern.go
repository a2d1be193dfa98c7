package router

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

type paramKind int

const (
	kindSegment paramKind = iota
	kindInt
)

type segment struct {
	literal string
	param   string
	kind    paramKind
}

// pattern is the compiled form of a route pattern.
type pattern struct {
	raw      string
	regex    *regexp.Regexp
	segments []segment
	params   []string
	// wildcard is set when the pattern ends with '*'. The remainder is then
	// exposed as the last submatch.
	wildcard bool
}

func compilePattern(raw string) (*pattern, error) {
	if raw == "" {
		return nil, fmt.Errorf("router: empty pattern")
	}

	p := &pattern{raw: raw}
	var expr strings.Builder
	expr.WriteString("(?s)^")

	seen := make(map[string]bool)
	rest := raw
	for rest != "" {
		switch {
		case rest[0] == '*':
			if len(rest) != 1 {
				return nil, fmt.Errorf("router: %q: '*' must end the pattern", raw)
			}
			p.wildcard = true
			expr.WriteString("(.*)")
			rest = ""

		case rest[0] == '{':
			end := strings.IndexByte(rest, '}')
			if end < 0 {
				return nil, fmt.Errorf("router: %q: unterminated parameter", raw)
			}
			name, kind, err := parseParam(rest[1:end])
			if err != nil {
				return nil, fmt.Errorf("router: %q: %w", raw, err)
			}
			if seen[name] {
				return nil, fmt.Errorf("router: %q: duplicate parameter %q", raw, name)
			}
			seen[name] = true

			p.segments = append(p.segments, segment{param: name, kind: kind})
			p.params = append(p.params, name)
			if kind == kindInt {
				expr.WriteString("(?P<" + name + ">[0-9]+)")
			} else {
				expr.WriteString("(?P<" + name + ">[^/]+)")
			}
			rest = rest[end+1:]

		default:
			next := strings.IndexAny(rest, "{*")
			if next < 0 {
				next = len(rest)
			}
			lit := rest[:next]
			if strings.ContainsRune(lit, '}') {
				return nil, fmt.Errorf("router: %q: unexpected '}'", raw)
			}
			p.segments = append(p.segments, segment{literal: lit})
			expr.WriteString(regexp.QuoteMeta(lit))
			rest = rest[next:]
		}
	}
	expr.WriteString("$")

	re, err := regexp.Compile(expr.String())
	if err != nil {
		return nil, fmt.Errorf("router: %q: %w", raw, err)
	}
	p.regex = re

	return p, nil
}

func parseParam(decl string) (string, paramKind, error) {
	name, typ, hasType := strings.Cut(decl, ":")
	if !validParamName(name) {
		return "", 0, fmt.Errorf("invalid parameter name %q", name)
	}
	if !hasType {
		return name, kindSegment, nil
	}
	switch typ {
	case "int":
		return name, kindInt, nil
	case "str":
		return name, kindSegment, nil
	default:
		return "", 0, fmt.Errorf("unknown parameter type %q", typ)
	}
}

func validParamName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// match reports whether path matches, returning the captured parameters and,
// for wildcard patterns, the unmatched remainder with a leading slash.
func (p *pattern) match(path string) (Params, string, bool) {
	m := p.regex.FindStringSubmatch(path)
	if m == nil {
		return nil, "", false
	}

	var params Params
	if len(p.params) > 0 {
		params = make(Params, len(p.params))
		for i, name := range p.regex.SubexpNames() {
			if name != "" {
				params[name] = m[i]
			}
		}
	}

	var rest string
	if p.wildcard {
		rest = "/" + m[len(m)-1]
	}

	return params, rest, true
}

func (p *pattern) render(params Params) (string, error) {
	var b strings.Builder
	for _, seg := range p.segments {
		if seg.param == "" {
			b.WriteString(seg.literal)
			continue
		}

		value, ok := params[seg.param]
		if !ok || value == "" {
			return "", fmt.Errorf("router: %q: missing parameter %q", p.raw, seg.param)
		}
		if seg.kind == kindInt && !isDigits(value) {
			return "", fmt.Errorf("router: %q: parameter %q must be an integer, got %q", p.raw, seg.param, value)
		}
		b.WriteString(url.PathEscape(value))
	}
	return b.String(), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
