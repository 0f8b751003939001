// Package guard decides whether a view may be entered in the current session state.
package guard

import "strings"

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// StateFor maps a session's authenticated flag to a guard state.
func StateFor(authenticated bool) State {
	if authenticated {
		return Authenticated
	}
	return Unauthenticated
}

// Decision is the outcome of checking one navigation.
type Decision struct {
	Allow    bool
	Redirect string // set when Allow is false
}

type pattern struct {
	segments []string
	subtree  bool
}

// Routes is the table of protected views. It is immutable once built.
type Routes struct {
	loginPath string
	patterns  []pattern
}

// New builds a table whose protected views redirect to loginPath.
// A pattern is an exact path ("/profile"), may use "*" or a "{name}" wildcard for one segment
// ("/books/{id}/delete"), and may end in "/..." to cover a whole subtree ("/reading-lists/...").
func New(loginPath string, patterns ...string) *Routes {
	r := &Routes{loginPath: loginPath}
	for _, p := range patterns {
		subtree := false
		if rest, ok := strings.CutSuffix(p, "/..."); ok {
			p, subtree = rest, true
		}
		r.patterns = append(r.patterns, pattern{segments: split(p), subtree: subtree})
	}
	return r
}

func (r *Routes) LoginPath() string {
	return r.loginPath
}

// IsProtected reports whether path requires an authenticated session.
func (r *Routes) IsProtected(path string) bool {
	segments := split(path)
	for _, p := range r.patterns {
		if p.matches(segments) {
			return true
		}
	}
	return false
}

// CanEnter reports whether a session in state may render path.
func (r *Routes) CanEnter(state State, path string) bool {
	return state == Authenticated || !r.IsProtected(path)
}

// Decide is CanEnter with the redirect target for a refusal.
func (r *Routes) Decide(state State, path string) Decision {
	if r.CanEnter(state, path) {
		return Decision{Allow: true}
	}
	return Decision{Redirect: r.loginPath}
}

func (p pattern) matches(segments []string) bool {
	if len(segments) < len(p.segments) {
		return false
	}
	if len(segments) > len(p.segments) && !p.subtree {
		return false
	}
	for i, want := range p.segments {
		if !wildcard(want) && want != segments[i] {
			return false
		}
	}
	return true
}

func wildcard(segment string) bool {
	return segment == "*" || (len(segment) > 2 && segment[0] == '{' && segment[len(segment)-1] == '}')
}

// split normalizes a path into its segments, ignoring any query string and trailing slash.
func split(path string) []string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
