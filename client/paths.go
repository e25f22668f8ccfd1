package client

import (
	"net/url"
	"strings"
)

// Paths is the table of UI locations the session core redirects to
type Paths struct {
	Login string
	Error string
	Home  string
	// PublicPrefixes are reachable without a token
	PublicPrefixes []string
}

// DefaultPaths returns the marketplace defaults. Event browsing is public.
func DefaultPaths() Paths {
	return Paths{
		Login:          "/login",
		Error:          "/error",
		Home:           "/",
		PublicPrefixes: []string{"/events"},
	}
}

// IsPublic reports whether path can be visited without a session. The login
// and error pages are always public. Prefixes match on segment boundaries,
// so "/events" covers "/events/123" but not "/eventsx".
func (p Paths) IsPublic(path string) bool {
	if path == p.Login || path == p.Error {
		return true
	}
	for _, prefix := range p.PublicPrefixes {
		if matchPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// LoginWith renders the login location carrying from as the restore target
func (p Paths) LoginWith(from string) string {
	if from == "" {
		return p.Login
	}
	return p.Login + "?" + url.Values{"from": {from}}.Encode()
}

// SafeRestore returns from when it is a local absolute path, Home otherwise
func (p Paths) SafeRestore(from string) string {
	if !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") || strings.HasPrefix(from, "/\\") {
		return p.Home
	}
	return from
}

func matchPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return false
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
