package client

import (
	"net/url"
)

// Restore carries the location to return to after login
type Restore struct {
	From string `json:"from"`
}

// Decision is the outcome of a guard check
type Decision struct {
	Allow    bool
	Redirect string
	Restore  Restore
}

// Location renders where the navigation should go. Allowed decisions have
// no location.
func (d Decision) Location() string {
	if d.Allow {
		return ""
	}
	return d.Redirect
}

// Guard decides whether a navigation may proceed
type Guard struct {
	store Store
	paths Paths
}

// NewGuard returns a guard reading the shared store
func NewGuard(store Store, paths Paths) *Guard {
	return &Guard{store: store, paths: paths}
}

// Check evaluates target. An authenticated session is always allowed, public
// paths are allowed, anything else redirects to login with a restore target.
// A nil target is the root path.
func (g *Guard) Check(target *url.URL) Decision {
	if target == nil {
		target = &url.URL{Path: "/"}
	}

	if _, ok := g.store.Token(); ok {
		return Decision{Allow: true}
	}

	if g.paths.IsPublic(target.Path) {
		return Decision{Allow: true}
	}

	from := restoreTarget(target)
	return Decision{
		Redirect: g.paths.LoginWith(from),
		Restore:  Restore{From: from},
	}
}

// Navigate checks raw and drives nav: allowed targets are pushed, denied
// ones replace the current entry with the login location.
func (g *Guard) Navigate(nav Navigator, raw string) (Decision, error) {
	target, err := url.Parse(raw)
	if err != nil {
		return Decision{}, err
	}

	decision := g.Check(target)
	if decision.Allow {
		nav.Push(raw)
	} else {
		nav.Replace(decision.Location())
	}
	return decision, nil
}

func restoreTarget(u *url.URL) string {
	from := u.Path
	if from == "" {
		from = "/"
	}
	if u.RawQuery != "" {
		from += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		from += "#" + u.Fragment
	}
	return from
}
