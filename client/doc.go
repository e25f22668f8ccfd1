// Package client is the session half of the auth core that runs next to the
// UI. One Store instance is shared by the request interceptor, the route
// guard and the logout orchestrator.
//
// The interceptor never navigates. On a 401 it clears the store and emits
// an invalidation signal; a single top level subscriber, usually
// RedirectOnInvalidation, owns the navigation side effect.
package client
