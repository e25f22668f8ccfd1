package client

import "sync"

// Reason says why a session was invalidated
type Reason string

const (
	// ReasonUnauthorized the server answered 401
	ReasonUnauthorized Reason = "unauthorized"
)

// Invalidation fans out the "session invalidated" signal
type Invalidation struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Reason)
}

// NewInvalidation returns a broker with no subscribers
func NewInvalidation() *Invalidation {
	return &Invalidation{subs: map[int]func(Reason){}}
}

// Subscribe registers fn and returns a func that removes it
func (i *Invalidation) Subscribe(fn func(Reason)) func() {
	i.mu.Lock()
	defer i.mu.Unlock()

	id := i.next
	i.next++
	i.subs[id] = fn

	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		delete(i.subs, id)
	}
}

// Emit calls every subscriber with reason. Subscribers run outside the lock.
func (i *Invalidation) Emit(reason Reason) {
	i.mu.Lock()
	subs := make([]func(Reason), 0, len(i.subs))
	for _, fn := range i.subs {
		subs = append(subs, fn)
	}
	i.mu.Unlock()

	for _, fn := range subs {
		fn(reason)
	}
}

// RedirectOnInvalidation sends nav to the login entry point whenever the
// session is invalidated. It returns the unsubscribe func.
func RedirectOnInvalidation(inv *Invalidation, nav Navigator, paths Paths) func() {
	return inv.Subscribe(func(Reason) {
		nav.Replace(paths.Login)
	})
}
