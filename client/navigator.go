package client

import "sync"

// Navigator moves the UI to a location
type Navigator interface {
	Push(path string)
	Replace(path string)
}

// History is an in memory Navigator. Navigating to the current location is
// a no-op, so repeated redirects to login leave one entry.
type History struct {
	mu      sync.Mutex
	entries []string
}

var _ Navigator = (*History)(nil)

// NewHistory starts a history at start
func NewHistory(start string) *History {
	return &History{entries: []string{start}}
}

func (h *History) Push(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current() == path {
		return
	}
	h.entries = append(h.entries, path)
}

func (h *History) Replace(path string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current() == path {
		return
	}
	if len(h.entries) == 0 {
		h.entries = append(h.entries, path)
		return
	}
	h.entries[len(h.entries)-1] = path
}

// Current returns the active location
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current()
}

// Entries returns a copy of the stack, oldest first
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) current() string {
	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}
