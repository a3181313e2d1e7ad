// Package router tracks the current location and matches route patterns
// with :param segments.
package router

import (
	"strings"
	"sync"
)

// Navigator changes the current location.
type Navigator interface {
	Push(path string)
}

// History is an in-process location stack.
type History struct {
	mu        sync.RWMutex
	stack     []string
	listeners map[int]func(string)
	nextID    int
}

// NewHistory creates a History positioned at initial ("/" when empty).
func NewHistory(initial string) *History {
	if initial == "" {
		initial = "/"
	}
	return &History{
		stack:     []string{initial},
		listeners: make(map[int]func(string)),
	}
}

// Location returns the current path.
func (h *History) Location() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stack[len(h.stack)-1]
}

// Push navigates to path and notifies listeners.
func (h *History) Push(path string) {
	h.mu.Lock()
	h.stack = append(h.stack, path)
	listeners := h.snapshotListeners()
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(path)
	}
}

// Back pops the current location. It reports false at the first entry.
func (h *History) Back() bool {
	h.mu.Lock()
	if len(h.stack) == 1 {
		h.mu.Unlock()
		return false
	}
	h.stack = h.stack[:len(h.stack)-1]
	loc := h.stack[len(h.stack)-1]
	listeners := h.snapshotListeners()
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(loc)
	}
	return true
}

// Listen registers fn for every location change and returns its remover.
func (h *History) Listen(fn func(location string)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = fn
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

func (h *History) snapshotListeners() []func(string) {
	out := make([]func(string), 0, len(h.listeners))
	for _, fn := range h.listeners {
		out = append(out, fn)
	}
	return out
}

// Match is a successful MatchPath result.
type Match struct {
	URL     string // the matched portion of pathname
	IsExact bool
	Params  map[string]string
}

// MatchPath matches pathname against pattern. Segments starting with ':'
// capture params. Trailing slashes are ignored on both sides. Without
// exact, pattern only has to match a leading run of whole segments.
func MatchPath(pathname, pattern string, exact bool) (Match, bool) {
	pathSegs := segments(pathname)
	patSegs := segments(pattern)

	if len(pathSegs) < len(patSegs) {
		return Match{}, false
	}
	if exact && len(pathSegs) != len(patSegs) {
		return Match{}, false
	}

	params := map[string]string{}
	for i, seg := range patSegs {
		if name, ok := strings.CutPrefix(seg, ":"); ok && name != "" {
			if pathSegs[i] == "" {
				return Match{}, false
			}
			params[name] = pathSegs[i]
			continue
		}
		if seg != pathSegs[i] {
			return Match{}, false
		}
	}

	return Match{
		URL:     "/" + strings.Join(pathSegs[:len(patSegs)], "/"),
		IsExact: len(pathSegs) == len(patSegs),
		Params:  params,
	}, true
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// AssetPath is the asset detail route for an asset id.
func AssetPath(assetID string) string {
	return "/assets/" + assetID
}
