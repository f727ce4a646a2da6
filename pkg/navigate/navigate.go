// Package navigate provides the redirect primitive used by folio's stores:
// "navigate to path, optionally replacing the current history entry".
//
// History is the server-side model of a client's history stack. It applies
// each navigation immediately and queues it so the transport can forward it
// to the browser.
package navigate

import (
	"context"
	"fmt"
	"net/url"
	"sync"
)

// Options configures navigation behavior.
type Options struct {
	// Replace replaces the current history entry instead of pushing.
	Replace bool

	// Params are query parameters to add to the URL.
	Params map[string]any

	// Scroll controls whether to scroll to top after navigation.
	// Defaults to true.
	Scroll bool
}

// Option is a functional option for Navigate.
type Option func(*Options)

// WithReplace replaces the current history entry instead of pushing.
func WithReplace() Option {
	return func(o *Options) {
		o.Replace = true
	}
}

// WithParams adds query parameters to the navigation URL.
func WithParams(params map[string]any) Option {
	return func(o *Options) {
		o.Params = params
	}
}

// WithoutScroll disables scrolling to top after navigation.
func WithoutScroll() Option {
	return func(o *Options) {
		o.Scroll = false
	}
}

// Request represents a navigation.
type Request struct {
	Path    string
	Options Options
}

// NewRequest applies opts over the defaults.
func NewRequest(path string, opts ...Option) Request {
	options := Options{Scroll: true}
	for _, opt := range opts {
		opt(&options)
	}
	return Request{Path: path, Options: options}
}

// BuildURL constructs the full URL for a navigation request.
func (r Request) BuildURL() (string, error) {
	u, err := url.Parse(r.Path)
	if err != nil {
		return "", fmt.Errorf("navigate: invalid path %q: %w", r.Path, err)
	}

	if r.Options.Params != nil {
		q := u.Query()
		for k, v := range r.Options.Params {
			q.Set(k, fmt.Sprintf("%v", v))
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

// Navigator performs client navigations.
type Navigator interface {
	// Navigate moves the client to path.
	Navigate(ctx context.Context, path string, opts ...Option) error
}

// Func adapts a function to the Navigator interface.
type Func func(ctx context.Context, path string, opts ...Option) error

// Navigate calls f.
func (f Func) Navigate(ctx context.Context, path string, opts ...Option) error {
	return f(ctx, path, opts...)
}

// Discard is a Navigator that ignores every navigation (headless contexts).
var Discard Navigator = Func(func(context.Context, string, ...Option) error { return nil })

// History records a client's history stack.
type History struct {
	mu      sync.Mutex
	entries []string
	pending []Request
}

// NewHistory creates a history whose only entry is initial.
func NewHistory(initial string) *History {
	return &History{entries: []string{initial}}
}

// Navigate pushes (or, with WithReplace, replaces) the current entry and
// queues the request for delivery to the client.
func (h *History) Navigate(ctx context.Context, path string, opts ...Option) error {
	req := NewRequest(path, opts...)
	target, err := req.BuildURL()
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if req.Options.Replace && len(h.entries) > 0 {
		h.entries[len(h.entries)-1] = target
	} else {
		h.entries = append(h.entries, target)
	}
	h.pending = append(h.pending, req)
	return nil
}

// Current returns the current entry.
func (h *History) Current() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return ""
	}
	return h.entries[len(h.entries)-1]
}

// Entries returns a copy of the history stack, oldest first.
func (h *History) Entries() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...)
}

// Back pops the current entry. It reports false when there is nowhere to go.
func (h *History) Back() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) <= 1 {
		return false
	}
	h.entries = h.entries[:len(h.entries)-1]
	return true
}

// Drain returns and clears the queued requests.
func (h *History) Drain() []Request {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := h.pending
	h.pending = nil
	return out
}
