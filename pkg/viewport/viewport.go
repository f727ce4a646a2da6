// Package viewport carries the browser signals folio's stores react to:
// the viewport width and the system color-scheme preference.
//
// A Feed is filled by the transport as the client reports resize and
// prefers-color-scheme changes. Static serves fixed values for headless
// runs such as the CLI.
package viewport

import (
	"sync"

	"github.com/vango-dev/folio/internal/notify"
)

// WidthSource reports the viewport width in CSS pixels.
type WidthSource interface {
	Width() int
	// SubscribeWidth calls fn with the new width on every resize.
	SubscribeWidth(fn func(width int)) (stop func())
}

// SchemeSource reports whether the system prefers a dark color scheme.
type SchemeSource interface {
	PrefersDark() bool
	// SubscribeScheme calls fn when the preference flips.
	SubscribeScheme(fn func(dark bool)) (stop func())
}

// Feed is a push-driven WidthSource and SchemeSource.
type Feed struct {
	mu    sync.RWMutex
	width int
	dark  bool

	widthHub  notify.Hub
	schemeHub notify.Hub
}

// NewFeed creates a Feed with the client's initial values.
func NewFeed(width int, dark bool) *Feed {
	return &Feed{width: width, dark: dark}
}

// Width returns the last reported width.
func (f *Feed) Width() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.width
}

// PrefersDark returns the last reported color-scheme preference.
func (f *Feed) PrefersDark() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dark
}

// SetWidth records a resize and notifies width subscribers, even when the
// width is unchanged, the way resize events fire.
func (f *Feed) SetWidth(width int) {
	f.mu.Lock()
	f.width = width
	f.mu.Unlock()

	f.widthHub.Notify()
}

// SetPrefersDark records the color-scheme preference. Subscribers are only
// called when the value changes.
func (f *Feed) SetPrefersDark(dark bool) {
	f.mu.Lock()
	changed := f.dark != dark
	f.dark = dark
	f.mu.Unlock()

	if changed {
		f.schemeHub.Notify()
	}
}

// SubscribeWidth implements WidthSource.
func (f *Feed) SubscribeWidth(fn func(width int)) (stop func()) {
	return f.widthHub.Subscribe(func() { fn(f.Width()) })
}

// SubscribeScheme implements SchemeSource.
func (f *Feed) SubscribeScheme(fn func(dark bool)) (stop func()) {
	return f.schemeHub.Subscribe(func() { fn(f.PrefersDark()) })
}

// Subscribers returns the number of active width and scheme subscriptions.
func (f *Feed) Subscribers() int {
	return f.widthHub.Len() + f.schemeHub.Len()
}

// Static is a source whose values never change.
type Static struct {
	W    int
	Dark bool
}

// Width implements WidthSource.
func (s Static) Width() int { return s.W }

// PrefersDark implements SchemeSource.
func (s Static) PrefersDark() bool { return s.Dark }

// SubscribeWidth implements WidthSource. Static widths never change.
func (s Static) SubscribeWidth(func(int)) (stop func()) { return func() {} }

// SubscribeScheme implements SchemeSource. Static schemes never change.
func (s Static) SubscribeScheme(func(bool)) (stop func()) { return func() {} }
