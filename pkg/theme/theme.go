// Package theme holds folio's light/dark theme.
//
// The initial theme comes from the saved preference, then the system
// color scheme, then light. While no preference has been saved the store
// can follow system changes:
//
//	themes := theme.NewStore(store, theme.WithDocument(doc), theme.WithSchemeSource(feed))
//	themes.Initialize(ctx)
//	stop := themes.InitializeSystemThemeListener(ctx)
//	defer stop()
//
//	themes.Toggle(ctx) // saved, so system changes are ignored from now on
package theme

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/vango-dev/folio/internal/errors"
	"github.com/vango-dev/folio/internal/notify"
	"github.com/vango-dev/folio/pkg/dom"
	"github.com/vango-dev/folio/pkg/pref"
	"github.com/vango-dev/folio/pkg/storage"
	"github.com/vango-dev/folio/pkg/viewport"
)

// StorageKey is where an explicit choice is saved.
const StorageKey = "theme"

// DefaultDarkClass is the root class applied in dark mode.
const DefaultDarkClass = "dark"

// Theme is a color theme.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Valid reports whether t is light or dark.
func (t Theme) Valid() bool {
	return t == Light || t == Dark
}

// Opposite returns the other theme.
func (t Theme) Opposite() Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Parse converts s to a Theme.
func Parse(s string) (Theme, error) {
	t := Theme(s)
	if !t.Valid() {
		return "", errors.New("F403").WithDetail("theme " + strconv.Quote(s) + " is not light or dark")
	}
	return t, nil
}

func fromScheme(dark bool) Theme {
	if dark {
		return Dark
	}
	return Light
}

// Store holds the current theme.
type Store struct {
	pref      *pref.Pref[Theme]
	root      dom.ClassList
	scheme    viewport.SchemeSource
	darkClass string
	fallback  Theme
	logger    *slog.Logger

	// mu serializes saves with the listener's check-then-apply, so a
	// choice saved meanwhile is never overwritten by a system change.
	mu  sync.Mutex
	hub notify.Hub
}

// Option configures a Store.
type Option func(*Store)

// WithDocument sets the document whose root class reflects the theme.
func WithDocument(root dom.ClassList) Option {
	return func(s *Store) {
		s.root = root
	}
}

// WithSchemeSource sets the system color-scheme signal. Without one the
// store behaves as in a headless context.
func WithSchemeSource(src viewport.SchemeSource) Option {
	return func(s *Store) {
		s.scheme = src
	}
}

// WithDarkClass overrides the root class used for dark mode.
func WithDarkClass(class string) Option {
	return func(s *Store) {
		if class != "" {
			s.darkClass = class
		}
	}
}

// WithDefault sets the theme used when nothing is saved and no system
// preference is available. Default: Light.
func WithDefault(t Theme) Option {
	return func(s *Store) {
		if t.Valid() {
			s.fallback = t
		}
	}
}

// WithLogger sets the logger for storage failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a theme store persisting to store.
func NewStore(store storage.Storage, opts ...Option) *Store {
	s := &Store{
		root:      dom.Discard,
		darkClass: DefaultDarkClass,
		fallback:  Light,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.pref = pref.New(store, StorageKey, s.fallback,
		pref.WithCodec(pref.OneOf(Light, Dark)),
		pref.WithLogger[Theme](s.logger),
	)
	return s
}

// Initialize resolves the starting theme and applies its root class. The
// resolved value is not saved, so a system-derived theme keeps following
// the system.
func (s *Store) Initialize(ctx context.Context) {
	t, ok := s.pref.Stored(ctx)
	if !ok {
		t = s.fallback
		if s.scheme != nil {
			t = fromScheme(s.scheme.PrefersDark())
		}
	}
	s.apply(t)
}

// Current returns the active theme.
func (s *Store) Current() Theme {
	return s.pref.Get()
}

// IsDark reports whether the dark theme is active.
func (s *Store) IsDark() bool {
	return s.Current() == Dark
}

// IsLight reports whether the light theme is active.
func (s *Store) IsLight() bool {
	return s.Current() == Light
}

// Toggle switches between light and dark, saves the choice, and returns
// the new theme.
func (s *Store) Toggle(ctx context.Context) Theme {
	s.mu.Lock()
	next := s.Current().Opposite()
	s.persist(ctx, next)
	s.mu.Unlock()

	s.hub.Notify()
	return next
}

// SetTheme applies and saves t. Saving failures are logged, not returned;
// only an invalid theme is an error.
func (s *Store) SetTheme(ctx context.Context, t Theme) error {
	if !t.Valid() {
		return errors.New("F403").WithDetail("theme " + strconv.Quote(string(t)) + " is not light or dark")
	}
	s.save(ctx, t)
	return nil
}

// SetLight applies and saves the light theme.
func (s *Store) SetLight(ctx context.Context) {
	s.save(ctx, Light)
}

// SetDark applies and saves the dark theme.
func (s *Store) SetDark(ctx context.Context) {
	s.save(ctx, Dark)
}

// InitializeSystemThemeListener follows system color-scheme changes until
// the returned function is called. A change is applied only if no choice
// is saved at the time it arrives. Without a scheme source the returned
// function does nothing.
func (s *Store) InitializeSystemThemeListener(ctx context.Context) (stop func()) {
	if s.scheme == nil {
		return func() {}
	}

	ctx = context.WithoutCancel(ctx)
	return s.scheme.SubscribeScheme(func(dark bool) {
		s.mu.Lock()
		if _, saved := s.pref.Stored(ctx); saved {
			s.mu.Unlock()
			return
		}
		t := fromScheme(dark)
		s.pref.Apply(t)
		s.applyClass(t)
		s.mu.Unlock()

		s.hub.Notify()
	})
}

// Subscribe registers fn to run after every theme change.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

func (s *Store) save(ctx context.Context, t Theme) {
	s.mu.Lock()
	s.persist(ctx, t)
	s.mu.Unlock()

	s.hub.Notify()
}

// persist saves and applies t. Callers hold mu.
func (s *Store) persist(ctx context.Context, t Theme) {
	// Set logs its own failure; the new theme stays active either way.
	_ = s.pref.Set(ctx, t)
	s.applyClass(t)
}

func (s *Store) apply(t Theme) {
	s.pref.Apply(t)
	s.applyClass(t)
	s.hub.Notify()
}

func (s *Store) applyClass(t Theme) {
	s.root.SetRootClass(s.darkClass, t == Dark)
}
