package folio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vango-dev/folio/internal/config"
	"github.com/vango-dev/folio/pkg/auth"
	"github.com/vango-dev/folio/pkg/dom"
	"github.com/vango-dev/folio/pkg/nav"
	"github.com/vango-dev/folio/pkg/navigate"
	"github.com/vango-dev/folio/pkg/storage"
	"github.com/vango-dev/folio/pkg/theme"
	"github.com/vango-dev/folio/pkg/viewport"
)

// =============================================================================
// App Type
// =============================================================================

// App owns one client's session, theme and navigation stores together with
// the document and history they act on. The stores do not talk to each
// other.
//
//	app := folio.New(folio.Config{Storage: store})
//	app.Initialize(ctx)
//	defer app.Close()
//
//	res := app.Auth.Login(ctx, "admin", "password", false)
type App struct {
	Auth     *auth.Store
	Theme    *theme.Store
	Nav      *nav.Store
	Document *dom.Document
	History  *navigate.History

	signals *viewport.Feed
	logger  *slog.Logger

	mu         sync.Mutex
	stopScheme func()
	observing  bool
	closed     bool
}

// Config wires an App.
type Config struct {
	// Storage is the client's local storage. Required.
	// The App does not close it.
	Storage storage.Storage

	// API is the auth backend. Default: a MockAPI built from Settings.
	API auth.API

	// Settings carries the folio.json values. Default: config.New().
	Settings *config.Config

	// Signals delivers the client's viewport width and color scheme.
	// Nil means headless: no system theme, no viewport observer.
	Signals *viewport.Feed

	// InitialPath is the first history entry. Default: "/".
	InitialPath string

	// Logger for all stores. Default: slog.Default().
	Logger *slog.Logger

	// NavOptions are appended to the options derived from Settings.
	NavOptions []nav.Option
}

// New creates an App. Call Initialize before use.
func New(cfg Config) *App {
	settings := cfg.Settings
	if settings == nil {
		settings = config.New()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	initial := cfg.InitialPath
	if initial == "" {
		initial = "/"
	}
	api := cfg.API
	if api == nil {
		api = NewMockAPI(settings)
	}

	doc := dom.NewDocument()
	history := navigate.NewHistory(initial)

	themeOpts := []theme.Option{
		theme.WithDocument(doc),
		theme.WithDarkClass(settings.Theme.DarkClass),
		theme.WithDefault(theme.Theme(settings.Theme.Default)),
		theme.WithLogger(logger),
	}
	if cfg.Signals != nil {
		themeOpts = append(themeOpts, theme.WithSchemeSource(cfg.Signals))
	}

	navOpts := []nav.Option{
		nav.WithBreakpoint(settings.Navigation.MobileBreakpoint),
		nav.WithActiveItem(settings.Navigation.DefaultItem),
		nav.WithSearchFocus(settings.Navigation.SearchInputID, settings.Navigation.FocusDelay()),
		nav.WithFocuser(doc),
		nav.WithLogger(logger),
	}
	navOpts = append(navOpts, cfg.NavOptions...)

	return &App{
		Auth: auth.NewStore(api, cfg.Storage,
			auth.WithNavigator(history),
			auth.WithPaths(settings.Auth.DashboardPath, settings.Auth.LoginPath),
			auth.WithLogger(logger),
		),
		Theme:    theme.NewStore(cfg.Storage, themeOpts...),
		Nav:      nav.NewStore(navOpts...),
		Document: doc,
		History:  history,
		signals:  cfg.Signals,
		logger:   logger,
	}
}

// NewMockAPI builds the simulated auth backend from settings.
func NewMockAPI(settings *config.Config) *auth.MockAPI {
	lo, hi := settings.Auth.Latency()
	return auth.NewMockAPI(
		auth.WithLatency(lo, hi),
		auth.WithResetLatency(settings.Auth.ResetDelay()),
		auth.WithFailureRate(settings.Auth.FailureRate),
	)
}

// =============================================================================
// Lifecycle
// =============================================================================

// Initialize restores the persisted session, resolves the theme and starts
// following the system color scheme when signals are available.
func (a *App) Initialize(ctx context.Context) {
	a.Auth.Initialize(ctx)
	a.Theme.Initialize(ctx)

	stop := a.Theme.InitializeSystemThemeListener(ctx)

	a.mu.Lock()
	a.stopScheme = stop
	a.mu.Unlock()

	a.logger.Debug("app initialized",
		"logged_in", a.Auth.LoggedIn(),
		"theme", a.Theme.Current(),
	)
}

// ObserveViewport starts the navigation store's viewport observer. The
// transport calls it once the client has reported its width; later calls
// do nothing.
func (a *App) ObserveViewport() {
	if a.signals == nil {
		return
	}

	a.mu.Lock()
	if a.observing || a.closed {
		a.mu.Unlock()
		return
	}
	a.observing = true
	a.mu.Unlock()

	a.Nav.ObserveViewport(a.signals)
}

// Signals returns the client's signal feed, or nil when headless.
func (a *App) Signals() *viewport.Feed {
	return a.signals
}

// Close stops the listeners and timers the stores hold. The storage is
// left open.
func (a *App) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	stop := a.stopScheme
	a.stopScheme = nil
	a.mu.Unlock()

	if stop != nil {
		stop()
	}
	a.Nav.Close()
}

// =============================================================================
// State
// =============================================================================

// State is a point-in-time copy of every store.
type State struct {
	Session  auth.Session  `json:"session"`
	Theme    theme.Theme   `json:"theme"`
	Nav      nav.State     `json:"nav"`
	Path     string        `json:"path"`
	Document *dom.Document `json:"document"`
}

// State returns the current state of all stores.
func (a *App) State() State {
	return State{
		Session:  a.Auth.Snapshot(),
		Theme:    a.Theme.Current(),
		Nav:      a.Nav.Snapshot(),
		Path:     a.History.Current(),
		Document: a.Document,
	}
}

// Subscribe registers fn to run after a change in any store or a new
// document command. The returned function removes every registration.
func (a *App) Subscribe(fn func()) (unsubscribe func()) {
	stops := []func(){
		a.Auth.Subscribe(fn),
		a.Theme.Subscribe(fn),
		a.Nav.Subscribe(fn),
		a.Document.Subscribe(fn),
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}
