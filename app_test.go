package folio

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/vango-dev/folio/internal/config"
	"github.com/vango-dev/folio/pkg/auth"
	"github.com/vango-dev/folio/pkg/storage"
	"github.com/vango-dev/folio/pkg/theme"
	"github.com/vango-dev/folio/pkg/viewport"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func instantSettings() *config.Config {
	cfg := config.New()
	cfg.Auth.MinLatency = "0"
	cfg.Auth.MaxLatency = "0"
	cfg.Auth.ResetLatency = "0"
	cfg.Auth.FailureRate = 0
	cfg.Navigation.SearchFocusDelay = "0"
	return cfg
}

func newTestApp(t *testing.T, store storage.Storage, signals *viewport.Feed) *App {
	t.Helper()
	app := New(Config{
		Storage:  store,
		Settings: instantSettings(),
		Signals:  signals,
		Logger:   quietLogger(),
	})
	t.Cleanup(app.Close)
	return app
}

func TestAppDefaults(t *testing.T) {
	app := newTestApp(t, storage.NewMemoryStorage(nil), nil)
	app.Initialize(context.Background())

	st := app.State()
	if st.Session.LoggedIn {
		t.Error("fresh app should not be logged in")
	}
	if st.Theme != theme.Light {
		t.Errorf("Theme = %q, want light", st.Theme)
	}
	if !st.Nav.IsOpen {
		t.Error("sidebar should start open")
	}
	if st.Nav.ActiveItem != "dashboard" {
		t.Errorf("ActiveItem = %q, want dashboard", st.Nav.ActiveItem)
	}
	if st.Path != "/" {
		t.Errorf("Path = %q, want /", st.Path)
	}
}

func TestAppLoginNavigatesToDashboard(t *testing.T) {
	store := storage.NewMemoryStorage(nil)
	app := newTestApp(t, store, nil)
	ctx := context.Background()
	app.Initialize(ctx)

	res := app.Auth.Login(ctx, "admin", "password", false)
	if !res.Success {
		t.Fatalf("Login failed: %+v", res)
	}
	if got := app.History.Current(); got != "/dashboard" {
		t.Errorf("path after login = %q, want /dashboard", got)
	}
	if _, ok, _ := store.Get(ctx, auth.KeyAuthToken); !ok {
		t.Error("token should be persisted")
	}

	app.Auth.Logout(ctx)
	if got := app.History.Current(); got != "/login" {
		t.Errorf("path after logout = %q, want /login", got)
	}
}

func TestAppRestoresPersistedState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage(map[string]string{
		theme.StorageKey: "dark",
	})

	first := newTestApp(t, store, nil)
	first.Initialize(ctx)
	if res := first.Auth.Login(ctx, "user", "user", true); !res.Success {
		t.Fatalf("Login failed: %+v", res)
	}

	second := newTestApp(t, store, nil)
	second.Initialize(ctx)

	if !second.Auth.LoggedIn() {
		t.Error("session should be restored from storage")
	}
	if got := second.Auth.RememberedCredentials(ctx); got != "user" {
		t.Errorf("remembered = %q, want user", got)
	}
	if !second.Document.HasRootClass("dark") {
		t.Error("stored dark theme should set the root class")
	}
}

func TestAppFollowsSystemScheme(t *testing.T) {
	ctx := context.Background()
	feed := viewport.NewFeed(1280, true)
	app := newTestApp(t, storage.NewMemoryStorage(nil), feed)
	app.Initialize(ctx)

	if !app.Theme.IsDark() {
		t.Fatal("system dark preference should apply when nothing is stored")
	}

	feed.SetPrefersDark(false)
	if !app.Theme.IsLight() {
		t.Error("scheme change should switch to light")
	}

	app.Theme.SetDark(ctx)
	feed.SetPrefersDark(true)
	feed.SetPrefersDark(false)
	if !app.Theme.IsDark() {
		t.Error("an explicit choice should win over the system scheme")
	}
}

func TestAppObserveViewport(t *testing.T) {
	feed := viewport.NewFeed(600, false)
	app := newTestApp(t, storage.NewMemoryStorage(nil), feed)
	app.Initialize(context.Background())

	if !app.Nav.IsOpen() {
		t.Fatal("sidebar should stay open until the viewport is observed")
	}

	app.ObserveViewport()
	if app.Nav.IsOpen() || !app.Nav.IsMobile() {
		t.Error("narrow viewport should collapse the sidebar")
	}

	// A second call must not register another observer.
	before := feed.Subscribers()
	app.ObserveViewport()
	if got := feed.Subscribers(); got != before {
		t.Errorf("Subscribers = %d, want %d", got, before)
	}
}

func TestAppCloseReleasesListeners(t *testing.T) {
	feed := viewport.NewFeed(1280, false)
	app := New(Config{
		Storage:  storage.NewMemoryStorage(nil),
		Settings: instantSettings(),
		Signals:  feed,
		Logger:   quietLogger(),
	})
	app.Initialize(context.Background())
	app.ObserveViewport()

	if feed.Subscribers() == 0 {
		t.Fatal("expected listeners on the feed")
	}

	app.Close()
	app.Close()
	if got := feed.Subscribers(); got != 0 {
		t.Errorf("Subscribers after Close = %d, want 0", got)
	}
}

func TestAppSubscribe(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, storage.NewMemoryStorage(nil), nil)
	app.Initialize(ctx)

	calls := 0
	unsubscribe := app.Subscribe(func() { calls++ })

	app.Nav.ToggleSidebar()
	app.Theme.Toggle(ctx)
	if calls == 0 {
		t.Fatal("expected notifications")
	}

	unsubscribe()
	seen := calls
	app.Nav.ToggleSidebar()
	if calls != seen {
		t.Errorf("calls after unsubscribe = %d, want %d", calls, seen)
	}
}

func TestNewMockAPIUsesSettings(t *testing.T) {
	cfg := instantSettings()
	cfg.Auth.FailureRate = 1

	api := NewMockAPI(cfg)
	res, err := api.Login(context.Background(), "admin", "password")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if res.Status != auth.StatusServerError {
		t.Errorf("Status = %d, want %d", res.Status, auth.StatusServerError)
	}
}
