package auth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/folio/pkg/navigate"
	"github.com/vango-dev/folio/pkg/storage"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func instantAPI(opts ...MockOption) *MockAPI {
	base := []MockOption{
		WithLatency(0, 0),
		WithResetLatency(0),
		WithFailureRate(0),
	}
	return NewMockAPI(append(base, opts...)...)
}

func newTestStore(t *testing.T, api API, store storage.Storage) (*Store, *navigate.History) {
	t.Helper()
	history := navigate.NewHistory("/login")
	s := NewStore(api, store, WithNavigator(history), WithLogger(quietLogger))
	return s, history
}

func TestMockLoginOutcomes(t *testing.T) {
	api := instantAPI()
	ctx := context.Background()

	tests := []struct {
		name       string
		identifier string
		password   string
		status     int
		message    string
	}{
		{"empty identifier", "", "password", StatusBadRequest, MsgRequired},
		{"empty password", "admin", "", StatusBadRequest, MsgRequired},
		{"whitespace only", "   ", "\t", StatusBadRequest, MsgRequired},
		{"unknown user", "nobody", "password", StatusNotFound, MsgNotFound},
		{"admin wrong password", "admin", "admin", StatusUnauthorized, MsgBadPassword},
		{"user wrong password", "user", "password", StatusUnauthorized, MsgBadPassword},
		{"admin by username", "admin", "password", StatusOK, MsgLoginSuccess},
		{"admin by email, mixed case", "Admin@Example.com", "password", StatusOK, MsgLoginSuccess},
		{"user by username", "USER", "user", StatusOK, MsgLoginSuccess},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := api.Login(ctx, tt.identifier, tt.password)
			if err != nil {
				t.Fatalf("Login returned error: %v", err)
			}
			if res.Status != tt.status || res.Message != tt.message {
				t.Errorf("Login = (%d, %q), want (%d, %q)", res.Status, res.Message, tt.status, tt.message)
			}
			if res.Success != (tt.status == StatusOK) {
				t.Errorf("Success = %v for status %d", res.Success, res.Status)
			}
			if res.Success && (res.User == nil || res.Token == "") {
				t.Errorf("successful login must carry a user and token: %+v", res)
			}
			if !res.Success && (res.User != nil || res.Token != "") {
				t.Errorf("failed login must not carry a user or token: %+v", res)
			}
		})
	}
}

func TestMockInjectedFailureTakesPrecedence(t *testing.T) {
	api := instantAPI(WithFailureRate(0.05), WithRand(func() float64 { return 0.01 }))

	// Even a request that would be rejected as empty reports the injected failure.
	for _, creds := range [][2]string{{"", ""}, {"admin", "password"}} {
		res, _ := api.Login(context.Background(), creds[0], creds[1])
		if res.Status != StatusServerError || res.Message != MsgServerError {
			t.Errorf("Login(%q) = (%d, %q), want injected 500", creds[0], res.Status, res.Message)
		}
	}

	api = instantAPI(WithFailureRate(0.05), WithRand(func() float64 { return 0.05 }))
	if res, _ := api.Login(context.Background(), "admin", "password"); res.Status != StatusOK {
		t.Errorf("draw at the failure rate must not fail, got %d", res.Status)
	}
}

func TestMockLatency(t *testing.T) {
	var slept []time.Duration
	api := NewMockAPI(
		WithFailureRate(0),
		WithRand(func() float64 { return 0.5 }),
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
	)

	api.Login(context.Background(), "admin", "password")
	api.RequestPasswordReset(context.Background(), "admin@example.com")

	want := []time.Duration{1150 * time.Millisecond, time.Second}
	if diff := cmp.Diff(want, slept); diff != "" {
		t.Errorf("latencies mismatch (-want +got):\n%s", diff)
	}
}

func TestMockTokensAreUnique(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	api := instantAPI(WithClock(func() time.Time { return fixed }))

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		res, _ := api.Login(context.Background(), "admin", "password")
		if seen[res.Token] {
			t.Fatalf("duplicate token %q", res.Token)
		}
		seen[res.Token] = true
		if !strings.HasPrefix(res.Token, "mock_token_1_") {
			t.Errorf("token = %q, want mock_token_1_ prefix", res.Token)
		}
	}
	if !seen["mock_token_1_1700000000000"] {
		t.Errorf("first token should use the clock time, got %v", seen)
	}
}

func TestMockPasswordReset(t *testing.T) {
	api := instantAPI()
	ctx := context.Background()

	if res, _ := api.RequestPasswordReset(ctx, "USER@example.com"); !res.Success || res.Message != MsgResetSent {
		t.Errorf("known email = %+v", res)
	}
	if res, _ := api.RequestPasswordReset(ctx, "ghost@example.com"); res.Success || res.Message != MsgResetNoAccount {
		t.Errorf("unknown email = %+v", res)
	}
}

func TestLoginPersistsAndRedirects(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage(nil)
	s, history := newTestStore(t, instantAPI(), mem)

	changes := 0
	s.Subscribe(func() { changes++ })

	res := s.Login(ctx, "Admin", "password", true)
	if !res.Success {
		t.Fatalf("Login failed: %+v", res)
	}

	if !s.LoggedIn() || s.Token() != res.Token {
		t.Errorf("session not set: logged in %v, token %q", s.LoggedIn(), s.Token())
	}
	if !s.HasRole(RoleAdmin) || s.HasRole(RoleUser) {
		t.Error("HasRole mismatch for admin")
	}

	raw, ok, _ := mem.Get(ctx, KeyUser)
	if !ok {
		t.Fatal("user key not persisted")
	}
	var stored User
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatalf("stored user is not JSON: %v", err)
	}
	if diff := cmp.Diff(*res.User, stored); diff != "" {
		t.Errorf("stored user mismatch (-want +got):\n%s", diff)
	}
	if tok, _, _ := mem.Get(ctx, KeyAuthToken); tok != res.Token {
		t.Errorf("stored token = %q, want %q", tok, res.Token)
	}
	if got := s.RememberedCredentials(ctx); got != "Admin" {
		t.Errorf("remembered = %q, want the identifier as typed", got)
	}

	if diff := cmp.Diff([]string{"/dashboard"}, history.Entries()); diff != "" {
		t.Errorf("login must replace the history entry (-want +got):\n%s", diff)
	}
	if changes != 1 {
		t.Errorf("subscribers notified %d times, want 1", changes)
	}
}

func TestLoginWithoutRememberClearsSlot(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage(map[string]string{KeyRememberedCredentials: "old"})
	s, _ := newTestStore(t, instantAPI(), mem)

	s.Login(ctx, "user", "user", false)
	if _, ok, _ := mem.Get(ctx, KeyRememberedCredentials); ok {
		t.Error("remembered credentials should be cleared when rememberMe is false")
	}
}

func TestLoginFailureLeavesSessionEmpty(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage(nil)
	s, history := newTestStore(t, instantAPI(), mem)

	res := s.Login(ctx, "admin", "wrong", true)
	if res.Status != StatusUnauthorized {
		t.Errorf("status = %d, want 401", res.Status)
	}
	if s.LoggedIn() || s.CurrentUser() != nil {
		t.Error("failed login must not set a session")
	}
	if len(mem.Keys()) != 0 {
		t.Errorf("failed login wrote storage: %v", mem.Keys())
	}
	if history.Current() != "/login" {
		t.Errorf("failed login navigated to %q", history.Current())
	}
}

type brokenAPI struct {
	err   error
	panic bool
}

func (b brokenAPI) Login(context.Context, string, string) (LoginResult, error) {
	if b.panic {
		panic("backend exploded")
	}
	return LoginResult{}, b.err
}

func (b brokenAPI) RequestPasswordReset(context.Context, string) (ResetResult, error) {
	return ResetResult{}, b.err
}

func TestLoginUnexpectedFailures(t *testing.T) {
	tests := []struct {
		name string
		api  API
	}{
		{"error", brokenAPI{err: errors.New("connection reset")}},
		{"panic", brokenAPI{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t, tt.api, storage.NewMemoryStorage(nil))
			res := s.Login(context.Background(), "admin", "password", false)
			want := LoginResult{Status: StatusServerError, Message: MsgUnexpected}
			if diff := cmp.Diff(want, res); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoginSurvivesStorageFailures(t *testing.T) {
	ctx := context.Background()
	faulty := storage.NewFaulty(storage.NewMemoryStorage(nil), storage.Faults{
		Set:    errors.New("quota exceeded"),
		Remove: errors.New("quota exceeded"),
	})
	s, history := newTestStore(t, instantAPI(), faulty)

	if res := s.Login(ctx, "admin", "password", true); !res.Success {
		t.Fatalf("Login = %+v, want success despite storage failures", res)
	}
	if !s.LoggedIn() || history.Current() != "/dashboard" {
		t.Error("session and redirect should not depend on persistence")
	}

	s.Logout(ctx)
	if s.LoggedIn() {
		t.Error("Logout must clear the session even when storage fails")
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage(nil)
	s, history := newTestStore(t, instantAPI(), mem)

	s.Login(ctx, "admin", "password", true)
	s.Logout(ctx)

	if s.LoggedIn() || s.CurrentUser() != nil || s.Token() != "" {
		t.Error("Logout must clear user and token together")
	}
	if s.HasRole(RoleAdmin) {
		t.Error("HasRole must be false after logout")
	}
	for _, key := range []string{KeyUser, KeyAuthToken} {
		if _, ok, _ := mem.Get(ctx, key); ok {
			t.Errorf("%s still stored after logout", key)
		}
	}
	if got := s.RememberedCredentials(ctx); got != "admin" {
		t.Errorf("remembered credentials = %q, logout must keep them", got)
	}
	if diff := cmp.Diff([]string{"/login"}, history.Entries()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
}

// setHook runs onSet once, right after the next Set of key.
type setHook struct {
	storage.Storage
	key   string
	onSet func()
}

func (h *setHook) Set(ctx context.Context, key, value string) error {
	err := h.Storage.Set(ctx, key, value)
	if key == h.key && h.onSet != nil {
		fn := h.onSet
		h.onSet = nil
		fn()
	}
	return err
}

func TestLogoutDuringLoginKeepsStorageConsistent(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryStorage(nil)
	hooked := &setHook{Storage: mem, key: KeyUser}
	s, _ := newTestStore(t, instantAPI(), hooked)

	// A logout arrives while the login is half persisted.
	loggedOut := make(chan struct{})
	hooked.onSet = func() {
		go func() {
			s.Logout(ctx)
			close(loggedOut)
		}()
		select {
		case <-loggedOut:
		case <-time.After(50 * time.Millisecond):
		}
	}
	s.Login(ctx, "admin", "password", false)
	<-loggedOut

	_, userStored, _ := mem.Get(ctx, KeyUser)
	_, tokenStored, _ := mem.Get(ctx, KeyAuthToken)
	if s.LoggedIn() || userStored || tokenStored {
		t.Errorf("LoggedIn=%v user stored=%v token stored=%v, want the logout applied to both",
			s.LoggedIn(), userStored, tokenStored)
	}

	// The stored state is what a fresh store restores.
	restored, _ := newTestStore(t, instantAPI(), mem)
	restored.Initialize(ctx)
	if restored.LoggedIn() {
		t.Error("a logged-out session came back from storage")
	}
}

func TestInitialize(t *testing.T) {
	userJSON := `{"id":"2","username":"user","email":"user@example.com","role":"user","createdAt":"2024-01-15T00:00:00Z"}`

	tests := []struct {
		name      string
		seed      map[string]string
		loggedIn  bool
		keysAfter []string
	}{
		{
			name:      "restores",
			seed:      map[string]string{KeyUser: userJSON, KeyAuthToken: "tok"},
			loggedIn:  true,
			keysAfter: []string{KeyAuthToken, KeyUser},
		},
		{
			name:      "token only",
			seed:      map[string]string{KeyAuthToken: "tok"},
			keysAfter: []string{KeyAuthToken},
		},
		{
			name:      "user only",
			seed:      map[string]string{KeyUser: userJSON},
			keysAfter: []string{KeyUser},
		},
		{
			name:      "corrupted user",
			seed:      map[string]string{KeyUser: "{not json", KeyAuthToken: "tok", KeyRememberedCredentials: "user"},
			keysAfter: []string{KeyRememberedCredentials},
		},
		{
			name:      "null user",
			seed:      map[string]string{KeyUser: "null", KeyAuthToken: "tok"},
			keysAfter: []string{},
		},
		{
			name:      "empty",
			seed:      nil,
			keysAfter: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := storage.NewMemoryStorage(tt.seed)
			s, history := newTestStore(t, instantAPI(), mem)
			s.Initialize(context.Background())

			if s.LoggedIn() != tt.loggedIn {
				t.Errorf("LoggedIn = %v, want %v", s.LoggedIn(), tt.loggedIn)
			}
			if (s.CurrentUser() == nil) != (s.Token() == "") {
				t.Error("user and token must be set together")
			}
			if diff := cmp.Diff(tt.keysAfter, mem.Keys()); diff != "" {
				t.Errorf("stored keys mismatch (-want +got):\n%s", diff)
			}
			if len(history.Entries()) != 1 || history.Current() != "/login" {
				t.Error("Initialize must not navigate")
			}
		})
	}
}

func TestInitializeRestoresUserFields(t *testing.T) {
	mem := storage.NewMemoryStorage(nil)
	s, _ := newTestStore(t, instantAPI(), mem)
	res := s.Login(context.Background(), "user@example.com", "user", false)

	restored, _ := newTestStore(t, instantAPI(), mem)
	restored.Initialize(context.Background())

	if diff := cmp.Diff(res.User, restored.CurrentUser()); diff != "" {
		t.Errorf("restored user mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(s.Snapshot(), restored.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestRememberedCredentialsTrimmed(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, instantAPI(), storage.NewMemoryStorage(nil))

	s.SaveRememberedCredentials(ctx, "  user@example.com\n")
	if got := s.RememberedCredentials(ctx); got != "user@example.com" {
		t.Errorf("RememberedCredentials = %q", got)
	}
	s.ClearRememberedCredentials(ctx)
	if got := s.RememberedCredentials(ctx); got != "" {
		t.Errorf("RememberedCredentials after clear = %q", got)
	}
}

func TestRememberedCredentialsSwallowErrors(t *testing.T) {
	ctx := context.Background()
	fail := errors.New("denied")
	faulty := storage.NewFaulty(storage.NewMemoryStorage(nil), storage.Faults{Get: fail, Set: fail, Remove: fail})
	s, _ := newTestStore(t, instantAPI(), faulty)

	s.SaveRememberedCredentials(ctx, "admin")
	s.ClearRememberedCredentials(ctx)
	if got := s.RememberedCredentials(ctx); got != "" {
		t.Errorf("RememberedCredentials = %q, want empty on failure", got)
	}
}

func TestStoreRequestPasswordReset(t *testing.T) {
	ctx := context.Background()

	s, _ := newTestStore(t, instantAPI(), storage.NewMemoryStorage(nil))
	if res := s.RequestPasswordReset(ctx, " admin@example.com "); !res.Success {
		t.Errorf("reset for a known email = %+v", res)
	}

	broken, _ := newTestStore(t, brokenAPI{err: errors.New("offline")}, storage.NewMemoryStorage(nil))
	if res := broken.RequestPasswordReset(ctx, "admin@example.com"); res.Success || res.Message != MsgUnexpected {
		t.Errorf("reset with a failing backend = %+v", res)
	}
}

func TestWithPaths(t *testing.T) {
	history := navigate.NewHistory("/")
	s := NewStore(instantAPI(), storage.NewMemoryStorage(nil),
		WithNavigator(history), WithLogger(quietLogger), WithPaths("/home", ""))

	s.Login(context.Background(), "admin", "password", false)
	if history.Current() != "/home" {
		t.Errorf("login went to %q, want /home", history.Current())
	}
	s.Logout(context.Background())
	if history.Current() != DefaultLoginPath {
		t.Errorf("logout went to %q, want default login path", history.Current())
	}
}
