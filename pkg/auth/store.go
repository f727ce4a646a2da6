package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/vango-dev/folio/internal/notify"
	"github.com/vango-dev/folio/pkg/navigate"
	"github.com/vango-dev/folio/pkg/storage"
)

// Default redirect targets.
const (
	DefaultDashboardPath = "/dashboard"
	DefaultLoginPath     = "/login"
)

// Store holds the current session. The user and token are always set and
// cleared together.
type Store struct {
	api       API
	storage   storage.Storage
	navigator navigate.Navigator
	logger    *slog.Logger

	dashboardPath string
	loginPath     string

	// txMu serializes session transitions so memory and storage move
	// together; mu guards the fields for readers.
	txMu  sync.Mutex
	mu    sync.RWMutex
	user  *User
	token string

	hub notify.Hub
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for storage and navigation failures.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithNavigator sets where login and logout redirects go.
// Default: navigate.Discard.
func WithNavigator(n navigate.Navigator) Option {
	return func(s *Store) {
		s.navigator = n
	}
}

// WithPaths overrides the post-login and post-logout destinations.
// Empty values keep the defaults.
func WithPaths(dashboard, login string) Option {
	return func(s *Store) {
		if dashboard != "" {
			s.dashboardPath = dashboard
		}
		if login != "" {
			s.loginPath = login
		}
	}
}

// NewStore creates an empty session store. Call Initialize to restore a
// persisted session.
func NewStore(api API, store storage.Storage, opts ...Option) *Store {
	s := &Store{
		api:           api,
		storage:       store,
		navigator:     navigate.Discard,
		logger:        slog.Default(),
		dashboardPath: DefaultDashboardPath,
		loginPath:     DefaultLoginPath,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login authenticates against the backend. It always returns a result;
// failures are reported through Status and Message.
//
// On success the session is stored in memory and persisted, the remembered
// identifier is saved or cleared according to rememberMe, and the navigator
// is sent to the dashboard with history replacement.
func (s *Store) Login(ctx context.Context, identifier, password string, rememberMe bool) LoginResult {
	res, err := s.callLogin(ctx, identifier, password)
	if err != nil {
		s.logger.Error("login failed unexpectedly", "error", err)
		return failure(StatusServerError, MsgUnexpected)
	}
	if !res.Success {
		return res
	}
	if res.User == nil || res.Token == "" {
		s.logger.Error("login succeeded without a user or token")
		return failure(StatusServerError, MsgUnexpected)
	}

	user := *res.User
	s.txMu.Lock()
	s.mu.Lock()
	s.user = &user
	s.token = res.Token
	s.mu.Unlock()
	s.persist(ctx, &user, res.Token)
	s.txMu.Unlock()

	if rememberMe {
		s.SaveRememberedCredentials(ctx, identifier)
	} else {
		s.ClearRememberedCredentials(ctx)
	}

	s.hub.Notify()

	if err := s.navigator.Navigate(ctx, s.dashboardPath, navigate.WithReplace()); err != nil {
		s.logger.Warn("post-login redirect failed", "path", s.dashboardPath, "error", err)
	}
	return res
}

func (s *Store) callLogin(ctx context.Context, identifier, password string) (res LoginResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("auth: backend panic: %v", r)
		}
	}()
	return s.api.Login(ctx, identifier, password)
}

func (s *Store) persist(ctx context.Context, user *User, token string) {
	data, err := json.Marshal(user)
	if err != nil {
		s.logger.Warn("encoding user failed", "error", err)
		return
	}
	if err := s.storage.Set(ctx, KeyUser, string(data)); err != nil {
		s.logger.Warn("persisting session failed", "key", KeyUser, "error", err)
	}
	if err := s.storage.Set(ctx, KeyAuthToken, token); err != nil {
		s.logger.Warn("persisting session failed", "key", KeyAuthToken, "error", err)
	}
}

// Logout clears the session, removes the persisted user and token, and
// redirects to the login page. The remembered identifier is kept.
func (s *Store) Logout(ctx context.Context) {
	s.txMu.Lock()
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()
	s.removeSessionKeys(ctx)
	s.txMu.Unlock()

	s.hub.Notify()

	if err := s.navigator.Navigate(ctx, s.loginPath, navigate.WithReplace()); err != nil {
		s.logger.Warn("post-logout redirect failed", "path", s.loginPath, "error", err)
	}
}

func (s *Store) removeSessionKeys(ctx context.Context) {
	for _, key := range []string{KeyUser, KeyAuthToken} {
		if err := s.storage.Remove(ctx, key); err != nil {
			s.logger.Warn("removing session key failed", "key", key, "error", err)
		}
	}
}

// Initialize restores a persisted session. Both the user record and the
// token must be present; a user record that does not decode is treated as
// corrupted and both keys are removed. Nothing is re-validated.
func (s *Store) Initialize(ctx context.Context) {
	s.txMu.Lock()
	restored := s.restore(ctx)
	s.txMu.Unlock()

	if restored {
		s.hub.Notify()
	}
}

func (s *Store) restore(ctx context.Context) bool {
	token, okToken, err := s.storage.Get(ctx, KeyAuthToken)
	if err != nil {
		s.logger.Warn("reading stored token failed", "error", err)
		return false
	}
	raw, okUser, err := s.storage.Get(ctx, KeyUser)
	if err != nil {
		s.logger.Warn("reading stored user failed", "error", err)
		return false
	}
	if !okToken || !okUser || token == "" || raw == "" {
		return false
	}

	var user *User
	if err := json.Unmarshal([]byte(raw), &user); err != nil || user == nil {
		s.logger.Warn("discarding corrupted stored session", "error", err)
		s.removeSessionKeys(ctx)
		return false
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()
	return true
}

// HasRole reports whether a user is logged in with the given role.
func (s *Store) HasRole(role Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.user.Role == role
}

// CurrentUser returns a copy of the logged-in user, or nil.
func (s *Store) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the bearer token, or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// LoggedIn reports whether both a user and a token are held.
func (s *Store) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

// Snapshot returns the current session.
func (s *Store) Snapshot() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var user *User
	if s.user != nil {
		u := *s.user
		user = &u
	}
	return Session{
		User:     user,
		Token:    s.token,
		LoggedIn: s.user != nil && s.token != "",
	}
}

// Subscribe registers fn to run after every session change.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

// SaveRememberedCredentials stores the identifier used to prefill the login
// form. Storage failures are logged.
func (s *Store) SaveRememberedCredentials(ctx context.Context, identifier string) {
	if err := s.storage.Set(ctx, KeyRememberedCredentials, strings.TrimSpace(identifier)); err != nil {
		s.logger.Warn("saving remembered credentials failed", "error", err)
	}
}

// RememberedCredentials returns the remembered identifier, or "".
func (s *Store) RememberedCredentials(ctx context.Context) string {
	v, _, err := s.storage.Get(ctx, KeyRememberedCredentials)
	if err != nil {
		s.logger.Warn("reading remembered credentials failed", "error", err)
		return ""
	}
	return v
}

// ClearRememberedCredentials forgets the remembered identifier.
func (s *Store) ClearRememberedCredentials(ctx context.Context) {
	if err := s.storage.Remove(ctx, KeyRememberedCredentials); err != nil {
		s.logger.Warn("clearing remembered credentials failed", "error", err)
	}
}

// RequestPasswordReset asks the backend to send reset instructions.
func (s *Store) RequestPasswordReset(ctx context.Context, email string) ResetResult {
	res, err := s.api.RequestPasswordReset(ctx, strings.TrimSpace(email))
	if err != nil {
		s.logger.Error("password reset failed unexpectedly", "error", err)
		return ResetResult{Success: false, Message: MsgUnexpected}
	}
	return res
}
