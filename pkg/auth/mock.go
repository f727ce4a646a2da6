package auth

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/folio/internal/stamp"
)

// API is the backend the session store talks to.
// A returned error is treated as an unexpected failure (status 500).
type API interface {
	Login(ctx context.Context, identifier, password string) (LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) (ResetResult, error)
}

// MockUsers returns the accounts known to MockAPI.
func MockUsers() []User {
	return []User{
		{
			ID:        "1",
			Username:  "admin",
			Email:     "admin@example.com",
			Role:      RoleAdmin,
			CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:        "2",
			Username:  "user",
			Email:     "user@example.com",
			Role:      RoleUser,
			CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
	}
}

// MockAPI simulates the login backend with artificial latency and scripted
// outcomes. Its password rule is a placeholder: "password" for the admin
// account, the username itself for every other account.
type MockAPI struct {
	users        []User
	minLatency   time.Duration
	maxLatency   time.Duration
	resetLatency time.Duration
	failureRate  float64
	random       func() float64
	sleep        func(time.Duration)
	stamps       *stamp.Source
}

// MockOption configures a MockAPI.
type MockOption func(*mockConfig)

type mockConfig struct {
	users        []User
	minLatency   time.Duration
	maxLatency   time.Duration
	resetLatency time.Duration
	failureRate  float64
	random       func() float64
	sleep        func(time.Duration)
	now          func() time.Time
}

// WithLatency sets the login latency range [lo, hi).
// Default: 800ms to 1500ms.
func WithLatency(lo, hi time.Duration) MockOption {
	return func(c *mockConfig) {
		c.minLatency, c.maxLatency = lo, hi
	}
}

// WithResetLatency sets the password reset latency.
// Default: 1s.
func WithResetLatency(d time.Duration) MockOption {
	return func(c *mockConfig) {
		c.resetLatency = d
	}
}

// WithFailureRate sets the probability of an injected server failure.
// Default: 0.05. Zero disables fault injection.
func WithFailureRate(rate float64) MockOption {
	return func(c *mockConfig) {
		c.failureRate = rate
	}
}

// WithRand sets the source of uniform values in [0, 1).
func WithRand(fn func() float64) MockOption {
	return func(c *mockConfig) {
		c.random = fn
	}
}

// WithSleeper replaces time.Sleep for the simulated latency.
func WithSleeper(fn func(time.Duration)) MockOption {
	return func(c *mockConfig) {
		c.sleep = fn
	}
}

// WithClock sets the clock used for token generation.
func WithClock(now func() time.Time) MockOption {
	return func(c *mockConfig) {
		c.now = now
	}
}

// WithUsers replaces the mock account list.
func WithUsers(users []User) MockOption {
	return func(c *mockConfig) {
		c.users = users
	}
}

// NewMockAPI creates a simulated backend.
func NewMockAPI(opts ...MockOption) *MockAPI {
	cfg := &mockConfig{
		users:        MockUsers(),
		minLatency:   800 * time.Millisecond,
		maxLatency:   1500 * time.Millisecond,
		resetLatency: time.Second,
		failureRate:  0.05,
		random:       rand.Float64,
		sleep:        time.Sleep,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &MockAPI{
		users:        cfg.users,
		minLatency:   cfg.minLatency,
		maxLatency:   cfg.maxLatency,
		resetLatency: cfg.resetLatency,
		failureRate:  cfg.failureRate,
		random:       cfg.random,
		sleep:        cfg.sleep,
		stamps:       stamp.New(cfg.now),
	}
}

// Login checks credentials after the simulated latency. The checks run in a
// fixed order: injected failure, empty fields, unknown account, wrong password.
// The simulated latency is not cut short by ctx.
func (m *MockAPI) Login(ctx context.Context, identifier, password string) (LoginResult, error) {
	m.wait(m.latency())

	if m.failureRate > 0 && m.random() < m.failureRate {
		return failure(StatusServerError, MsgServerError), nil
	}

	if strings.TrimSpace(identifier) == "" || strings.TrimSpace(password) == "" {
		return failure(StatusBadRequest, MsgRequired), nil
	}

	user, ok := m.find(identifier)
	if !ok {
		return failure(StatusNotFound, MsgNotFound), nil
	}

	if password != expectedPassword(user) {
		return failure(StatusUnauthorized, MsgBadPassword), nil
	}

	found := user
	return LoginResult{
		Success: true,
		Status:  StatusOK,
		Message: MsgLoginSuccess,
		User:    &found,
		Token:   "mock_token_" + user.ID + "_" + strconv.FormatInt(m.stamps.Next(), 10),
	}, nil
}

// RequestPasswordReset reports whether an account exists for email.
func (m *MockAPI) RequestPasswordReset(ctx context.Context, email string) (ResetResult, error) {
	m.wait(m.resetLatency)

	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return ResetResult{Success: true, Message: MsgResetSent}, nil
		}
	}
	return ResetResult{Success: false, Message: MsgResetNoAccount}, nil
}

// Users returns a copy of the account list.
func (m *MockAPI) Users() []User {
	return append([]User(nil), m.users...)
}

func (m *MockAPI) find(identifier string) (User, bool) {
	for _, u := range m.users {
		if strings.EqualFold(u.Username, identifier) || strings.EqualFold(u.Email, identifier) {
			return u, true
		}
	}
	return User{}, false
}

func expectedPassword(u User) string {
	if u.Username == "admin" {
		return "password"
	}
	return u.Username
}

func (m *MockAPI) latency() time.Duration {
	if m.maxLatency <= m.minLatency {
		return m.minLatency
	}
	span := float64(m.maxLatency - m.minLatency)
	return m.minLatency + time.Duration(m.random()*span)
}

func (m *MockAPI) wait(d time.Duration) {
	if d > 0 {
		m.sleep(d)
	}
}
