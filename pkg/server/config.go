package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"golang.org/x/time/rate"

	"github.com/vango-dev/folio/internal/config"
	"github.com/vango-dev/folio/pkg/auth"
	"github.com/vango-dev/folio/pkg/middleware"
)

// ClientCookieName is the cookie carrying the client id.
const ClientCookieName = "folio_client"

// Config configures a Server.
type Config struct {
	// Address is the listen address (default: "localhost:3000").
	Address string

	// Settings carries the folio.json values handed to every client's App.
	Settings *config.Config

	// API is the auth backend shared by all clients.
	// Default: a MockAPI built from Settings.
	API auth.API

	// Middleware wraps API. Nil applies tracing, metrics and panic
	// recovery; an empty non-nil slice applies nothing.
	Middleware []middleware.Middleware

	// CheckOrigin validates WebSocket upgrade origins.
	// Default: same origin, plus AllowedOrigins.
	CheckOrigin func(r *http.Request) bool

	// AllowedOrigins lists extra origins (scheme://host[:port]) accepted
	// for WebSocket upgrades.
	AllowedOrigins []string

	// IdleTimeout is how long a client without connections is kept.
	IdleTimeout time.Duration

	// CleanupInterval is how often idle clients are swept.
	CleanupInterval time.Duration

	// HeartbeatInterval is the WebSocket ping interval.
	HeartbeatInterval time.Duration

	// ReadTimeout is the WebSocket read deadline, extended by every
	// message and pong.
	ReadTimeout time.Duration

	// WriteTimeout is the WebSocket write deadline.
	WriteTimeout time.Duration

	// ReadHeaderTimeout is passed to http.Server.
	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds Shutdown.
	ShutdownTimeout time.Duration

	// MaxMessageSize caps inbound WebSocket messages in bytes.
	MaxMessageSize int64

	// SendBuffer is the per-connection outbound queue length.
	SendBuffer int

	// LoginRate limits login and password reset attempts per client.
	// rate.Inf disables the limit.
	LoginRate rate.Limit

	// LoginBurst is the number of attempts allowed at once.
	LoginBurst int

	// HostLoginRate limits login and password reset attempts per remote
	// host across all its clients. rate.Inf disables the limit.
	HostLoginRate rate.Limit

	// HostLoginBurst is the number of attempts a host may make at once.
	HostLoginBurst int

	// SecureCookies marks the client cookie Secure on every response,
	// not only on TLS requests.
	SecureCookies bool

	// Logger is the server logger (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:           "localhost:3000",
		IdleTimeout:       30 * time.Minute,
		CleanupInterval:   time.Minute,
		HeartbeatInterval: 30 * time.Second,
		ReadTimeout:       90 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		MaxMessageSize:    4096,
		SendBuffer:        32,
		LoginRate:         rate.Every(time.Second),
		LoginBurst:        5,
		HostLoginRate:     rate.Every(200 * time.Millisecond),
		HostLoginBurst:    20,
	}
}

// FromSettings returns the defaults with the address and allowed origins
// taken from folio.json.
func FromSettings(settings *config.Config) *Config {
	c := DefaultConfig()
	c.Settings = settings
	c.Address = settings.Address()
	c.AllowedOrigins = slices.Clone(settings.Server.AllowedOrigins)
	return c
}

// withDefaults fills unset fields from DefaultConfig.
func (c *Config) withDefaults() *Config {
	out := *c
	d := DefaultConfig()
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.Settings == nil {
		out.Settings = config.New()
	}
	if out.IdleTimeout <= 0 {
		out.IdleTimeout = d.IdleTimeout
	}
	if out.CleanupInterval <= 0 {
		out.CleanupInterval = d.CleanupInterval
	}
	if out.HeartbeatInterval <= 0 {
		out.HeartbeatInterval = d.HeartbeatInterval
	}
	if out.ReadTimeout <= 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.ReadHeaderTimeout <= 0 {
		out.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if out.ShutdownTimeout <= 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.MaxMessageSize <= 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.SendBuffer <= 0 {
		out.SendBuffer = d.SendBuffer
	}
	if out.LoginRate <= 0 {
		out.LoginRate = d.LoginRate
	}
	if out.LoginBurst <= 0 {
		out.LoginBurst = d.LoginBurst
	}
	if out.HostLoginRate <= 0 {
		out.HostLoginRate = d.HostLoginRate
	}
	if out.HostLoginBurst <= 0 {
		out.HostLoginBurst = d.HostLoginBurst
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.CheckOrigin == nil {
		allowed := out.AllowedOrigins
		out.CheckOrigin = func(r *http.Request) bool {
			return SameOriginCheck(r) || originAllowed(r, allowed)
		}
	}
	return &out
}

// SameOriginCheck validates that the WebSocket request origin matches the
// host. Requests without an Origin header pass.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return false
	}
	return originURL.Host == r.Host
}

func originAllowed(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	return origin != "" && slices.Contains(allowed, origin)
}
