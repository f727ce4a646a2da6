package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/folio"
	"github.com/vango-dev/folio/pkg/auth"
	"github.com/vango-dev/folio/pkg/middleware"
	"github.com/vango-dev/folio/pkg/storage"
	"github.com/vango-dev/folio/pkg/viewport"
)

// Server serves folio clients over HTTP and WebSocket. Each browser,
// identified by the folio_client cookie, gets its own App whose storage is
// the shared backend under the prefix "client/<id>/".
type Server struct {
	config   *Config
	storage  storage.Storage
	api      auth.API
	clients  *ClientManager
	router   chi.Router
	upgrader websocket.Upgrader

	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server over the shared storage backend. The backend is not
// closed by the server.
func New(store storage.Storage, cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.withDefaults()

	api := cfg.API
	if api == nil {
		api = folio.NewMockAPI(cfg.Settings)
	}
	mws := cfg.Middleware
	if mws == nil {
		mws = []middleware.Middleware{
			middleware.OpenTelemetry(),
			middleware.Prometheus(),
			middleware.Recover(cfg.Logger),
		}
	}

	s := &Server{
		config:  cfg,
		storage: store,
		api:     middleware.Chain(api, mws...),
		logger:  cfg.Logger.With("component", "server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
	s.clients = NewClientManager(s.newApp, cfg.IdleTimeout, cfg.Logger)
	s.clients.SetAttemptLimit(cfg.LoginRate, cfg.LoginBurst)
	s.clients.SetHostLimit(cfg.HostLoginRate, cfg.HostLoginBurst)
	s.router = s.routes()
	return s
}

// newApp builds and initializes the App for client id.
func (s *Server) newApp(id string) *folio.App {
	app := folio.New(folio.Config{
		Storage:     storage.WithPrefix(s.storage, "client/"+id+"/"),
		API:         s.api,
		Settings:    s.config.Settings,
		Signals:     viewport.NewFeed(0, false),
		InitialPath: "/",
		Logger:      s.config.Logger.With("client", id),
	})
	app.Initialize(context.Background())
	return app
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get("/ws", s.HandleWebSocket)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)

		r.Get("/session", s.handleSession)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/password-reset", s.handlePasswordReset)

		r.Get("/theme", s.handleTheme)
		r.Put("/theme", s.handleSetTheme)
		r.Post("/theme/toggle", s.handleToggleTheme)

		r.Route("/nav", func(r chi.Router) {
			r.Get("/", s.handleNav)
			r.Post("/sidebar", s.handleSidebar)
			r.Post("/search", s.handleToggleSearch)
			r.Put("/search", s.handleSearchQuery)
			r.Put("/active", s.handleActiveItem)
			r.Put("/portfolio", s.handlePortfolio)
			r.Post("/notifications", s.handleAddNotification)
			r.Delete("/notifications", s.handleClearNotifications)
			r.Delete("/notifications/{id}", s.handleRemoveNotification)
		})
	})
	return r
}

// client returns the caller's client, issuing a new id cookie when the
// request carries none or an invalid one.
func (s *Server) client(w http.ResponseWriter, r *http.Request) *Client {
	id := ""
	if cookie, err := r.Cookie(ClientCookieName); err == nil {
		if parsed, err := uuid.Parse(cookie.Value); err == nil {
			id = parsed.String()
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     ClientCookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Secure:   s.config.SecureCookies || r.TLS != nil,
			MaxAge:   365 * 24 * 60 * 60,
		})
	}

	client, created := s.clients.GetOrCreate(id)
	if created {
		s.logger.Info("client connected", "client", id, "request_id", chimw.GetReqID(r.Context()))
	}
	return client
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Clients returns the client manager.
func (s *Server) Clients() *ClientManager {
	return s.clients
}

// Config returns the server configuration.
func (s *Server) Config() *Config {
	return s.config
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}
	s.clients.StartCleanup(s.config.CleanupInterval)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", s.config.Address)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.clients.Shutdown()
		if err != http.ErrServerClosed {
			return err
		}
		return nil

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.WithoutCancel(ctx))
	}
}

// Shutdown closes every client and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.clients.Shutdown()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
