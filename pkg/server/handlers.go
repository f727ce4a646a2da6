package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/folio/internal/errors"
	"github.com/vango-dev/folio/pkg/auth"
	"github.com/vango-dev/folio/pkg/nav"
	"github.com/vango-dev/folio/pkg/navigate"
	"github.com/vango-dev/folio/pkg/theme"
	"github.com/vango-dev/folio/pkg/toast"
)

// maxBodyBytes caps API request bodies.
const maxBodyBytes = 64 << 10

// Navigation is the redirect carried by responses whose operation moved
// the client's history.
type Navigation struct {
	Redirect string `json:"redirect,omitempty"`
	Replace  bool   `json:"replace,omitempty"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"rememberMe"`
}

// LoginResponse is the body returned by POST /api/login.
type LoginResponse struct {
	auth.LoginResult
	Navigation
}

// LogoutResponse is the body returned by POST /api/logout.
type LogoutResponse struct {
	Navigation
}

// =============================================================================
// Helpers
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *errors.FolioError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, err.FormatJSON())
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || err == io.EOF {
		return true
	}
	writeError(w, http.StatusBadRequest, errors.New("F401").Wrap(err))
	return false
}

// allowAttempt rejects the request with 429 when the client, or the remote
// host it connects from, has used up its login attempts.
func (s *Server) allowAttempt(w http.ResponseWriter, r *http.Request, c *Client) bool {
	if c.AllowAttempt() && s.clients.AllowHost(remoteHost(r)) {
		return true
	}
	w.Header().Set("Retry-After", "1")
	writeError(w, http.StatusTooManyRequests, errors.New("F406"))
	return false
}

// navigation returns the last history change recorded since the previous
// drain.
func navigation(h *navigate.History) Navigation {
	reqs := h.Drain()
	if len(reqs) == 0 {
		return Navigation{}
	}
	last := reqs[len(reqs)-1]
	return Navigation{Redirect: last.Path, Replace: last.Options.Replace}
}

// =============================================================================
// State and Session
// =============================================================================

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)
	writeJSON(w, http.StatusOK, c.App.State())
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)
	writeJSON(w, http.StatusOK, c.App.Auth.Snapshot())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)

	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}
	if !s.allowAttempt(w, r, c) {
		return
	}

	// Drop history left over from requests that did not report it.
	c.App.History.Drain()

	res := c.App.Auth.Login(r.Context(), req.Identifier, req.Password, req.RememberMe)
	toast.Result(c.App.Document, res.Success, res.Message)

	writeJSON(w, res.Status, LoginResponse{
		LoginResult: res,
		Navigation:  navigation(c.App.History),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)

	c.App.History.Drain()
	c.App.Auth.Logout(r.Context())

	writeJSON(w, http.StatusOK, LogoutResponse{Navigation: navigation(c.App.History)})
}

func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)

	var req struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &req) {
		return
	}
	if !s.allowAttempt(w, r, c) {
		return
	}

	res := c.App.Auth.RequestPasswordReset(r.Context(), req.Email)
	toast.Result(c.App.Document, res.Success, res.Message)
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// Theme
// =============================================================================

type themeBody struct {
	Theme theme.Theme `json:"theme"`
}

func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)
	writeJSON(w, http.StatusOK, themeBody{Theme: c.App.Theme.Current()})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)

	var req struct {
		Theme string `json:"theme"`
	}
	if !decode(w, r, &req) {
		return
	}
	t, err := theme.Parse(req.Theme)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.FromError(err, "F403"))
		return
	}
	if err := c.App.Theme.SetTheme(r.Context(), t); err != nil {
		writeError(w, http.StatusBadRequest, errors.FromError(err, "F403"))
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: c.App.Theme.Current()})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)
	writeJSON(w, http.StatusOK, themeBody{Theme: c.App.Theme.Toggle(r.Context())})
}

// =============================================================================
// Navigation
// =============================================================================

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)
	writeJSON(w, http.StatusOK, c.App.Nav.Snapshot())
}

// handleSidebar toggles the sidebar, or sets it when the body carries
// {"open": bool}.
func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)

	var req struct {
		Open *bool `json:"open"`
	}
	if !decode(w, r, &req) {
		return
	}

	switch {
	case req.Open == nil:
		c.App.Nav.ToggleSidebar()
	case *req.Open:
		c.App.Nav.OpenSidebar()
	default:
		c.App.Nav.CloseSidebar()
	}
	writeJSON(w, http.StatusOK, c.App.Nav.Snapshot())
}

func (s *Server) handleToggleSearch(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)
	c.App.Nav.ToggleSearch()
	writeJSON(w, http.StatusOK, c.App.Nav.Snapshot())
}

func (s *Server) handleSearchQuery(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)

	var req struct {
		Query string `json:"query"`
	}
	if !decode(w, r, &req) {
		return
	}
	c.App.Nav.SetSearchQuery(req.Query)
	writeJSON(w, http.StatusOK, c.App.Nav.Snapshot())
}

func (s *Server) handleActiveItem(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)

	var req struct {
		ID string `json:"id"`
	}
	if !decode(w, r, &req) {
		return
	}
	c.App.Nav.SetActiveItem(req.ID)
	writeJSON(w, http.StatusOK, c.App.Nav.Snapshot())
}

// handlePortfolio selects a portfolio by id; an empty id clears the
// selection.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)

	var req struct {
		ID string `json:"id"`
	}
	if !decode(w, r, &req) {
		return
	}

	if req.ID == "" {
		c.App.Nav.SelectPortfolio(nil)
		writeJSON(w, http.StatusOK, c.App.Nav.Snapshot())
		return
	}

	p, ok := c.App.Nav.FindPortfolio(req.ID)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("F404").WithDetail("No portfolio with id "+req.ID))
		return
	}
	c.App.Nav.SelectPortfolio(&p)
	writeJSON(w, http.StatusOK, c.App.Nav.Snapshot())
}

func (s *Server) handleAddNotification(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)

	var req struct {
		Message string               `json:"message"`
		Type    nav.NotificationType `json:"type"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.Type != "" && !req.Type.Valid() {
		writeError(w, http.StatusBadRequest, errors.New("F405"))
		return
	}

	n := c.App.Nav.AddNotification(req.Message, req.Type)
	toast.Notification(c.App.Document, n)
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleRemoveNotification(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)
	c.App.Nav.RemoveNotification(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	c := s.client(w, r)
	c.App.Nav.ClearAllNotifications()
	w.WriteHeader(http.StatusNoContent)
}
