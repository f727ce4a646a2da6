// Package nav holds folio's navigation chrome state: the sidebar, the
// active menu item and portfolio, global search and header notifications.
//
// Nothing here is persisted. A Store observes a viewport.WidthSource to
// collapse the sidebar when the viewport becomes narrower than the mobile
// breakpoint.
package nav

import (
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/vango-dev/folio/internal/notify"
	"github.com/vango-dev/folio/internal/stamp"
	"github.com/vango-dev/folio/pkg/dom"
	"github.com/vango-dev/folio/pkg/viewport"
)

// Defaults.
const (
	DefaultBreakpoint       = 1024
	DefaultActiveItem       = "dashboard"
	DefaultSearchInputID    = "global-search"
	DefaultSearchFocusDelay = 100 * time.Millisecond
)

// Scheduler runs fn after d and returns a function that cancels it.
type Scheduler func(d time.Duration, fn func()) (cancel func())

func afterFunc(d time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Store holds navigation state.
type Store struct {
	breakpoint    int
	searchInputID string
	focusDelay    time.Duration
	focuser       dom.Focuser
	schedule      Scheduler
	stamps        *stamp.Source
	logger        *slog.Logger
	menu          []MenuItem

	mu              sync.RWMutex
	isOpen          bool
	isMobile        bool
	activeItem      string
	activePortfolio *Portfolio
	searchOpen      bool
	searchQuery     string
	notifications   []Notification
	portfolios      []Portfolio
	cancelFocus     func()
	stopViewport    func()

	hub notify.Hub
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	breakpoint    int
	activeItem    string
	searchInputID string
	focusDelay    time.Duration
	focuser       dom.Focuser
	schedule      Scheduler
	now           func() time.Time
	logger        *slog.Logger
	viewport      viewport.WidthSource
	portfolios    []Portfolio
	menu          []MenuItem
}

// WithBreakpoint sets the width below which the viewport counts as mobile.
// Default: 1024.
func WithBreakpoint(px int) Option {
	return func(c *storeConfig) {
		if px > 0 {
			c.breakpoint = px
		}
	}
}

// WithActiveItem sets the initially active menu item.
// Default: "dashboard".
func WithActiveItem(id string) Option {
	return func(c *storeConfig) {
		if id != "" {
			c.activeItem = id
		}
	}
}

// WithSearchFocus sets the element focused when search opens and the delay
// before focusing it. Default: "global-search" after 100ms.
func WithSearchFocus(id string, delay time.Duration) Option {
	return func(c *storeConfig) {
		if id != "" {
			c.searchInputID = id
		}
		if delay >= 0 {
			c.focusDelay = delay
		}
	}
}

// WithFocuser sets the document used for focusing the search input.
func WithFocuser(f dom.Focuser) Option {
	return func(c *storeConfig) {
		c.focuser = f
	}
}

// WithScheduler replaces time.AfterFunc for the delayed search focus.
func WithScheduler(s Scheduler) Option {
	return func(c *storeConfig) {
		c.schedule = s
	}
}

// WithClock sets the clock used for notification ids.
func WithClock(now func() time.Time) Option {
	return func(c *storeConfig) {
		c.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *storeConfig) {
		c.logger = logger
	}
}

// WithViewport observes src from construction, as ObserveViewport does.
func WithViewport(src viewport.WidthSource) Option {
	return func(c *storeConfig) {
		c.viewport = src
	}
}

// WithPortfolios replaces the demo portfolios.
func WithPortfolios(p []Portfolio) Option {
	return func(c *storeConfig) {
		c.portfolios = p
	}
}

// WithMenuItems replaces the sidebar menu.
func WithMenuItems(items []MenuItem) Option {
	return func(c *storeConfig) {
		c.menu = items
	}
}

// NewStore creates a navigation store with the sidebar open.
func NewStore(opts ...Option) *Store {
	cfg := storeConfig{
		breakpoint:    DefaultBreakpoint,
		activeItem:    DefaultActiveItem,
		searchInputID: DefaultSearchInputID,
		focusDelay:    DefaultSearchFocusDelay,
		focuser:       dom.Discard,
		schedule:      afterFunc,
		logger:        slog.Default(),
		portfolios:    DefaultPortfolios(),
		menu:          DefaultMenuItems(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Store{
		breakpoint:    cfg.breakpoint,
		searchInputID: cfg.searchInputID,
		focusDelay:    cfg.focusDelay,
		focuser:       cfg.focuser,
		schedule:      cfg.schedule,
		stamps:        stamp.New(cfg.now),
		logger:        cfg.logger,
		menu:          cfg.menu,
		isOpen:        true,
		activeItem:    cfg.activeItem,
		portfolios:    cfg.portfolios,
	}
	if cfg.viewport != nil {
		s.ObserveViewport(cfg.viewport)
	}
	return s
}

// set applies fn under the lock and notifies subscribers.
func (s *Store) set(fn func()) {
	s.mu.Lock()
	fn()
	s.mu.Unlock()
	s.hub.Notify()
}

// ToggleSidebar opens a closed sidebar or closes an open one.
func (s *Store) ToggleSidebar() {
	s.set(func() { s.isOpen = !s.isOpen })
}

// OpenSidebar opens the sidebar.
func (s *Store) OpenSidebar() {
	s.set(func() { s.isOpen = true })
}

// CloseSidebar closes the sidebar.
func (s *Store) CloseSidebar() {
	s.set(func() { s.isOpen = false })
}

// SetActiveItem marks the menu item with id as active. Ids are not checked
// against the menu.
func (s *Store) SetActiveItem(id string) {
	s.set(func() { s.activeItem = id })
}

// ToggleSearch opens or closes global search. Opening focuses the search
// input after a short delay; closing clears the query and cancels a
// pending focus.
func (s *Store) ToggleSearch() {
	s.mu.Lock()
	s.searchOpen = !s.searchOpen
	if s.cancelFocus != nil {
		s.cancelFocus()
		s.cancelFocus = nil
	}
	if s.searchOpen {
		id := s.searchInputID
		s.cancelFocus = s.schedule(s.focusDelay, func() {
			s.focuser.Focus(id)
		})
	} else {
		s.searchQuery = ""
	}
	s.mu.Unlock()

	s.hub.Notify()
}

// SetSearchQuery replaces the search text.
func (s *Store) SetSearchQuery(query string) {
	s.set(func() { s.searchQuery = query })
}

// SelectPortfolio makes p the active portfolio. A nil p deselects.
func (s *Store) SelectPortfolio(p *Portfolio) {
	var active *Portfolio
	if p != nil {
		cp := *p
		active = &cp
	}
	s.set(func() { s.activePortfolio = active })
}

// AddNotification appends a notification and returns it. An empty type
// means Info.
func (s *Store) AddNotification(message string, typ NotificationType) Notification {
	if typ == "" {
		typ = Info
	}
	n := Notification{
		ID:      "notification-" + strconv.FormatInt(s.stamps.Next(), 10),
		Message: message,
		Type:    typ,
	}
	s.set(func() { s.notifications = append(s.notifications, n) })
	return n
}

// RemoveNotification removes the notification with id, if present.
func (s *Store) RemoveNotification(id string) {
	s.set(func() {
		s.notifications = slices.DeleteFunc(s.notifications, func(n Notification) bool {
			return n.ID == id
		})
	})
}

// ClearAllNotifications removes every notification.
func (s *Store) ClearAllNotifications() {
	s.set(func() { s.notifications = nil })
}

// UpdateMobileState records whether the viewport is mobile-sized. It does
// not touch the sidebar.
func (s *Store) UpdateMobileState(mobile bool) {
	s.set(func() { s.isMobile = mobile })
}

// ObserveViewport starts reacting to src, replacing any previous source.
// The current width is checked immediately. Whenever the viewport becomes
// mobile-sized while the sidebar is open, the sidebar closes; staying
// mobile-sized does not close it again.
func (s *Store) ObserveViewport(src viewport.WidthSource) {
	s.mu.Lock()
	if s.stopViewport != nil {
		s.stopViewport()
		s.stopViewport = nil
	}
	s.mu.Unlock()

	s.checkWidth(src.Width(), true)
	stop := src.SubscribeWidth(func(width int) {
		s.checkWidth(width, false)
	})

	s.mu.Lock()
	s.stopViewport = stop
	s.mu.Unlock()
}

func (s *Store) checkWidth(width int, initial bool) {
	mobile := width < s.breakpoint

	s.mu.Lock()
	entering := mobile && (initial || !s.isMobile)
	s.isMobile = mobile
	closed := entering && s.isOpen
	if closed {
		s.isOpen = false
	}
	s.mu.Unlock()

	if closed {
		s.logger.Debug("sidebar collapsed for mobile viewport", "width", width, "breakpoint", s.breakpoint)
	}
	s.hub.Notify()
}

// Close stops observing the viewport and cancels a pending search focus.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopViewport != nil {
		s.stopViewport()
		s.stopViewport = nil
	}
	if s.cancelFocus != nil {
		s.cancelFocus()
		s.cancelFocus = nil
	}
}

// Subscribe registers fn to run after every state change.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	return s.hub.Subscribe(fn)
}

// IsOpen reports whether the sidebar is open.
func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isOpen
}

// IsMobile reports whether the viewport is mobile-sized.
func (s *Store) IsMobile() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isMobile
}

// ActiveItem returns the active menu item id.
func (s *Store) ActiveItem() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeItem
}

// ActivePortfolio returns a copy of the active portfolio, or nil.
func (s *Store) ActivePortfolio() *Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activePortfolio == nil {
		return nil
	}
	p := *s.activePortfolio
	return &p
}

// SearchOpen reports whether global search is open.
func (s *Store) SearchOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchOpen
}

// SearchQuery returns the search text.
func (s *Store) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchQuery
}

// Notifications returns the notifications in insertion order.
func (s *Store) Notifications() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notifications)
}

// UnreadCount returns the number of notifications.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notifications)
}

// Portfolios returns the available portfolios.
func (s *Store) Portfolios() []Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.portfolios)
}

// FindPortfolio returns the portfolio with id.
func (s *Store) FindPortfolio(id string) (Portfolio, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.portfolios {
		if p.ID == id {
			return p, true
		}
	}
	return Portfolio{}, false
}

// MenuItems returns the sidebar menu.
func (s *Store) MenuItems() []MenuItem {
	return slices.Clone(s.menu)
}

// Snapshot returns the full state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active *Portfolio
	if s.activePortfolio != nil {
		p := *s.activePortfolio
		active = &p
	}
	notifications := slices.Clone(s.notifications)
	if notifications == nil {
		notifications = []Notification{}
	}
	return State{
		IsOpen:          s.isOpen,
		IsMobile:        s.isMobile,
		ActiveItem:      s.activeItem,
		ActivePortfolio: active,
		SearchOpen:      s.searchOpen,
		SearchQuery:     s.searchQuery,
		Notifications:   notifications,
		UnreadCount:     len(s.notifications),
		Portfolios:      slices.Clone(s.portfolios),
		MenuItems:       slices.Clone(s.menu),
	}
}
