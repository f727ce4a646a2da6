// Package folio is the client-state runtime of the folio crypto portfolio
// dashboard.
//
// Each browser client gets an App holding three independent stores:
//
//   - Auth (pkg/auth): the logged-in user and bearer token, persisted to
//     the client's storage, with login, logout and role checks.
//   - Theme (pkg/theme): light or dark, persisted once chosen, following
//     the system color scheme until then.
//   - Nav (pkg/nav): sidebar, active item and portfolio, search and
//     in-memory notifications, collapsing the sidebar on narrow viewports.
//
// The stores run on the server. pkg/server exposes them over HTTP and a
// websocket that carries viewport signals in and DOM commands out; the
// folio command drives them from a terminal against a local SQLite file.
package folio

// Version is the current folio version.
const Version = "0.3.0"
