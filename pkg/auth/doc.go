// Package auth holds folio's login session.
//
// A Store keeps the current user and bearer token, persists them to a
// storage.Storage under the "user" and "auth_token" keys, and redirects
// through a navigate.Navigator after login and logout:
//
//	api := auth.NewMockAPI()
//	sessions := auth.NewStore(api, store, auth.WithNavigator(history))
//	sessions.Initialize(ctx)
//
//	res := sessions.Login(ctx, "admin", "password", true)
//	if !res.Success {
//	    showError(res.Message)
//	}
//
// Login never returns an error. Backend failures, injected faults and bad
// credentials all come back as a LoginResult with an HTTP-like status.
//
// MockAPI is a simulated backend with randomized latency and a small
// fault-injection rate. Tests should construct it with WithLatency(0, 0)
// and WithFailureRate(0).
package auth
