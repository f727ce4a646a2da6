// Package errors provides structured, actionable error messages for folio.
//
// Errors carry a registered code that maps to:
//   - A short message describing the error
//   - A detailed explanation
//   - A documentation URL
//
// # Error Categories
//
//   - storage: key-value backend failures (F100-F119)
//   - auth: session operations (F200-F219)
//   - config: folio.json problems (F300-F319)
//   - transport: HTTP/WebSocket surface (F400-F419)
//
// # Usage
//
//	err := errors.New("F104").
//	    WithDetail("driver \"etcd\" is not supported").
//	    WithSuggestion("Set storage.driver to sqlite in folio.json")
//
//	fmt.Println(err.Format())
package errors
