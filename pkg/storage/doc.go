// Package storage provides the origin-scoped key-value store that folio's
// state containers persist to. It plays the role a browser's localStorage
// plays for a client-side app: string keys, string values, synchronous
// semantics, missing keys reported as absent rather than as errors.
//
// Backends:
//   - MemoryStorage: process-local, the default for tests and headless runs
//   - SQLStorage: any database/sql driver; the CLI uses SQLite (modernc.org/sqlite)
//   - S3Storage: one object per key in an S3 bucket
//
// Prefixed scopes one client's keys inside a shared backend, and Faulty
// injects backend failures for exercising error paths.
//
// Example:
//
//	store, err := storage.Open(ctx, storage.Options{Driver: "sqlite", DSN: "folio.db"})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	_ = store.Set(ctx, "theme", "dark")
//	v, ok, err := store.Get(ctx, "theme")
package storage
