package storage

import (
	"context"
	"sync"
)

// Prefixed scopes every key under prefix inside a shared backend.
// Closing a Prefixed store does not close the base store.
type Prefixed struct {
	base   Storage
	prefix string
}

// WithPrefix returns a view of base where every key is stored as prefix+key.
func WithPrefix(base Storage, prefix string) *Prefixed {
	return &Prefixed{base: base, prefix: prefix}
}

// Get returns the value stored under prefix+key.
func (p *Prefixed) Get(ctx context.Context, key string) (string, bool, error) {
	return p.base.Get(ctx, p.prefix+key)
}

// Set stores value under prefix+key.
func (p *Prefixed) Set(ctx context.Context, key, value string) error {
	return p.base.Set(ctx, p.prefix+key, value)
}

// Remove deletes prefix+key.
func (p *Prefixed) Remove(ctx context.Context, key string) error {
	return p.base.Remove(ctx, p.prefix+key)
}

// Close is a no-op; the base store is owned by whoever created it.
func (p *Prefixed) Close() error {
	return nil
}

// Faults selects which operations of a Faulty store fail.
// A nil error leaves the operation untouched.
type Faults struct {
	Get    error
	Set    error
	Remove error
}

// Faulty wraps a store and fails selected operations, simulating quota or
// permission errors from the backend.
type Faulty struct {
	base Storage

	mu     sync.RWMutex
	faults Faults
}

// NewFaulty wraps base with the given faults.
func NewFaulty(base Storage, faults Faults) *Faulty {
	return &Faulty{base: base, faults: faults}
}

// SetFaults replaces the active faults.
func (f *Faulty) SetFaults(faults Faults) {
	f.mu.Lock()
	f.faults = faults
	f.mu.Unlock()
}

func (f *Faulty) current() Faults {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.faults
}

// Get fails with Faults.Get, or reads from the base store.
func (f *Faulty) Get(ctx context.Context, key string) (string, bool, error) {
	if err := f.current().Get; err != nil {
		return "", false, err
	}
	return f.base.Get(ctx, key)
}

// Set fails with Faults.Set, or writes to the base store.
func (f *Faulty) Set(ctx context.Context, key, value string) error {
	if err := f.current().Set; err != nil {
		return err
	}
	return f.base.Set(ctx, key, value)
}

// Remove fails with Faults.Remove, or deletes from the base store.
func (f *Faulty) Remove(ctx context.Context, key string) error {
	if err := f.current().Remove; err != nil {
		return err
	}
	return f.base.Remove(ctx, key)
}

// Close closes the base store.
func (f *Faulty) Close() error {
	return f.base.Close()
}
