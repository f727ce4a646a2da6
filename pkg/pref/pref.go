// Package pref provides typed user preferences persisted in a storage.Storage.
//
// A preference is a value that:
//   - Has a default used while nothing has been saved
//   - Is written to storage under a fixed key on every explicit Set
//   - Can be re-read from storage at any time, so a value written by
//     another client sharing the same storage is observed
//
// Example:
//
//	theme := pref.New(store, "theme", "light", pref.WithCodec(pref.OneOf("light", "dark")))
//
//	current := theme.Get()
//	theme.Set(ctx, "dark")
//
//	if saved, ok := theme.Stored(ctx); ok {
//	    // an explicit choice exists
//	}
package pref

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/vango-dev/folio/pkg/storage"
)

// Codec converts a preference value to and from its stored string form.
type Codec[T any] struct {
	Encode func(T) (string, error)
	Decode func(string) (T, error)
}

// String is the identity codec for string-like preferences.
func String[T ~string]() Codec[T] {
	return Codec[T]{
		Encode: func(v T) (string, error) { return string(v), nil },
		Decode: func(s string) (T, error) { return T(s), nil },
	}
}

// OneOf is a string codec that rejects stored values outside allowed.
// Rejected values read as absent.
func OneOf[T ~string](allowed ...T) Codec[T] {
	return Codec[T]{
		Encode: func(v T) (string, error) {
			if !slices.Contains(allowed, v) {
				return "", fmt.Errorf("pref: value %q is not allowed", v)
			}
			return string(v), nil
		},
		Decode: func(s string) (T, error) {
			v := T(s)
			if !slices.Contains(allowed, v) {
				return v, fmt.Errorf("pref: stored value %q is not allowed", s)
			}
			return v, nil
		},
	}
}

// JSON stores the value as JSON.
func JSON[T any]() Codec[T] {
	return Codec[T]{
		Encode: func(v T) (string, error) {
			data, err := json.Marshal(v)
			return string(data), err
		},
		Decode: func(s string) (T, error) {
			var v T
			err := json.Unmarshal([]byte(s), &v)
			return v, err
		},
	}
}

// PrefOption is a functional option for configuring preferences.
type PrefOption[T any] func(*prefConfig[T])

type prefConfig[T any] struct {
	codec  Codec[T]
	logger *slog.Logger
	now    func() time.Time
}

// WithCodec sets how the value is stored.
// Default: JSON.
func WithCodec[T any](codec Codec[T]) PrefOption[T] {
	return func(c *prefConfig[T]) {
		c.codec = codec
	}
}

// WithLogger sets the logger for storage failures.
func WithLogger[T any](logger *slog.Logger) PrefOption[T] {
	return func(c *prefConfig[T]) {
		c.logger = logger
	}
}

// WithClock sets the clock used for UpdatedAt.
func WithClock[T any](now func() time.Time) PrefOption[T] {
	return func(c *prefConfig[T]) {
		c.now = now
	}
}

// Pref is a typed value bound to one storage key.
type Pref[T any] struct {
	key      string
	store    storage.Storage
	defaults T
	config   prefConfig[T]

	mu        sync.RWMutex
	value     T
	updatedAt time.Time
}

// New creates a preference holding defaultValue. Nothing is read from
// storage until Load or Stored is called.
func New[T any](store storage.Storage, key string, defaultValue T, opts ...PrefOption[T]) *Pref[T] {
	config := prefConfig[T]{
		codec:  JSON[T](),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &Pref[T]{
		key:      key,
		store:    store,
		defaults: defaultValue,
		config:   config,
		value:    defaultValue,
	}
}

// Get returns the current in-memory value.
func (p *Pref[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Stored reads the persisted value. Missing keys, empty values, values the
// codec rejects and storage failures all report false.
func (p *Pref[T]) Stored(ctx context.Context) (T, bool) {
	var zero T

	raw, ok, err := p.store.Get(ctx, p.key)
	if err != nil {
		p.config.logger.Warn("reading preference failed", "key", p.key, "error", err)
		return zero, false
	}
	if !ok || raw == "" {
		return zero, false
	}

	v, err := p.config.codec.Decode(raw)
	if err != nil {
		p.config.logger.Debug("ignoring invalid stored preference", "key", p.key, "error", err)
		return zero, false
	}
	return v, true
}

// Load replaces the in-memory value with the persisted one, if any.
// It reports whether a persisted value was found.
func (p *Pref[T]) Load(ctx context.Context) bool {
	v, ok := p.Stored(ctx)
	if ok {
		p.Apply(v)
	}
	return ok
}

// Apply changes the in-memory value without persisting it.
func (p *Pref[T]) Apply(value T) {
	p.mu.Lock()
	p.value = value
	p.updatedAt = p.config.now()
	p.mu.Unlock()
}

// Set updates the value and persists it. The in-memory value changes even
// when persisting fails; the failure is logged and returned.
func (p *Pref[T]) Set(ctx context.Context, value T) error {
	p.Apply(value)

	raw, err := p.config.codec.Encode(value)
	if err != nil {
		p.config.logger.Warn("encoding preference failed", "key", p.key, "error", err)
		return err
	}
	if err := p.store.Set(ctx, p.key, raw); err != nil {
		p.config.logger.Warn("persisting preference failed", "key", p.key, "error", err)
		return err
	}
	return nil
}

// Clear removes the persisted value and restores the default in memory.
func (p *Pref[T]) Clear(ctx context.Context) error {
	p.Apply(p.defaults)
	if err := p.store.Remove(ctx, p.key); err != nil {
		p.config.logger.Warn("removing preference failed", "key", p.key, "error", err)
		return err
	}
	return nil
}

// Default returns the value used when nothing is stored.
func (p *Pref[T]) Default() T {
	return p.defaults
}

// Key returns the storage key.
func (p *Pref[T]) Key() string {
	return p.key
}

// UpdatedAt returns when the in-memory value last changed.
// It is zero until the first Apply, Set, Load or Clear.
func (p *Pref[T]) UpdatedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.updatedAt
}

// MarshalJSON implements json.Marshaler.
func (p *Pref[T]) MarshalJSON() ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return json.Marshal(struct {
		Key       string    `json:"key"`
		Value     T         `json:"value"`
		UpdatedAt time.Time `json:"updated_at"`
	}{
		Key:       p.key,
		Value:     p.value,
		UpdatedAt: p.updatedAt,
	})
}
