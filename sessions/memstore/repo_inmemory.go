package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/readify/sessions"
)

// sweepEvery bounds how often Set walks the map for expired entries.
const sweepEvery = time.Minute

type entry struct {
	value   string
	expires time.Time // zero never expires
}

// InMemoryRepo is an in-memory implementation of sessions.Repo
type InMemoryRepo struct {
	mu        sync.RWMutex
	values    map[string]entry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

var _ sessions.Repo = (*InMemoryRepo)(nil)

type Option func(*InMemoryRepo)

// WithTTL expires every value ttl after it was last written. Zero keeps values forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *InMemoryRepo) {
		r.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *InMemoryRepo) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a new in-memory repository
func New(opts ...Option) *InMemoryRepo {
	r := &InMemoryRepo{
		values: make(map[string]entry),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get retrieves the value stored under key
func (r *InMemoryRepo) Get(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("key is required")
	}

	r.mu.RLock()
	e, ok := r.values[key]
	r.mu.RUnlock()

	if !ok {
		return "", sessions.ErrNotFound
	}
	if e.expired(r.now()) {
		r.mu.Lock()
		if current, still := r.values[key]; still && current.expired(r.now()) {
			delete(r.values, key)
		}
		r.mu.Unlock()
		return "", sessions.ErrNotFound
	}
	return e.value, nil
}

// Set creates or replaces the value stored under key
func (r *InMemoryRepo) Set(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e := entry{value: value}
	if r.ttl > 0 {
		e.expires = now.Add(r.ttl)
		if now.Sub(r.lastSweep) >= sweepEvery {
			r.sweep(now)
		}
	}
	r.values[key] = e
	return nil
}

// Delete removes key
func (r *InMemoryRepo) Delete(_ context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.values, key)
	return nil
}

// Len is the number of live keys
func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep(r.now())
	return len(r.values)
}

// sweep must be called with r.mu held.
func (r *InMemoryRepo) sweep(now time.Time) {
	for key, e := range r.values {
		if e.expired(now) {
			delete(r.values, key)
		}
	}
	r.lastSweep = now
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}
