// Package filestore keeps each key in its own file, the terminal client's equivalent of browser storage.
package filestore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/readify/internal/errors"
	"github.com/jrsteele09/readify/sessions"
	"github.com/rs/zerolog/log"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600

	tmpPrefix  = ".tmp-"
	sweepEvery = time.Minute
)

// FileRepo stores each key in its own file. With a TTL a value expires ttl after its file
// was last written.
type FileRepo struct {
	dir string
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	lastSweep time.Time
}

var _ sessions.Repo = (*FileRepo)(nil)

type Option func(*FileRepo)

// WithTTL expires values ttl after they were last written. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(r *FileRepo) {
		r.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *FileRepo) {
		if now != nil {
			r.now = now
		}
	}
}

// New uses dir for storage, creating it if needed.
func New(dir string, opts ...Option) (*FileRepo, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create storage folder: %w", err)
	}
	r := &FileRepo{dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *FileRepo) Get(_ context.Context, key string) (string, error) {
	path, err := r.path(key)
	if err != nil {
		return "", err
	}
	if r.ttl > 0 {
		info, err := os.Stat(path)
		if os.IsNotExist(err) {
			return "", sessions.ErrNotFound
		}
		if err != nil {
			return "", fmt.Errorf("read %s: %w", key, err)
		}
		if r.expired(info, r.now()) {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return "", fmt.Errorf("expire %s: %w", key, err)
			}
			return "", sessions.ErrNotFound
		}
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", sessions.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return string(b), nil
}

// Set writes to a temporary file and renames it over the old value, so a reader never sees a partial write.
func (r *FileRepo) Set(_ context.Context, key, value string) error {
	path, err := r.path(key)
	if err != nil {
		return err
	}

	r.maybeSweep()

	tmp, err := os.CreateTemp(r.dir, tmpPrefix+"*")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(filePerm); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if r.ttl > 0 {
		// the expiry clock starts at the write
		now := r.now()
		if err := os.Chtimes(path, now, now); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return nil
}

func (r *FileRepo) Delete(_ context.Context, key string) error {
	path, err := r.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Sweep removes every expired value. Set calls it at most once a minute.
func (r *FileRepo) Sweep() error {
	if r.ttl <= 0 {
		return nil
	}
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("sweep storage folder: %w", err)
	}
	now := r.now()
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed meanwhile
		}
		if r.expired(info, now) {
			if err := os.Remove(filepath.Join(r.dir, e.Name())); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("sweep %s: %w", e.Name(), err)
			}
		}
	}
	return nil
}

func (r *FileRepo) maybeSweep() {
	if r.ttl <= 0 {
		return
	}
	r.mu.Lock()
	now := r.now()
	due := now.Sub(r.lastSweep) >= sweepEvery
	if due {
		r.lastSweep = now
	}
	r.mu.Unlock()
	if !due {
		return
	}
	if err := r.Sweep(); err != nil {
		log.Warn().Err(err).Str("dir", r.dir).Msg("Failed to sweep expired values")
	}
}

func (r *FileRepo) expired(info os.FileInfo, now time.Time) bool {
	return !now.Before(info.ModTime().Add(r.ttl))
}

func (r *FileRepo) path(key string) (string, error) {
	if key == "" {
		return "", errors.Wrapf(errors.ErrInvalidRequest, "key is required")
	}
	return filepath.Join(r.dir, url.PathEscape(key)), nil
}
