package sessions

import (
	"context"
	"strings"

	"github.com/jrsteele09/readify/internal/errors"
)

// ErrNotFound is returned by Repo.Get for a key that holds no value.
var ErrNotFound = errors.ErrNotFound

// Repo is durable key-value storage. One Repo (after Scope) belongs to one browser or one terminal user.
// Delete of a missing key is not an error.
type Repo interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type scopedRepo struct {
	repo   Repo
	prefix string
}

// Scope confines repo to the keys of one scope, typically a browser id.
func Scope(repo Repo, scope string) (Repo, error) {
	if scope == "" || strings.Contains(scope, ":") {
		return nil, errors.Wrapf(errors.ErrInvalidScope, "scope %q", scope)
	}
	return &scopedRepo{repo: repo, prefix: scope + ":"}, nil
}

func (s *scopedRepo) Get(ctx context.Context, key string) (string, error) {
	return s.repo.Get(ctx, s.prefix+key)
}

func (s *scopedRepo) Set(ctx context.Context, key, value string) error {
	return s.repo.Set(ctx, s.prefix+key, value)
}

func (s *scopedRepo) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, s.prefix+key)
}
