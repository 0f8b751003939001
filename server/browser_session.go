package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/guard"
	"github.com/jrsteele09/readify/internal/errors"
	"github.com/jrsteele09/readify/notify"
	"github.com/jrsteele09/readify/sessions"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyBrowser stores the *browser of the current request
const ContextKeyBrowser ContextKey = "browser"

const (
	// browserKey marks a scope the server issued; ids without it are never adopted.
	browserKey = "browser"
	// toastsKey holds toasts waiting to be shown by the next rendered page.
	toastsKey = "toasts"
)

// browser is one browser's view of the application for the duration of a request.
type browser struct {
	id      string
	storage sessions.Repo
	store   *sessions.Store
	toasts  *toastQueue

	mu       sync.Mutex
	navigate string
}

func (b *browser) Navigate(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.navigate = path
}

// next is where the session store last asked to navigate, or fallback.
func (b *browser) next(fallback string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.navigate == "" {
		return fallback
	}
	return b.navigate
}

// toastQueue collects the notifications emitted while handling one request.
type toastQueue struct {
	mu      sync.Mutex
	pending []notify.Notification
}

func (q *toastQueue) Notify(n notify.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, n)
}

func (q *toastQueue) drain() []notify.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

func browserFrom(ctx context.Context) *browser {
	b, _ := ctx.Value(ContextKeyBrowser).(*browser)
	return b
}

// BrowserSessionMiddleware identifies the browser by its cookie and opens the session stored
// in that browser's scope. A browser without a cookie, or with an id this server has no scope
// for, gets a freshly issued id.
func (s *Server) BrowserSessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := s.knownBrowser(r)
		if err == nil && b == nil {
			b, err = s.newBrowser(r.Context())
		}
		if err == nil {
			err = s.openSession(r.Context(), b)
		}
		if err != nil {
			logError(r.Method, r.URL.Path, err)
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.SetBrowserCookie(w, r, b.id)

		next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyBrowser, b)))
	}
}

// knownBrowser returns the browser named by the cookie, or nil when its scope was never issued
// here or has expired.
func (s *Server) knownBrowser(r *http.Request) (*browser, error) {
	id, ok := s.browserID(r)
	if !ok {
		return nil, nil
	}
	scoped, err := sessions.Scope(s.storage, id)
	if err != nil {
		return nil, err
	}
	_, err = scoped.Get(r.Context(), browserKey)
	if errors.Is(err, sessions.ErrNotFound) || errors.Is(err, errors.ErrUnsealed) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read browser scope")
	}
	return &browser{id: id, storage: scoped, toasts: &toastQueue{}}, nil
}

// newBrowser issues a fresh id and marks its scope.
func (s *Server) newBrowser(ctx context.Context) (*browser, error) {
	id := uuid.NewString()
	scoped, err := sessions.Scope(s.storage, id)
	if err != nil {
		return nil, err
	}
	if err := scoped.Set(ctx, browserKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, errors.Wrapf(err, "issue browser scope")
	}
	return &browser{id: id, storage: scoped, toasts: &toastQueue{}}, nil
}

func (s *Server) openSession(ctx context.Context, b *browser) error {
	opts := []sessions.Option{
		sessions.WithNavigator(b),
		sessions.WithNotifier(b.toasts),
	}
	if s.metrics != nil {
		opts = append(opts, sessions.WithLoginObserver(s.metrics))
	}
	store, err := sessions.Open(ctx, b.storage, s.api, opts...)
	if err != nil {
		return err
	}
	b.store = store
	return nil
}

// rotateBrowser moves the browser's session to a newly issued id and forgets the old one, so an
// id known before login is worthless after it.
func (s *Server) rotateBrowser(w http.ResponseWriter, r *http.Request, b *browser) error {
	ctx := r.Context()
	fresh, err := s.newBrowser(ctx)
	if err != nil {
		return err
	}

	for _, key := range []string{sessions.CredentialKey, toastsKey} {
		value, err := b.storage.Get(ctx, key)
		if errors.Is(err, sessions.ErrNotFound) {
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", key)
		}
		if err := fresh.storage.Set(ctx, key, value); err != nil {
			return errors.Wrapf(err, "move %s", key)
		}
	}
	for _, key := range []string{sessions.CredentialKey, toastsKey, browserKey} {
		if err := b.storage.Delete(ctx, key); err != nil {
			return errors.Wrapf(err, "forget %s", key)
		}
	}

	previous := b.id
	b.id, b.storage = fresh.id, fresh.storage
	if err := s.openSession(ctx, b); err != nil {
		return err
	}
	s.SetBrowserCookie(w, r, b.id)
	log.Debug().Str("from", previous).Str("to", b.id).Msg("Browser id rotated")
	return nil
}

// GuardMiddleware sends a browser without a session away from protected views.
func (s *Server) GuardMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		state := guard.Unauthenticated
		if b != nil {
			state = guard.StateFor(b.store.Authenticated())
		}

		if decision := s.guard.Decide(state, r.URL.Path); !decision.Allow {
			redirectSuccess(w, r, decision.Redirect)
			return
		}
		next(w, r)
	}
}

// client is the API client acting for the browser's current session.
func (s *Server) client(b *browser) *api.Client {
	return s.api.WithCredential(b.store.Credential())
}

// redirect stores the toasts emitted so far for the next page and redirects there.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, b *browser, path string) {
	if err := s.keepToasts(r.Context(), b); err != nil {
		log.Err(err).Str("browser", b.id).Msg("Failed to keep toasts")
	}
	redirectSuccess(w, r, path)
}

func (s *Server) keepToasts(ctx context.Context, b *browser) error {
	pending := b.toasts.drain()
	if len(pending) == 0 {
		return nil
	}
	stored, err := s.storedToasts(ctx, b)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(append(stored, pending...))
	if err != nil {
		return errors.Wrapf(err, "encode toasts")
	}
	return b.storage.Set(ctx, toastsKey, string(raw))
}

// takeToasts returns every toast waiting for this browser and forgets them.
func (s *Server) takeToasts(ctx context.Context, b *browser) []notify.Notification {
	stored, err := s.storedToasts(ctx, b)
	if err != nil {
		log.Err(err).Str("browser", b.id).Msg("Failed to read toasts")
	}
	if len(stored) > 0 {
		if err := b.storage.Delete(ctx, toastsKey); err != nil {
			log.Err(err).Str("browser", b.id).Msg("Failed to clear toasts")
		}
	}
	return append(stored, b.toasts.drain()...)
}

func (s *Server) storedToasts(ctx context.Context, b *browser) ([]notify.Notification, error) {
	raw, err := b.storage.Get(ctx, toastsKey)
	if errors.Is(err, sessions.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read toasts")
	}
	var toasts []notify.Notification
	if err := json.Unmarshal([]byte(raw), &toasts); err != nil {
		log.Warn().Err(err).Str("browser", b.id).Msg("Discarding unreadable toasts")
		return nil, nil
	}
	return toasts, nil
}
