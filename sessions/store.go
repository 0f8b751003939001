package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/internal/errors"
	"github.com/jrsteele09/readify/notify"
	"github.com/jrsteele09/readify/token"
	"github.com/rs/zerolog/log"
)

// CredentialKey is the storage key holding the serialized Credential.
const CredentialKey = "authTokens"

const (
	HomePath  = "/"
	LoginPath = "/login"
)

const (
	msgLoginSuccess    = "Login Successful"
	msgLoginFailed     = "Username or password does not exist"
	msgRegisterSuccess = "Registration Successful, Login Now"
	msgRegisterFailed  = "An error occurred during registration"
	msgLoggedOut       = "You have been logged out..."
	msgSessionNotSaved = "Could not save your session, please try again"

	shortToast = 2 * time.Second
	longToast  = 3 * time.Second
)

// Login outcomes reported to a LoginObserver.
const (
	LoginSuccess  = "success"
	LoginRejected = "rejected"
	LoginError    = "error"
)

// AuthAPI is the part of the remote API the store talks to.
type AuthAPI interface {
	ObtainToken(ctx context.Context, email, password string) (token.Credential, error)
	Register(ctx context.Context, reg api.Registration) error
}

type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type LoginObserver interface {
	ObserveLogin(outcome string)
}

// Session is the credential with the identity decoded from it.
// Identity is zero exactly when Credential is zero.
type Session struct {
	Credential token.Credential
	Identity   token.Identity
}

func (s Session) Authenticated() bool {
	return !s.Credential.IsZero()
}

// Store owns the session of one browser (or terminal user) and its persisted credential.
type Store struct {
	repo     Repo
	auth     AuthAPI
	nav      Navigator
	notifier notify.Notifier
	observer LoginObserver
	now      func() time.Time

	mu      sync.RWMutex
	session Session
	ready   bool
}

type Option func(*Store)

func WithNavigator(nav Navigator) Option {
	return func(s *Store) {
		if nav != nil {
			s.nav = nav
		}
	}
}

func WithNotifier(n notify.Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithLoginObserver(o LoginObserver) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// WithClock overrides the time source used to detect an expired persisted credential.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open reads the persisted credential and returns a hydrated store.
// A persisted credential that is malformed, carries no identity or has expired is erased
// and the store starts logged out. Only storage failures are returned as errors.
func Open(ctx context.Context, repo Repo, auth AuthAPI, opts ...Option) (*Store, error) {
	s := &Store{
		repo:     repo,
		auth:     auth,
		nav:      NavigatorFunc(func(string) {}),
		notifier: notify.Discard{},
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}
	s.ready = true
	return s, nil
}

func (s *Store) hydrate(ctx context.Context) error {
	raw, err := s.repo.Get(ctx, CredentialKey)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil && !errors.Is(err, errors.ErrUnsealed) {
		return errors.Wrapf(err, "read persisted credential")
	}

	var session Session
	if err == nil {
		session.Credential, err = token.ParseCredential(raw)
	}
	if err == nil {
		session.Identity, err = token.DecodeIdentity(session.Credential)
	}
	if err == nil && session.Identity.Expired(s.now()) {
		err = errors.ErrCredentialExpired
	}
	if err != nil {
		log.Warn().Err(err).Msg("Discarding persisted credential")
		if err := s.repo.Delete(ctx, CredentialKey); err != nil {
			return errors.Wrapf(err, "erase persisted credential")
		}
		return nil
	}

	s.session = session
	return nil
}

// Login exchanges email and password for a credential. On success the credential is persisted,
// the user is sent home and a success toast is emitted. On any failure, rejection or transport,
// one error toast is emitted and the session is left as it was.
func (s *Store) Login(ctx context.Context, email, password string) error {
	cred, err := s.auth.ObtainToken(ctx, email, password)
	var identity token.Identity
	if err == nil {
		identity, err = token.DecodeIdentity(cred)
	}
	if err != nil {
		s.observeLogin(loginOutcome(err))
		log.Info().Err(err).Str("email", email).Msg("Login failed")
		s.notifier.Notify(notify.Error(msgLoginFailed, shortToast))
		return fmt.Errorf("%w: %w", errors.ErrInvalidCredentials, err)
	}

	raw, err := cred.Marshal()
	if err == nil {
		err = s.repo.Set(ctx, CredentialKey, raw)
	}
	if err != nil {
		s.observeLogin(LoginError)
		log.Err(err).Str("email", email).Msg("Login accepted but the credential could not be persisted")
		s.notifier.Notify(notify.Error(msgSessionNotSaved, shortToast))
		return errors.Wrapf(err, "persist credential")
	}

	s.mu.Lock()
	s.session = Session{Credential: cred, Identity: identity}
	s.mu.Unlock()

	s.observeLogin(LoginSuccess)
	s.nav.Navigate(HomePath)
	s.notifier.Notify(notify.Success(msgLoginSuccess, shortToast))
	return nil
}

// Register creates an account and sends the user to the login page. It never logs in.
// On failure the first reported problem with email, then username, then password is shown.
func (s *Store) Register(ctx context.Context, reg api.Registration) error {
	if err := s.auth.Register(ctx, reg); err != nil {
		msg, ok := api.FirstFieldError(err, "email", "username", "password")
		if !ok {
			msg = msgRegisterFailed
		}
		log.Info().Err(err).Str("email", reg.Email).Msg("Registration failed")
		s.notifier.Notify(notify.Error(msg, longToast))
		return fmt.Errorf("%w: %w", errors.ErrRegistration, err)
	}

	s.nav.Navigate(LoginPath)
	s.notifier.Notify(notify.Success(msgRegisterSuccess, shortToast))
	return nil
}

// Logout clears the session and erases the persisted credential. Calling it while logged out
// is harmless.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.session = Session{}
	s.mu.Unlock()

	err := s.repo.Delete(ctx, CredentialKey)
	s.nav.Navigate(LoginPath)
	s.notifier.Notify(notify.Success(msgLoggedOut, shortToast))
	if err != nil {
		return errors.Wrapf(err, "erase persisted credential")
	}
	return nil
}

func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) Credential() token.Credential {
	return s.Session().Credential
}

func (s *Store) Identity() token.Identity {
	return s.Session().Identity
}

func (s *Store) Authenticated() bool {
	return s.Session().Authenticated()
}

// Ready reports whether hydration has finished. It is always true for a store returned by Open.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Store) observeLogin(outcome string) {
	if s.observer != nil {
		s.observer.ObserveLogin(outcome)
	}
}

func loginOutcome(err error) string {
	if _, ok := api.AsStatusError(err); ok {
		return LoginRejected
	}
	return LoginError
}
