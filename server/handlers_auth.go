package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/internal/errors"
	"github.com/jrsteele09/readify/sessions"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Email string // Preserve email on error
}

type RegisterPageData struct {
	Email    string
	Username string
}

// LoginPageHandler displays the login page (GET /login)
func (s *Server) LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		s.render(w, r, b, "login.html", "Login", LoginPageData{
			Email: r.URL.Query().Get("email"),
		})
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		email := r.FormValue("email")

		if err := b.store.Login(r.Context(), email, r.FormValue("password")); err != nil {
			if !errors.Is(err, errors.ErrInvalidCredentials) {
				// Credential obtained but not persisted
				logError(r.Method, r.URL.Path, err)
				http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
				return
			}
			s.redirect(w, r, b, RouteLogin+"?email="+url.QueryEscape(email))
			return
		}
		if err := s.rotateBrowser(w, r, b); err != nil {
			logError(r.Method, r.URL.Path, err)
			if err := b.storage.Delete(r.Context(), sessions.CredentialKey); err != nil {
				log.Err(err).Str("browser", b.id).Msg("Failed to drop credential after rotation failure")
			}
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.redirect(w, r, b, b.next(RouteHome))
	}
}

// RegisterPageHandler displays the registration page (GET /register)
func (s *Server) RegisterPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		q := r.URL.Query()
		s.render(w, r, b, "register.html", "Register", RegisterPageData{
			Email:    q.Get("email"),
			Username: q.Get("username"),
		})
	}
}

func (s *Server) RegisterSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		reg := api.Registration{
			Email:     r.FormValue("email"),
			Username:  r.FormValue("username"),
			Password:  r.FormValue("password"),
			Password2: r.FormValue("password2"),
		}
		if err := b.store.Register(r.Context(), reg); err != nil {
			q := url.Values{"email": {reg.Email}, "username": {reg.Username}}
			s.redirect(w, r, b, RouteRegister+"?"+q.Encode())
			return
		}
		s.redirect(w, r, b, b.next(RouteLogin))
	}
}

// LogoutHandler ends the browser's session
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		if err := b.store.Logout(r.Context()); err != nil {
			logError(r.Method, r.URL.Path, err)
			http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
			return
		}
		s.redirect(w, r, b, b.next(RouteLogin))
	}
}
