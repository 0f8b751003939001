package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// browserID returns the id carried by the browser cookie, if it is a well formed uuid.
func (s *Server) browserID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.config.GetBrowserCookieName())
	if err != nil || cookie.Value == "" {
		return "", false
	}
	id, err := uuid.Parse(cookie.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// SetBrowserCookie (re)issues the cookie that ties a browser to its storage scope, replacing
// one already set on this response.
func (s *Server) SetBrowserCookie(w http.ResponseWriter, r *http.Request, browserID string) {
	isSecure := getScheme(r) == "https"
	name := s.config.GetBrowserCookieName()

	var kept []string
	for _, c := range w.Header().Values("Set-Cookie") {
		if !strings.HasPrefix(c, name+"=") {
			kept = append(kept, c)
		}
	}
	w.Header()["Set-Cookie"] = kept

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    browserID,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetMaxSessionAge() / time.Second),
	})
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
