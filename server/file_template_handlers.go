package server

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/notify"
	"github.com/jrsteele09/readify/token"
	"github.com/rs/zerolog/log"
)

const contentTypeHTML = "text/html; charset=utf-8"

//go:embed templates/*
var templateFiles embed.FS

var pageFiles = []string{
	"home.html",
	"login.html",
	"register.html",
	"catalog.html",
	"books.html",
	"book.html",
	"reading_lists.html",
	"profile.html",
}

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// page is one view rendered inside the shared layout.
type page struct {
	tmpl *template.Template
}

// PageData is what every template receives; Data holds the view's own model.
type PageData struct {
	Title         string
	Path          string
	Authenticated bool
	Identity      token.Identity
	Toasts        []notify.Notification
	Data          any
}

// ParseTemplate parses a page together with the layout from the embedded filesystem
func ParseTemplate(name string, funcs template.FuncMap) (*template.Template, error) {
	return template.New(name).Funcs(funcs).ParseFS(TemplateFilesFS(), "layout.html", name)
}

func (s *Server) parsePages() (map[string]*page, error) {
	funcs := template.FuncMap{
		"media": func(path string) string {
			return api.MediaURL(s.mediaBase, path)
		},
		"initial": initial,
	}

	pages := make(map[string]*page, len(pageFiles))
	for _, name := range pageFiles {
		tmpl, err := ParseTemplate(name, funcs)
		if err != nil {
			return nil, err
		}
		pages[name] = &page{tmpl: tmpl}
	}
	return pages, nil
}

// initial is the upper-cased first letter of name, for avatar placeholders.
func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// render executes a page for the browser, handing it every pending toast.
func (s *Server) render(w http.ResponseWriter, r *http.Request, b *browser, name, title string, data any) {
	p, ok := s.pages[name]
	if !ok {
		log.Error().Str("page", name).Msg("Unknown page")
		http.Error(w, "500 - Internal Server Error", http.StatusInternalServerError)
		return
	}

	session := b.store.Session()
	model := PageData{
		Title:         title,
		Path:          r.URL.Path,
		Authenticated: session.Authenticated(),
		Identity:      session.Identity,
		Toasts:        s.takeToasts(r.Context(), b),
		Data:          data,
	}

	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "layout", model); err != nil {
		log.Err(err).Str("page", name).Msg("Failed to render template")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	if _, err := buf.WriteTo(w); err != nil {
		log.Err(err).Str("page", name).Msg("Failed to write page")
	}
}
