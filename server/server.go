package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/guard"
	"github.com/jrsteele09/readify/internal/config"
	"github.com/jrsteele09/readify/internal/metrics"
	"github.com/jrsteele09/readify/sessions"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Deps are the collaborators the frontend is composed from.
type Deps struct {
	API      *api.Client
	Storage  sessions.Repo
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	api       *api.Client
	storage   sessions.Repo
	guard     *guard.Routes
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	pages     map[string]*page
	mediaBase string
}

func New(config config.Config, deps Deps) (*Server, error) {
	if deps.API == nil || deps.Storage == nil {
		return nil, fmt.Errorf("[Server New] API client and storage are required")
	}

	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		config:    config,
		api:       deps.API,
		storage:   deps.Storage,
		guard:     ProtectedRoutes(),
		metrics:   deps.Metrics,
		gatherer:  deps.Gatherer,
		mediaBase: config.GetMediaBaseURL(),
	}

	pages, err := s.parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse templates: %w", err)
	}
	s.pages = pages

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

// ProtectedRoutes is the table of views that require a logged in session.
func ProtectedRoutes() *guard.Routes {
	return guard.New(RouteLogin,
		RouteBooks,
		RouteBookDelete,
		RouteBookAddToList,
		RouteReadingLists+"/...",
		RouteProfile,
	)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != config.EnvDevelopment {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Info().Msgf("[%-19s] %s", displayMethod, path)
}

func logError(method, path string, err error) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Error().Msgf("[%-19s] %s %s", displayMethod, path, Red+err.Error()+ResetColor)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
