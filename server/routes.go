package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET /{$}", ChainMiddleware(s.HomeHandler(), s.PageMiddleware()...))

	// AUTH
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteRegister, ChainMiddleware(s.RegisterPageHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteRegister, ChainMiddleware(s.RegisterSubmissionHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.PageMiddleware()...))

	// BOOKS
	s.RegisterRouteHandler("GET "+RouteCatalog, ChainMiddleware(s.CatalogHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteBooks, ChainMiddleware(s.MyBooksHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteBooks, ChainMiddleware(s.CreateBookHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteBook, ChainMiddleware(s.BookDetailsHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteBookDelete, ChainMiddleware(s.DeleteBookHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteBookAddToList, ChainMiddleware(s.AddToReadingListHandler(), s.PageMiddleware()...))

	// READING LISTS
	s.RegisterRouteHandler("GET "+RouteReadingLists, ChainMiddleware(s.ReadingListsHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteReadingLists, ChainMiddleware(s.CreateReadingListHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteReadingListDelete, ChainMiddleware(s.DeleteReadingListHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteReadingListItem, ChainMiddleware(s.RemoveReadingListItemHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteReadingListOrder, ChainMiddleware(s.ReorderReadingListHandler(), s.PageMiddleware()...))

	// PROFILE
	s.RegisterRouteHandler("GET "+RouteProfile, ChainMiddleware(s.ProfileHandler(), s.PageMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteProfile, ChainMiddleware(s.UpdateProfileHandler(), s.PageMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteMetrics, s.MetricsHandler())

	s.RegisterRouteHandler("GET "+RouteStaticCSS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStaticJS, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteStaticImages, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))
}

// MetricsHandler exposes the frontend's Prometheus metrics.
func (s *Server) MetricsHandler() http.Handler {
	gatherer := s.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
