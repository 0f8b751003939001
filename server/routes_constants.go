package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHome = "/"

	// Auth Routes
	RouteLogin    = "/login"
	RouteRegister = "/register"
	RouteLogout   = "/logout"

	// Book Routes
	RouteCatalog       = "/catalog"
	RouteBooks         = "/books"
	RouteBook          = "/books/{id}"
	RouteBookDelete    = "/books/{id}/delete"
	RouteBookAddToList = "/books/{id}/reading-list"

	// Reading List Routes
	RouteReadingLists      = "/reading-lists"
	RouteReadingListDelete = "/reading-lists/{id}/delete"
	RouteReadingListItem   = "/reading-lists/{id}/items/{itemID}/delete"
	RouteReadingListOrder  = "/reading-lists/{id}/reorder"

	RouteProfile = "/profile"

	RouteMetrics = "/metrics"

	// Static Asset Routes (patterns)
	RouteStaticCSS    = "/css/{file}"
	RouteStaticJS     = "/js/{file}"
	RouteStaticImages = "/images/{file}"
)
