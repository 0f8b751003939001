package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/notify"
	"github.com/jrsteele09/readify/readinglists"
	"github.com/rs/zerolog/log"
)

type ReadingListsPageData struct {
	Lists []api.ReadingList
}

func (s *Server) ReadingListsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		board := readinglists.NewBoard(s.client(b))
		if err := board.Load(r.Context()); err != nil {
			log.Err(err).Msg("Reading lists: failed to load")
			b.toasts.Notify(toastError("Error loading reading lists"))
		}
		s.render(w, r, b, "reading_lists.html", "My Reading Lists", ReadingListsPageData{Lists: board.Lists()})
	}
}

func (s *Server) CreateReadingListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		name := strings.TrimSpace(r.FormValue("name"))
		if name == "" {
			s.redirect(w, r, b, RouteReadingLists)
			return
		}

		if _, err := s.client(b).CreateReadingList(r.Context(), name); err != nil {
			log.Err(err).Msg("Reading lists: create failed")
			b.toasts.Notify(toastError("Error creating list"))
		} else {
			b.toasts.Notify(toastSuccess("Reading List Created"))
		}
		s.redirect(w, r, b, RouteReadingLists)
	}
}

func (s *Server) DeleteReadingListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := s.client(b).DeleteReadingList(r.Context(), id); err != nil {
			log.Err(err).Int("list_id", id).Msg("Reading lists: delete failed")
			b.toasts.Notify(toastError("Error deleting list"))
		} else {
			b.toasts.Notify(toastSuccess("Reading List Deleted"))
		}
		s.redirect(w, r, b, RouteReadingLists)
	}
}

func (s *Server) RemoveReadingListItemHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		listID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		itemID, ok := pathID(w, r, "itemID")
		if !ok {
			return
		}

		if err := s.client(b).RemoveReadingListItem(r.Context(), listID, itemID); err != nil {
			log.Err(err).Int("list_id", listID).Int("item_id", itemID).Msg("Reading lists: remove failed")
			b.toasts.Notify(toastError("Error removing book"))
		} else {
			b.toasts.Notify(toastSuccess("Book Removed"))
		}
		s.redirect(w, r, b, RouteReadingLists)
	}
}

// ReorderReadingListHandler moves one item of a list from one position to another, as dropped in the browser.
func (s *Server) ReorderReadingListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		listID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		from, errFrom := strconv.Atoi(r.FormValue("from"))
		to, errTo := strconv.Atoi(r.FormValue("to"))
		if errFrom != nil || errTo != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		if from == to {
			s.redirect(w, r, b, RouteReadingLists)
			return
		}

		board := readinglists.NewBoard(s.client(b))
		err := board.Load(r.Context())
		if err == nil {
			err = board.Reorder(r.Context(), listID, from, to)
		}
		if err != nil {
			log.Err(err).Int("list_id", listID).Msg("Reading lists: reorder failed")
			b.toasts.Notify(toastError("Error updating order"))
		} else {
			b.toasts.Notify(notify.Success("Order Updated", orderToast))
		}
		s.redirect(w, r, b, RouteReadingLists)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		http.Error(w, "404 - Page Not Found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}
