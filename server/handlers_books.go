package server

import (
	"context"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/notify"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const maxUploadSize = 64 << 20

var featuredGenres = []string{"Fiction", "Non-Fiction", "Mystery", "Sci-Fi", "Romance", "Fantasy"}

type HomePageData struct {
	Genres []string
	Books  []api.Book
}

type BooksPageData struct {
	Genre string
	Books []api.Book
}

type BookPageData struct {
	Book         api.Book
	ReadingLists []api.ReadingList
}

// HomeHandler shows the featured genres and the newest books of the catalogue.
func (s *Server) HomeHandler() http.HandlerFunc {
	const featured = 10
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		books, err := s.client(b).Books(r.Context())
		if err != nil {
			log.Err(err).Msg("Home: failed to load catalogue")
		}
		if len(books) > featured {
			books = books[len(books)-featured:]
		}
		s.render(w, r, b, "home.html", "Explore Our Book Collection", HomePageData{
			Genres: featuredGenres,
			Books:  books,
		})
	}
}

// CatalogHandler lists the whole catalogue, optionally narrowed to one genre (GET /catalog?genre=).
func (s *Server) CatalogHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		books, err := s.client(b).Books(r.Context())
		if err != nil {
			log.Err(err).Msg("Catalog: failed to load books")
			b.toasts.Notify(toastError("Error loading books"))
		}

		genre := r.URL.Query().Get("genre")
		if genre != "" {
			books = slices.DeleteFunc(books, func(book api.Book) bool {
				return !strings.EqualFold(book.Genre, genre)
			})
		}
		s.render(w, r, b, "catalog.html", "All Books", BooksPageData{Genre: genre, Books: books})
	}
}

// MyBooksHandler lists the books the user uploaded (GET /books)
func (s *Server) MyBooksHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		books, err := s.client(b).MyBooks(r.Context())
		if err != nil {
			log.Err(err).Msg("Books: failed to load books")
			b.toasts.Notify(toastError("Error loading books"))
		}
		s.render(w, r, b, "books.html", "My Book Collection", BooksPageData{Books: books})
	}
}

// CreateBookHandler uploads a book from the multipart form (POST /books)
func (s *Server) CreateBookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		nb := api.NewBook{
			Title:           r.FormValue("title"),
			Authors:         r.FormValue("authors"),
			Genre:           r.FormValue("genre"),
			PublicationDate: r.FormValue("publication_date"),
			Description:     r.FormValue("description"),
		}
		var closers []multipart.File
		defer func() {
			for _, f := range closers {
				f.Close()
			}
		}()
		for field, dst := range map[string]**api.Upload{"book_file": &nb.BookFile, "cover_image": &nb.CoverImage} {
			f, header, err := r.FormFile(field)
			if err != nil {
				continue
			}
			closers = append(closers, f)
			*dst = &api.Upload{Filename: header.Filename, Content: f}
		}

		if _, err := s.client(b).CreateBook(r.Context(), nb); err != nil {
			log.Err(err).Msg("Books: upload failed")
			b.toasts.Notify(toastError("Error: " + api.Detail(err, "Failed to add book")))
		} else {
			b.toasts.Notify(toastSuccess("Book Added"))
		}
		s.redirect(w, r, b, RouteBooks)
	}
}

// BookDetailsHandler shows one book; a logged in user also gets their reading lists to add it to.
func (s *Server) BookDetailsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		client := s.client(b)
		var data BookPageData
		var listsErr error

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			data.Book, err = client.Book(ctx, id)
			return err
		})
		if b.store.Authenticated() {
			g.Go(func() error {
				data.ReadingLists, listsErr = client.ReadingLists(ctx)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			log.Err(err).Int("book_id", id).Msg("Book: failed to load")
			b.toasts.Notify(toastError("Error loading book"))
			s.redirect(w, r, b, RouteBooks)
			return
		}
		if listsErr != nil {
			log.Err(listsErr).Msg("Book: failed to load reading lists")
			b.toasts.Notify(toastError("Error loading reading lists"))
		}

		s.render(w, r, b, "book.html", data.Book.Title, data)
	}
}

func (s *Server) DeleteBookHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := s.client(b).DeleteBook(r.Context(), id); err != nil {
			log.Err(err).Int("book_id", id).Msg("Books: delete failed")
			b.toasts.Notify(toastError("Delete failed: " + api.ErrorMessage(err, "Server error")))
		} else {
			n := toastSuccess("Deleted!")
			n.Text = "Book has been removed."
			b.toasts.Notify(n)
		}
		s.redirect(w, r, b, RouteBooks)
	}
}

// AddToReadingListHandler adds the book to the list picked in the form.
func (s *Server) AddToReadingListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b := browserFrom(r.Context())
		bookID, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		back := "/books/" + strconv.Itoa(bookID)

		listID, err := strconv.Atoi(r.FormValue("reading_list"))
		if err != nil {
			b.toasts.Notify(notify.Warning("Please select a reading list", successToast))
			s.redirect(w, r, b, back)
			return
		}

		b.toasts.Notify(addToListOutcome(r.Context(), s.client(b), listID, bookID))
		s.redirect(w, r, b, back)
	}
}

func addToListOutcome(ctx context.Context, client *api.Client, listID, bookID int) notify.Notification {
	_, err := client.AddReadingListItem(ctx, listID, bookID)
	if err == nil {
		return toastSuccess("Book added to reading list")
	}

	msg := api.ErrorMessage(err, "Failed to add book to list")
	if msg == api.AlreadyInReadingList {
		return notify.Info("Book is already in this reading list", successToast)
	}
	log.Err(err).Int("list_id", listID).Int("book_id", bookID).Msg("Reading list: add failed")
	return toastError("Error: " + msg)
}
