// Package apifake is an in-memory stand-in for the Readify REST API, served over httptest.
package apifake

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/token"
	"github.com/jrsteele09/readify/token/tokentest"
)

// Request is a request the fake received, kept for assertions.
type Request struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          []byte
}

type user struct {
	id       int
	email    string
	username string
	password string
	profile  api.Profile
}

type readingList struct {
	owner int
	list  api.ReadingList
}

// Server fakes the API under the "/api" prefix.
type Server struct {
	mu       sync.Mutex
	handler  http.Handler
	users    map[string]*user // by email
	issued   map[string]int   // access token -> user id
	books    map[int]*api.Book
	owners   map[int]int // book id -> user id
	lists    map[int]*readingList
	nextID   int
	requests []Request

	// FailReorder makes PUT /reading-lists/:id/ answer 500.
	FailReorder bool
}

func New() *Server {
	s := &Server{
		users:  make(map[string]*user),
		issued: make(map[string]int),
		books:  make(map[int]*api.Book),
		owners: make(map[int]int),
		lists:  make(map[int]*readingList),
		nextID: 100,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/{$}", s.handleToken)
	mux.HandleFunc("POST /register/{$}", s.handleRegister)
	mux.HandleFunc("GET /books/{$}", s.handleBooks)
	mux.HandleFunc("GET /books/{id}/{$}", s.handleBook)
	mux.HandleFunc("POST /books/{$}", s.authenticated(s.handleCreateBook))
	mux.HandleFunc("DELETE /books/{id}/delete/{$}", s.authenticated(s.handleDeleteBook))
	mux.HandleFunc("GET /my-books/{$}", s.authenticated(s.handleMyBooks))
	mux.HandleFunc("GET /reading-lists/{$}", s.authenticated(s.handleReadingLists))
	mux.HandleFunc("POST /reading-lists/{$}", s.authenticated(s.handleCreateReadingList))
	mux.HandleFunc("PUT /reading-lists/{id}/{$}", s.authenticated(s.handleUpdateReadingList))
	mux.HandleFunc("DELETE /reading-lists/{id}/{$}", s.authenticated(s.handleDeleteReadingList))
	mux.HandleFunc("POST /reading-lists/{id}/items/{$}", s.authenticated(s.handleAddItem))
	mux.HandleFunc("DELETE /reading-lists/{id}/items/{itemID}/{$}", s.authenticated(s.handleRemoveItem))
	mux.HandleFunc("GET /profile/{$}", s.authenticated(s.handleProfile))
	mux.HandleFunc("PUT /profile/update/{$}", s.authenticated(s.handleUpdateProfile))

	s.handler = http.StripPrefix("/api", mux)
	return s
}

// Start serves the fake and returns the httptest server; the API root is srv.URL + "/api".
func Start() (*Server, *httptest.Server) {
	s := New()
	return s, httptest.NewServer(s)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method:        r.Method,
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		ContentType:   r.Header.Get("Content-Type"),
		Body:          body,
	})
	s.mu.Unlock()

	s.handler.ServeHTTP(w, r)
}

// Requests returns what the fake has received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo filters Requests by method and path (path without the /api prefix).
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == "/api"+path {
			out = append(out, r)
		}
	}
	return out
}

// AddUser registers an account directly.
func (s *Server) AddUser(id int, email, username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = &user{id: id, email: email, username: username, password: password}
}

// AddBook stores a book owned by ownerID and returns its id.
func (s *Server) AddBook(ownerID int, book api.Book) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	book.ID = s.newID()
	s.books[book.ID] = &book
	s.owners[book.ID] = ownerID
	return book.ID
}

// AddReadingList stores a list for ownerID holding bookIDs in order and returns it.
func (s *Server) AddReadingList(ownerID int, name string, bookIDs ...int) api.ReadingList {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := api.ReadingList{ID: s.newID(), Name: name, Items: []api.ReadingListItem{}}
	for i, bookID := range bookIDs {
		item := api.ReadingListItem{ID: s.newID(), Book: bookID, Order: i}
		if book, ok := s.books[bookID]; ok {
			item.BookDetails = *book
		}
		list.Items = append(list.Items, item)
	}
	s.lists[list.ID] = &readingList{owner: ownerID, list: list}
	return cloneList(list)
}

// ReadingList returns the authoritative copy of a list.
func (s *Server) ReadingList(id int) (api.ReadingList, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rl, ok := s.lists[id]
	if !ok {
		return api.ReadingList{}, false
	}
	return cloneList(rl.list), true
}

// IssueCredential logs a user in without going through /token/.
func (s *Server) IssueCredential(email string) token.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		panic("apifake: unknown user " + email)
	}
	return s.issue(u)
}

func (s *Server) issue(u *user) token.Credential {
	cred := tokentest.ForUser(u.id, u.email)
	s.issued[cred.Access] = u.id
	return cred
}

func (s *Server) newID() int {
	s.nextID++
	return s.nextID
}

type authedHandler func(w http.ResponseWriter, r *http.Request, userID int)

func (s *Server) authenticated(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.userFromRequest(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{
				"detail": "Authentication credentials were not provided.",
			})
			return
		}
		next(w, r, userID)
	}
}

func (s *Server) userFromRequest(r *http.Request) (int, bool) {
	access, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || access == "" {
		return 0, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.issued[access]
	return userID, ok
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[body.Email]
	if !ok || u.password != body.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "No active account found with the given credentials",
		})
		return
	}
	writeJSON(w, http.StatusOK, s.issue(u))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg api.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	problems := map[string][]string{}
	if _, exists := s.users[reg.Email]; exists {
		problems["email"] = []string{"Email already exists"}
	}
	for _, u := range s.users {
		if u.username == reg.Username {
			problems["username"] = []string{"A user with that username already exists."}
		}
	}
	if reg.Password != reg.Password2 {
		problems["password"] = []string{"Password fields didn't match."}
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusBadRequest, problems)
		return
	}

	s.users[reg.Email] = &user{id: s.newID(), email: reg.Email, username: reg.Username, password: reg.Password}
	writeJSON(w, http.StatusCreated, map[string]string{"email": reg.Email, "username": reg.Username})
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.booksWhere(func(int) bool { return true }))
}

func (s *Server) handleMyBooks(w http.ResponseWriter, r *http.Request, userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.booksWhere(func(id int) bool { return s.owners[id] == userID }))
}

func (s *Server) booksWhere(keep func(id int) bool) []api.Book {
	books := []api.Book{}
	for id, book := range s.books {
		if keep(id) {
			books = append(books, *book)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	book, exists := s.books[id]
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request, userID int) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Multipart form parse error"})
		return
	}
	book := api.Book{
		Title:           r.FormValue("title"),
		Authors:         r.FormValue("authors"),
		Genre:           r.FormValue("genre"),
		PublicationDate: r.FormValue("publication_date"),
		Description:     r.FormValue("description"),
	}
	if book.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field is required."}})
		return
	}
	if _, header, err := r.FormFile("book_file"); err == nil {
		book.BookFile = "/media/books/" + header.Filename
	}
	if _, header, err := r.FormFile("cover_image"); err == nil {
		book.CoverImage = "/media/covers/" + header.Filename
	}

	id := s.AddBook(userID, book)
	s.mu.Lock()
	created := *s.books[id]
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request, userID int) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.books[id]; !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Book not found"})
		return
	}
	if s.owners[id] != userID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "You do not have permission to delete this book"})
		return
	}
	delete(s.books, id)
	delete(s.owners, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReadingLists(w http.ResponseWriter, r *http.Request, userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lists := []api.ReadingList{}
	for _, rl := range s.lists {
		if rl.owner == userID {
			lists = append(lists, cloneList(rl.list))
		}
	}
	sort.Slice(lists, func(i, j int) bool { return lists[i].ID < lists[j].ID })
	writeJSON(w, http.StatusOK, lists)
}

func (s *Server) handleCreateReadingList(w http.ResponseWriter, r *http.Request, userID int) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"This field is required."}})
		return
	}
	list := s.AddReadingList(userID, body.Name)
	writeJSON(w, http.StatusCreated, list)
}

func (s *Server) handleUpdateReadingList(w http.ResponseWriter, r *http.Request, userID int) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Name  string          `json:"name"`
		Items []api.ItemOrder `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailReorder {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Internal server error"})
		return
	}
	rl, exists := s.lists[id]
	if !exists || rl.owner != userID {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	order := make(map[int]int, len(body.Items))
	for _, item := range body.Items {
		order[item.ID] = item.Order
	}
	for i := range rl.list.Items {
		if o, ok := order[rl.list.Items[i].ID]; ok {
			rl.list.Items[i].Order = o
		}
	}
	sort.SliceStable(rl.list.Items, func(i, j int) bool { return rl.list.Items[i].Order < rl.list.Items[j].Order })
	if body.Name != "" {
		rl.list.Name = body.Name
	}
	writeJSON(w, http.StatusOK, cloneList(rl.list))
}

func (s *Server) handleDeleteReadingList(w http.ResponseWriter, r *http.Request, userID int) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rl, exists := s.lists[id]
	if !exists || rl.owner != userID {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	delete(s.lists, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request, userID int) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Book json.Number `json:"book"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid book"})
		return
	}
	bookID, err := strconv.Atoi(body.Book.String())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid book"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rl, exists := s.lists[id]
	if !exists || rl.owner != userID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Reading list not found"})
		return
	}
	book, exists := s.books[bookID]
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Book not found"})
		return
	}
	for _, item := range rl.list.Items {
		if item.Book == bookID {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": api.AlreadyInReadingList})
			return
		}
	}
	item := api.ReadingListItem{ID: s.newID(), Book: bookID, Order: len(rl.list.Items), BookDetails: *book}
	rl.list.Items = append(rl.list.Items, item)
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request, userID int) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	itemID, ok := pathInt(w, r, "itemID")
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rl, exists := s.lists[id]
	if !exists || rl.owner != userID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Reading list not found"})
		return
	}
	for i, item := range rl.list.Items {
		if item.ID == itemID {
			rl.list.Items = append(rl.list.Items[:i], rl.list.Items[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Item not found"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByID(userID)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    map[string]any{"id": u.id, "email": u.email, "username": u.username},
		"profile": u.profile,
	})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, userID int) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Multipart form parse error"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.userByID(userID)
	u.profile.FullName = r.FormValue("full_name")
	u.profile.Bio = r.FormValue("bio")
	if _, header, err := r.FormFile("image"); err == nil {
		u.profile.Image = "/media/profile_images/" + header.Filename
	} else if values, present := r.MultipartForm.Value["image"]; present && len(values) > 0 && values[0] == "" {
		u.profile.Image = ""
	}
	writeJSON(w, http.StatusOK, u.profile)
}

func (s *Server) userByID(id int) *user {
	for _, u := range s.users {
		if u.id == id {
			return u
		}
	}
	panic(fmt.Sprintf("apifake: token issued for unknown user %d", id))
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return 0, false
	}
	return v, true
}

func cloneList(list api.ReadingList) api.ReadingList {
	list.Items = append([]api.ReadingListItem{}, list.Items...)
	return list
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
