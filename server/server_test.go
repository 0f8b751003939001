package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/api/apifake"
	"github.com/jrsteele09/readify/internal/config"
	"github.com/jrsteele09/readify/internal/metrics"
	"github.com/jrsteele09/readify/server"
	"github.com/jrsteele09/readify/sessions"
	"github.com/jrsteele09/readify/sessions/memstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type frontend struct {
	t       *testing.T
	fake    *apifake.Server
	storage *memstore.InMemoryRepo
	url     string
	http    *http.Client
}

func newFrontend(t *testing.T) *frontend {
	t.Helper()
	return newFrontendWith(t, memstore.New())
}

func newFrontendWith(t *testing.T, storage *memstore.InMemoryRepo) *frontend {
	t.Helper()
	t.Setenv("ENV", "TEST")
	t.Setenv("MEDIA_BASE_URL_DEPLOY", "http://media.test")

	fake, apiSrv := apifake.Start()
	t.Cleanup(apiSrv.Close)
	fake.AddUser(1, "reader@example.com", "reader", "secret")

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	srv, err := server.New(config.New(), server.Deps{
		API:      api.New(apiSrv.URL+"/api", api.WithObserver(m)),
		Storage:  storage,
		Metrics:  m,
		Gatherer: reg,
	})
	require.NoError(t, err)

	front := httptest.NewServer(srv)
	t.Cleanup(front.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &frontend{
		t:       t,
		fake:    fake,
		storage: storage,
		url:     front.URL,
		http: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (f *frontend) do(req *http.Request) (*http.Response, string) {
	f.t.Helper()
	resp, err := f.http.Do(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(f.t, err)
	return resp, string(body)
}

func (f *frontend) get(path string) (*http.Response, string) {
	f.t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.url+path, nil)
	require.NoError(f.t, err)
	return f.do(req)
}

func (f *frontend) post(path string, form url.Values) (*http.Response, string) {
	f.t.Helper()
	req, err := http.NewRequest(http.MethodPost, f.url+path, strings.NewReader(form.Encode()))
	require.NoError(f.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return f.do(req)
}

func (f *frontend) postMultipart(path string, fields map[string]string, files map[string]string) (*http.Response, string) {
	f.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(f.t, mw.WriteField(k, v))
	}
	for field, name := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(f.t, err)
		_, err = part.Write([]byte("content of " + name))
		require.NoError(f.t, err)
	}
	require.NoError(f.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, f.url+path, &buf)
	require.NoError(f.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return f.do(req)
}

// withCookies is a second browser holding the given browser cookie.
func (f *frontend) withCookies(id string) *frontend {
	f.t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(f.t, err)
	if id != "" {
		u, err := url.Parse(f.url)
		require.NoError(f.t, err)
		jar.SetCookies(u, []*http.Cookie{{Name: "readify_browser", Value: id, Path: "/"}})
	}
	return &frontend{t: f.t, fake: f.fake, storage: f.storage, url: f.url, http: &http.Client{
		Jar:           jar,
		CheckRedirect: f.http.CheckRedirect,
	}}
}

func (f *frontend) browserID() string {
	f.t.Helper()
	u, err := url.Parse(f.url)
	require.NoError(f.t, err)
	for _, c := range f.http.Jar.Cookies(u) {
		if c.Name == "readify_browser" {
			return c.Value
		}
	}
	f.t.Fatal("no browser cookie issued")
	return ""
}

func (f *frontend) login() {
	f.t.Helper()
	resp, _ := f.post("/login", url.Values{"email": {"reader@example.com"}, "password": {"secret"}})
	require.Equal(f.t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(f.t, "/", resp.Header.Get("Location"))
}

func requireRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, location, resp.Header.Get("Location"))
}

func TestProtectedViewsRedirectWithoutSession(t *testing.T) {
	f := newFrontend(t)

	for _, path := range []string{"/books", "/reading-lists", "/profile"} {
		resp, body := f.get(path)
		requireRedirect(t, resp, "/login")
		require.NotContains(t, body, "My Book Collection")
	}

	resp, _ := f.post("/reading-lists/1/reorder", url.Values{"from": {"0"}, "to": {"1"}})
	requireRedirect(t, resp, "/login")
	require.Empty(t, f.fake.RequestsTo(http.MethodPut, "/reading-lists/1/"))
}

func TestPublicViews(t *testing.T) {
	f := newFrontend(t)
	bookID := f.fake.AddBook(1, api.Book{Title: "Dune", Genre: "Sci-Fi", CoverImage: "/media/covers/dune.png"})
	f.fake.AddBook(1, api.Book{Title: "Emma", Genre: "Romance"})

	resp, body := f.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Explore Our Book Collection")
	require.Contains(t, body, "Dune")
	require.Contains(t, body, "http://media.test/media/covers/dune.png")

	resp, body = f.get("/catalog?genre=sci-fi")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Dune")
	require.NotContains(t, body, "Emma")

	resp, body = f.get("/books/" + strconv.Itoa(bookID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Dune")
	require.NotContains(t, body, "Add to reading list")

	resp, body = f.get("/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Sign into your account")
}

func TestLoginFlow(t *testing.T) {
	f := newFrontend(t)
	f.login()

	_, err := f.storage.Get(context.Background(), f.browserID()+":"+sessions.CredentialKey)
	require.NoError(t, err)

	_, body := f.get("/")
	require.Contains(t, body, "Login Successful")
	require.Contains(t, body, "reader")
	require.Contains(t, body, `action="/logout"`)

	_, body = f.get("/")
	require.NotContains(t, body, "Login Successful", "toasts are shown once")

	resp, body := f.get("/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Edit Profile")
}

func TestLoginFailure(t *testing.T) {
	f := newFrontend(t)

	resp, _ := f.post("/login", url.Values{"email": {"reader@example.com"}, "password": {"nope"}})
	requireRedirect(t, resp, "/login?email=reader%40example.com")

	_, body := f.get("/login?email=reader%40example.com")
	require.Equal(t, 1, strings.Count(body, "Username or password does not exist"))
	require.Contains(t, body, `value="reader@example.com"`)

	resp, _ = f.get("/profile")
	requireRedirect(t, resp, "/login")
}

func TestRegister(t *testing.T) {
	f := newFrontend(t)

	resp, _ := f.post("/register", url.Values{
		"email": {"reader@example.com"}, "username": {"someone"}, "password": {"a"}, "password2": {"a"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.True(t, strings.HasPrefix(resp.Header.Get("Location"), "/register?"))

	_, body := f.get(resp.Header.Get("Location"))
	require.Contains(t, body, "Email already exists")

	resp, _ = f.post("/register", url.Values{
		"email": {"new@example.com"}, "username": {"newbie"}, "password": {"pw"}, "password2": {"pw"},
	})
	requireRedirect(t, resp, "/login")
	_, body = f.get("/login")
	require.Contains(t, body, "Registration Successful, Login Now")

	resp, _ = f.get("/books")
	requireRedirect(t, resp, "/login")
}

func TestLogout(t *testing.T) {
	f := newFrontend(t)
	f.login()

	resp, _ := f.post("/logout", nil)
	requireRedirect(t, resp, "/login")

	_, body := f.get("/login")
	require.Contains(t, body, "You have been logged out...")

	resp, _ = f.get("/profile")
	requireRedirect(t, resp, "/login")

	_, err := f.storage.Get(context.Background(), f.browserID()+":"+sessions.CredentialKey)
	require.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestBooks(t *testing.T) {
	f := newFrontend(t)
	f.login()

	resp, _ := f.postMultipart("/books", map[string]string{"title": "Dune", "authors": "Frank Herbert"},
		map[string]string{"book_file": "dune.pdf", "cover_image": "dune.png"})
	requireRedirect(t, resp, "/books")

	_, body := f.get("/books")
	require.Contains(t, body, "Book Added")
	require.Contains(t, body, "Dune")

	uploads := f.fake.RequestsTo(http.MethodPost, "/books/")
	require.Len(t, uploads, 1)
	require.True(t, strings.HasPrefix(uploads[0].Authorization, "Bearer "))

	resp, _ = f.postMultipart("/books", map[string]string{"authors": "Nobody"}, nil)
	requireRedirect(t, resp, "/books")
	_, body = f.get("/books")
	require.Contains(t, body, "Error: Failed to add book")
}

func TestDeleteBook(t *testing.T) {
	f := newFrontend(t)
	f.fake.AddUser(2, "other@example.com", "other", "pw")
	mine := f.fake.AddBook(1, api.Book{Title: "Mine"})
	theirs := f.fake.AddBook(2, api.Book{Title: "Theirs"})
	f.login()

	resp, _ := f.post("/books/"+strconv.Itoa(mine)+"/delete", nil)
	requireRedirect(t, resp, "/books")
	_, body := f.get("/books")
	require.Contains(t, body, "Deleted!")
	require.Contains(t, body, "Book has been removed.")

	f.post("/books/"+strconv.Itoa(theirs)+"/delete", nil)
	_, body = f.get("/books")
	require.Contains(t, body, "Delete failed: You do not have permission to delete this book")
}

func TestBookDetails(t *testing.T) {
	f := newFrontend(t)
	bookID := f.fake.AddBook(1, api.Book{Title: "Dune", BookFile: "/media/books/dune.pdf"})
	f.fake.AddReadingList(1, "Queue")
	f.login()

	resp, body := f.get("/books/" + strconv.Itoa(bookID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, "Queue")
	require.Contains(t, body, "http://media.test/media/books/dune.pdf")

	resp, _ = f.get("/books/9999")
	requireRedirect(t, resp, "/books")
	_, body = f.get("/books")
	require.Contains(t, body, "Error loading book")
}

func TestAddToReadingList(t *testing.T) {
	f := newFrontend(t)
	bookID := f.fake.AddBook(1, api.Book{Title: "Dune"})
	list := f.fake.AddReadingList(1, "Queue")
	f.login()
	path := "/books/" + strconv.Itoa(bookID)

	resp, _ := f.post(path+"/reading-list", url.Values{"reading_list": {""}})
	requireRedirect(t, resp, path)
	_, body := f.get(path)
	require.Contains(t, body, "Please select a reading list")

	f.post(path+"/reading-list", url.Values{"reading_list": {strconv.Itoa(list.ID)}})
	_, body = f.get(path)
	require.Contains(t, body, "Book added to reading list")

	f.post(path+"/reading-list", url.Values{"reading_list": {strconv.Itoa(list.ID)}})
	_, body = f.get(path)
	require.Contains(t, body, "Book is already in this reading list")
	require.Contains(t, body, "toast-info")
}

func TestReadingLists(t *testing.T) {
	f := newFrontend(t)
	bookID := f.fake.AddBook(1, api.Book{Title: "Dune"})
	f.login()

	f.post("/reading-lists", url.Values{"name": {"Queue"}})
	_, body := f.get("/reading-lists")
	require.Contains(t, body, "Reading List Created")
	require.Contains(t, body, "Queue")

	lists := f.fake.RequestsTo(http.MethodPost, "/reading-lists/")
	require.Len(t, lists, 1)
	var created struct{ Name string }
	require.NoError(t, json.Unmarshal(lists[0].Body, &created))
	require.Equal(t, "Queue", created.Name)

	list := f.fake.AddReadingList(1, "Holiday", bookID)
	f.post("/reading-lists/"+strconv.Itoa(list.ID)+"/items/"+strconv.Itoa(list.Items[0].ID)+"/delete", nil)
	_, body = f.get("/reading-lists")
	require.Contains(t, body, "Book Removed")

	f.post("/reading-lists/"+strconv.Itoa(list.ID)+"/delete", nil)
	_, body = f.get("/reading-lists")
	require.Contains(t, body, "Reading List Deleted")
	require.NotContains(t, body, "Holiday")

	f.post("/reading-lists/424242/delete", nil)
	_, body = f.get("/reading-lists")
	require.Contains(t, body, "Error deleting list")
}

func TestReorderReadingList(t *testing.T) {
	f := newFrontend(t)
	a := f.fake.AddBook(1, api.Book{Title: "A"})
	b := f.fake.AddBook(1, api.Book{Title: "B"})
	c := f.fake.AddBook(1, api.Book{Title: "C"})
	list := f.fake.AddReadingList(1, "Queue", a, b, c)
	f.login()
	path := "/reading-lists/" + strconv.Itoa(list.ID)

	resp, _ := f.post(path+"/reorder", url.Values{"from": {"2"}, "to": {"0"}})
	requireRedirect(t, resp, "/reading-lists")

	puts := f.fake.RequestsTo(http.MethodPut, path+"/")
	require.Len(t, puts, 1)
	var sent struct {
		Name  string          `json:"name"`
		Items []api.ItemOrder `json:"items"`
	}
	require.NoError(t, json.Unmarshal(puts[0].Body, &sent))
	require.Equal(t, "Queue", sent.Name)
	require.Equal(t, []api.ItemOrder{
		{ID: list.Items[2].ID, Order: 0},
		{ID: list.Items[0].ID, Order: 1},
		{ID: list.Items[1].ID, Order: 2},
	}, sent.Items)

	_, body := f.get("/reading-lists")
	require.Contains(t, body, "Order Updated")
	require.Less(t, strings.Index(body, ">C<"), strings.Index(body, ">A<"))

	f.fake.FailReorder = true
	f.post(path+"/reorder", url.Values{"from": {"0"}, "to": {"2"}})
	_, body = f.get("/reading-lists")
	require.Contains(t, body, "Error updating order")
	require.Less(t, strings.Index(body, ">C<"), strings.Index(body, ">A<"), "authoritative order is kept")

	f.post(path+"/reorder", url.Values{"from": {"1"}, "to": {"1"}})
	require.Len(t, f.fake.RequestsTo(http.MethodPut, path+"/"), 2, "a drop in place sends nothing")
}

func TestReorder_HTMX(t *testing.T) {
	f := newFrontend(t)
	list := f.fake.AddReadingList(1, "Queue", f.fake.AddBook(1, api.Book{Title: "A"}), f.fake.AddBook(1, api.Book{Title: "B"}))
	f.login()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		f.url+"/reading-lists/"+strconv.Itoa(list.ID)+"/reorder",
		strings.NewReader(url.Values{"from": {"0"}, "to": {"1"}}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")

	resp, _ := f.do(req)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "/reading-lists", resp.Header.Get("HX-Redirect"))
}

func TestProfile(t *testing.T) {
	f := newFrontend(t)
	f.login()

	resp, _ := f.postMultipart("/profile", map[string]string{"full_name": "Ada Reader", "bio": "Reads"},
		map[string]string{"image": "me.jpg"})
	requireRedirect(t, resp, "/profile")

	_, body := f.get("/profile")
	require.Contains(t, body, "Profile Updated")
	require.Contains(t, body, "Ada Reader")
	require.Contains(t, body, "/media/profile_images/me.jpg")

	f.postMultipart("/profile", map[string]string{"full_name": "Ada Reader", "remove_image": "on"}, nil)
	_, body = f.get("/profile")
	require.NotContains(t, body, "/media/profile_images/me.jpg")
}

func TestMetricsAndStatic(t *testing.T) {
	f := newFrontend(t)
	f.login()
	f.get("/catalog")

	resp, body := f.get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body, `readify_logins_total{outcome="success"} 1`)
	require.Contains(t, body, `readify_api_requests_total{method="GET",route="/books/",status="200"}`)

	resp, body = f.get("/css/readify.css")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/css")
	require.Contains(t, body, ".toast")

	resp, _ = f.get("/js/missing.js")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBrowsersAreIsolated(t *testing.T) {
	f := newFrontend(t)
	f.login()

	resp, _ := f.withCookies("").get("/profile")
	requireRedirect(t, resp, "/login")
}

func TestBrowserIDRotatesOnLogin(t *testing.T) {
	f := newFrontend(t)

	f.get("/login")
	before := f.browserID()
	f.login()
	after := f.browserID()
	require.NotEqual(t, before, after)

	resp, _ := f.withCookies(before).get("/profile")
	requireRedirect(t, resp, "/login")

	resp, _ = f.get("/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, err := f.storage.Get(context.Background(), before+":"+sessions.CredentialKey)
	require.ErrorIs(t, err, sessions.ErrNotFound)
}

func TestPlantedBrowserIDIsNotAdopted(t *testing.T) {
	f := newFrontend(t)
	const planted = "11111111-2222-4333-8444-555555555555"
	victim := f.withCookies(planted)

	resp, _ := victim.get("/login")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEqual(t, planted, victim.browserID())

	victim.login()
	require.NotEqual(t, planted, victim.browserID())
	_, body := victim.get("/")
	require.Contains(t, body, "Login Successful", "toasts follow the rotated id")

	resp, _ = f.withCookies(planted).get("/profile")
	requireRedirect(t, resp, "/login")
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func TestAbandonedBrowsersAreReclaimed(t *testing.T) {
	c := &testClock{now: time.Now()}
	f := newFrontendWith(t, memstore.New(memstore.WithTTL(time.Hour), memstore.WithClock(c.Now)))

	for i := 0; i < 50; i++ {
		resp, _ := f.withCookies("").post("/login", url.Values{"email": {"reader@example.com"}, "password": {"nope"}})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	}
	require.Greater(t, f.storage.Len(), 50)

	c.now = c.now.Add(2 * time.Hour)
	require.Equal(t, 0, f.storage.Len())
}
