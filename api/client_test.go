package api_test

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/readify/api"
	"github.com/jrsteele09/readify/api/apifake"
	"github.com/jrsteele09/readify/internal/errors"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *recordingObserver) ObserveAPIRequest(method, route string, status int, _ time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, method+" "+route+" "+http.StatusText(status))
}

func newFake(t *testing.T) (*apifake.Server, *api.Client) {
	t.Helper()
	fake, srv := apifake.Start()
	t.Cleanup(srv.Close)
	fake.AddUser(1, "reader@example.com", "reader", "secret")
	return fake, api.New(srv.URL + "/api")
}

func TestObtainToken(t *testing.T) {
	fake, client := newFake(t)
	ctx := context.Background()

	cred, err := client.ObtainToken(ctx, "reader@example.com", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, cred.Access)
	require.NotEmpty(t, cred.Refresh)

	reqs := fake.RequestsTo(http.MethodPost, "/token/")
	require.Len(t, reqs, 1)
	require.Empty(t, reqs[0].Authorization)
	require.JSONEq(t, `{"email":"reader@example.com","password":"secret"}`, string(reqs[0].Body))
}

func TestObtainToken_Rejected(t *testing.T) {
	_, client := newFake(t)

	cred, err := client.ObtainToken(context.Background(), "reader@example.com", "wrong")
	require.Error(t, err)
	require.True(t, cred.IsZero())
	require.ErrorIs(t, err, errors.ErrUnexpectedStatus)

	se, ok := api.AsStatusError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, se.StatusCode)
	require.Equal(t, "No active account found with the given credentials", api.Detail(err, "fallback"))
}

func TestObtainToken_OnlyOKIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"access":"a","refresh":"r"}`))
	}))
	defer srv.Close()

	_, err := api.New(srv.URL).ObtainToken(context.Background(), "a@b.c", "pw")
	require.ErrorIs(t, err, errors.ErrUnexpectedStatus)
}

func TestRegister_FieldErrors(t *testing.T) {
	_, client := newFake(t)
	ctx := context.Background()

	err := client.Register(ctx, api.Registration{
		Email: "reader@example.com", Username: "reader", Password: "a", Password2: "b",
	})
	require.Error(t, err)

	msg, ok := api.FirstFieldError(err, "email", "username", "password")
	require.True(t, ok)
	require.Equal(t, "Email already exists", msg)

	msg, ok = api.FirstFieldError(err, "password")
	require.True(t, ok)
	require.Equal(t, "Password fields didn't match.", msg)

	require.NoError(t, client.Register(ctx, api.Registration{
		Email: "new@example.com", Username: "newbie", Password: "pw", Password2: "pw",
	}))
}

func TestWithCredential_AddsBearer(t *testing.T) {
	fake, client := newFake(t)
	ctx := context.Background()
	cred := fake.IssueCredential("reader@example.com")

	_, err := client.MyBooks(ctx)
	require.ErrorIs(t, err, errors.ErrUnexpectedStatus)

	authed := client.WithCredential(cred)
	require.True(t, authed.Authenticated())
	require.False(t, client.Authenticated())

	books, err := authed.MyBooks(ctx)
	require.NoError(t, err)
	require.Empty(t, books)

	reqs := fake.RequestsTo(http.MethodGet, "/my-books/")
	require.Len(t, reqs, 2)
	require.Empty(t, reqs[0].Authorization)
	require.Equal(t, "Bearer "+cred.Access, reqs[1].Authorization)
}

func TestBooks(t *testing.T) {
	fake, client := newFake(t)
	ctx := context.Background()
	authed := client.WithCredential(fake.IssueCredential("reader@example.com"))

	created, err := authed.CreateBook(ctx, api.NewBook{
		Title:       "Dune",
		Authors:     "Frank Herbert",
		Genre:       "Science Fiction",
		Description: "Spice",
		BookFile:    &api.Upload{Filename: "dune.pdf", Content: strings.NewReader("%PDF-1.4")},
		CoverImage:  &api.Upload{Filename: "dune.png", Content: strings.NewReader("png")},
	})
	require.NoError(t, err)
	require.Equal(t, "Dune", created.Title)
	require.Equal(t, "/media/books/dune.pdf", created.BookFile)

	reqs := fake.RequestsTo(http.MethodPost, "/books/")
	require.Len(t, reqs, 1)
	fields, files := readMultipart(t, reqs[0])
	require.Equal(t, "Dune", fields["title"])
	require.Equal(t, "Frank Herbert", fields["authors"])
	require.Equal(t, "%PDF-1.4", files["book_file"])
	require.Equal(t, "png", files["cover_image"])

	catalog, err := client.Books(ctx)
	require.NoError(t, err)
	require.Len(t, catalog, 1)

	book, err := client.Book(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, book)

	require.NoError(t, authed.DeleteBook(ctx, created.ID))
	_, err = client.Book(ctx, created.ID)
	se, ok := api.AsStatusError(err)
	require.True(t, ok)
	require.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestCreateBook_ValidationDetail(t *testing.T) {
	fake, client := newFake(t)
	authed := client.WithCredential(fake.IssueCredential("reader@example.com"))

	_, err := authed.CreateBook(context.Background(), api.NewBook{})
	require.Error(t, err)
	msg, ok := api.FirstFieldError(err, "title")
	require.True(t, ok)
	require.Equal(t, "This field is required.", msg)
	require.Equal(t, "Failed to add book", api.Detail(err, "Failed to add book"))
}

func TestReadingLists(t *testing.T) {
	fake, client := newFake(t)
	ctx := context.Background()
	authed := client.WithCredential(fake.IssueCredential("reader@example.com"))
	bookID := fake.AddBook(1, api.Book{Title: "Emma"})

	list, err := authed.CreateReadingList(ctx, "Classics")
	require.NoError(t, err)
	require.Equal(t, "Classics", list.Name)

	item, err := authed.AddReadingListItem(ctx, list.ID, bookID)
	require.NoError(t, err)
	require.Equal(t, bookID, item.Book)
	require.Equal(t, "Emma", item.BookDetails.Title)

	_, err = authed.AddReadingListItem(ctx, list.ID, bookID)
	require.Equal(t, "This book is already in the reading list", api.ErrorMessage(err, ""))

	lists, err := authed.ReadingLists(ctx)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	require.Len(t, lists[0].Items, 1)

	require.NoError(t, authed.RemoveReadingListItem(ctx, list.ID, item.ID))
	require.NoError(t, authed.DeleteReadingList(ctx, list.ID))

	lists, err = authed.ReadingLists(ctx)
	require.NoError(t, err)
	require.Empty(t, lists)
}

func TestUpdateReadingList_Body(t *testing.T) {
	fake, client := newFake(t)
	authed := client.WithCredential(fake.IssueCredential("reader@example.com"))
	list := fake.AddReadingList(1, "Queue", fake.AddBook(1, api.Book{Title: "A"}), fake.AddBook(1, api.Book{Title: "B"}))

	order := []api.ItemOrder{{ID: list.Items[1].ID, Order: 0}, {ID: list.Items[0].ID, Order: 1}}
	require.NoError(t, authed.UpdateReadingList(context.Background(), list.ID, "Queue", order))

	reqs := fake.RequestsTo(http.MethodPut, "/reading-lists/"+itoa(list.ID)+"/")
	require.Len(t, reqs, 1)

	var body struct {
		Name  string          `json:"name"`
		Items []api.ItemOrder `json:"items"`
	}
	require.NoError(t, json.Unmarshal(reqs[0].Body, &body))
	require.Equal(t, "Queue", body.Name)
	require.Equal(t, order, body.Items)

	stored, ok := fake.ReadingList(list.ID)
	require.True(t, ok)
	require.Equal(t, "B", stored.Items[0].BookDetails.Title)
}

func TestProfile(t *testing.T) {
	fake, client := newFake(t)
	ctx := context.Background()
	authed := client.WithCredential(fake.IssueCredential("reader@example.com"))

	updated, err := authed.UpdateProfile(ctx, api.ProfileUpdate{
		FullName: "Ada Reader",
		Bio:      "Reads a lot",
		Image:    &api.Upload{Filename: "me.jpg", Content: strings.NewReader("jpg")},
	})
	require.NoError(t, err)
	require.Equal(t, "/media/profile_images/me.jpg", updated.Image)

	profile, err := authed.Profile(ctx)
	require.NoError(t, err)
	require.Equal(t, updated, profile)

	cleared, err := authed.UpdateProfile(ctx, api.ProfileUpdate{FullName: "Ada Reader", ClearImage: true})
	require.NoError(t, err)
	require.Empty(t, cleared.Image)
}

func TestObserver(t *testing.T) {
	fake, srv := apifake.Start()
	defer srv.Close()
	fake.AddUser(1, "reader@example.com", "reader", "secret")

	observer := &recordingObserver{}
	client := api.New(srv.URL+"/api", api.WithObserver(observer))
	bookID := fake.AddBook(1, api.Book{Title: "Emma"})

	_, err := client.Book(context.Background(), bookID)
	require.NoError(t, err)
	_, err = client.ObtainToken(context.Background(), "reader@example.com", "nope")
	require.Error(t, err)

	require.Equal(t, []string{
		"GET /books/{id}/ OK",
		"POST /token/ Unauthorized",
	}, observer.calls)
}

func TestMediaURL(t *testing.T) {
	require.Equal(t, "", api.MediaURL("http://media", ""))
	require.Equal(t, "http://media/covers/a.png", api.MediaURL("http://media/", "/covers/a.png"))
	require.Equal(t, "https://cdn/x.png", api.MediaURL("http://media", "https://cdn/x.png"))
}

func readMultipart(t *testing.T, req apifake.Request) (map[string]string, map[string]string) {
	t.Helper()
	_, params, err := mime.ParseMediaType(req.ContentType)
	require.NoError(t, err)

	form, err := multipart.NewReader(strings.NewReader(string(req.Body)), params["boundary"]).ReadForm(1 << 20)
	require.NoError(t, err)

	fields := map[string]string{}
	for name, values := range form.Value {
		fields[name] = values[0]
	}
	files := map[string]string{}
	for name, headers := range form.File {
		f, err := headers[0].Open()
		require.NoError(t, err)
		buf := new(strings.Builder)
		_, err = io.Copy(buf, f)
		require.NoError(t, err)
		files[name] = buf.String()
	}
	return fields, files
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
