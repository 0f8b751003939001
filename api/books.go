package api

import (
	"context"
	"fmt"
	"net/http"
)

// Books lists the whole catalogue.
func (c *Client) Books(ctx context.Context) ([]Book, error) {
	var books []Book
	err := c.do(ctx, request{method: http.MethodGet, path: "/books/"}, &books)
	return books, err
}

// MyBooks lists the books uploaded by the authenticated user.
func (c *Client) MyBooks(ctx context.Context) ([]Book, error) {
	var books []Book
	err := c.do(ctx, request{method: http.MethodGet, path: "/my-books/"}, &books)
	return books, err
}

func (c *Client) Book(ctx context.Context, id int) (Book, error) {
	var book Book
	err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/books/{id}/",
		path:   fmt.Sprintf("/books/%d/", id),
	}, &book)
	return book, err
}

// CreateBook uploads a book. The PDF and the cover are optional parts.
func (c *Client) CreateBook(ctx context.Context, nb NewBook) (Book, error) {
	body := newMultipartBody()
	body.field("title", nb.Title)
	body.field("authors", nb.Authors)
	body.field("genre", nb.Genre)
	body.field("publication_date", nb.PublicationDate)
	body.field("description", nb.Description)
	body.file("book_file", nb.BookFile)
	body.file("cover_image", nb.CoverImage)

	reader, contentType, err := body.finish()
	if err != nil {
		return Book{}, err
	}

	var book Book
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/books/",
		body:        reader,
		contentType: contentType,
	}, &book)
	return book, err
}

func (c *Client) DeleteBook(ctx context.Context, id int) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/books/{id}/delete/",
		path:   fmt.Sprintf("/books/%d/delete/", id),
	}, nil)
}
