package api

import (
	"context"
	"fmt"
	"net/http"
)

func (c *Client) ReadingLists(ctx context.Context) ([]ReadingList, error) {
	var lists []ReadingList
	err := c.do(ctx, request{method: http.MethodGet, path: "/reading-lists/"}, &lists)
	return lists, err
}

func (c *Client) CreateReadingList(ctx context.Context, name string) (ReadingList, error) {
	var list ReadingList
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/reading-lists/",
	}, map[string]string{"name": name}, &list)
	return list, err
}

// UpdateReadingList persists the list name together with the full item order.
func (c *Client) UpdateReadingList(ctx context.Context, id int, name string, items []ItemOrder) error {
	if items == nil {
		items = []ItemOrder{}
	}
	return c.doJSON(ctx, request{
		method: http.MethodPut,
		route:  "/reading-lists/{id}/",
		path:   fmt.Sprintf("/reading-lists/%d/", id),
	}, struct {
		Name  string      `json:"name"`
		Items []ItemOrder `json:"items"`
	}{Name: name, Items: items}, nil)
}

func (c *Client) DeleteReadingList(ctx context.Context, id int) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/reading-lists/{id}/",
		path:   fmt.Sprintf("/reading-lists/%d/", id),
	}, nil)
}

func (c *Client) AddReadingListItem(ctx context.Context, listID, bookID int) (ReadingListItem, error) {
	var item ReadingListItem
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		route:  "/reading-lists/{id}/items/",
		path:   fmt.Sprintf("/reading-lists/%d/items/", listID),
	}, map[string]int{"book": bookID}, &item)
	return item, err
}

func (c *Client) RemoveReadingListItem(ctx context.Context, listID, itemID int) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		route:  "/reading-lists/{id}/items/{itemId}/",
		path:   fmt.Sprintf("/reading-lists/%d/items/%d/", listID, itemID),
	}, nil)
}
