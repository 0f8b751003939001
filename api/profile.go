package api

import (
	"context"
	"net/http"
)

func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var resp struct {
		Profile Profile `json:"profile"`
	}
	err := c.do(ctx, request{method: http.MethodGet, path: "/profile/"}, &resp)
	return resp.Profile, err
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (Profile, error) {
	body := newMultipartBody()
	body.field("full_name", update.FullName)
	body.field("bio", update.Bio)
	switch {
	case update.Image != nil:
		body.file("image", update.Image)
	case update.ClearImage:
		body.field("image", "")
	}

	reader, contentType, err := body.finish()
	if err != nil {
		return Profile{}, err
	}

	var profile Profile
	err = c.do(ctx, request{
		method:      http.MethodPut,
		path:        "/profile/update/",
		body:        reader,
		contentType: contentType,
	}, &profile)
	return profile, err
}
