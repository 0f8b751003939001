package api

import (
	"context"
	"net/http"

	"github.com/jrsteele09/readify/internal/errors"
	"github.com/jrsteele09/readify/token"
)

// ObtainToken exchanges email and password for a credential. Only a 200 counts as success.
func (c *Client) ObtainToken(ctx context.Context, email, password string) (token.Credential, error) {
	var cred token.Credential
	err := c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/token/",
		expect: http.StatusOK,
	}, map[string]string{"email": email, "password": password}, &cred)
	if err != nil {
		return token.Credential{}, err
	}
	if cred.IsZero() {
		return token.Credential{}, errors.Wrapf(errors.ErrMalformedCredential, "POST /token/")
	}
	return cred, nil
}

// Register creates an account. Only a 201 counts as success; validation failures come back as
// a *StatusError whose FieldErrors name the offending fields.
func (c *Client) Register(ctx context.Context, reg Registration) error {
	return c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/register/",
		expect: http.StatusCreated,
	}, reg, nil)
}
