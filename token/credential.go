package token

import (
	"encoding/json"
	"strings"

	"github.com/jrsteele09/readify/internal/errors"
)

// Credential is the access/refresh pair issued by the Readify API's token endpoint.
// It is treated as an immutable value: replaced wholesale on login, cleared on logout.
type Credential struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// IsZero reports whether the credential holds no access token.
func (c Credential) IsZero() bool {
	return c.Access == ""
}

// Marshal serializes the credential into the text form kept in persisted storage.
func (c Credential) Marshal() (string, error) {
	if c.IsZero() {
		return "", errors.Wrapf(errors.ErrMalformedCredential, "marshal credential")
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", errors.Wrapf(err, "marshal credential")
	}
	return string(b), nil
}

// ParseCredential restores a credential previously produced by Marshal.
func ParseCredential(raw string) (Credential, error) {
	if strings.TrimSpace(raw) == "" {
		return Credential{}, errors.ErrMalformedCredential
	}
	var c Credential
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Credential{}, errors.Wrapf(errors.ErrMalformedCredential, "parse credential: %v", err)
	}
	if c.IsZero() {
		return Credential{}, errors.Wrapf(errors.ErrMalformedCredential, "parse credential: missing access token")
	}
	return c, nil
}
