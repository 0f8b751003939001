package token

import (
	"encoding/json"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/readify/internal/errors"
)

// Identity holds the user attributes carried in the access token's payload.
// It is never stored on its own; it is always derived from a Credential with DecodeIdentity.
type Identity struct {
	UserID    string
	Username  string
	Email     string
	FullName  string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Expired reports whether the access token had expired at now.
func (i Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// DisplayName picks the friendliest name the token offers.
func (i Identity) DisplayName() string {
	switch {
	case i.FullName != "":
		return i.FullName
	case i.Username != "":
		return i.Username
	case i.Email != "":
		return i.Email
	default:
		return "user " + i.UserID
	}
}

// DecodeIdentity reads the identity claims out of the credential's access token.
// The signature is not verified: the client only displays what the issuer put in the token,
// the remote API remains the authority on whether the token is valid.
func DecodeIdentity(c Credential) (Identity, error) {
	if c.IsZero() {
		return Identity{}, errors.ErrMalformedCredential
	}

	parsed, _, err := jwtlib.NewParser(jwtlib.WithJSONNumber()).ParseUnverified(c.Access, jwtlib.MapClaims{})
	if err != nil {
		return Identity{}, errors.Wrapf(errors.ErrMalformedCredential, "decode access token: %v", err)
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return Identity{}, errors.Wrapf(errors.ErrMalformedCredential, "decode access token: unexpected claims type")
	}

	userID := claimString(claims["user_id"])
	if userID == "" {
		return Identity{}, errors.ErrMissingIdentity
	}

	identity := Identity{
		UserID:   userID,
		Username: claimString(claims["username"]),
		Email:    claimString(claims["email"]),
		FullName: claimString(claims["full_name"]),
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Identity{}, errors.Wrapf(errors.ErrMalformedCredential, "decode exp claim: %v", err)
	}
	if exp != nil {
		identity.ExpiresAt = exp.Time
	}

	return identity, nil
}

func claimString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case json.Number:
		return value.String()
	case float64:
		return fmt.Sprintf("%.0f", value)
	default:
		return fmt.Sprint(value)
	}
}
