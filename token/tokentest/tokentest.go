// Package tokentest mints Readify-shaped credentials for tests.
package tokentest

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/readify/token"
)

const signingKey = "tokentest-signing-key"

// Claims mirrors the payload the Readify API puts in its access tokens.
type Claims struct {
	UserID   any
	Username string
	Email    string
	FullName string
	Expiry   time.Time // zero omits the exp claim
}

// Sign returns an HS256 token with the given claims.
func Sign(c Claims) string {
	claims := jwtlib.MapClaims{
		"token_type": "access",
		"jti":        uuid.NewString(),
		"iat":        time.Now().Unix(),
	}
	if c.UserID != nil {
		claims["user_id"] = c.UserID
	}
	if c.Username != "" {
		claims["username"] = c.Username
	}
	if c.Email != "" {
		claims["email"] = c.Email
	}
	if c.FullName != "" {
		claims["full_name"] = c.FullName
	}
	if !c.Expiry.IsZero() {
		claims["exp"] = c.Expiry.Unix()
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(signingKey))
	if err != nil {
		panic("tokentest: sign: " + err.Error())
	}
	return signed
}

// Credential returns an access/refresh pair whose access token carries c.
func Credential(c Claims) token.Credential {
	return token.Credential{
		Access:  Sign(c),
		Refresh: Sign(Claims{UserID: c.UserID, Expiry: c.Expiry}),
	}
}

// ForUser is a credential for userID valid for the next hour.
func ForUser(userID int, email string) token.Credential {
	return Credential(Claims{
		UserID:   userID,
		Username: "reader",
		Email:    email,
		Expiry:   time.Now().Add(time.Hour),
	})
}
