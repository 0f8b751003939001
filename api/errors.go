package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jrsteele09/readify/internal/errors"
)

// AlreadyInReadingList is the API's error text when a book is added to a list twice.
const AlreadyInReadingList = "This book is already in the reading list"

// StatusError is returned when the API answers with a status the caller did not expect.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return errors.ErrUnexpectedStatus
}

// FieldErrors decodes a validation body of the form {"field": ["message", ...]}.
// Fields holding a bare string are returned as a single message.
func (e *StatusError) FieldErrors() map[string][]string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(e.Body, &raw); err != nil {
		return nil
	}

	fields := make(map[string][]string, len(raw))
	for name, value := range raw {
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			fields[name] = list
			continue
		}
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			fields[name] = []string{single}
		}
	}
	return fields
}

// Message returns the string stored under key in the error body, e.g. "detail" or "error".
func (e *StatusError) Message(key string) string {
	if msgs := e.FieldErrors()[key]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// AsStatusError unwraps err into a *StatusError.
func AsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// FirstFieldError returns the first message of the first field, in the given priority order,
// that the API reported a problem with.
func FirstFieldError(err error, fields ...string) (string, bool) {
	se, ok := AsStatusError(err)
	if !ok {
		return "", false
	}
	reported := se.FieldErrors()
	for _, field := range fields {
		if msgs := reported[field]; len(msgs) > 0 && msgs[0] != "" {
			return msgs[0], true
		}
	}
	return "", false
}

// Detail is the API's "detail" message for err, or fallback.
func Detail(err error, fallback string) string {
	return messageOr(err, "detail", fallback)
}

// ErrorMessage is the API's "error" message for err, or fallback.
func ErrorMessage(err error, fallback string) string {
	return messageOr(err, "error", fallback)
}

func messageOr(err error, key, fallback string) string {
	if se, ok := AsStatusError(err); ok {
		if msg := se.Message(key); msg != "" {
			return msg
		}
	}
	return fallback
}
