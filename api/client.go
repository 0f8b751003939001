package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/readify/token"
	"golang.org/x/oauth2"
)

const (
	contentTypeJSON = "application/json"
	maxResponseBody = 8 << 20
)

// Observer is told about every request the client issues.
type Observer interface {
	ObserveAPIRequest(method, route string, status int, start time.Time)
}

// Client issues requests against the Readify REST API.
// A Client is safe for concurrent use; WithCredential returns a new handle and leaves the receiver untouched.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
	credential token.Credential
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (timeouts, transport).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// New creates a client for the API rooted at baseURL (e.g. "http://127.0.0.1:8000/api").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// BaseURL is the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// WithCredential returns a handle that sends cred's access token as a bearer token.
// A zero credential yields a handle without an Authorization header.
// The token is never refreshed: an expired token fails with whatever status the API returns.
func (c *Client) WithCredential(cred token.Credential) *Client {
	clone := *c
	clone.credential = cred
	if cred.IsZero() {
		return &clone
	}

	base := c.httpClient
	clone.httpClient = &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cred.Access, TokenType: "Bearer"}),
			Base:   base.Transport,
		},
		CheckRedirect: base.CheckRedirect,
		Jar:           base.Jar,
		Timeout:       base.Timeout,
	}
	return &clone
}

// Authenticated reports whether requests from this handle carry a bearer token.
func (c *Client) Authenticated() bool {
	return !c.credential.IsZero()
}

// request describes one call. expect is the only accepted status; zero accepts any 2xx.
type request struct {
	method      string
	route       string
	path        string
	body        io.Reader
	contentType string
	expect      int
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	start := time.Now()

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, req.body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Accept", contentTypeJSON)
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req, 0, start)
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()
	c.observe(req, resp.StatusCode, start)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", req.method, req.path, err)
	}

	if !accepted(resp.StatusCode, req.expect) {
		return &StatusError{
			Method:     req.method,
			Path:       req.path,
			StatusCode: resp.StatusCode,
			Body:       data,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", req.method, req.path, err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, req request, in, out any) error {
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s body: %w", req.method, req.path, err)
		}
		req.body = bytes.NewReader(b)
		req.contentType = contentTypeJSON
	}
	return c.do(ctx, req, out)
}

func (c *Client) observe(req request, status int, start time.Time) {
	if c.observer == nil {
		return
	}
	route := req.route
	if route == "" {
		route = req.path
	}
	c.observer.ObserveAPIRequest(req.method, route, status, start)
}

func accepted(status, expect int) bool {
	if expect != 0 {
		return status == expect
	}
	return status >= 200 && status < 300
}

// MediaURL resolves a cover image or book file path returned by the API against the media origin.
func MediaURL(mediaBase, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(mediaBase, "/") + "/" + strings.TrimLeft(path, "/")
}
