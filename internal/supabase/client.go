// Package supabase is a minimal client for the hosted backend: the PostgREST
// table API under /rest/v1 and the GoTrue auth API under /auth/v1. It knows
// nothing about the application's tables; the gateway layer builds typed
// operations on top of it.
package supabase

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TokenSource supplies the bearer token for outgoing requests. Returning an
// empty string means "no signed-in user"; the anon key is used instead so
// public catalog reads keep working.
type TokenSource func() string

type Client struct {
	baseURL     string
	anonKey     string
	httpClient  *http.Client
	tokenSource TokenSource
}

type Config struct {
	URL         string
	AnonKey     string
	HTTPClient  *http.Client
	TokenSource TokenSource
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("AnonKey is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.URL, "/"),
		anonKey:     cfg.AnonKey,
		httpClient:  httpClient,
		tokenSource: cfg.TokenSource,
	}, nil
}

// From starts a query against a table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table}
}

var (
	// ErrNotFound means a single-row query matched zero rows
	ErrNotFound = errors.New("no rows found")

	// ErrConflict means the backend rejected a write with a constraint
	// violation (e.g. a unique index on collection membership)
	ErrConflict = errors.New("conflict")

	// ErrInvalidGrant means the auth provider rejected the credentials
	ErrInvalidGrant = errors.New("invalid grant")
)

// Response is a raw API response.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Err maps failure status codes to sentinel errors. PostgREST signals
// "single object requested, zero rows" with 406; GoTrue and PostgREST both
// use 404 for missing resources.
func (r *Response) Err() error {
	if r.StatusCode < 400 {
		return nil
	}

	msg := r.errorMessage()
	switch r.StatusCode {
	case http.StatusNotFound, http.StatusNotAcceptable:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, msg)
	}
	return fmt.Errorf("supabase: status %d: %s", r.StatusCode, msg)
}

func (r *Response) errorMessage() string {
	var body struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(r.Body, &body); err == nil {
		switch {
		case body.Message != "":
			return body.Message
		case body.Msg != "":
			return body.Msg
		case body.ErrorDescription != "":
			return body.ErrorDescription
		case body.Error != "":
			return body.Error
		}
	}
	return http.StatusText(r.StatusCode)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.anonKey)

	token := ""
	if c.tokenSource != nil {
		token = c.tokenSource()
	}
	if token == "" {
		token = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)

	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}
