// Package apiclient is the single outbound gateway to the core banking API.
// All reads and writes the gateway performs on behalf of a signed-in user go
// through one Client, which attaches the bearer token, normalizes errors and
// performs the one automatic refresh-and-retry on an expired token.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Error carries the backend's status code and decoded payload for any
// non-2xx response. Callers branch on Status; templates show Detail.
type Error struct {
	Status int
	Data   json.RawMessage
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// StatusOf returns the backend status code carried by err, or 0 when err is
// not a backend error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// TokenSource yields the current access token for a browser session.
// The in-memory value wins; implementations fall back to the token store.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, bool)
}

// Refresher mints a new access token after the backend rejects the current
// one. An empty return means the session could not be refreshed and has been
// torn down.
type Refresher interface {
	RefreshAccessToken(ctx context.Context) string
}

// Client wraps interactions with the core banking REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	tokens     TokenSource
	refresher  Refresher
}

// New constructs an unauthenticated client. Login and refresh calls use it
// directly; everything else goes through WithAuth.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// WithAuth returns a copy of the client bound to one session's credentials.
// The copy shares the underlying transport.
func (c *Client) WithAuth(tokens TokenSource, refresher Refresher) *Client {
	bound := *c
	bound.tokens = tokens
	bound.refresher = refresher
	return &bound
}

// BaseURL reports the configured backend host.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.roundTrip(ctx, http.MethodGet, path, nil, "", out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	payload, contentType, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return c.roundTrip(ctx, http.MethodPost, path, payload, contentType, out)
}

// Patch issues a PATCH with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	payload, contentType, err := encodeJSON(body)
	if err != nil {
		return err
	}
	return c.roundTrip(ctx, http.MethodPatch, path, payload, contentType, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.roundTrip(ctx, http.MethodDelete, path, nil, "", nil)
}

// FilePart is one file attached to a multipart upload.
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

// PostMultipart uploads form fields plus file parts. The multipart writer
// owns the content type so the boundary survives intact.
func (c *Client) PostMultipart(ctx context.Context, path string, fields map[string]string, files []FilePart, out any) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return err
		}
	}
	for _, f := range files {
		part, err := writer.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return err
		}
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return c.roundTrip(ctx, http.MethodPost, path, body.Bytes(), writer.FormDataContentType(), out)
}

// roundTrip performs one request and, when an authenticated call comes back
// 401, asks the refresher for a new token and retries exactly once. Requests
// made without credentials (login, refresh itself) are never retried.
func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, contentType string, out any) error {
	tok := ""
	if c.tokens != nil {
		tok, _ = c.tokens.AccessToken(ctx)
	}

	status, err := c.doOnce(ctx, method, path, payload, contentType, tok, out)
	if err == nil {
		return nil
	}
	if status != http.StatusUnauthorized || tok == "" || c.refresher == nil {
		return err
	}

	fresh := c.refresher.RefreshAccessToken(ctx)
	if fresh == "" || fresh == tok {
		return err
	}
	if c.logger != nil {
		c.logger.Debug("retrying after token refresh", slog.String("path", path))
	}
	_, err = c.doOnce(ctx, method, path, payload, contentType, fresh, out)
	return err
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, contentType, tok string, out any) (int, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	// A cached 304 must never mask an auth failure.
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("apiclient: %s %s: %w", method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("apiclient: read %s %s: %w", method, path, err)
	}

	isJSON := strings.Contains(resp.Header.Get("Content-Type"), "application/json")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, newError(resp.StatusCode, raw, isJSON)
	}

	if out == nil || len(raw) == 0 {
		return resp.StatusCode, nil
	}
	if isJSON {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("apiclient: decode %s %s: %w", method, path, err)
		}
		return resp.StatusCode, nil
	}
	// Non-JSON bodies come back as raw text.
	if s, ok := out.(*string); ok {
		*s = string(raw)
		return resp.StatusCode, nil
	}
	return resp.StatusCode, fmt.Errorf("apiclient: %s %s returned %q, want JSON", method, path, resp.Header.Get("Content-Type"))
}

func newError(status int, raw []byte, isJSON bool) *Error {
	apiErr := &Error{Status: status}
	if isJSON && len(raw) > 0 {
		apiErr.Data = json.RawMessage(raw)
		var payload struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(raw, &payload); err == nil && payload.Detail != "" {
			apiErr.Detail = payload.Detail
		}
	} else if len(raw) > 0 {
		apiErr.Detail = string(raw)
	}
	if apiErr.Detail == "" {
		apiErr.Detail = "Request failed"
	}
	return apiErr
}

func encodeJSON(body any) ([]byte, string, error) {
	if body == nil {
		return nil, "", nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, "", fmt.Errorf("apiclient: encode body: %w", err)
	}
	return payload, "application/json", nil
}
