// Package client talks to the association backend. One method per
// backend operation; every call carries session cookies, mutating
// calls carry the CSRF token sourced from the csrftoken cookie, and
// every successful response is validated against the resource schema
// before being returned.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mlefevre/amicale-client/internal/models"
)

const (
	csrfCookie = "csrftoken"
	csrfHeader = "X-CSRFToken"
)

// Config configures a Client. BaseURL is the backend root without the
// /api suffix, e.g. "https://amicale.example.org".
type Config struct {
	BaseURL string
	// HTTPClient, when nil, is replaced with a cookie-jarred client
	// with a 30s timeout. A caller-supplied client must carry its own
	// jar or no session will stick.
	HTTPClient *http.Client
	Log        *logrus.Logger
	// OnAuthChanged is called whenever the backend answers 401, so the
	// session layer can drop its cached identity.
	OnAuthChanged func()
}

type Client struct {
	base          *url.URL
	http          *http.Client
	log           *logrus.Logger
	onAuthChanged func()
}

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		httpClient = &http.Client{Jar: jar, Timeout: 30 * time.Second}
	}
	log := cfg.Log
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		base:          base,
		http:          httpClient,
		log:           log,
		onAuthChanged: cfg.OnAuthChanged,
	}, nil
}

// csrfToken reads the csrftoken cookie from the jar. Empty until the
// first GET has been made against the backend.
func (c *Client) csrfToken() string {
	if c.http.Jar == nil {
		return ""
	}
	for _, cookie := range c.http.Jar.Cookies(c.base) {
		if cookie.Name == csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// do performs one request. priority is the ordered list of error-body
// field names to try before falling back to "detail"; out, when
// non-nil, receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, priority []string) error {
	endpoint := *c.base
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + path
	if query != nil {
		endpoint.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if mutating(method) {
		if token := c.csrfToken(); token != "" {
			req.Header.Set(csrfHeader, token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: reading response: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onAuthChanged != nil {
			c.onAuthChanged()
		}
		return fmt.Errorf("%s %s: %w", method, path, ErrNotAuthenticated)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, raw, priority)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.log.WithFields(logrus.Fields{"method": method, "path": path}).
			WithError(err).Error("response body does not parse")
		return &SchemaError{Operation: method + " " + path, Err: err}
	}
	if err := validateResponse(out); err != nil {
		c.log.WithFields(logrus.Fields{"method": method, "path": path}).
			WithError(err).Error("response body fails schema validation")
		return &SchemaError{Operation: method + " " + path, Err: err}
	}
	return nil
}

// validateResponse dispatches to the pagination envelope's own check
// when the target carries one, and to the struct validator otherwise.
func validateResponse(out any) error {
	if v, ok := out.(interface{ Validate() error }); ok {
		return v.Validate()
	}
	return models.Validate(out)
}

// parseAPIError extracts the most specific field message from a DRF
// style error body: {"field": ["msg", ...]} for validation errors,
// {"detail": "msg"} for everything else.
func parseAPIError(status int, raw []byte, priority []string) error {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(raw, &body); err != nil {
		return &APIError{StatusCode: status, Field: "detail", Message: http.StatusText(status)}
	}
	for _, field := range append(priority, "detail") {
		value, ok := body[field]
		if !ok {
			continue
		}
		if message := firstMessage(value); message != "" {
			return &APIError{StatusCode: status, Field: field, Message: message}
		}
	}
	// Unknown field keys: take any one rather than swallow the error.
	for field, value := range body {
		if message := firstMessage(value); message != "" {
			return &APIError{StatusCode: status, Field: field, Message: message}
		}
	}
	return &APIError{StatusCode: status, Field: "detail", Message: http.StatusText(status)}
}

func firstMessage(value json.RawMessage) string {
	var list []string
	if err := json.Unmarshal(value, &list); err == nil {
		if len(list) > 0 {
			return list[0]
		}
		return ""
	}
	var single string
	if err := json.Unmarshal(value, &single); err == nil {
		return single
	}
	return ""
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out any, priority []string) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out, priority)
}

func (c *Client) patch(ctx context.Context, path string, body, out any, priority []string) error {
	return c.do(ctx, http.MethodPatch, path, nil, body, out, priority)
}
