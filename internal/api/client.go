package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Backend defines the back-office reads and writes the console performs.
// This interface is implemented by *Client and can be used for testing.
type Backend interface {
	FetchStatus(ctx context.Context) (SyncStatus, error)
	FetchOperations(ctx context.Context) ([]Operation, error)
	FetchNotifications(ctx context.Context) ([]Notification, error)
	FetchProfile(ctx context.Context) (Profile, error)
	UpdateProfile(ctx context.Context, patch ProfilePatch) (Profile, error)
	FetchDashboardStats(ctx context.Context) (DashboardStats, error)
	FetchMarinaOverview(ctx context.Context) (MarinaOverview, error)
}

// Ensure Client implements Backend at compile time.
var _ Backend = (*Client)(nil)

// ErrUnsuccessful is returned when the API answers 2xx but reports success=false.
var ErrUnsuccessful = errors.New("api reported failure")

// StatusError describes a non-2xx response.
type StatusError struct {
	Path    string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("api %s returned status %d", e.Path, e.Code)
}

// Client talks to the marina back-office HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	now       func() time.Time
}

const (
	defaultAPIBind   = "127.0.0.1:8087"
	defaultUserAgent = "harbormaster/0.3"
	requestTimeout   = 8 * time.Second
	cacheBustParam   = "_ts"
	maxErrorBody     = 512
)

// NewClient builds a Client using the provided apiBind host:port value.
func NewClient(apiBind string) (*Client, error) {
	base, err := parseBaseURL(apiBind)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		now:       time.Now,
	}, nil
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// FetchStatus retrieves the back-office connectivity snapshot.
func (c *Client) FetchStatus(ctx context.Context) (SyncStatus, error) {
	if c == nil {
		return SyncStatus{}, fmt.Errorf("client is nil")
	}
	var payload Envelope[SyncStatus]
	if err := c.do(ctx, http.MethodGet, "/api/sync/status", nil, &payload); err != nil {
		return SyncStatus{}, err
	}
	if !payload.Success {
		return SyncStatus{}, unsuccessful("/api/sync/status", payload.Error)
	}
	return payload.Data, nil
}

// FetchOperations retrieves pending operations.
func (c *Client) FetchOperations(ctx context.Context) ([]Operation, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload OperationsResponse
	if err := c.do(ctx, http.MethodGet, "/api/sync/operations", nil, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, unsuccessful("/api/sync/operations", payload.Error)
	}
	return payload.Operations, nil
}

// FetchNotifications retrieves operator notifications.
func (c *Client) FetchNotifications(ctx context.Context) ([]Notification, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload NotificationsResponse
	if err := c.do(ctx, http.MethodGet, "/api/sync/notifications", nil, &payload); err != nil {
		return nil, err
	}
	if !payload.Success {
		return nil, unsuccessful("/api/sync/notifications", payload.Error)
	}
	return payload.Notifications, nil
}

// FetchProfile retrieves the operator profile.
func (c *Client) FetchProfile(ctx context.Context) (Profile, error) {
	return fetchData[Profile](ctx, c, http.MethodGet, "/api/profile", nil)
}

// UpdateProfile applies a partial profile update and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, patch ProfilePatch) (Profile, error) {
	return fetchData[Profile](ctx, c, http.MethodPatch, "/api/profile", patch)
}

// FetchDashboardStats retrieves the dashboard counters.
func (c *Client) FetchDashboardStats(ctx context.Context) (DashboardStats, error) {
	return fetchData[DashboardStats](ctx, c, http.MethodGet, "/api/dashboard/stats", nil)
}

// FetchMarinaOverview retrieves the dock layout summary.
func (c *Client) FetchMarinaOverview(ctx context.Context) (MarinaOverview, error) {
	return fetchData[MarinaOverview](ctx, c, http.MethodGet, "/api/marina/overview", nil)
}

func fetchData[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T
	if c == nil {
		return zero, fmt.Errorf("client is nil")
	}
	var payload Envelope[T]
	if err := c.do(ctx, method, path, body, &payload); err != nil {
		return zero, err
	}
	if !payload.Success {
		return zero, unsuccessful(path, payload.Error)
	}
	return payload.Data, nil
}

func unsuccessful(path, msg string) error {
	if strings.TrimSpace(msg) == "" {
		return fmt.Errorf("%s: %w", path, ErrUnsuccessful)
	}
	return fmt.Errorf("%s: %w: %s", path, ErrUnsuccessful, msg)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	values := url.Values{}
	values.Set(cacheBustParam, strconv.FormatInt(c.now().UnixNano(), 10))
	rel := &url.URL{Path: path, RawQuery: values.Encode()}
	return c.doURL(ctx, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Path: rel.Path, Code: resp.StatusCode, Message: errorMessage(snippet)}
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the "error" field of a JSON error body, falling back
// to the trimmed raw text.
func errorMessage(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return strings.TrimSpace(string(body))
}

func parseBaseURL(apiBind string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiBind)
	if trimmed == "" {
		trimmed = defaultAPIBind
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_bind %q: %w", apiBind, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
