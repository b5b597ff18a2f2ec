package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAPIBind {
		t.Fatalf("host = %q, want %q", u.Host, defaultAPIBind)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FetchesFeedsWithCacheBusting(t *testing.T) {
	t.Parallel()

	var busters []string
	var cacheControl, userAgent, requestID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		busters = append(busters, r.URL.Query().Get(cacheBustParam))
		cacheControl = r.Header.Get("Cache-Control")
		userAgent = r.Header.Get("User-Agent")
		requestID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/sync/status":
			_ = json.NewEncoder(w).Encode(Envelope[SyncStatus]{Success: true, Data: SyncStatus{IsOnline: true, LatencyMs: 12}})
		case "/api/sync/operations":
			_ = json.NewEncoder(w).Encode(OperationsResponse{Success: true, Operations: []Operation{{ID: "op-1", Kind: "invoice_run"}}})
		case "/api/sync/notifications":
			_ = json.NewEncoder(w).Encode(NotificationsResponse{Success: true, Notifications: []Notification{{ID: "n-1", Level: "error"}}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	tick := time.Unix(1700000000, 0)
	c.now = func() time.Time {
		tick = tick.Add(time.Millisecond)
		return tick
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	status, err := c.FetchStatus(ctx)
	if err != nil {
		t.Fatalf("FetchStatus returned error: %v", err)
	}
	if !status.IsOnline || status.LatencyMs != 12 {
		t.Fatalf("FetchStatus payload = %#v, want online latency=12", status)
	}

	ops, err := c.FetchOperations(ctx)
	if err != nil {
		t.Fatalf("FetchOperations returned error: %v", err)
	}
	if len(ops) != 1 || ops[0].ID != "op-1" {
		t.Fatalf("FetchOperations = %#v, want op-1", ops)
	}

	notes, err := c.FetchNotifications(ctx)
	if err != nil {
		t.Fatalf("FetchNotifications returned error: %v", err)
	}
	if len(notes) != 1 || !notes[0].IsUrgent() {
		t.Fatalf("FetchNotifications = %#v, want one urgent notification", notes)
	}

	if len(busters) != 3 || busters[0] == "" || busters[0] == busters[1] || busters[1] == busters[2] {
		t.Fatalf("cache busters = %v, want three distinct values", busters)
	}
	if cacheControl != "no-cache" {
		t.Fatalf("Cache-Control = %q, want no-cache", cacheControl)
	}
	if !strings.HasPrefix(userAgent, "harbormaster/") {
		t.Fatalf("User-Agent = %q, want harbormaster/*", userAgent)
	}
	if requestID == "" {
		t.Fatalf("X-Request-ID header missing")
	}
}

func TestClient_UpdateProfileSendsPatch(t *testing.T) {
	t.Parallel()

	var gotMethod string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_ = json.NewEncoder(w).Encode(Envelope[Profile]{Success: true, Data: Profile{ID: "p1", Name: "Ada"}})
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	name := "Ada"
	profile, err := c.UpdateProfile(context.Background(), ProfilePatch{Name: &name})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if gotMethod != http.MethodPatch {
		t.Fatalf("method = %s, want PATCH", gotMethod)
	}
	if gotBody["name"] != "Ada" || len(gotBody) != 1 {
		t.Fatalf("body = %v, want only name", gotBody)
	}
	if profile.Name != "Ada" {
		t.Fatalf("profile = %#v, want Ada", profile)
	}
}

func TestClient_HTTPErrorDecodeErrorAndUnsuccessful(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sync/status":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/api/sync/operations":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"success":false,"error":"database unreachable"}`))
		case "/api/sync/notifications":
			_, _ = w.Write([]byte(`{"success":false,"error":"maintenance"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = c.FetchStatus(context.Background())
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("FetchStatus error = %v, want decode response error", err)
	}

	_, err = c.FetchOperations(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("FetchOperations error = %v, want StatusError 503", err)
	}
	if statusErr.Message != "database unreachable" {
		t.Fatalf("StatusError message = %q, want database unreachable", statusErr.Message)
	}

	_, err = c.FetchNotifications(context.Background())
	if !errors.Is(err, ErrUnsuccessful) || !strings.Contains(err.Error(), "maintenance") {
		t.Fatalf("FetchNotifications error = %v, want ErrUnsuccessful with message", err)
	}
}

func TestClient_ContextDeadlineAbandonsRequest(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.FetchStatus(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("FetchStatus error = %v, want deadline exceeded", err)
	}
}
