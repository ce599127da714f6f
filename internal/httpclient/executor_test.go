package httpclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ramazansakin/firedrill/internal/httpclient"
)

func newExecutor() *httpclient.Executor {
	return &httpclient.Executor{Client: httpclient.NewClient(5 * time.Second)}
}

func TestDoSuccessfulRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, `{"ok": true}`)
	}))
	defer server.Close()

	outcome := newExecutor().Do(context.Background(), http.MethodGet, server.URL+"/health", nil, nil, true)

	if !outcome.Success {
		t.Fatalf("expected success, got error %q", outcome.Error)
	}
	if outcome.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", outcome.StatusCode)
	}
	if outcome.LatencyMs <= 0 {
		t.Errorf("expected positive latency, got %v", outcome.LatencyMs)
	}
	if outcome.Endpoint != server.URL+"/health" || outcome.Method != http.MethodGet {
		t.Errorf("unexpected outcome identity %+v", outcome)
	}
}

func TestDoErrorStatusIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone missing", http.StatusNotFound)
	}))
	defer server.Close()

	outcome := newExecutor().Do(context.Background(), http.MethodGet, server.URL, nil, nil, true)

	if outcome.Success {
		t.Fatal("expected failure for 404")
	}
	if outcome.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", outcome.StatusCode)
	}
	if !strings.Contains(outcome.Error, "404") || !strings.Contains(outcome.Error, "gone missing") {
		t.Errorf("expected status and body snippet in error, got %q", outcome.Error)
	}
}

func TestDoConnectionErrorIsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	outcome := newExecutor().Do(context.Background(), http.MethodGet, server.URL, nil, nil, true)

	if outcome.Success {
		t.Fatal("expected failure for refused connection")
	}
	if outcome.StatusCode != 0 {
		t.Errorf("expected zero status code, got %d", outcome.StatusCode)
	}
	if outcome.Error == "" {
		t.Error("expected a transport error message")
	}
}

func TestDoSendsJSONBody(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	body := map[string]any{"name": "alice", "age": 30}
	outcome := newExecutor().Do(context.Background(), http.MethodPost, server.URL, nil, body, true)

	if !outcome.Success {
		t.Fatalf("expected success, got %q", outcome.Error)
	}
	if gotContentType != "application/json" {
		t.Errorf("expected application/json, got %q", gotContentType)
	}
	if gotBody["name"] != "alice" || gotBody["age"] != float64(30) {
		t.Errorf("unexpected body %v", gotBody)
	}
}

func TestDoSendsFormBody(t *testing.T) {
	var gotBody string
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
	}))
	defer server.Close()

	body := map[string]any{"user": "alice", "count": 3}
	outcome := newExecutor().Do(context.Background(), http.MethodPost, server.URL, nil, body, false)

	if !outcome.Success {
		t.Fatalf("expected success, got %q", outcome.Error)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("expected form content type, got %q", gotContentType)
	}
	values, err := url.ParseQuery(gotBody)
	if err != nil {
		t.Fatalf("parse form body: %v", err)
	}
	if values.Get("user") != "alice" || values.Get("count") != "3" {
		t.Errorf("unexpected form values %v", values)
	}
}

func TestDoSkipsBodyForGET(t *testing.T) {
	var gotLength int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLength = r.ContentLength
	}))
	defer server.Close()

	outcome := newExecutor().Do(context.Background(), http.MethodGet, server.URL, nil, map[string]any{"x": 1}, true)

	if !outcome.Success {
		t.Fatalf("expected success, got %q", outcome.Error)
	}
	if gotLength > 0 {
		t.Errorf("expected no body on GET, got length %d", gotLength)
	}
}

func TestDoAppliesHeaders(t *testing.T) {
	var gotAuth, gotCustom string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCustom = r.Header.Get("X-Test")
	}))
	defer server.Close()

	headers := map[string]string{"Authorization": "Bearer token", "X-Test": "yes"}
	outcome := newExecutor().Do(context.Background(), http.MethodGet, server.URL, headers, nil, true)

	if !outcome.Success {
		t.Fatalf("expected success, got %q", outcome.Error)
	}
	if gotAuth != "Bearer token" || gotCustom != "yes" {
		t.Errorf("headers not applied: auth=%q custom=%q", gotAuth, gotCustom)
	}
}

func TestDoExplicitContentTypeWins(t *testing.T) {
	var gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
	}))
	defer server.Close()

	headers := map[string]string{"Content-Type": "application/vnd.custom+json"}
	outcome := newExecutor().Do(context.Background(), http.MethodPost, server.URL, headers, map[string]any{"a": 1}, true)

	if !outcome.Success {
		t.Fatalf("expected success, got %q", outcome.Error)
	}
	if gotContentType != "application/vnd.custom+json" {
		t.Errorf("expected explicit content type to win, got %q", gotContentType)
	}
}

func TestDoRecordsRequestDataOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer server.Close()

	body := map[string]any{"name": "alice"}
	outcome := newExecutor().Do(context.Background(), http.MethodPost, server.URL, nil, body, true)

	if outcome.Success {
		t.Fatal("expected failure")
	}
	if !strings.Contains(outcome.RequestData, "alice") {
		t.Errorf("expected request snapshot on failure, got %q", outcome.RequestData)
	}
}

func TestDoInvalidFormBody(t *testing.T) {
	outcome := newExecutor().Do(context.Background(), http.MethodPost, "http://unused.invalid", nil, []any{"list"}, false)

	if outcome.Success {
		t.Fatal("expected encode failure")
	}
	if !strings.Contains(outcome.Error, "encode body") {
		t.Errorf("expected encode error, got %q", outcome.Error)
	}
}
