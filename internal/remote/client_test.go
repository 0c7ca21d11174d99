package remote

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
	"unicode/utf8"
)

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:8080/exec", "k", 0)
	if c == nil {
		t.Fatal("expected non-nil client")
	}
	if c.httpClient.Timeout != 30*time.Second {
		t.Errorf("expected default timeout 30s, got %v", c.httpClient.Timeout)
	}
}

func TestFetchAllSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		q := r.URL.Query()
		if q.Get("resource") != "matches" || q.Get("action") != "getAll" || q.Get("apiKey") != "secret" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("unexpected Accept header: %q", r.Header.Get("Accept"))
		}
		w.Write([]byte(`{"items":[{"id":"1"},{"id":"2"}]}`))
	}))
	defer srv.Close()

	var rows []struct{ ID string }
	c := NewClient(srv.URL, "secret", time.Second)
	if err := c.FetchAll(context.Background(), Matches, &rows); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
}

func TestFetchAllErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "http status",
			status: http.StatusBadGateway,
			body:   "upstream down",
			check: func(t *testing.T, err error) {
				var he *HTTPError
				if !errors.As(err, &he) {
					t.Fatalf("expected HTTPError, got %T", err)
				}
				if he.Status != http.StatusBadGateway || he.Body != "upstream down" {
					t.Errorf("unexpected HTTPError: %+v", he)
				}
			},
		},
		{
			name:   "missing items",
			status: http.StatusOK,
			body:   `{"resource":"matches"}`,
			check: func(t *testing.T, err error) {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("expected ParseError, got %T", err)
				}
				if pe.Field != "items" {
					t.Errorf("expected missing field items, got %q", pe.Field)
				}
			},
		},
		{
			name:   "invalid json",
			status: http.StatusOK,
			body:   `<html>login</html>`,
			check: func(t *testing.T, err error) {
				var pe *ParseError
				if !errors.As(err, &pe) {
					t.Fatalf("expected ParseError, got %T", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var rows []map[string]any
			err := NewClient(srv.URL, "k", time.Second).FetchAll(context.Background(), Watchlist, &rows)
			if err == nil {
				t.Fatal("expected error")
			}
			tt.check(t, err)
		})
	}
}

func TestFetchAllNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var rows []map[string]any
	err := NewClient(url, "k", time.Second).FetchAll(context.Background(), Matches, &rows)
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %T (%v)", err, err)
	}
	if !strings.Contains(Describe(err), "Network error") {
		t.Errorf("unexpected description: %q", Describe(err))
	}
}

func TestMutatePayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "text/plain;charset=utf-8" {
			t.Errorf("unexpected content type %q", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("bad body: %v", err)
		}
		if body["apiKey"] != "k" || body["resource"] != "watchlist" || body["action"] != "delete" {
			t.Errorf("unexpected body: %s", raw)
		}
		ids, _ := body["ids"].([]any)
		if len(ids) != 2 {
			t.Errorf("expected 2 ids, got %v", body["ids"])
		}
		if _, ok := body["data"]; ok {
			t.Error("delete should not send data")
		}
		w.Write([]byte(`{"deletedCount":2}`))
	}))
	defer srv.Close()

	res, err := NewClient(srv.URL, "k", time.Second).Delete(context.Background(), Watchlist, []string{"1", "2"})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res.DeletedCount == nil || *res.DeletedCount != 2 {
		t.Errorf("unexpected deletedCount: %v", res.DeletedCount)
	}
}

func TestCountFieldRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	c := NewClient(srv.URL, "k", time.Second)
	ctx := context.Background()

	checks := map[string]func() error{
		"insertedCount": func() error { _, err := c.Create(ctx, Watchlist, []any{}); return err },
		"updatedCount":  func() error { _, err := c.Update(ctx, Watchlist, []any{}); return err },
		"deletedCount":  func() error { _, err := c.Delete(ctx, Watchlist, []string{"1"}); return err },
	}
	for field, call := range checks {
		var pe *ParseError
		if err := call(); !errors.As(err, &pe) || pe.Field != field {
			t.Errorf("%s: expected ParseError for missing field, got %v", field, err)
		}
	}
}

func TestResultDecodeItems(t *testing.T) {
	res := &Result{Items: json.RawMessage(`[{"match_id":"7"}]`)}
	var rows []map[string]string
	if err := res.DecodeItems(&rows); err != nil {
		t.Fatalf("DecodeItems: %v", err)
	}
	if len(rows) != 1 || rows[0]["match_id"] != "7" {
		t.Errorf("unexpected rows: %v", rows)
	}

	rows = nil
	if err := (&Result{}).DecodeItems(&rows); err != nil || rows != nil {
		t.Errorf("empty items: got %v, %v", rows, err)
	}
}

func TestSnippetKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"ascii", strings.Repeat("a", 300), maxSnippet},
		{"rune across the cut", strings.Repeat("a", 199) + strings.Repeat("ệ", 10), 199},
		{"vietnamese", strings.Repeat("ệ", 100), 198},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := Describe(&HTTPError{Op: "fetch watchlist", Status: 500, Body: tt.body})
			if !utf8.ValidString(msg) {
				t.Fatalf("message is not valid UTF-8: %q", msg)
			}
			got := snippet(tt.body)
			if !strings.HasSuffix(got, "...") || len(got)-3 != tt.want {
				t.Errorf("snippet kept %d bytes, want %d", len(got)-3, tt.want)
			}
		})
	}
	if got := snippet("lỗi máy chủ"); got != "lỗi máy chủ" {
		t.Errorf("short body changed: %q", got)
	}
}
