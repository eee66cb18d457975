package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// chatStub fakes a chat-completions endpoint returning a fixed message body.
func chatStub(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		})
	}))
}

func newTestResolver(t *testing.T, baseURL string) *OpenAIResolver {
	t.Helper()
	return NewOpenAIResolver(OpenAIConfig{BaseURL: baseURL, APIKey: "test-key"}, nil)
}

func TestResolveParsesIntent(t *testing.T) {
	srv := chatStub(t, http.StatusOK,
		`{"action": "fetch_n_records", "filters": {"table_name": "users", "n": 5}}`)
	defer srv.Close()

	r := newTestResolver(t, srv.URL)
	raw, err := r.Resolve(context.Background(), "get 5 users", Context{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if raw.Action != "fetch_n_records" {
		t.Fatalf("Action = %q", raw.Action)
	}
	if raw.Filters["table_name"] != "users" {
		t.Fatalf("Filters = %v", raw.Filters)
	}
}

func TestResolveStripsCodeFence(t *testing.T) {
	srv := chatStub(t, http.StatusOK,
		"```json\n{\"action\": \"fetch_tables\", \"filters\": {}}\n```")
	defer srv.Close()

	r := newTestResolver(t, srv.URL)
	raw, err := r.Resolve(context.Background(), "what tables exist?", Context{})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if raw.Action != "fetch_tables" {
		t.Fatalf("Action = %q", raw.Action)
	}
}

func TestResolveMalformedJSONIsResolutionError(t *testing.T) {
	srv := chatStub(t, http.StatusOK, "sure, here are your tables!")
	defer srv.Close()

	r := newTestResolver(t, srv.URL)
	_, err := r.Resolve(context.Background(), "tables", Context{})
	var rerr *ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %T, want *ResolutionError", err)
	}
}

func TestResolveHTTPErrorIsResolutionError(t *testing.T) {
	srv := chatStub(t, http.StatusTooManyRequests, "")
	defer srv.Close()

	r := newTestResolver(t, srv.URL)
	_, err := r.Resolve(context.Background(), "tables", Context{})
	var rerr *ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("err = %T, want *ResolutionError", err)
	}
}

func TestResolveIncludesSessionContext(t *testing.T) {
	var gotSystem string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		json.NewDecoder(r.Body).Decode(&req)
		gotSystem = req.Messages[0].Content
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"action": "fetch_tables", "filters": {}}`}},
			},
		})
	}))
	defer srv.Close()

	r := NewOpenAIResolver(OpenAIConfig{BaseURL: srv.URL}, nil)
	_, err := r.Resolve(context.Background(), "follow-up", Context{
		History:  []string{"count enterprises"},
		Defaults: map[string]string{"enterprise_id": "42"},
	})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !strings.Contains(gotSystem, "count enterprises") {
		t.Fatal("system prompt should carry session history")
	}
	if !strings.Contains(gotSystem, "enterprise_id: 42") {
		t.Fatal("system prompt should carry session defaults")
	}
}

func TestExplainErrorFallsBack(t *testing.T) {
	srv := chatStub(t, http.StatusInternalServerError, "")
	defer srv.Close()

	r := newTestResolver(t, srv.URL)
	got := r.ExplainError(context.Background(), "query", "column missing")
	if got != "column missing" {
		t.Fatalf("ExplainError() = %q, want technical fallback", got)
	}
}

func TestExplainErrorUsesModelText(t *testing.T) {
	srv := chatStub(t, http.StatusOK, "That column does not exist. Try one of: id, name.")
	defer srv.Close()

	r := newTestResolver(t, srv.URL)
	got := r.ExplainError(context.Background(), "query", "column missing")
	if !strings.Contains(got, "does not exist") {
		t.Fatalf("ExplainError() = %q", got)
	}
}
