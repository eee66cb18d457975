package mcp

import (
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func requestWithArgs(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestRequireString(t *testing.T) {
	req := requestWithArgs(map[string]any{"query": "show tables"})

	got, err := requireString(req, "query")
	if err != nil {
		t.Fatalf("requireString() error = %v", err)
	}
	if got != "show tables" {
		t.Fatalf("requireString() = %q", got)
	}

	if _, err := requireString(req, "missing"); err == nil {
		t.Fatal("requireString() should fail for an absent key")
	}
}

func TestOptionalString(t *testing.T) {
	req := requestWithArgs(map[string]any{"session_id": "sess-1"})

	if got := optionalString(req, "session_id"); got != "sess-1" {
		t.Fatalf("optionalString() = %q", got)
	}
	if got := optionalString(req, "absent"); got != "" {
		t.Fatalf("optionalString(absent) = %q, want empty", got)
	}
}

func TestSuccessJSON(t *testing.T) {
	result, err := successJSON(map[string]any{"tables": []string{"users"}})
	if err != nil {
		t.Fatalf("successJSON() error = %v", err)
	}
	if result.IsError {
		t.Fatal("successJSON() should not be an error result")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("Content[0] = %T, want TextContent", result.Content[0])
	}
	if !strings.Contains(text.Text, `"users"`) {
		t.Fatalf("Text = %q", text.Text)
	}
}

func TestToolError(t *testing.T) {
	result, err := toolError("failed to summarize table %q", "users")
	if err != nil {
		t.Fatalf("toolError() should not return a transport error, got %v", err)
	}
	if !result.IsError {
		t.Fatal("toolError() result should be marked as an error")
	}
	text := result.Content[0].(mcp.TextContent)
	if !strings.Contains(text.Text, `"users"`) {
		t.Fatalf("Text = %q", text.Text)
	}
}

func TestBoolPtr(t *testing.T) {
	if p := boolPtr(true); p == nil || !*p {
		t.Fatal("boolPtr(true) should point at true")
	}
	if p := boolPtr(false); p == nil || *p {
		t.Fatal("boolPtr(false) should point at false")
	}
}
