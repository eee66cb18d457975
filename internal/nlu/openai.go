package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL targets the OpenAI API; any chat-completions-compatible
// endpoint works.
const DefaultBaseURL = "https://api.openai.com/v1"

// DefaultModel is the intent-parsing model when none is configured.
const DefaultModel = "gpt-4o-mini"

// OpenAIConfig configures the chat-completions client.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAIResolver resolves intents through an OpenAI-compatible
// chat-completions endpoint.
type OpenAIResolver struct {
	cfg    OpenAIConfig
	client *http.Client
	logger *slog.Logger
}

// NewOpenAIResolver creates a resolver with the given config, filling in
// defaults for anything unset.
func NewOpenAIResolver(cfg OpenAIConfig, logger *slog.Logger) *OpenAIResolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIResolver{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Resolve sends the user text plus session context to the model and parses
// the reply as a RawIntent. Every failure path returns a ResolutionError;
// the caller decides how to degrade.
func (r *OpenAIResolver) Resolve(ctx context.Context, text string, sctx Context) (RawIntent, error) {
	system := intentSystemPrompt
	if block := contextBlock(sctx); block != "" {
		system += "\n\nSESSION CONTEXT\n" + block
	}

	content, err := r.complete(ctx, system, text, 0.2)
	if err != nil {
		return RawIntent{}, &ResolutionError{Err: err}
	}

	var raw RawIntent
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &raw); err != nil {
		return RawIntent{}, &ResolutionError{Err: fmt.Errorf("malformed intent %q: %w", content, err)}
	}
	if raw.Action == "" {
		return RawIntent{}, &ResolutionError{Err: fmt.Errorf("intent missing action: %q", content)}
	}
	if raw.Filters == nil {
		raw.Filters = map[string]any{}
	}
	return raw, nil
}

// ExplainError asks the model to reframe a technical error for the user.
// On any failure it falls back to the technical message unchanged.
func (r *OpenAIResolver) ExplainError(ctx context.Context, userQuery, technical string) string {
	user := fmt.Sprintf("User Query: %q\n\nTechnical Error: %q\n\nPlease provide a user-friendly error message.", userQuery, technical)
	content, err := r.complete(ctx, explainSystemPrompt, user, 0.3)
	if err != nil {
		r.logger.Debug("error explanation failed, using technical message", "error", err)
		return technical
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return technical
	}
	return content
}

func (r *OpenAIResolver) complete(ctx context.Context, system, user string, temperature float64) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	url := strings.TrimSuffix(r.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat completion: status %d: %s", resp.StatusCode, string(b))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// contextBlock renders session memory into a prompt section. Empty when the
// session has no context to offer.
func contextBlock(sctx Context) string {
	var b strings.Builder
	if len(sctx.History) > 0 {
		b.WriteString("Previous queries in this session (oldest first):\n")
		for _, q := range sctx.History {
			b.WriteString("- ")
			b.WriteString(q)
			b.WriteString("\n")
		}
	}
	if len(sctx.Defaults) > 0 {
		b.WriteString("Resolved session defaults:\n")
		for k, v := range sctx.Defaults {
			fmt.Fprintf(&b, "- %s: %s\n", k, v)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// stripCodeFence removes a markdown fence if the model wrapped its JSON in
// one.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
