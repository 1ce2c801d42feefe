package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZaguanLabs/blocktl"
)

func TestClaudeProvider_Translate(t *testing.T) {
	var got claudeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "sk-ant-test" {
			t.Errorf("Unexpected x-api-key %q", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("User-Agent") != blocktl.UserAgent() {
			t.Errorf("Unexpected User-Agent %q", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("anthropic-version") != "2023-06-01" {
			t.Errorf("Unexpected anthropic-version %q", r.Header.Get("anthropic-version"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":" Bonjour "}]}`))
	}))
	defer srv.Close()

	p := NewClaudeProvider(ClaudeConfig{BaseURL: srv.URL})
	out, err := p.Translate(context.Background(), blocktl.Request{
		Text: "Hello", TargetLang: "fr", APIKey: "sk-ant-test", MaxTokens: 500,
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if out != "Bonjour" {
		t.Errorf("Expected trimmed output, got %q", out)
	}

	if got.Model != "claude-3-haiku-20240307" || got.MaxTokens != 500 || got.Temperature != 0 {
		t.Errorf("Unexpected request %+v", got)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" || got.Messages[0].Content != Prompt("Hello", "fr") {
		t.Errorf("Unexpected messages %+v", got.Messages)
	}
}

func TestClaudeProvider_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		code      blocktl.Code
		message   string
		retryable bool
	}{
		{"overloaded", 529, `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, blocktl.CodeAPIError, "Overloaded", true},
		{"bad request", 400, `{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens: too large"}}`, blocktl.CodeAPIError, "max_tokens: too large", false},
		{"no message", 500, `{}`, blocktl.CodeAPIError, "claude API error (500)", true},
		{"missing text", 200, `{"content":[]}`, blocktl.CodeInvalidResponse, "", false},
		{"blank text", 200, `{"content":[{"type":"text","text":""}]}`, blocktl.CodeEmptyTranslation, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			p := NewClaudeProvider(ClaudeConfig{BaseURL: srv.URL})
			_, err := p.Translate(context.Background(), blocktl.Request{Text: "x", TargetLang: "en", APIKey: "k"})

			if blocktl.CodeOf(err) != tt.code {
				t.Fatalf("Expected code %s, got %v", tt.code, err)
			}
			e := err.(*blocktl.Error)
			if tt.message != "" && e.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, e.Message)
			}
			if e.Retryable != tt.retryable {
				t.Errorf("Expected retryable=%v", tt.retryable)
			}
		})
	}
}
