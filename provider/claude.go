package provider

import (
	"context"
	"strings"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/go-resty/resty/v2"
)

const (
	claudeBaseURL    = "https://api.anthropic.com"
	claudeAPIVersion = "2023-06-01"
)

// ClaudeProvider translates through the Anthropic Messages API.
type ClaudeProvider struct {
	baseURL string
	model   string
	http    *resty.Client
}

// ClaudeConfig holds configuration for the Claude provider.
type ClaudeConfig struct {
	Model   string // Model to use (default: "claude-3-haiku-20240307")
	BaseURL string // Custom base URL (optional)
	Timeout time.Duration
}

// NewClaudeProvider creates a new Claude provider. The API key is taken
// from each request.
func NewClaudeProvider(cfg ClaudeConfig) *ClaudeProvider {
	model := cfg.Model
	if model == "" {
		model = "claude-3-haiku-20240307"
	}
	base := cfg.BaseURL
	if base == "" {
		base = claudeBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &ClaudeProvider{
		baseURL: strings.TrimRight(base, "/"),
		model:   model,
		http:    resty.New().SetTimeout(timeout).SetHeader("User-Agent", blocktl.UserAgent()),
	}
}

// ID implements blocktl.Provider.
func (p *ClaudeProvider) ID() string { return Claude }

// Name implements blocktl.Provider.
func (p *ClaudeProvider) Name() string { return "Anthropic Claude" }

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Type string  `json:"type"`
		Text *string `json:"text"`
	} `json:"content"`
}

type claudeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Translate sends one Messages API request.
func (p *ClaudeProvider) Translate(ctx context.Context, req blocktl.Request) (string, error) {
	var (
		result claudeResponse
		apiErr claudeError
	)

	resp, err := p.http.R().SetContext(ctx).
		SetHeader("x-api-key", req.APIKey).
		SetHeader("anthropic-version", claudeAPIVersion).
		SetHeader("Content-Type", "application/json").
		SetBody(claudeRequest{
			Model:     p.model,
			MaxTokens: maxTokens(req),
			Messages: []claudeMessage{
				{Role: "user", Content: Prompt(req.Text, req.TargetLang)},
			},
		}).
		SetResult(&result).
		SetError(&apiErr).
		Post(p.baseURL + "/v1/messages")
	if err != nil {
		return "", connectionError(Claude, err)
	}
	if resp.IsError() {
		return "", statusError(Claude, resp.StatusCode(), apiErr.Error.Message, nil)
	}

	if len(result.Content) == 0 || result.Content[0].Text == nil {
		return "", invalidResponse(Claude)
	}

	return finish(Claude, *result.Content[0].Text)
}

// Verify ClaudeProvider implements Provider
var _ blocktl.Provider = (*ClaudeProvider)(nil)
