package provider

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiProvider translates through the Gemini API.
type GeminiProvider struct {
	model   string
	timeout time.Duration
	opts    []option.ClientOption
}

// GeminiConfig holds configuration for the Gemini provider.
type GeminiConfig struct {
	Model    string // Model to use (default: "gemini-1.5-flash")
	Endpoint string // Custom endpoint (optional)
	Timeout  time.Duration
}

// NewGeminiProvider creates a new Gemini provider. The API key is taken
// from each request.
func NewGeminiProvider(cfg GeminiConfig) *GeminiProvider {
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	p := &GeminiProvider{model: model, timeout: timeout}
	if cfg.Endpoint != "" {
		p.opts = append(p.opts, option.WithEndpoint(cfg.Endpoint))
	}
	return p
}

// ID implements blocktl.Provider.
func (p *GeminiProvider) ID() string { return Gemini }

// Name implements blocktl.Provider.
func (p *GeminiProvider) Name() string { return "Google Gemini" }

// Translate sends one GenerateContent request.
func (p *GeminiProvider) Translate(ctx context.Context, req blocktl.Request) (string, error) {
	// option.WithHTTPClient would drop the API key header, so the timeout is
	// enforced through the context.
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	opts := append([]option.ClientOption{option.WithAPIKey(req.APIKey)}, p.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", connectionError(Gemini, err)
	}
	defer client.Close()

	model := client.GenerativeModel(p.model)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(int32(maxTokens(req)))

	resp, err := model.GenerateContent(ctx, genai.Text(Prompt(req.Text, req.TargetLang)))
	if err != nil {
		return "", classifyGeminiError(err)
	}

	text, ok := responseText(resp)
	if !ok {
		return "", invalidResponse(Gemini)
	}
	return finish(Gemini, text)
}

// responseText joins the text parts of the first candidate that has any.
// ok is false when the response carries no content at all.
func responseText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	found := false
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
			continue
		}
		var b strings.Builder
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				found = true
				b.WriteString(string(text))
			}
		}
		if b.Len() > 0 {
			return b.String(), true
		}
	}
	return "", found
}

func classifyGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return statusError(Gemini, gerr.Code, gerr.Message, err)
	}
	return connectionError(Gemini, err)
}

// Verify GeminiProvider implements Provider
var _ blocktl.Provider = (*GeminiProvider)(nil)
