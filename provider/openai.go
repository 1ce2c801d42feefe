package provider

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/ZaguanLabs/blocktl"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider translates through OpenAI chat completions.
type OpenAIProvider struct {
	model       string
	temperature float32
	baseURL     string
	httpClient  *http.Client
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	Model       string  // Model to use (default: "gpt-3.5-turbo")
	Temperature float32 // Sampling temperature (default: 0)
	BaseURL     string  // Custom base URL (optional)
	Timeout     time.Duration
}

// NewOpenAIProvider creates a new OpenAI provider. The API key is taken
// from each request.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	model := cfg.Model
	if model == "" {
		model = openai.GPT3Dot5Turbo
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &OpenAIProvider{
		model:       model,
		temperature: cfg.Temperature,
		baseURL:     cfg.BaseURL,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// ID implements blocktl.Provider.
func (p *OpenAIProvider) ID() string { return OpenAI }

// Name implements blocktl.Provider.
func (p *OpenAIProvider) Name() string { return "OpenAI GPT" }

// Translate sends one chat completion request.
func (p *OpenAIProvider) Translate(ctx context.Context, req blocktl.Request) (string, error) {
	config := openai.DefaultConfig(req.APIKey)
	if p.baseURL != "" {
		config.BaseURL = p.baseURL
	}
	config.HTTPClient = p.httpClient
	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: Prompt(req.Text, req.TargetLang)},
		},
		Temperature: requestTemperature(p.temperature),
		MaxTokens:   maxTokens(req),
	})
	if err != nil {
		return "", p.classify(err)
	}

	if len(resp.Choices) == 0 {
		return "", invalidResponse(OpenAI)
	}

	return finish(OpenAI, resp.Choices[0].Message.Content)
}

// requestTemperature keeps a zero temperature on the wire: go-openai omits
// the field when it is 0, which the API reads as its default of 1.
func requestTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func (p *OpenAIProvider) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return statusError(OpenAI, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return statusError(OpenAI, reqErr.HTTPStatusCode, "", err)
	}
	return connectionError(OpenAI, err)
}

// Verify OpenAIProvider implements Provider
var _ blocktl.Provider = (*OpenAIProvider)(nil)
