// Package provider implements blocktl.Provider for the supported LLM
// backends. Every adapter sends the same single-turn prompt and maps
// failures onto blocktl error codes.
package provider

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ZaguanLabs/blocktl"
)

// Provider IDs in their registration order.
const (
	OpenAI = "openai"
	Claude = "claude"
	Gemini = "gemini"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 60 * time.Second

// Prompt builds the translation instruction sent to every provider.
func Prompt(text, targetLang string) string {
	return fmt.Sprintf("Translate the following text into %s. "+
		"Keep the meaning and tone of the original exactly and make the translation natural and easy to read. "+
		"If the text contains HTML tags, keep them as they are. "+
		"Output only the translation, without explanations or notes.\n\n%s",
		blocktl.GetLanguageName(targetLang), text)
}

// statusError maps a non-2xx response to an api_error. Rate limiting and
// server errors are retryable.
func statusError(provider string, status int, message string, cause error) *blocktl.Error {
	if message == "" {
		message = fmt.Sprintf("%s API error (%d)", provider, status)
	}
	return &blocktl.Error{
		Code:      blocktl.CodeAPIError,
		Message:   message,
		Provider:  provider,
		Retryable: status == http.StatusTooManyRequests || status >= 500,
		Cause:     cause,
	}
}

func connectionError(provider string, cause error) *blocktl.Error {
	return &blocktl.Error{
		Code:      blocktl.CodeAPIConnectionFailed,
		Message:   "failed to connect to " + provider + " API",
		Provider:  provider,
		Retryable: true,
		Cause:     cause,
	}
}

func invalidResponse(provider string) *blocktl.Error {
	return &blocktl.Error{
		Code:     blocktl.CodeInvalidResponse,
		Message:  "invalid response from " + provider + " API",
		Provider: provider,
	}
}

// finish trims provider output and rejects blank translations.
func finish(provider, content string) (string, error) {
	out := strings.TrimSpace(content)
	if out == "" {
		return "", &blocktl.Error{Code: blocktl.CodeEmptyTranslation, Provider: provider}
	}
	return out, nil
}

func maxTokens(req blocktl.Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return blocktl.DefaultMaxTokens
}
