package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ZaguanLabs/blocktl"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
)

func TestResponseText(t *testing.T) {
	t.Run("NilResponse", func(t *testing.T) {
		if _, ok := responseText(nil); ok {
			t.Fatal("expected no text for nil response")
		}
	})

	t.Run("NoParts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: &genai.Content{}}},
		}
		if _, ok := responseText(resp); ok {
			t.Fatal("expected no text without parts")
		}
	})

	t.Run("MultiPartText", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("Hel"), genai.Text("lo")}}},
			},
		}
		text, ok := responseText(resp)
		if !ok || text != "Hello" {
			t.Fatalf("expected joined text, got %q", text)
		}
	})

	t.Run("BlankText", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text("")}}},
			},
		}
		text, ok := responseText(resp)
		if !ok || text != "" {
			t.Fatalf("expected present but empty text, got %q %v", text, ok)
		}
		if _, err := finish(Gemini, text); blocktl.CodeOf(err) != blocktl.CodeEmptyTranslation {
			t.Errorf("expected empty_translation, got %v", err)
		}
	})
}

func TestClassifyGeminiError(t *testing.T) {
	err := classifyGeminiError(fmt.Errorf("generate: %w", &googleapi.Error{Code: 429, Message: "quota"}))
	var e *blocktl.Error
	if !errors.As(err, &e) || e.Code != blocktl.CodeAPIError || !e.Retryable || e.Message != "quota" {
		t.Errorf("unexpected classification %+v", err)
	}

	err = classifyGeminiError(&googleapi.Error{Code: 403, Message: "denied"})
	if !errors.As(err, &e) || e.Retryable {
		t.Errorf("403 should not be retryable: %+v", err)
	}

	err = classifyGeminiError(errors.New("dial tcp: connection refused"))
	if blocktl.CodeOf(err) != blocktl.CodeAPIConnectionFailed {
		t.Errorf("expected api_connection_failed, got %v", err)
	}
}

func TestGeminiProvider_Identity(t *testing.T) {
	p := NewGeminiProvider(GeminiConfig{})
	if p.ID() != "gemini" || p.model != "gemini-1.5-flash" || p.timeout != DefaultTimeout {
		t.Errorf("unexpected defaults %+v", p)
	}
}
