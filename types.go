package blocktl

import (
	"time"

	"github.com/ZaguanLabs/blocktl/blocks"
)

// ComparisonStatus is the lifecycle state of a Comparison.
type ComparisonStatus string

const (
	// StatusPending means no provider has been selected yet.
	StatusPending ComparisonStatus = "pending"
	// StatusSelected means a provider result was committed as pending approval.
	StatusSelected ComparisonStatus = "selected"
)

// TranslationUnit is the result of one translate call.
type TranslationUnit struct {
	OriginalText   string    `json:"original_text"`
	TranslatedText string    `json:"translated_text"`
	TargetLanguage string    `json:"target_language"`
	Provider       string    `json:"provider"`
	Timestamp      time.Time `json:"timestamp"`
}

// BackTranslationResult is the result of translating text back into the
// source language.
type BackTranslationResult struct {
	TranslatedText     string    `json:"translated_text"`
	BackTranslatedText string    `json:"back_translated_text"`
	SourceLanguage     string    `json:"source_language"`
	Provider           string    `json:"provider"`
	Timestamp          time.Time `json:"timestamp"`
}

// ChangeLogEntry records one replacement made while walking a block tree.
// Attribute is set for attribute values, including attributes of elements
// inside a block's HTML.
type ChangeLogEntry struct {
	Original   string `json:"original"`
	Translated string `json:"translated"`
	BlockType  string `json:"block_type,omitempty"`
	Attribute  string `json:"attribute,omitempty"`
}

// BlockTranslation is the result of translating a single block.
type BlockTranslation struct {
	Block     blocks.Block     `json:"block"`
	ChangeLog []ChangeLogEntry `json:"change_log"`
}

// DocumentTranslationResult is the result of translating a whole document.
type DocumentTranslationResult struct {
	DocumentID        string           `json:"document_id,omitempty"`
	OriginalContent   string           `json:"original_content"`
	TranslatedContent string           `json:"translated_content"`
	TranslatedTitle   string           `json:"translated_title,omitempty"`
	Blocks            []blocks.Block   `json:"blocks"`
	ChangeLog         []ChangeLogEntry `json:"change_log"`
	TargetLanguage    string           `json:"target_language"`
	Provider          string           `json:"provider"`
}

// Evaluation is the outcome of the back-translation quality check.
type Evaluation struct {
	BackTranslation      string  `json:"back_translation,omitempty"`
	BackTranslationError string  `json:"back_translation_error,omitempty"`
	QualityScore         float64 `json:"quality_score"`
}

// ProviderResult is one side of a Comparison. Error is set when the
// provider's run failed, in which case the other fields are empty.
type ProviderResult struct {
	ProviderName         string                     `json:"provider_name,omitempty"`
	Translation          *DocumentTranslationResult `json:"translation,omitempty"`
	BackTranslation      string                     `json:"back_translation,omitempty"`
	BackTranslationError string                     `json:"back_translation_error,omitempty"`
	QualityScore         *float64                   `json:"quality_score,omitempty"`
	Error                string                     `json:"error,omitempty"`
	ErrorCode            Code                       `json:"error_code,omitempty"`
	Timestamp            time.Time                  `json:"timestamp"`
}

// Failed reports whether the provider's run failed.
func (r *ProviderResult) Failed() bool {
	return r.Error != ""
}

// Comparison is an A/B run of two providers over the same document.
type Comparison struct {
	ID               string                    `json:"id"`
	DocumentID       string                    `json:"document_id"`
	TargetLanguage   string                    `json:"target_language"`
	Providers        []string                  `json:"providers"`
	Results          map[string]ProviderResult `json:"results"`
	Status           ComparisonStatus          `json:"status"`
	SelectedProvider string                    `json:"selected_provider,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
}

// PendingApproval is the translation awaiting a human decision for a
// document. There is at most one per document.
type PendingApproval struct {
	DocumentID        string                     `json:"document_id"`
	TranslationResult *DocumentTranslationResult `json:"translation_result"`
	BackTranslation   string                     `json:"back_translation,omitempty"`
	Provider          string                     `json:"provider,omitempty"`
	QualityScore      *float64                   `json:"quality_score,omitempty"`
	ComparisonID      string                     `json:"comparison_id,omitempty"`
	SourceHash        string                     `json:"source_hash,omitempty"`
	Timestamp         time.Time                  `json:"timestamp"`
}

// Document is a stored document as seen by the translation core.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Usage holds the current counter values.
type Usage struct {
	Daily   int64 `json:"daily"`
	Monthly int64 `json:"monthly"`
}

// Limits caps translations per day and per month. A value <= 0 disables the
// corresponding cap.
type Limits struct {
	Daily   int64 `json:"daily" yaml:"daily"`
	Monthly int64 `json:"monthly" yaml:"monthly"`
}

// DefaultLimits returns the stock daily and monthly caps.
func DefaultLimits() Limits {
	return Limits{Daily: 100, Monthly: 3000}
}

// UsageStats reports usage against limits.
type UsageStats struct {
	DailyUsage   int64 `json:"daily_usage"`
	DailyLimit   int64 `json:"daily_limit"`
	MonthlyUsage int64 `json:"monthly_usage"`
	MonthlyLimit int64 `json:"monthly_limit"`
}
