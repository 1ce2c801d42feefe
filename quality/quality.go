// Package quality scores a translation by translating it back into the
// source language and comparing the result with the original.
//
// The score is advisory. It starts at 50 and is adjusted by a length-ratio
// guard, the similarity of the back-translation to the original and a
// structure check, then clamped to [0, 100].
package quality

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ZaguanLabs/blocktl"
	"github.com/ZaguanLabs/blocktl/blocks"
	"github.com/ZaguanLabs/blocktl/pipeline"
	"github.com/ZaguanLabs/blocktl/processor"
	"github.com/agnivade/levenshtein"
)

const (
	baseScore = 50.0

	severeLengthPenalty = 20.0
	mildLengthPenalty   = 10.0

	similarityWeight = 40.0

	structureBonus   = 10.0
	structurePenalty = 15.0
)

// Inputs holds everything Score looks at. Block lists are optional; when
// either is nil the structure check is skipped.
type Inputs struct {
	Original         string
	Translated       string
	BackTranslated   string // Empty when back-translation failed
	OriginalBlocks   []blocks.Block
	TranslatedBlocks []blocks.Block
}

// Score computes the quality score. Text lengths are counted in runes.
func Score(in Inputs) float64 {
	score := baseScore

	score -= lengthPenalty(in.Original, in.Translated)

	if in.BackTranslated != "" {
		score += (Similarity(in.Original, in.BackTranslated) - 0.5) * similarityWeight
	}

	if preserved, ok := StructurePreserved(in.OriginalBlocks, in.TranslatedBlocks); ok {
		if preserved {
			score += structureBonus
		} else {
			score -= structurePenalty
		}
	}

	return clamp(score, 0, 100)
}

// lengthPenalty compares the translated length to the original. An empty
// original has no meaningful ratio and is not penalized.
func lengthPenalty(original, translated string) float64 {
	n := utf8.RuneCountInString(original)
	if n == 0 {
		return 0
	}
	ratio := float64(utf8.RuneCountInString(translated)) / float64(n)
	switch {
	case ratio < 0.3 || ratio > 3.0:
		return severeLengthPenalty
	case ratio < 0.5 || ratio > 2.0:
		return mildLengthPenalty
	}
	return 0
}

// Similarity returns 1 - lev(a, b) / max(len(a), len(b)) on trimmed,
// lowercased text, in [0, 1]. It is 0 when either side is empty.
func Similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	sim := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
	return clamp(sim, 0, 1)
}

// StructurePreserved compares the top-level block count and name sequence.
// ok is false when either list is unavailable.
func StructurePreserved(original, translated []blocks.Block) (preserved, ok bool) {
	if original == nil || translated == nil {
		return false, false
	}
	if len(original) != len(translated) {
		return false, true
	}
	for i := range original {
		if blocks.NormalizeName(original[i].Name) != blocks.NormalizeName(translated[i].Name) {
			return false, true
		}
	}
	return true, true
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

// Evaluator runs back-translations and scores them.
type Evaluator struct {
	tr     *blocktl.Translator
	bt     *pipeline.BlockTranslator
	logger *slog.Logger
}

// NewEvaluator creates an Evaluator. Document back-translation goes through
// bt, text back-translation through tr; neither charges quota.
func NewEvaluator(tr *blocktl.Translator, bt *pipeline.BlockTranslator) *Evaluator {
	return &Evaluator{tr: tr, bt: bt, logger: tr.Logger()}
}

// Evaluate back-translates a document translation into the source language
// and scores it. A back-translation failure is recorded in the result and
// the score is computed without the similarity term.
func (e *Evaluator) Evaluate(ctx context.Context, res *blocktl.DocumentTranslationResult, provider string) blocktl.Evaluation {
	in := Inputs{
		Original:         processor.PlainText(res.OriginalContent),
		Translated:       processor.PlainText(res.TranslatedContent),
		TranslatedBlocks: res.Blocks,
	}
	if original, err := blocks.Parse(res.OriginalContent); err == nil {
		in.OriginalBlocks = original
	}

	var ev blocktl.Evaluation
	back, err := e.bt.RetranslateContent(ctx, res.TranslatedContent, e.tr.SourceLang(), provider)
	if err != nil {
		e.logger.Warn("back-translation failed", "provider", provider, "code", blocktl.CodeOf(err), "error", err)
		ev.BackTranslationError = err.Error()
	} else {
		ev.BackTranslation = back.TranslatedContent
		in.BackTranslated = processor.PlainText(back.TranslatedContent)
	}

	ev.QualityScore = Score(in)
	return ev
}

// EvaluateText back-translates a single translated text and scores it.
func (e *Evaluator) EvaluateText(ctx context.Context, original, translated, provider string) blocktl.Evaluation {
	in := Inputs{Original: original, Translated: translated}

	var ev blocktl.Evaluation
	back, err := e.tr.BackTranslate(ctx, translated, "", provider)
	if err != nil {
		e.logger.Warn("back-translation failed", "provider", provider, "code", blocktl.CodeOf(err), "error", err)
		ev.BackTranslationError = err.Error()
	} else {
		ev.BackTranslation = back.BackTranslatedText
		in.BackTranslated = back.BackTranslatedText
	}

	ev.QualityScore = Score(in)
	return ev
}
