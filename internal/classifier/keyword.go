package classifier

import (
	"context"
	"math"

	"contact-triage-go/internal/model"
)

const defaultSaturation = 3

// KeywordClassifier picks the first category, in priority order, with at
// least one keyword hit.
type KeywordClassifier struct {
	keywords   Keywords
	saturation int
}

// NewKeywordClassifier creates a keyword classifier. Confidence reaches 1.0
// once saturation keywords of the winning category match.
func NewKeywordClassifier(keywords Keywords, saturation int) *KeywordClassifier {
	if saturation <= 0 {
		saturation = defaultSaturation
	}
	return &KeywordClassifier{
		keywords:   keywords.normalized(),
		saturation: saturation,
	}
}

// Name returns the classifier identifier
func (k *KeywordClassifier) Name() string {
	return "keyword"
}

// Classify categorizes message. It never fails.
func (k *KeywordClassifier) Classify(_ context.Context, message string) (Result, error) {
	text := pad(normalize(message))

	for _, category := range model.Categories() {
		matched := matches(text, k.keywords.forCategory(category))
		if len(matched) == 0 {
			continue
		}
		return Result{
			Category:        category,
			Confidence:      math.Min(float64(len(matched))/float64(k.saturation), 1.0),
			MatchedKeywords: matched,
		}, nil
	}

	return other(), nil
}

func matches(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if matchAt(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
