package classifier

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"contact-triage-go/internal/config"
	"contact-triage-go/internal/model"
)

// Result is the outcome of classifying a single message
type Result struct {
	Category        model.Category `json:"category"`
	Confidence      float64        `json:"confidence"`
	MatchedKeywords []string       `json:"matched_keywords"`
}

// Classifier assigns a category to a free-text message
type Classifier interface {
	Name() string
	Classify(ctx context.Context, message string) (Result, error)
}

// New builds the classifier selected by cfg.Type
func New(cfg config.ClassifierConfig) (Classifier, error) {
	keywords := DefaultKeywords()
	if len(cfg.SalesKeywords) > 0 {
		keywords.Sales = cfg.SalesKeywords
	}
	if len(cfg.SupportKeywords) > 0 {
		keywords.Support = cfg.SupportKeywords
	}

	switch cfg.Type {
	case "", "keyword":
		return NewKeywordClassifier(keywords, cfg.Saturation), nil
	case "scoring":
		return NewScoringClassifier(keywords), nil
	case "bayes":
		return NewBayesClassifier(DefaultTrainingSet(), keywords)
	}
	return nil, fmt.Errorf("unknown classifier type %q", cfg.Type)
}

func other() Result {
	return Result{Category: model.CategoryOther, Confidence: 0, MatchedKeywords: []string{}}
}

// normalize lowercases text, strips diacritics and reduces every
// non alphanumeric run to a single space.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	space := true
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimSpace(b.String())
}

// matchAt reports whether keyword starts at a word boundary in the padded text.
func matchAt(padded, keyword string) bool {
	return keyword != "" && strings.Contains(padded, " "+keyword)
}

// MatchWords returns the normalized entries of words that occur in text as
// whole words or phrases. "down" matches "is down!" but not "download".
func MatchWords(text string, words []string) []string {
	padded := pad(normalize(text))
	var matched []string
	for _, w := range normalizeAll(words) {
		if strings.Contains(padded, pad(w)) {
			matched = append(matched, w)
		}
	}
	return matched
}

func pad(text string) string {
	return " " + text + " "
}
