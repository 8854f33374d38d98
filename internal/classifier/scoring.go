package classifier

import (
	"context"
	"regexp"

	"contact-triage-go/internal/model"
)

// phrase patterns run against normalized text and weigh double
var defaultPatterns = map[model.Category][]*regexp.Regexp{
	model.CategorySales: {
		regexp.MustCompile(`\bcuanto (cuesta|vale|cobran)\b`),
		regexp.MustCompile(`\b(quiero|quisiera|me gustaria) (comprar|adquirir|contratar)\b`),
		regexp.MustCompile(`\bhow much (is|does|do)\b`),
		regexp.MustCompile(`\b(want|would like) to (buy|purchase)\b`),
	},
	model.CategorySupport: {
		regexp.MustCompile(`\bno (funciona|puedo|sirve|carga|abre)\b`),
		regexp.MustCompile(`\btengo un (problema|error)\b`),
		regexp.MustCompile(`\b(does not|doesn t|cannot|can t) (work|log ?in|connect)\b`),
		regexp.MustCompile(`\bneed help\b`),
	},
}

// ScoringClassifier weighs every category and picks the highest score,
// resolving ties in priority order.
type ScoringClassifier struct {
	keywords Keywords
	patterns map[model.Category][]*regexp.Regexp
}

// NewScoringClassifier creates a scoring classifier over keywords and the built-in phrase patterns
func NewScoringClassifier(keywords Keywords) *ScoringClassifier {
	return &ScoringClassifier{
		keywords: keywords.normalized(),
		patterns: defaultPatterns,
	}
}

// Name returns the classifier identifier
func (s *ScoringClassifier) Name() string {
	return "scoring"
}

// Classify categorizes message. It never fails.
func (s *ScoringClassifier) Classify(_ context.Context, message string) (Result, error) {
	normalized := normalize(message)
	text := pad(normalized)

	var (
		best        model.Category
		bestScore   int
		bestMatched []string
		total       int
	)

	for _, category := range model.Categories() {
		matched := matches(text, s.keywords.forCategory(category))
		score := len(matched)
		for _, p := range s.patterns[category] {
			if loc := p.FindString(normalized); loc != "" {
				score += 2
				matched = append(matched, loc)
			}
		}
		total += score
		if score > bestScore {
			best, bestScore, bestMatched = category, score, matched
		}
	}

	if bestScore == 0 {
		return other(), nil
	}

	return Result{
		Category:        best,
		Confidence:      float64(bestScore) / float64(total),
		MatchedKeywords: bestMatched,
	}, nil
}
