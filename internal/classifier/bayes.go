package classifier

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/jbrukh/bayesian"

	"contact-triage-go/internal/model"
)

// Sample is a labelled training message
type Sample struct {
	Category model.Category
	Text     string
}

// BayesClassifier is a multinomial Naive Bayes model over normalized words.
// It is trained once at construction and read-only afterwards.
type BayesClassifier struct {
	mu       sync.Mutex
	nb       *bayesian.Classifier
	classes  []model.Category
	vocab    map[string]struct{}
	keywords Keywords
}

// NewBayesClassifier trains a classifier from samples. Each category's
// keyword table is learned as one extra document of that category.
func NewBayesClassifier(samples []Sample, keywords Keywords) (*BayesClassifier, error) {
	keywords = keywords.normalized()
	classes := model.Categories()

	labels := make([]bayesian.Class, len(classes))
	for i, c := range classes {
		labels[i] = bayesian.Class(c)
	}

	b := &BayesClassifier{
		nb:       bayesian.NewClassifier(labels...),
		classes:  classes,
		vocab:    make(map[string]struct{}),
		keywords: keywords,
	}

	trained := make(map[model.Category]int, len(classes))
	for _, s := range samples {
		if !s.Category.Valid() {
			return nil, fmt.Errorf("training sample has invalid category %q", s.Category)
		}
		if b.learn(s.Category, strings.Fields(normalize(s.Text))) {
			trained[s.Category]++
		}
	}
	for _, c := range classes {
		var words []string
		for _, kw := range keywords.forCategory(c) {
			words = append(words, strings.Fields(kw)...)
		}
		if b.learn(c, words) {
			trained[c]++
		}
	}

	for _, c := range classes {
		if trained[c] == 0 {
			return nil, fmt.Errorf("no training data for category %s", c)
		}
	}
	return b, nil
}

func (b *BayesClassifier) learn(c model.Category, words []string) bool {
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		b.vocab[w] = struct{}{}
	}
	b.nb.Learn(words, bayesian.Class(c))
	return true
}

// Name returns the classifier identifier
func (b *BayesClassifier) Name() string {
	return "bayes"
}

// Classify picks the category with the highest posterior. Messages without
// a single word seen in training are other with zero confidence.
func (b *BayesClassifier) Classify(_ context.Context, message string) (Result, error) {
	text := normalize(message)

	var known []string
	for _, w := range strings.Fields(text) {
		if _, ok := b.vocab[w]; ok {
			known = append(known, w)
		}
	}
	if len(known) == 0 {
		return other(), nil
	}

	b.mu.Lock()
	scores, idx, _ := b.nb.LogScores(known)
	b.mu.Unlock()

	category := b.classes[idx]
	matched := matches(pad(text), b.keywords.forCategory(category))
	if matched == nil {
		matched = []string{}
	}
	return Result{
		Category:        category,
		Confidence:      posterior(scores, idx),
		MatchedKeywords: matched,
	}, nil
}

// posterior converts log scores into the normalized probability of scores[idx]
func posterior(scores []float64, idx int) float64 {
	top := scores[idx]
	var sum float64
	for _, s := range scores {
		sum += math.Exp(s - top)
	}
	return math.Round(1/sum*10000) / 10000
}

// DefaultTrainingSet returns the built-in Spanish and English seed messages
func DefaultTrainingSet() []Sample {
	return []Sample{
		{model.CategorySales, "Quisiera una cotización para 50 licencias de su producto"},
		{model.CategorySales, "Cuánto cuesta el plan anual y tienen descuento por volumen"},
		{model.CategorySales, "Me interesa comprar el servicio para mi empresa"},
		{model.CategorySales, "Necesito un presupuesto para contratar sus servicios"},
		{model.CategorySales, "What is the price of the enterprise subscription"},
		{model.CategorySales, "We would like to purchase licenses for our team"},
		{model.CategorySales, "Can you send me a quote for 20 seats"},
		{model.CategorySales, "Do you offer discounts when buying in bulk"},

		{model.CategorySupport, "Tengo un problema al iniciar sesión en la aplicación"},
		{model.CategorySupport, "La página no funciona y muestra un error"},
		{model.CategorySupport, "Necesito ayuda técnica, el sistema se cae constantemente"},
		{model.CategorySupport, "No puedo restablecer mi contraseña"},
		{model.CategorySupport, "The app crashes every time I upload a file"},
		{model.CategorySupport, "I need help, my account is locked and login fails"},
		{model.CategorySupport, "There is a bug in the dashboard and reports are broken"},
		{model.CategorySupport, "Our integration stopped working after the update"},

		{model.CategoryOther, "Hola, solo quería felicitar al equipo por su trabajo"},
		{model.CategoryOther, "Me gustaría colaborar con ustedes en un evento"},
		{model.CategoryOther, "Gracias por la atención de ayer, saludos"},
		{model.CategoryOther, "Quisiera enviar mi currículum para trabajar con ustedes"},
		{model.CategoryOther, "Hello, I loved your article on the blog"},
		{model.CategoryOther, "Are you hiring developers this year"},
		{model.CategoryOther, "Thanks for the great webinar last week"},
		{model.CategoryOther, "I am a journalist writing a story about your company"},
	}
}
