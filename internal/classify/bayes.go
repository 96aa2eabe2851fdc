package classify

import (
	"math"
	"regexp"
	"strings"

	porterstemmer "github.com/blevesearch/go-porterstemmer"
)

// Label is a class the model can assign.
type Label string

const (
	LabelReceipt    Label = "receipt"
	LabelNonReceipt Label = "non-receipt"
)

// Example is one labelled training document.
type Example struct {
	Text  string
	Label Label
}

// Model is a multinomial Naive Bayes text model with add-one smoothing. It is
// built once by Train and never mutated afterwards, so a single Model can be
// shared by any number of goroutines.
type Model struct {
	labels     []Label
	docs       map[Label]int
	totalDocs  int
	tokens     map[Label]map[string]int
	tokenTotal map[Label]int
	vocab      map[string]struct{}
}

// Train builds a Model from examples. Labels are ordered by first appearance.
func Train(examples []Example) *Model {
	m := &Model{
		docs:       make(map[Label]int),
		tokens:     make(map[Label]map[string]int),
		tokenTotal: make(map[Label]int),
		vocab:      make(map[string]struct{}),
	}
	for _, ex := range examples {
		if _, seen := m.docs[ex.Label]; !seen {
			m.labels = append(m.labels, ex.Label)
			m.tokens[ex.Label] = make(map[string]int)
		}
		m.docs[ex.Label]++
		m.totalDocs++
		for _, tok := range Tokenize(ex.Text) {
			m.tokens[ex.Label][tok]++
			m.tokenTotal[ex.Label]++
			m.vocab[tok] = struct{}{}
		}
	}
	return m
}

// LogScores returns the unnormalised log posterior of every label for text.
// Tokens never seen during training carry no evidence and are ignored.
func (m *Model) LogScores(text string) map[Label]float64 {
	if m == nil || m.totalDocs == 0 {
		return map[Label]float64{}
	}
	scores := make(map[Label]float64, len(m.labels))
	toks := Tokenize(text)
	vocabSize := float64(len(m.vocab))
	for _, label := range m.labels {
		score := math.Log(float64(m.docs[label]) / float64(m.totalDocs))
		denom := float64(m.tokenTotal[label]) + vocabSize
		for _, tok := range toks {
			if _, known := m.vocab[tok]; !known {
				continue
			}
			score += math.Log((float64(m.tokens[label][tok]) + 1) / denom)
		}
		scores[label] = score
	}
	return scores
}

// Classify returns the most probable label. Ties go to LabelNonReceipt, as
// does an untrained model.
func (m *Model) Classify(text string) Label {
	if m == nil {
		return LabelNonReceipt
	}
	best := LabelNonReceipt
	bestScore := math.Inf(-1)
	scores := m.LogScores(text)
	for _, label := range m.labels {
		s := scores[label]
		if s > bestScore || (s == bestScore && label == LabelNonReceipt) {
			best, bestScore = label, s
		}
	}
	return best
}

// Labels returns the labels the model was trained on.
func (m *Model) Labels() []Label {
	out := make([]Label, len(m.labels))
	copy(out, m.labels)
	return out
}

var (
	wordRe    = regexp.MustCompile(`[a-z0-9]+`)
	stopWords = map[string]bool{
		"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true,
		"by": true, "for": true, "from": true, "has": true, "in": true, "is": true, "it": true,
		"of": true, "on": true, "or": true, "that": true, "the": true, "this": true, "to": true,
		"was": true, "we": true, "with": true, "you": true,
	}
)

// Tokenize lower-cases text, drops stop words and Porter-stems what is left.
func Tokenize(text string) []string {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	toks := make([]string, 0, len(words))
	for _, w := range words {
		if stopWords[w] {
			continue
		}
		toks = append(toks, porterstemmer.StemString(w))
	}
	return toks
}
