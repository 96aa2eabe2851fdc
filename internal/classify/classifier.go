package classify

import (
	"strings"

	"github.com/zombor/receipt-extractor/internal/extraction"
)

// modelBodyRunes is how much of the body the model sees.
const modelBodyRunes = 500

var receiptKeywords = []string{"receipt", "order", "invoice", "purchase", "payment", "confirmation"}

// Signal holds the evidence gathered for one message.
type Signal struct {
	FromVendorMatch    bool  `json:"from_vendor_match"`
	SubjectVendorMatch bool  `json:"subject_vendor_match"`
	HasReceiptKeyword  bool  `json:"has_receipt_keyword"`
	BayesLabel         Label `json:"bayes_label"`
}

// IsReceipt combines the signals. The model can only confirm a message that
// already has at least one lexical signal.
func (s Signal) IsReceipt() bool {
	lexical := s.FromVendorMatch || s.SubjectVendorMatch || s.HasReceiptKeyword
	return (s.FromVendorMatch && s.HasReceiptKeyword) ||
		(s.SubjectVendorMatch && s.HasReceiptKeyword) ||
		(s.BayesLabel == LabelReceipt && lexical)
}

// Classifier decides whether an email is a purchase receipt.
type Classifier struct {
	model   *Model
	vendors *extraction.Catalogue
}

// New returns a Classifier backed by model and the default vendor catalogue.
func New(model *Model) *Classifier {
	return NewWithCatalogue(model, extraction.DefaultCatalogue())
}

func NewWithCatalogue(model *Model, vendors *extraction.Catalogue) *Classifier {
	return &Classifier{model: model, vendors: vendors}
}

// Default trains a model on DefaultExamples and wraps it.
func Default() *Classifier {
	return New(Train(DefaultExamples()))
}

// Signals computes every signal for a message.
func (c *Classifier) Signals(from, subject, body string) Signal {
	from = strings.ToLower(from)
	subject = strings.ToLower(subject)
	body = strings.ToLower(truncateRunes(body, modelBodyRunes))

	return Signal{
		FromVendorMatch:    c.vendors.Contains(from),
		SubjectVendorMatch: c.vendors.Contains(subject),
		HasReceiptKeyword:  containsAny(subject, receiptKeywords),
		BayesLabel:         c.model.Classify(subject + " " + body),
	}
}

// Classify reports whether the message looks like a receipt.
func (c *Classifier) Classify(from, subject, body string) bool {
	return c.Signals(from, subject, body).IsReceipt()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
