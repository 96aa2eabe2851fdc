package receipt

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/zombor/receipt-extractor/internal/extraction"
)

const (
	vendorWeight = 0.3
	amountWeight = 0.5
	dateWeight   = 0.2
)

// Classifier decides whether an email is a receipt
type Classifier interface {
	Classify(from, subject, body string) bool
}

// Extractors are the field extractors a Processor runs
type Extractors struct {
	Vendor      func(from, subject, body string) *string
	Amount      func(plain, html string) extraction.Amount
	Date        func(text string) *time.Time
	OrderNumber func(text string) *string
}

// DefaultExtractors returns the extraction package's extractors with numeric
// dates read in the given locale.
func DefaultExtractors(locale extraction.Locale) Extractors {
	return Extractors{
		Vendor: extraction.ExtractVendor,
		Amount: extraction.ExtractAmount,
		Date: func(text string) *time.Time {
			return extraction.ExtractDateLocale(text, locale)
		},
		OrderNumber: extraction.ExtractOrderNumber,
	}
}

// Processor turns emails and OCR text into receipt records
type Processor struct {
	classifier Classifier
	extractors Extractors
	catalogue  *extraction.Catalogue
	logger     *slog.Logger
}

// ProcessorOption configures a Processor
type ProcessorOption func(*Processor)

// WithDateLocale fixes how numeric dates are read
func WithDateLocale(locale extraction.Locale) ProcessorOption {
	return func(p *Processor) {
		p.extractors.Date = DefaultExtractors(locale).Date
	}
}

// WithExtractors replaces the field extractors
func WithExtractors(e Extractors) ProcessorOption {
	return func(p *Processor) { p.extractors = e }
}

func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) { p.logger = logger }
}

// NewProcessor creates a Processor around a trained classifier
func NewProcessor(classifier Classifier, opts ...ProcessorOption) *Processor {
	p := &Processor{
		classifier: classifier,
		extractors: DefaultExtractors(extraction.LocaleAuto),
		catalogue:  extraction.DefaultCatalogue(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process classifies email and, when it is a receipt, extracts its fields.
// It never panics: extraction failures come back as a zero-confidence record
// with Error set.
func (p *Processor) Process(email Email) Result {
	if !p.classify(email) {
		return Result{IsReceipt: false}
	}

	record := p.extract(email.ID, TypeEmail, func(r *Record) {
		r.Vendor = p.extractors.Vendor(email.From, email.Subject, email.Body)
		amount := p.extractors.Amount(email.Body, email.HTMLBody)
		r.Amount, r.Currency = amount.Value, amount.Currency
		r.Date = p.extractors.Date(email.Body)
		r.OrderNumber = p.extractors.OrderNumber(email.Subject + "\n" + email.Body)
	})
	return Result{IsReceipt: true, Data: record}
}

// ProcessText extracts a record from OCR text. Uploaded images are receipts
// by declaration, so no classification happens.
func (p *Processor) ProcessText(sourceID, text string) *Record {
	return p.extract(sourceID, TypeOCR, func(r *Record) {
		r.Vendor = p.extractors.Vendor("", "", text)
		if r.Vendor == nil {
			if name := p.catalogue.Find(text); name != "" {
				r.Vendor = &name
			}
		}
		amount := p.extractors.Amount(text, "")
		r.Amount, r.Currency = amount.Value, amount.Currency
		r.Date = p.extractors.Date(text)
		r.OrderNumber = p.extractors.OrderNumber(text)
	})
}

func (p *Processor) classify(email Email) (ok bool) {
	defer func() {
		if v := recover(); v != nil {
			p.logger.Warn("Classifier panicked", "source_id", email.ID, "panic", v)
			ok = false
		}
	}()
	return p.classifier.Classify(email.From, email.Subject, email.Body)
}

func (p *Processor) extract(sourceID string, kind Type, fill func(*Record)) (record *Record) {
	defer func() {
		if v := recover(); v != nil {
			p.logger.Warn("Extraction failed", "source_id", sourceID, "panic", v)
			record = &Record{
				ReceiptType: kind,
				SourceID:    sourceID,
				Error:       fmt.Sprintf("extraction failed: %v", v),
			}
		}
	}()

	r := &Record{ReceiptType: kind, SourceID: sourceID}
	fill(r)
	r.Confidence = confidence(r)
	applyMoney(r)
	return r
}

// confidence weighs which of vendor, amount and date were found
func confidence(r *Record) float64 {
	c := 0.0
	if r.Vendor != nil {
		c += vendorWeight
	}
	if r.Amount != nil {
		c += amountWeight
	}
	if r.Date != nil {
		c += dateWeight
	}
	return math.Min(c, 1.0)
}
