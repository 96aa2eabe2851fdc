package receipt

import "time"

// Email is an inbound message handed over by the mail collaborator
type Email struct {
	ID         string    `json:"id"`
	From       string    `json:"from"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	HTMLBody   string    `json:"html_body,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// Type records where a receipt came from
type Type string

const (
	TypeEmail Type = "email"
	TypeOCR   Type = "ocr"
)

// Record is the structured result of processing one receipt
type Record struct {
	ID           string     `json:"id"`
	Vendor       *string    `json:"vendor"`
	Amount       *float64   `json:"amount"`
	Currency     *string    `json:"currency"`
	CurrencyCode string     `json:"currency_code,omitempty"` // ISO 4217
	AmountMinor  int64      `json:"amount_minor,omitempty"`  // Amount in the currency's minor unit
	Display      string     `json:"display,omitempty"`
	Date         *time.Time `json:"date"`
	OrderNumber  *string    `json:"order_number"`
	ReceiptType  Type       `json:"receipt_type"`
	Confidence   float64    `json:"confidence"`
	SourceID     string     `json:"source_id"`
	Error        string     `json:"error,omitempty"`
	Filename     string     `json:"filename,omitempty"` // Uploaded image, OCR receipts only
	ContentType  string     `json:"content_type,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Result is the outcome of processing an email
type Result struct {
	IsReceipt bool    `json:"is_receipt"`
	Data      *Record `json:"data,omitempty"`
}
