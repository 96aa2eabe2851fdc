package receipt

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-extractor/internal/classify"
	"github.com/zombor/receipt-extractor/internal/extraction"
)

type stubClassifier struct {
	isReceipt bool
	panicWith any
}

func (s stubClassifier) Classify(from, subject, body string) bool {
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	return s.isReceipt
}

func ptr[T any](v T) *T {
	return &v
}

var _ = Describe("Processor", func() {
	var (
		processor *Processor
		email     Email
		result    Result
	)

	BeforeEach(func() {
		processor = NewProcessor(classify.Default())
	})

	JustBeforeEach(func() {
		result = processor.Process(email)
	})

	When("an Amazon confirmation arrives", func() {
		BeforeEach(func() {
			email = Email{
				ID:      "msg-1",
				From:    "orders@amazon.com",
				Subject: "Your Amazon order confirmation: Receipt #AB123",
				Body:    "Total: $45.67",
			}
		})

		It("is a receipt", func() {
			Expect(result.IsReceipt).To(BeTrue())
			Expect(result.Data).NotTo(BeNil())
		})

		It("extracts every field it can find", func() {
			Expect(result.Data.Vendor).To(HaveValue(Equal("Amazon")))
			Expect(result.Data.Amount).To(HaveValue(BeNumerically("~", 45.67, 0.001)))
			Expect(result.Data.Currency).To(HaveValue(Equal("$")))
			Expect(result.Data.OrderNumber).To(HaveValue(Equal("AB123")))
			Expect(result.Data.Date).To(BeNil())
		})

		It("scores vendor and amount", func() {
			Expect(result.Data.Confidence).To(BeNumerically("~", 0.8, 1e-9))
		})

		It("tags the record as an email receipt", func() {
			Expect(result.Data.ReceiptType).To(Equal(TypeEmail))
			Expect(result.Data.SourceID).To(Equal("msg-1"))
			Expect(result.Data.Error).To(BeEmpty())
		})

		It("converts the amount to minor units", func() {
			Expect(result.Data.CurrencyCode).To(Equal("USD"))
			Expect(result.Data.AmountMinor).To(Equal(int64(4567)))
			Expect(result.Data.Display).To(Equal("$45.67"))
		})
	})

	When("the email is a meeting invite", func() {
		BeforeEach(func() {
			email = Email{ID: "msg-2", From: "alice@example.com", Subject: "Team meeting invitation", Body: "Let's sync at 3pm"}
		})

		It("is not a receipt and carries no data", func() {
			Expect(result).To(Equal(Result{IsReceipt: false}))
		})
	})

	When("the classifier accepts an empty email", func() {
		BeforeEach(func() {
			processor = NewProcessor(stubClassifier{isReceipt: true})
			email = Email{}
		})

		It("returns an empty record with zero confidence", func() {
			Expect(result.IsReceipt).To(BeTrue())
			Expect(result.Data.Vendor).To(BeNil())
			Expect(result.Data.Amount).To(BeNil())
			Expect(result.Data.Currency).To(BeNil())
			Expect(result.Data.Date).To(BeNil())
			Expect(result.Data.OrderNumber).To(BeNil())
			Expect(result.Data.Confidence).To(BeZero())
			Expect(result.Data.CurrencyCode).To(BeEmpty())
		})
	})

	When("an extractor panics", func() {
		BeforeEach(func() {
			extractors := DefaultExtractors(extraction.LocaleAuto)
			extractors.Amount = func(string, string) extraction.Amount {
				panic("amount parser exploded")
			}
			processor = NewProcessor(stubClassifier{isReceipt: true}, WithExtractors(extractors))
			email = Email{ID: "msg-3", From: "orders@amazon.com", Subject: "Your order", Body: "Total: $1.00"}
		})

		It("returns an error record instead of panicking", func() {
			Expect(result.IsReceipt).To(BeTrue())
			Expect(result.Data.Error).To(ContainSubstring("amount parser exploded"))
			Expect(result.Data.Confidence).To(BeZero())
			Expect(result.Data.Vendor).To(BeNil())
			Expect(result.Data.SourceID).To(Equal("msg-3"))
		})
	})

	When("the classifier panics", func() {
		BeforeEach(func() {
			processor = NewProcessor(stubClassifier{panicWith: "bad model"})
			email = Email{Subject: "Your order"}
		})

		It("treats the email as not a receipt", func() {
			Expect(result.IsReceipt).To(BeFalse())
		})
	})

	When("the date locale is pinned", func() {
		BeforeEach(func() {
			processor = NewProcessor(stubClassifier{isReceipt: true}, WithDateLocale(extraction.LocaleIndia))
			email = Email{Subject: "Your order", Body: "Order Date: 03/04/2024 Total: $10.00"}
		})

		It("reads numeric dates in that locale", func() {
			Expect(result.Data.Date).To(HaveValue(Equal(time.Date(2024, time.April, 3, 0, 0, 0, 0, time.UTC))))
		})
	})

	DescribeTable("confidence",
		func(vendor *string, amount *float64, date *time.Time, expected float64) {
			p := NewProcessor(stubClassifier{isReceipt: true}, WithExtractors(Extractors{
				Vendor:      func(string, string, string) *string { return vendor },
				Amount:      func(string, string) extraction.Amount { return extraction.Amount{Value: amount} },
				Date:        func(string) *time.Time { return date },
				OrderNumber: func(string) *string { return nil },
			}))
			Expect(p.Process(Email{}).Data.Confidence).To(BeNumerically("~", expected, 1e-9))
		},
		Entry("nothing", nil, nil, nil, 0.0),
		Entry("vendor only", ptr("Acme"), nil, nil, 0.3),
		Entry("amount only", nil, ptr(12.0), nil, 0.5),
		Entry("date only", nil, nil, ptr(time.Now()), 0.2),
		Entry("amount and date", nil, ptr(12.0), ptr(time.Now()), 0.7),
		Entry("everything", ptr("Acme"), ptr(12.0), ptr(time.Now()), 1.0),
	)
})

var _ = Describe("Processor.ProcessText", func() {
	var record *Record

	BeforeEach(func() {
		processor := NewProcessor(stubClassifier{isReceipt: false})
		record = processor.ProcessText("upload-1", "CROMA\nOrder No. OD-7781\nInvoice Date: 15/08/2023\nGrand Total Rs. 1,299.00")
	})

	It("skips classification and tags the record as OCR", func() {
		Expect(record.ReceiptType).To(Equal(TypeOCR))
		Expect(record.SourceID).To(Equal("upload-1"))
	})

	It("finds the vendor in the catalogue", func() {
		Expect(record.Vendor).To(HaveValue(Equal("Croma")))
	})

	It("extracts the rupee total and the day-first date", func() {
		Expect(record.Amount).To(HaveValue(BeNumerically("~", 1299, 0.001)))
		Expect(record.Currency).To(HaveValue(Equal(extraction.Rupee)))
		Expect(record.CurrencyCode).To(Equal("INR"))
		Expect(record.AmountMinor).To(Equal(int64(129900)))
		Expect(record.Date).To(HaveValue(Equal(time.Date(2023, time.August, 15, 0, 0, 0, 0, time.UTC))))
	})

	It("extracts the order number", func() {
		Expect(record.OrderNumber).To(HaveValue(Equal("OD-7781")))
	})

	It("scores all three fields", func() {
		Expect(record.Confidence).To(BeNumerically("~", 1.0, 1e-9))
	})
})
