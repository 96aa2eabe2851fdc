package extraction

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("ExtractDate", func() {
	var (
		text   string
		result *time.Time
	)

	JustBeforeEach(func() {
		result = ExtractDate(text)
	})

	When("an Indian receipt carries an ambiguous numeric date", func() {
		BeforeEach(func() {
			text = "Order Date: 03/04/2024\nItems: 2\nTotal Rs. 1200"
		})

		It("reads the date day-first", func() {
			Expect(result).To(HaveValue(Equal(day(2024, time.April, 3))))
		})
	})

	When("a US receipt carries the same digits", func() {
		BeforeEach(func() {
			text = "Order Date: 03/04/2024\nTotal: $12.00"
		})

		It("reads the date month-first", func() {
			Expect(result).To(HaveValue(Equal(day(2024, time.March, 4))))
		})
	})

	When("the date is written with a month name", func() {
		BeforeEach(func() {
			text = "Purchased on March 5, 2024 at 10:42"
		})

		It("parses it", func() {
			Expect(result).To(HaveValue(Equal(day(2024, time.March, 5))))
		})
	})

	When("the day precedes the month name", func() {
		BeforeEach(func() {
			text = "Invoice Date: 15 August 2023"
		})

		It("parses it", func() {
			Expect(result).To(HaveValue(Equal(day(2023, time.August, 15))))
		})
	})

	When("the date is ISO formatted", func() {
		BeforeEach(func() {
			text = "Shipped 2024-01-15 via courier"
		})

		It("parses it", func() {
			Expect(result).To(HaveValue(Equal(day(2024, time.January, 15))))
		})
	})

	When("a labelled date follows an unlabelled one", func() {
		BeforeEach(func() {
			text = "Shipped on 01/10/2024. Order Date: 12/25/2023"
		})

		It("prefers the labelled date", func() {
			Expect(result).To(HaveValue(Equal(day(2023, time.December, 25))))
		})
	})

	When("the label is present but its window has no date", func() {
		BeforeEach(func() {
			text = "Order date will be confirmed shortly. Thank you for your patience, we will write again soon. Shipped 2024-02-29."
		})

		It("falls back to the whole text", func() {
			Expect(result).To(HaveValue(Equal(day(2024, time.February, 29))))
		})
	})

	When("the numeric date is out of range", func() {
		BeforeEach(func() {
			text = "Paid 13/13/2024"
		})

		It("returns nil", func() {
			Expect(result).To(BeNil())
		})
	})

	When("the calendar has no such day", func() {
		BeforeEach(func() {
			text = "Order Date: 02/31/2024"
		})

		It("returns nil", func() {
			Expect(result).To(BeNil())
		})
	})

	When("the year is before 2000", func() {
		BeforeEach(func() {
			text = "Receipt date 01/02/1999"
		})

		It("returns nil", func() {
			Expect(result).To(BeNil())
		})
	})

	When("there is no date", func() {
		BeforeEach(func() {
			text = "Thanks for your order"
		})

		It("returns nil", func() {
			Expect(result).To(BeNil())
		})
	})
})

var _ = Describe("ExtractDateLocale", func() {
	It("reads numeric dates month-first for LocaleUS even on Indian text", func() {
		Expect(ExtractDateLocale("Order Date: 03/04/2024 Total Rs. 1200", LocaleUS)).
			To(HaveValue(Equal(day(2024, time.March, 4))))
	})

	It("reads numeric dates day-first for LocaleIndia", func() {
		Expect(ExtractDateLocale("Bill dated 25-12-2023", LocaleIndia)).
			To(HaveValue(Equal(day(2023, time.December, 25))))
	})

	It("rejects a day-first date under LocaleUS", func() {
		Expect(ExtractDateLocale("Bill dated 25-12-2023", LocaleUS)).To(BeNil())
	})
})

var _ = Describe("DetectLocale", func() {
	DescribeTable("picks the numeric convention",
		func(text string, expected Locale) {
			Expect(DetectLocale(text)).To(Equal(expected))
		},
		Entry("rupee symbol", "Paid ₹499", LocaleIndia),
		Entry("rs literal", "Total Rs.250", LocaleIndia),
		Entry("GST invoice", "GSTIN 29ABCDE1234F1Z5", LocaleIndia),
		Entry("dollars", "Total $12.00", LocaleUS),
		Entry("words containing rs", "Thanks for your orders", LocaleUS),
	)
})

var _ = Describe("ParseLocale", func() {
	It("accepts known names", func() {
		l, ok := ParseLocale("India")
		Expect(ok).To(BeTrue())
		Expect(l).To(Equal(LocaleIndia))
	})

	It("rejects unknown names", func() {
		_, ok := ParseLocale("fr")
		Expect(ok).To(BeFalse())
	})
})
