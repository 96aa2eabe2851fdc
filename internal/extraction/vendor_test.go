package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractVendor", func() {
	var (
		from, subject, body string
		result              *string
	)

	BeforeEach(func() {
		from, subject, body = "", "", ""
	})

	JustBeforeEach(func() {
		result = ExtractVendor(from, subject, body)
	})

	When("the sender is a vendor domain", func() {
		BeforeEach(func() {
			from = "orders@amazon.com"
		})

		It("title-cases the first domain label", func() {
			Expect(result).To(HaveValue(Equal("Amazon")))
		})
	})

	When("the sender uses a display name", func() {
		BeforeEach(func() {
			from = "Corner Books <receipts@cornerbooks.co.uk>"
		})

		It("uses the address domain", func() {
			Expect(result).To(HaveValue(Equal("Cornerbooks")))
		})
	})

	When("the sender is a consumer mail provider", func() {
		BeforeEach(func() {
			from = "someone@gmail.com"
			subject = "Your Swiggy order was delivered"
		})

		It("falls through to the catalogue match in the subject", func() {
			Expect(result).To(HaveValue(Equal("Swiggy")))
		})
	})

	When("several catalogue vendors appear in the subject", func() {
		BeforeEach(func() {
			from = "alerts@hotmail.com"
			subject = "Paid via Paytm for your Zomato order"
		})

		It("returns the first in catalogue order", func() {
			Expect(result).To(HaveValue(Equal("Zomato")))
		})
	})

	When("the subject names the vendor after 'from'", func() {
		BeforeEach(func() {
			from = "friend@yahoo.com"
			subject = "Invoice from Acme Tools"
		})

		It("returns the captured name", func() {
			Expect(result).To(HaveValue(Equal("Acme Tools")))
		})
	})

	When("the subject reads 'your X order'", func() {
		BeforeEach(func() {
			from = "x@outlook.com"
			subject = "Receipt for your Blue Bottle order"
		})

		It("returns the captured name", func() {
			Expect(result).To(HaveValue(Equal("Blue Bottle")))
		})
	})

	When("the body thanks the customer near the top", func() {
		BeforeEach(func() {
			from = "x@protonmail.com"
			subject = "Hello"
			body = "Hi there,\nThank you for shopping with Corner Books\nSee you soon"
		})

		It("returns the vendor from the greeting line", func() {
			Expect(result).To(HaveValue(Equal("Corner Books")))
		})
	})

	When("the greeting is below the fifth line", func() {
		BeforeEach(func() {
			from = "x@aol.com"
			subject = "Hello"
			body = "1\n2\n3\n4\n5\nThank you for ordering from Corner Books"
		})

		It("returns nil", func() {
			Expect(result).To(BeNil())
		})
	})

	When("nothing identifies a vendor", func() {
		BeforeEach(func() {
			from = "not-an-address"
			subject = "Hello"
			body = "How are you?"
		})

		It("returns nil", func() {
			Expect(result).To(BeNil())
		})
	})
})

var _ = Describe("Catalogue", func() {
	var catalogue *Catalogue

	BeforeEach(func() {
		catalogue = NewCatalogue([]string{"Big Basket", "Basket"})
	})

	It("matches case-insensitively and returns the canonical form", func() {
		Expect(catalogue.Find("ORDER FROM BIG BASKET")).To(Equal("Big Basket"))
	})

	It("prefers the earlier entry when both match", func() {
		Expect(catalogue.Find("basket and big basket")).To(Equal("Big Basket"))
	})

	It("reports misses", func() {
		Expect(catalogue.Contains("weekly newsletter")).To(BeFalse())
	})

	DescribeTable("whole-word matching against the built-in catalogue",
		func(text, want string) {
			Expect(DefaultCatalogue().Find(text)).To(Equal(want))
		},
		Entry("vendor inside a longer word", "pineapple juice 1L", ""),
		Entry("vendor as a prefix", "targeted offers for you", ""),
		Entry("vendor as a word", "order from apple", "Apple"),
		Entry("vendor in an email address", "orders@amazon.com", "Amazon"),
		Entry("later whole-word hit after an embedded one", "pineapple from apple", "Apple"),
		Entry("vendor with punctuation", "Your Domino's order", "Domino's"),
	)

	It("does not count embedded names as a vendor", func() {
		Expect(DefaultCatalogue().Contains("targeted ads")).To(BeFalse())
	})

	It("exposes the built-in catalogue", func() {
		Expect(DefaultCatalogue().Names()).To(ContainElements("Amazon", "Flipkart", "Swiggy", "MakeMyTrip", "Paytm", "Croma"))
	})
})
