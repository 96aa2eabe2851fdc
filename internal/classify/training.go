package classify

var receiptPhrases = []string{
	"your order has shipped",
	"receipt for your purchase",
	"payment confirmation",
	"thank you for your order",
	"order confirmation and invoice",
	"your payment was successful",
	"invoice for your recent purchase",
	"your order has been delivered",
	"transaction receipt amount paid",
	"order total including tax",
	"your booking is confirmed payment received",
	"thank you for shopping with us your receipt",
	"payment received for order",
	"your invoice is attached total due paid",
	"purchase summary grand total",
	"your ride receipt fare paid",
	"food order delivered bill total",
	"subscription renewal payment charged to your card",
}

var otherPhrases = []string{
	"meeting invitation",
	"password reset",
	"limited time offer",
	"team meeting invitation lets sync",
	"reset your password link expires",
	"limited time offer exclusive discount sale",
	"weekly newsletter top stories",
	"you have a new follower",
	"verify your email address",
	"join us for the webinar",
	"happy birthday from the team",
	"security alert new sign in",
	"your weekly activity summary",
	"invitation to collaborate on document",
	"lunch plans for friday",
	"project status update notes",
	"win a free prize click now",
	"please review the attached draft",
}

// DefaultExamples returns the fixed training corpus for the receipt model.
func DefaultExamples() []Example {
	examples := make([]Example, 0, len(receiptPhrases)+len(otherPhrases))
	for _, p := range receiptPhrases {
		examples = append(examples, Example{Text: p, Label: LabelReceipt})
	}
	for _, p := range otherPhrases {
		examples = append(examples, Example{Text: p, Label: LabelNonReceipt})
	}
	return examples
}
