package extraction

import (
	"net/mail"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	subjectFromRe  = regexp.MustCompile(`from\s+([A-Z][A-Za-z0-9\s&]+)`)
	subjectYourRe  = regexp.MustCompile(`(?i)your\s+([A-Z][A-Za-z0-9\s&]+)\s+order`)
	bodyThankYouRe = regexp.MustCompile(`(?i:thank you for (shopping|ordering) (from|with|at)) ([A-Z][A-Za-z0-9\s&]+)`)
)

// vendorRule is one step of the vendor resolution cascade.
type vendorRule struct {
	name    string
	resolve func(from, subject, body string) string
}

// vendorRules are evaluated in order; the first non-empty result wins.
var vendorRules = []vendorRule{
	{"sender-domain", vendorFromSender},
	{"subject-catalogue", func(_, subject, _ string) string { return defaultCatalogue.Find(subject) }},
	{"subject-from", func(_, subject, _ string) string { return firstGroup(subjectFromRe, subject, 1) }},
	{"subject-your-order", func(_, subject, _ string) string { return firstGroup(subjectYourRe, subject, 1) }},
	{"body-thank-you", vendorFromBody},
}

// ExtractVendor resolves the merchant behind a message from its sender,
// subject and body. It returns nil when no rule produces a name.
func ExtractVendor(from, subject, body string) *string {
	for _, rule := range vendorRules {
		if v := strings.TrimSpace(rule.resolve(from, subject, body)); v != "" {
			return &v
		}
	}
	return nil
}

// vendorFromSender title-cases the first label of the sender's domain unless
// it belongs to a consumer mail provider.
func vendorFromSender(from, _, _ string) string {
	domain := senderDomain(from)
	if domain == "" {
		return ""
	}
	label, _, _ := strings.Cut(domain, ".")
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" || consumerMailProviders[label] {
		return ""
	}
	// Casers carry state and must not be shared across goroutines.
	return cases.Title(language.English).String(label)
}

// senderDomain returns the domain part of an address that may be given in
// display form ("Shop <orders@shop.com>") or bare.
func senderDomain(from string) string {
	addr := strings.TrimSpace(from)
	if parsed, err := mail.ParseAddress(addr); err == nil {
		addr = parsed.Address
	}
	at := strings.LastIndex(addr, "@")
	if at == -1 || at == len(addr)-1 {
		return ""
	}
	return strings.Trim(addr[at+1:], "<> ")
}

// vendorFromBody looks for a "thank you for shopping with X" greeting in the
// first five lines of the body.
func vendorFromBody(_, _, body string) string {
	lines := strings.SplitN(body, "\n", 6)
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		if v := firstGroup(bodyThankYouRe, line, 3); v != "" {
			return v
		}
	}
	return ""
}

func firstGroup(re *regexp.Regexp, s string, group int) string {
	m := re.FindStringSubmatch(s)
	if len(m) <= group {
		return ""
	}
	return strings.TrimSpace(m[group])
}
