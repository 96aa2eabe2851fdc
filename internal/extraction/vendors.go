package extraction

import (
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cloudflare/ahocorasick"
)

// knownVendors is the vendor catalogue in match priority order. Names are the
// canonical display form; matching is done on the lower-cased name.
var knownVendors = []string{
	// Global
	"Amazon", "Apple", "Google", "Microsoft", "Netflix", "Spotify", "Uber", "Lyft",
	"Airbnb", "Walmart", "Target", "Best Buy", "eBay", "Etsy", "PayPal", "Starbucks",
	"DoorDash", "Grubhub", "Instacart", "Costco", "Booking.com", "Expedia", "Steam",
	"Adobe", "Dropbox", "Shopify", "IKEA", "Nike", "Zara", "H&M",

	// India: marketplaces
	"Flipkart", "Myntra", "Snapdeal", "Meesho", "Ajio", "Nykaa", "Tata CLiQ", "JioMart",

	// India: food and grocery delivery
	"Swiggy", "Zomato", "Zepto", "Blinkit", "BigBasket", "Dunzo", "Domino's",

	// India: travel
	"MakeMyTrip", "Goibibo", "Cleartrip", "IRCTC", "IndiGo", "Yatra", "redBus", "Rapido",

	// India: payments and wallets
	"Paytm", "PhonePe", "Google Pay", "Razorpay", "MobiKwik", "BharatPe",

	// India: retail chains
	"Reliance Digital", "Croma", "DMart", "Big Bazaar", "Lifestyle", "Shoppers Stop",
	"Decathlon", "Pantaloons", "Vijay Sales", "Lenskart",
}

// consumerMailProviders are sender domains that never identify a vendor.
var consumerMailProviders = map[string]bool{
	"gmail":      true,
	"yahoo":      true,
	"outlook":    true,
	"hotmail":    true,
	"aol":        true,
	"protonmail": true,
}

// Catalogue matches text against the known vendor list in a single pass.
type Catalogue struct {
	names    []string
	keywords []string
	matcher  *ahocorasick.Matcher
}

// NewCatalogue builds a matcher over the given vendor names. Order matters:
// when several vendors occur in the same text the earliest in names wins.
func NewCatalogue(names []string) *Catalogue {
	keywords := make([]string, len(names))
	for i, n := range names {
		keywords[i] = strings.ToLower(n)
	}
	return &Catalogue{
		names:    names,
		keywords: keywords,
		matcher:  ahocorasick.NewStringMatcher(keywords),
	}
}

var defaultCatalogue = NewCatalogue(knownVendors)

// DefaultCatalogue returns the built-in global and India vendor catalogue.
func DefaultCatalogue() *Catalogue {
	return defaultCatalogue
}

// Find returns the canonical name of the first catalogue vendor contained in
// text (case-insensitive), or "" when none is. A vendor only counts as a whole
// word: "apple" does not match inside "pineapple".
func (c *Catalogue) Find(text string) string {
	if c == nil || text == "" {
		return ""
	}
	lower := strings.ToLower(text)
	hits := c.matcher.MatchThreadSafe([]byte(lower))
	slices.Sort(hits)
	for _, idx := range hits {
		if containsWord(lower, c.keywords[idx]) {
			return c.names[idx]
		}
	}
	return ""
}

// containsWord reports whether word occurs in s with no letter or digit
// directly before or after it.
func containsWord(s, word string) bool {
	for offset := 0; offset < len(s); {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(word)
		if !wordRune(lastRune(s[:start])) && !wordRune(firstRune(s[end:])) {
			return true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		offset = start + size
	}
	return false
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func wordRune(r rune) bool {
	return r != utf8.RuneError && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

// Contains reports whether any catalogue vendor occurs in text.
func (c *Catalogue) Contains(text string) bool {
	return c.Find(text) != ""
}

// Names returns the catalogue entries in priority order.
func (c *Catalogue) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}
