package extraction

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency symbols recognised by the amount extractor.
const (
	Dollar = "$"
	Euro   = "€"
	Pound  = "£"
	Yen    = "¥"
	Rupee  = "₹"
)

const number = `(\d[\d,]*(?:\.\d+)?)`

// noiseFloor is the smallest value accepted as an amount. Anything at or
// below it is treated as a stray number (page counts, quantities).
var noiseFloor = decimal.RequireFromString("0.5")

var (
	symbolAmountRe = regexp.MustCompile(`([$€£¥₹])\s?` + number)
	labeledTotalRe = regexp.MustCompile(`(?i)\b(?:grand total|total|amount|paid)\b\s*:?\s*([$€£¥₹]|\brs\.?|\binr\b)?\s*` + number)
	countUnitRe    = regexp.MustCompile(`(?i)^\s*(?:items?|qty|pcs|units?|nos)\b`)
	indianMarkerRe = regexp.MustCompile(`(?i)₹|\brs\.?\s*\d|\binr\b|\brupees\b`)
)

// Candidate is one monetary value found in a text.
type Candidate struct {
	Raw      string
	Value    decimal.Decimal
	Currency string
}

// Amount is the extractor's answer. Both fields are nil when nothing was found.
type Amount struct {
	Value    *float64
	Currency *string
}

// totalPattern is a locale-aware "total" pattern used when no currency-tagged
// token exists. currencyGroup is the submatch holding an explicit symbol or
// rupee literal (0 when the pattern has none); fallback is used otherwise.
type totalPattern struct {
	re            *regexp.Regexp
	currencyGroup int
	fallback      string
}

var totalPatterns = []totalPattern{
	{regexp.MustCompile(`(?i)total\s*:?\s*([$€£¥₹])?\s*` + number), 1, Dollar},
	{regexp.MustCompile(`(?i)(?:\brs\.?|\binr\b)\s*` + number), 0, Rupee},
	{regexp.MustCompile(`(?i)\brupees\s*` + number), 0, Rupee},
	{regexp.MustCompile(`(?i)(?:total after gst|final amount)\s*:?\s*([$€£¥₹]|\brs\.?|\binr\b)?\s*` + number), 1, Dollar},
}

// ExtractAmount finds the transaction amount and its currency symbol. A
// labelled total ("Total: $12.00") is trusted over free-floating currency
// tokens; otherwise the largest candidate wins. html is only consulted when
// plain carries no text.
func ExtractAmount(plain, html string) Amount {
	text := plain
	if strings.TrimSpace(text) == "" && html != "" {
		text = HTMLToText(html)
	}

	candidates := AmountCandidates(text)

	if labeled, ok := labeledTotal(text, candidates); ok {
		return labeled.amount()
	}

	if len(candidates) == 0 {
		return Amount{}
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.Value.GreaterThan(best.Value) {
			best = c
		}
	}
	return best.amount()
}

// AmountCandidates returns every monetary value in text above the noise
// floor. Currency-tagged tokens are preferred; the locale "total" patterns
// only run when there are none.
func AmountCandidates(text string) []Candidate {
	var candidates []Candidate
	for _, m := range symbolAmountRe.FindAllStringSubmatch(text, -1) {
		if v, ok := parseAmount(m[2]); ok {
			candidates = append(candidates, Candidate{Raw: m[0], Value: v, Currency: m[1]})
		}
	}
	if len(candidates) > 0 {
		return candidates
	}

	for _, p := range totalPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			v, ok := parseAmount(m[len(m)-1])
			if !ok {
				continue
			}
			currency := p.fallback
			if p.currencyGroup > 0 && m[p.currencyGroup] != "" {
				currency = normalizeCurrency(m[p.currencyGroup])
			}
			candidates = append(candidates, Candidate{Raw: m[0], Value: v, Currency: currency})
		}
	}
	return candidates
}

// labeledTotal returns the first "total|amount|grand total|paid" value above
// the noise floor. A labelled count such as "Total: 3 items" is not a total.
func labeledTotal(text string, candidates []Candidate) (Candidate, bool) {
	for _, m := range labeledTotalRe.FindAllStringSubmatchIndex(text, -1) {
		if countUnitRe.MatchString(text[m[1]:]) {
			continue
		}
		v, ok := parseAmount(text[m[4]:m[5]])
		if !ok {
			continue
		}
		var token string
		if m[2] >= 0 {
			token = text[m[2]:m[3]]
		}
		return Candidate{Raw: text[m[0]:m[1]], Value: v, Currency: inferCurrency(token, text, candidates)}, true
	}
	return Candidate{}, false
}

// inferCurrency picks the currency for a value without a reliable symbol:
// the explicit token if any, then the currency of the other candidates, then
// rupees for Indian texts, then dollars.
func inferCurrency(token, text string, candidates []Candidate) string {
	if token != "" {
		return normalizeCurrency(token)
	}
	if len(candidates) > 0 {
		return candidates[0].Currency
	}
	if indianMarkerRe.MatchString(text) {
		return Rupee
	}
	return Dollar
}

func normalizeCurrency(token string) string {
	switch strings.ToLower(strings.TrimSuffix(token, ".")) {
	case "rs", "inr", "rupees":
		return Rupee
	}
	return token
}

func parseAmount(raw string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil || !v.GreaterThan(noiseFloor) {
		return decimal.Decimal{}, false
	}
	return v, true
}

func (c Candidate) amount() Amount {
	v := c.Value.InexactFloat64()
	cur := c.Currency
	return Amount{Value: &v, Currency: &cur}
}
