package extraction

import (
	"regexp"
	"strings"
)

var (
	orderKeywordRe = regexp.MustCompile(`(?i)\b(?:order|confirmation|receipt)\b`)
	orderTokenRe   = regexp.MustCompile(`(?i)^(?:\s*(?:number|no|id)\b)?[\s:#.]*([a-z0-9][a-z0-9-]*)`)
	hasDigitRe     = regexp.MustCompile(`\d`)
)

// minOrderTokenLen is the shortest accepted identifier. One and two character
// tokens are almost always counts ("order 2 of 3"), so "Order #42" yields nil.
const minOrderTokenLen = 3

// ExtractOrderNumber returns the first identifier following "order",
// "confirmation" or "receipt" (optionally "number/no/id" and "#"). Tokens
// without a digit are words, not identifiers, and are skipped, as are tokens
// shorter than three characters.
func ExtractOrderNumber(text string) *string {
	for _, loc := range orderKeywordRe.FindAllStringIndex(text, -1) {
		m := orderTokenRe.FindStringSubmatch(text[loc[1]:])
		if m == nil {
			continue
		}
		token := strings.Trim(m[1], "-")
		if len(token) < minOrderTokenLen || !hasDigitRe.MatchString(token) {
			continue
		}
		return &token
	}
	return nil
}
