package extraction

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Locale decides how an all-numeric date such as 03/04/2024 is read.
type Locale int

const (
	// LocaleAuto reads numeric dates day-first when the text looks Indian
	// (rupee amounts, GST) and month-first otherwise.
	LocaleAuto Locale = iota
	// LocaleUS reads numeric dates as MM/DD/YYYY.
	LocaleUS
	// LocaleIndia reads numeric dates as DD/MM/YYYY.
	LocaleIndia
)

func (l Locale) String() string {
	switch l {
	case LocaleUS:
		return "us"
	case LocaleIndia:
		return "in"
	}
	return "auto"
}

// ParseLocale maps "us", "in"/"india" and "auto" to a Locale.
func ParseLocale(s string) (Locale, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return LocaleAuto, true
	case "us":
		return LocaleUS, true
	case "in", "india":
		return LocaleIndia, true
	}
	return LocaleAuto, false
}

// contextWindow is how far past a date label the extractor looks.
const contextWindow = 50

var dateContextPhrases = compilePhrases(
	"order date",
	"purchase date",
	"transaction date",
	"payment date",
	"date of purchase",
	"invoice date",
	"receipt date",
)

func compilePhrases(phrases ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(phrases))
	for i, p := range phrases {
		out[i] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(p))
	}
	return out
}

const monthNames = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var indianTextRe = regexp.MustCompile(`(?i)₹|\brs\.?\s*\d|\binr\b|\brupees\b|\bgst(?:in)?\b`)

// datePattern pairs a regexp with the function that turns its submatches
// into a date.
type datePattern struct {
	re    *regexp.Regexp
	parse func(m []string, numeric Locale) (time.Time, bool)
}

var datePatterns = []datePattern{
	{regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`), parseNumericDate},
	{regexp.MustCompile(`\b(\d{1,2})-(\d{1,2})-(\d{4})\b`), parseNumericDate},
	{regexp.MustCompile(`(?i)\b` + monthNames + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`), parseMonthDayYear},
	{regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+` + monthNames + `\.?,?\s+(\d{4})\b`), parseDayMonthYear},
	{regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`), parseISODate},
}

// ExtractDate finds the transaction date in text, reading ambiguous numeric
// dates according to LocaleAuto. It returns nil when nothing matches.
func ExtractDate(text string) *time.Time {
	return ExtractDateLocale(text, LocaleAuto)
}

// ExtractDateLocale is ExtractDate with an explicit reading for numeric dates.
// Labelled dates ("Order Date: ...") take precedence over the rest of the text.
func ExtractDateLocale(text string, locale Locale) *time.Time {
	if locale == LocaleAuto {
		locale = DetectLocale(text)
	}

	for _, phrase := range dateContextPhrases {
		for _, loc := range phrase.FindAllStringIndex(text, -1) {
			end := min(loc[1]+contextWindow, len(text))
			if t, ok := matchDate(text[loc[1]:end], locale); ok {
				return &t
			}
		}
	}

	if t, ok := matchDate(text, locale); ok {
		return &t
	}
	return nil
}

// DetectLocale guesses the numeric date convention from currency and tax
// markers in text.
func DetectLocale(text string) Locale {
	if indianTextRe.MatchString(text) {
		return LocaleIndia
	}
	return LocaleUS
}

func matchDate(s string, locale Locale) (time.Time, bool) {
	for _, p := range datePatterns {
		for _, m := range p.re.FindAllStringSubmatch(s, -1) {
			if t, ok := p.parse(m, locale); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func parseNumericDate(m []string, locale Locale) (time.Time, bool) {
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if locale == LocaleIndia {
		return makeDate(year, second, first)
	}
	return makeDate(year, first, second)
}

func parseMonthDayYear(m []string, _ Locale) (time.Time, bool) {
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	return makeDate(year, monthNumber(m[1]), day)
}

func parseDayMonthYear(m []string, _ Locale) (time.Time, bool) {
	day, _ := strconv.Atoi(m[1])
	year, _ := strconv.Atoi(m[3])
	return makeDate(year, monthNumber(m[2]), day)
}

func parseISODate(m []string, _ Locale) (time.Time, bool) {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return makeDate(year, month, day)
}

func monthNumber(name string) int {
	switch strings.ToLower(name)[:3] {
	case "jan":
		return 1
	case "feb":
		return 2
	case "mar":
		return 3
	case "apr":
		return 4
	case "may":
		return 5
	case "jun":
		return 6
	case "jul":
		return 7
	case "aug":
		return 8
	case "sep":
		return 9
	case "oct":
		return 10
	case "nov":
		return 11
	case "dec":
		return 12
	}
	return 0
}

// makeDate validates the parts (day 1-31, month 1-12, year >= 2000) and
// rejects dates the calendar does not have, such as 31/02.
func makeDate(year, month, day int) (time.Time, bool) {
	if day < 1 || day > 31 || month < 1 || month > 12 || year < 2000 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}
