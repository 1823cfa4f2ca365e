package extract

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	lakh     = 100000
	thousand = 1000
)

const (
	lakhUnit = `(?:LPA|lakhs?|lacs?|L)\b`
	pay      = `(?:\s*(?:per|/)\s*(?:year|annum|month|hour|yr|mo))?`
)

var (
	compScanRegex = regexp.MustCompile(`(?i)(` +
		`\d+(?:\.\d+)?\s*(?:-|–|to)\s*\d+(?:\.\d+)?\s*` + lakhUnit + pay +
		`|\d+(?:\.\d+)?\s*` + lakhUnit + pay +
		`|[$₹€£]\s*[\d,]+(?:\.\d+)?\s*[kl]?(?:\s*(?:-|–|to)\s*[$₹€£]?\s*[\d,]+(?:\.\d+)?\s*[kl]?)?` + pay +
		`)`)

	lakhUnitRegex     = regexp.MustCompile(`(?i)\d\s*(lpa|lakhs?|lacs?|l)\b`)
	thousandUnitRegex = regexp.MustCompile(`(?i)\d\s*k\b`)
	rangeRegex        = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*[kKlL]?\s*(?:-|–|—|to)\s*[$₹€£]?\s*(\d+(?:\.\d+)?)`)
	singleRegex       = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// Salary is the numeric reading of a compensation string. Min and Max are nil
// when the text has no parsable amount.
type Salary struct {
	Min      *float64
	Max      *float64
	Currency string
}

// ParseCompensation turns "6-12 LPA", "₹25L" or "$80,000 - $120,000" into
// absolute amounts. LPA and lakh amounts are scaled by 100,000, "k" by 1,000.
// It never fails: unparsable text yields nil bounds.
func ParseCompensation(text, defaultCurrency string) Salary {
	out := Salary{Currency: inferCurrency(text, defaultCurrency)}

	cleaned := strings.ReplaceAll(text, ",", "")
	multiplier := 1.0
	switch {
	case lakhUnitRegex.MatchString(cleaned):
		multiplier = lakh
	case thousandUnitRegex.MatchString(cleaned):
		multiplier = thousand
	}

	if m := rangeRegex.FindStringSubmatch(cleaned); m != nil {
		lo, err1 := strconv.ParseFloat(m[1], 64)
		hi, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			lo, hi = lo*multiplier, hi*multiplier
			if lo > hi {
				lo, hi = hi, lo
			}
			out.Min, out.Max = &lo, &hi
			return out
		}
	}

	if m := singleRegex.FindString(cleaned); m != "" {
		v, err := strconv.ParseFloat(m, 64)
		if err == nil {
			v *= multiplier
			lo, hi := v, v
			out.Min, out.Max = &lo, &hi
		}
	}
	return out
}

func inferCurrency(text, fallback string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(text, "₹"):
		return "INR"
	case strings.Contains(text, "$"):
		return "USD"
	case strings.Contains(text, "€"):
		return "EUR"
	case strings.Contains(text, "£"):
		return "GBP"
	case strings.Contains(lower, "ctc") || lakhUnitRegex.MatchString(text):
		return "INR"
	}
	return fallback
}

// findCompensation scans free text for the first salary-looking phrase.
func findCompensation(text string) (string, bool) {
	m := compScanRegex.FindString(text)
	m = strings.TrimSpace(m)
	return m, m != ""
}
