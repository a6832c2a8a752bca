package statement

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyRe     = regexp.MustCompile(`[₦$€£¥\s]`)
	amountSuffixRe = regexp.MustCompile(`(?i)\s*(DR|DB|CR)$`)
)

// placeholder tokens banks use for "no value in this cell"
var emptyTokens = map[string]bool{
	"":    true,
	"--":  true,
	"-":   true,
	"—":   true,
	"N/A": true,
	"n/a": true,
	"nil": true,
}

// ParseAmount converts a raw statement cell into a non-negative magnitude.
//
//	"10,000.00"  → 10000.0
//	"(1,234.56)" → 1234.56   (accounting debit notation)
//	"₦50,000"    → 50000.0
//	"500.00 DR"  → 500.0
//	"--" / ""    → 0.0
//
// It never fails: anything unparsable is 0, which callers treat as
// "no usable amount".
func ParseAmount(val string) float64 {
	s := strings.TrimSpace(val)
	if emptyTokens[s] {
		return 0
	}
	s = currencyRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, ",", "")
	s = amountSuffixRe.ReplaceAllString(s, "")
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return math.Abs(f)
}
