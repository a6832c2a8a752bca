package reconcile

import (
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// FuzzyScore is a token-order-insensitive similarity in [0,1]. Both inputs
// are lower-cased and their tokens sorted before the edit-distance ratio,
// so "JOHN DOE transfer" and "Transfer to John Doe" score high.
func FuzzyScore(a, b string) float64 {
	na, nb := tokenSort(a), tokenSort(b)
	if na == "" || nb == "" {
		return 0
	}
	return levenshtein.RatioForStrings([]rune(na), []rune(nb), levenshtein.DefaultOptions)
}

func tokenSort(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
