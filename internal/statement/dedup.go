package statement

import (
	"fmt"
	"strings"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

// Deduplicate collapses rows representing the same underlying transaction.
// When a reference is present the key is (date, amount, reference) —
// reference-bearing providers guarantee per-transaction uniqueness even
// when several same-day transfers share an amount. Without a reference the
// first 60 characters of the description disambiguate instead. First
// occurrence per key wins, so the operation is idempotent.
func Deduplicate(rows []domain.BankRow) []domain.BankRow {
	seen := make(map[string]bool, len(rows))
	out := make([]domain.BankRow, 0, len(rows))
	for _, r := range rows {
		key := dedupKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func dedupKey(r domain.BankRow) string {
	ref := strings.TrimSpace(r.Reference)
	if ref != "" {
		return fmt.Sprintf("%s|%.2f|r|%s", r.Date.Format("2006-01-02"), r.Amount, ref)
	}
	desc := r.Description
	if len(desc) > 60 {
		desc = desc[:60]
	}
	return fmt.Sprintf("%s|%.2f|d|%s", r.Date.Format("2006-01-02"), r.Amount, desc)
}
