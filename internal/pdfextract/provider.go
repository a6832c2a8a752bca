package pdfextract

import (
	"regexp"
	"strings"
	"time"

	"github.com/obiorah-dev/bankrecon/internal/domain"
	"github.com/obiorah-dev/bankrecon/internal/statement"
)

// Providers that encode direction in the reference (tails like _CREDIT_7 or
// _DEBIT_12) render each transaction as a split-line block:
//
//	2026-01-05T09:                                     date fragment
//	<narration> <reference> <debit> <credit> <balance> data line
//	55:32                                              time continuation
//
// The data line is identified by its three trailing decimal amounts plus the
// reference marker; the date is recovered by walking backward through a
// bounded window of preceding lines.
var (
	dataLineRe = regexp.MustCompile(
		`^(.*?)\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s+([\d,]+\.\d{2})\s*$`)
	refSuffixRe = regexp.MustCompile(`(?i)_(?:CREDIT|DEBIT)_\d+`)
	isoInLineRe = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`)
)

const dateLookback = 10

// extractProviderLines pulls transactions out of reference-suffix text
// blocks. Rows found here also cover transactions that sit outside bordered
// table cells, which is why the cascade treats them as authoritative.
func extractProviderLines(doc *Document) []domain.BankRow {
	var out []domain.BankRow

	for _, page := range doc.Pages {
		lines := make([]string, len(page.Lines))
		for i, l := range page.Lines {
			lines[i] = strings.TrimSpace(l)
		}

		for i, line := range lines {
			m := dataLineRe.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			narrRef := strings.TrimSpace(m[1])
			if !refSuffixRe.MatchString(narrRef) {
				continue
			}
			debit := statement.ParseAmount(m[2])
			credit := statement.ParseAmount(m[3])
			// m[4] is the running balance

			date, ok := findPrecedingDate(lines, i)
			if !ok {
				continue
			}

			narration, reference := splitReference(narrRef)

			var amount float64
			var direction domain.Direction
			if strings.Contains(strings.ToUpper(reference), "_CREDIT_") {
				direction = domain.Credit
				amount = credit
				if amount <= 0 {
					amount = debit
				}
			} else {
				direction = domain.Debit
				amount = debit
				if amount <= 0 {
					amount = credit
				}
			}
			if amount <= 0 {
				continue
			}

			if narration == "" {
				if direction == domain.Credit {
					narration = "Credit transaction"
				} else {
					narration = "Debit transaction"
				}
			}

			out = append(out, domain.BankRow{
				Date:        date,
				Description: narration,
				Amount:      amount,
				Direction:   direction,
				Reference:   reference,
				Vendor:      statement.ExtractVendor(narration),
			})
		}
	}
	return out
}

// findPrecedingDate scans up to dateLookback lines above the data line for
// the nearest ISO date token.
func findPrecedingDate(lines []string, from int) (time.Time, bool) {
	for j := from - 1; j >= 0 && j >= from-dateLookback; j-- {
		m := isoInLineRe.FindStringSubmatch(lines[j])
		if m == nil {
			continue
		}
		t, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			return time.Time{}, false
		}
		return t.UTC(), true
	}
	return time.Time{}, false
}

// splitReference separates the narration from the trailing reference token
// carrying the suffix marker.
func splitReference(narrRef string) (narration, reference string) {
	loc := refSuffixRe.FindStringIndex(narrRef)
	if loc == nil {
		return narrRef, ""
	}
	cut := strings.LastIndex(narrRef[:loc[0]], " ") + 1
	return strings.TrimSpace(narrRef[:cut]), narrRef[cut:]
}
