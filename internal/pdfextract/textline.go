package pdfextract

import (
	"regexp"
	"strings"

	"github.com/obiorah-dev/bankrecon/internal/domain"
	"github.com/obiorah-dev/bankrecon/internal/statement"
)

// Date grammars accepted at (or near) the start of a text line: ISO
// timestamps (possibly split across a line break), numeric slash/dash
// forms, and textual month forms.
var textDateRe = regexp.MustCompile(`(?i)(?:` +
	`\d{4}-\d{2}-\d{2}T\d{2}:[\n\r]?\d{2}` +
	`|\d{1,2}[/-]\d{1,2}[/-]\d{2,4}` +
	`|\d{4}[/-]\d{1,2}[/-]\d{1,2}` +
	`|\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{2,4}` +
	`|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}` +
	`)`)

// Amount tokens: optional currency symbol, thousands separators, optional
// decimal fraction and DR/CR/DB suffix. "--" is an empty-amount placeholder.
var textAmountRe = regexp.MustCompile(`(?i)(?:[₦$€£]?\s*[\d,]+(?:\.\d{1,2})?(?:\s*(?:DR|CR|DB))?|--)`)

// A date match whose remainder is only a time fragment is half of an ISO
// timestamp split across lines, not a transaction.
var timeFragmentRe = regexp.MustCompile(`^T\d{1,2}:[\d:]*\s*$`)

var (
	multiSpaceRe   = regexp.MustCompile(`\s{2,}`)
	edgePunctRe    = regexp.MustCompile(`^[\s|,;:]+|[\s|,;:]+$`)
	amountCrRe     = regexp.MustCompile(`(?i)CR$`)
	amountDrRe     = regexp.MustCompile(`(?i)(DR|DB)$`)
	refCreditAnyRe = regexp.MustCompile(`(?i)_CREDIT_\d+`)
	refDebitAnyRe  = regexp.MustCompile(`(?i)_DEBIT_\d+`)
)

// extractTextLines is the generic fallback: any line opening with a
// date-like token and carrying at least one amount becomes a candidate.
func extractTextLines(doc *Document) []domain.BankRow {
	var out []domain.BankRow
	for _, page := range doc.Pages {
		for _, raw := range page.Lines {
			if row, ok := parseTextLine(strings.TrimSpace(raw)); ok {
				out = append(out, row)
			}
		}
	}
	return out
}

func parseTextLine(line string) (domain.BankRow, bool) {
	if len(line) < 10 {
		return domain.BankRow{}, false
	}

	loc := textDateRe.FindStringIndex(line)
	if loc == nil || loc[0] > 50 {
		return domain.BankRow{}, false
	}
	remainder := line[loc[1]:]
	if timeFragmentRe.MatchString(remainder) {
		return domain.BankRow{}, false
	}

	date, ok := statement.ParseDate(line[loc[0]:loc[1]])
	if !ok {
		return domain.BankRow{}, false
	}

	amountsRaw := textAmountRe.FindAllString(remainder, -1)
	var amounts, decimalAmounts []float64
	for _, a := range amountsRaw {
		v := statement.ParseAmount(a)
		if v <= 0 {
			continue
		}
		amounts = append(amounts, v)
		if strings.Contains(a, ".") {
			decimalAmounts = append(decimalAmounts, v)
		}
	}
	if len(amounts) == 0 {
		return domain.BankRow{}, false
	}
	// Bare large integers are usually reference numbers; tokens with a
	// decimal fraction are the real amounts.
	if len(decimalAmounts) > 0 {
		amounts = decimalAmounts
	}

	description := textAmountRe.ReplaceAllString(remainder, "")
	description = multiSpaceRe.ReplaceAllString(description, " ")
	description = edgePunctRe.ReplaceAllString(description, "")

	amount := amounts[0]
	direction := domain.Debit
	switch {
	case refCreditAnyRe.MatchString(line):
		direction = domain.Credit
	case refDebitAnyRe.MatchString(line):
		direction = domain.Debit
	default:
		var crAmounts, drAmounts []float64
		for _, a := range amountsRaw {
			v := statement.ParseAmount(a)
			if v <= 0 {
				continue
			}
			t := strings.TrimSpace(a)
			if amountCrRe.MatchString(t) {
				crAmounts = append(crAmounts, v)
			} else if amountDrRe.MatchString(t) {
				drAmounts = append(drAmounts, v)
			}
		}
		switch {
		case len(crAmounts) > 0:
			amount, direction = crAmounts[0], domain.Credit
		case len(drAmounts) > 0:
			amount, direction = drAmounts[0], domain.Debit
		default:
			direction = statement.InferDirection(description)
		}
	}

	if description == "" {
		if direction == domain.Credit {
			description = "Credit transaction"
		} else {
			description = "Debit transaction"
		}
	}

	return domain.BankRow{
		Date:        date,
		Description: description,
		Amount:      amount,
		Direction:   direction,
		Vendor:      statement.ExtractVendor(description),
	}, true
}
