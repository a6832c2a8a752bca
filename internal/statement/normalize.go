package statement

import (
	"errors"
	"regexp"
	"strings"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

// ErrNoDateColumn means role resolution found nothing date-like, so the
// dataset cannot yield transactions.
var ErrNoDateColumn = errors.New("no date column identified")

// ErrNoTransactions is the single fatal error of the extraction core: the
// whole document produced zero usable rows after every strategy.
var ErrNoTransactions = errors.New("no transactions found in document")

// Rows whose description matches this are table section headers, not
// transactions (e.g. "-// Debits", "-----").
var separatorRe = regexp.MustCompile(`^-{2,}|^={2,}|^-//`)

// Date cells still holding a header label — paginated exports repeat the
// header mid-data.
var headerCellValues = map[string]bool{
	"date": true, "trans date": true, "value date": true,
	"transaction date": true, "txn date": true, "posting date": true,
}

var (
	digitsOnlyDescRe = regexp.MustCompile(`^\d[\d\s\-]{9,}$`)
	digitSepRe       = regexp.MustCompile(`[\s\-]`)
	alnumRefRe       = regexp.MustCompile(`^[A-Za-z]{2,3}\d{4,}`)
	numericRefRe     = regexp.MustCompile(`^\d{8,}`)
	trailingCapRe    = regexp.MustCompile(`\s+[A-Z]$`)
	creditSuffixRe   = regexp.MustCompile(`(?i)CR$`)
	debitSuffixRe    = regexp.MustCompile(`(?i)(DR|DB)$`)
	signStripRe      = regexp.MustCompile(`[₦$€£,\s]`)
	refCreditRe      = regexp.MustCompile(`(?i)_CREDIT_\d+$`)
	refDebitRe       = regexp.MustCompile(`(?i)_DEBIT_\d+$`)
)

// Vendor-revealing phrasings: "Transfer to JOHN DOE", "Payment to SHOPRITE",
// "Received from MARY JANE". The captured run of capitals ends at a pipe
// separator or end of string.
var vendorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Transfer\s+to\s+([A-Z][A-Z\s]+?)(?:\s+\||$)`),
	regexp.MustCompile(`(?i)Payment\s+to\s+([A-Z][A-Z\s]+?)(?:\s+\||$)`),
	regexp.MustCompile(`(?i)Transfer\s+from\s+([A-Z][A-Z\s]+?)(?:\s+\||$)`),
	regexp.MustCompile(`(?i)Received\s+from\s+([A-Z][A-Z\s]+?)(?:\s+\||$)`),
}

var creditKeywords = []string{
	"transfer from", "received from", "credit", "deposit", "inflow",
	"reversal", "refund", "salary", "lodgment", "direct credit",
	"payment received",
}

var debitKeywords = []string{
	"transfer to", "payment to", "debit", "withdrawal", "pos", "atm",
	"charges", "fee", "purchase", "airtime", "standing order",
	"direct debit",
}

// InferDirection scores direction keywords in the description. Ties and
// no-hits default to debit.
func InferDirection(description string) domain.Direction {
	desc := strings.ToLower(description)
	var creditScore, debitScore int
	for _, k := range creditKeywords {
		if strings.Contains(desc, k) {
			creditScore++
		}
	}
	for _, k := range debitKeywords {
		if strings.Contains(desc, k) {
			debitScore++
		}
	}
	if creditScore > debitScore {
		return domain.Credit
	}
	return domain.Debit
}

// rowState is the mutable per-row state threaded through the direction
// pipeline. Each stage may override the direction decided by earlier,
// less authoritative stages.
type rowState struct {
	amount    float64
	direction domain.Direction
	reference string

	typeValue   string  // raw value of the direction-type column, if any
	balance     float64 // this row's running balance, 0 when unusable
	prevBalance float64 // previous row's balance, 0 before first usable row

	hasSplit   bool // separate debit/credit columns existed
	hasTypeCol bool
	hasBalance bool
}

// The direction pipeline. Stages run in fixed order; later stages are more
// authoritative and override earlier decisions when their signal is present.
var directionPipeline = []func(*rowState){
	applyTypeColumn,
	applyBalanceDelta,
	applyReferenceSuffix,
}

var typeCreditMarkers = []string{"credit", " cr", "money in", "deposit", "inflow", "received"}
var typeDebitMarkers = []string{"debit", " dr", "money out", "withdrawal", "payment", "transfer out", "charge"}

// applyTypeColumn overrides the amount-derived direction with the value of a
// dedicated direction/type column.
func applyTypeColumn(s *rowState) {
	if !s.hasTypeCol {
		return
	}
	v := strings.ToLower(strings.TrimSpace(s.typeValue))
	for _, k := range typeCreditMarkers {
		if strings.Contains(v, k) {
			s.direction = domain.Credit
			return
		}
	}
	for _, k := range typeDebitMarkers {
		if strings.Contains(v, k) {
			s.direction = domain.Debit
			return
		}
	}
}

// balanceDeltaThreshold: balance moves smaller than this are noise, not a
// direction signal.
const balanceDeltaThreshold = 1.0

// applyBalanceDelta forces the direction from the running-balance movement.
// Only used when there is no debit/credit split and no type column — those
// are explicit markers and more authoritative than a derived delta.
func applyBalanceDelta(s *rowState) {
	if !s.hasBalance || s.hasSplit || s.hasTypeCol {
		return
	}
	if s.balance > 0 && s.prevBalance > 0 {
		delta := s.balance - s.prevBalance
		if delta < -balanceDeltaThreshold {
			s.direction = domain.Debit
		} else if delta > balanceDeltaThreshold {
			s.direction = domain.Credit
		}
	}
}

// applyReferenceSuffix handles providers that encode direction in the
// reference itself (_CREDIT_N / _DEBIT_N tails). This is the most reliable
// signal and overrides everything before it.
func applyReferenceSuffix(s *rowState) {
	if s.reference == "" {
		return
	}
	if refCreditRe.MatchString(s.reference) {
		s.direction = domain.Credit
	} else if refDebitRe.MatchString(s.reference) {
		s.direction = domain.Debit
	}
}

// NormalizeRows walks every data row of the table and produces normalized
// transaction candidates. Unparsable rows are dropped silently; the only
// error is a missing date role.
func NormalizeRows(t *Table, roles RoleMap) ([]domain.BankRow, error) {
	if roles.Date == "" {
		return nil, ErrNoDateColumn
	}

	var out []domain.BankRow
	var prevBalance float64

	for _, row := range t.Rows {
		// Date first: a row without a parsable date is not a transaction.
		rawDate := strings.TrimSpace(lineBreakRe.ReplaceAllString(t.Cell(row, roles.Date), ""))
		if rawDate == "" || headerCellValues[strings.ToLower(rawDate)] {
			continue
		}
		date, ok := ParseDate(rawDate)
		if !ok {
			continue
		}

		description := lineBreakRe.ReplaceAllString(t.Cell(row, roles.Description), " ")
		description = strings.TrimSpace(description)
		if separatorRe.MatchString(description) {
			continue
		}

		// Reference first so digit-only descriptions can fall back on it.
		reference := ""
		if roles.Reference != "" {
			reference = strings.TrimSpace(lineBreakRe.ReplaceAllString(t.Cell(row, roles.Reference), " "))
		}

		vendor := ExtractVendor(description)

		// Pipe-delimited narrations often embed the reference:
		// "Electricity | 14201290534 | caprico".
		if reference == "" && strings.Contains(description, "|") {
			for _, part := range strings.Split(description, "|") {
				part = strings.TrimSpace(part)
				if alnumRefRe.MatchString(part) || numericRefRe.MatchString(part) {
					reference = part
					break
				}
			}
		}

		// A narration that is purely digits is a session/reference ID, not a
		// human description. Keep it as the reference and relabel later.
		if digitsOnlyDescRe.MatchString(description) {
			if reference == "" {
				reference = digitSepRe.ReplaceAllString(description, "")
			}
			description = ""
		}

		state := rowState{
			direction:  domain.Debit,
			reference:  reference,
			hasSplit:   roles.HasDebitCreditSplit(),
			hasTypeCol: roles.DirectionType != "",
			hasBalance: roles.Balance != "",
		}

		if !resolveAmount(&state, t, row, roles, description) {
			continue
		}

		if state.hasTypeCol {
			state.typeValue = t.Cell(row, roles.DirectionType)
		}
		if state.hasBalance {
			state.balance = ParseAmount(t.Cell(row, roles.Balance))
			state.prevBalance = prevBalance
			if state.balance > 0 {
				prevBalance = state.balance
			}
		}

		for _, stage := range directionPipeline {
			stage(&state)
		}

		// Single-letter narrations ("T" for transfer) get the reference
		// appended; still-empty ones get a generic direction label.
		if len(description) <= 2 && reference != "" {
			if description != "" {
				description = description + ": " + reference
			} else {
				description = reference
			}
		} else if description == "" {
			if state.direction == domain.Credit {
				description = "Credit transaction"
			} else {
				description = "Debit transaction"
			}
		}

		// An amount equal to the running balance means the balance column was
		// mis-read as the transaction amount.
		if state.hasBalance && state.balance > 0 && abs(state.amount-state.balance) < 0.02 {
			continue
		}

		out = append(out, domain.BankRow{
			Date:        date,
			Description: description,
			Amount:      round2(state.amount),
			Direction:   state.direction,
			Reference:   reference,
			Vendor:      vendor,
		})
	}

	return out, nil
}

// resolveAmount fills amount and the provisional direction from the value
// columns. Returns false when the row carries no usable amount.
func resolveAmount(s *rowState, t *Table, row []string, roles RoleMap, description string) bool {
	switch {
	case roles.Debit != "" && roles.Credit != "":
		debit := ParseAmount(t.Cell(row, roles.Debit))
		credit := ParseAmount(t.Cell(row, roles.Credit))
		switch {
		case credit > 0 && debit == 0:
			s.amount, s.direction = credit, domain.Credit
		case debit > 0 && credit == 0:
			s.amount, s.direction = debit, domain.Debit
		case credit > 0: // both nonzero: credit wins
			s.amount, s.direction = credit, domain.Credit
		case debit > 0:
			s.amount, s.direction = debit, domain.Debit
		default:
			return false // both zero, likely a header or totals row
		}

	case roles.Credit != "":
		credit := ParseAmount(t.Cell(row, roles.Credit))
		if credit <= 0 {
			return false
		}
		s.amount, s.direction = credit, domain.Credit

	case roles.Debit != "":
		debit := ParseAmount(t.Cell(row, roles.Debit))
		if debit <= 0 {
			return false
		}
		s.amount, s.direction = debit, domain.Debit

	case roles.Amount != "":
		raw := strings.TrimSpace(t.Cell(row, roles.Amount))
		val := ParseAmount(raw)
		if val == 0 {
			return false
		}
		clean := signStripRe.ReplaceAllString(raw, "")
		switch {
		case creditSuffixRe.MatchString(clean) || strings.HasPrefix(clean, "+"):
			s.direction = domain.Credit
		case debitSuffixRe.MatchString(clean) || strings.HasPrefix(clean, "-") || strings.HasPrefix(clean, "("):
			s.direction = domain.Debit
		default:
			s.direction = InferDirection(description)
		}
		s.amount = val

	default:
		return false
	}
	return true
}

// ExtractVendor pulls a recipient/merchant name out of transfer-style
// narrations. A trailing single capital is a truncation artifact and is
// dropped.
func ExtractVendor(description string) string {
	for _, p := range vendorPatterns {
		if m := p.FindStringSubmatch(description); m != nil {
			vendor := strings.TrimSpace(m[1])
			vendor = strings.TrimSpace(trailingCapRe.ReplaceAllString(vendor, ""))
			return vendor
		}
	}
	return ""
}

// ParseGrid normalizes a raw grid of cells. It first tries the top row as
// the header; if that yields nothing it scans for the real header row and
// restarts beneath it (statements often open with address blocks and
// summary tables before the transaction header).
func ParseGrid(grid [][]string) []domain.BankRow {
	if len(grid) < 2 {
		return nil
	}

	tbl := NewTable(grid[0], grid[1:])
	rows, err := NormalizeRows(tbl, ResolveColumns(tbl.Columns))
	if err == nil && len(rows) > 0 {
		return rows
	}

	headerIdx := FindHeaderRow(grid)
	if headerIdx < 0 || headerIdx+1 >= len(grid) {
		return nil
	}
	tbl = NewTable(grid[headerIdx], grid[headerIdx+1:])
	rows, err = NormalizeRows(tbl, ResolveColumns(tbl.Columns))
	if err != nil {
		return nil
	}
	return rows
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func round2(f float64) float64 {
	if f < 0 {
		return float64(int64(f*100-0.5)) / 100
	}
	return float64(int64(f*100+0.5)) / 100
}
