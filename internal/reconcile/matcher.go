package reconcile

import (
	"math"
	"strings"
	"time"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

// Match methods recorded on MatchResult.
const (
	MethodAuto            = "auto"
	MethodManual          = "manual"
	MethodDuplicateImport = "duplicate_import"
)

// Matcher holds the reconciliation thresholds. Zero values are not usable;
// construct with NewMatcher.
type Matcher struct {
	AmountTolerance float64 // max absolute amount difference for a pair
	DateWindowDays  int     // max days between bank and ledger dates
	AcceptThreshold float64 // minimum score for an auto-match
}

func NewMatcher() *Matcher {
	return &Matcher{
		AmountTolerance: 0.01,
		DateWindowDays:  3,
		AcceptThreshold: 0.4,
	}
}

// AutoMatch pairs unmatched bank rows with ledger transactions. For each
// row the candidate set is filtered by amount tolerance and date window,
// then scored by fuzzy description/vendor similarity plus a closeness
// bonus of up to 0.2 for same-day pairs. The best candidate wins if it
// clears the accept threshold; rows with no qualifying candidate are left
// out of the result.
func (m *Matcher) AutoMatch(rows []domain.BankRow, ledger []domain.LedgerTransaction) []domain.MatchResult {
	var out []domain.MatchResult
	for _, row := range rows {
		var best *domain.LedgerTransaction
		bestScore := 0.0

		for i := range ledger {
			tx := &ledger[i]
			if math.Abs(row.Amount-tx.Amount) > m.AmountTolerance {
				continue
			}
			delta := dateDiffDays(row.Date, tx.Date)
			if delta > m.DateWindowDays {
				continue
			}

			score := math.Max(
				FuzzyScore(row.Description, tx.Description),
				FuzzyScore(row.Description, tx.Vendor),
			)
			// Same-day pairs get the full bonus, window-edge pairs none.
			dateBonus := float64(m.DateWindowDays-delta) / float64(m.DateWindowDays) * 0.2
			total := score + dateBonus

			if total > bestScore {
				bestScore = total
				best = tx
			}
		}

		if best != nil && bestScore >= m.AcceptThreshold {
			out = append(out, domain.MatchResult{
				BankRowID:           row.ID,
				LedgerTransactionID: best.ID,
				Status:              domain.MatchMatched,
				Confidence:          round3(bestScore),
				Method:              MethodAuto,
			})
		}
	}
	return out
}

// ManualMatch links a user-chosen pair. Pairs that disagree on amount or
// fall outside the date window are still linked but flagged as a
// discrepancy with reduced confidence.
func (m *Matcher) ManualMatch(row domain.BankRow, tx domain.LedgerTransaction) domain.MatchResult {
	status := domain.MatchMatched
	confidence := 1.0
	if math.Abs(row.Amount-tx.Amount) > m.AmountTolerance || dateDiffDays(row.Date, tx.Date) > m.DateWindowDays {
		status = domain.MatchDiscrepancy
		confidence = 0.5
	}
	return domain.MatchResult{
		BankRowID:           row.ID,
		LedgerTransactionID: tx.ID,
		Status:              status,
		Confidence:          confidence,
		Method:              MethodManual,
	}
}

// Unmatch clears a link. Rows may be rematched afterwards.
func (m *Matcher) Unmatch(row domain.BankRow) domain.MatchResult {
	return domain.MatchResult{
		BankRowID: row.ID,
		Status:    domain.MatchUnmatched,
	}
}

// FindDuplicate decides whether an imported bank row already exists in the
// ledger. Priority:
//
//  1. reference match: a ledger description containing the row's reference
//  2. exact date + amount within tolerance + same bank
//  3. exact date + amount with a single unambiguous candidate; several
//     same-day same-amount candidates are never auto-linked
func (m *Matcher) FindDuplicate(row domain.BankRow, ledger []domain.LedgerTransaction, bankName string) *domain.LedgerTransaction {
	if ref := strings.TrimSpace(row.Reference); ref != "" {
		for i := range ledger {
			if strings.Contains(ledger[i].Description, ref) {
				return &ledger[i]
			}
		}
	}

	var candidates []*domain.LedgerTransaction
	for i := range ledger {
		tx := &ledger[i]
		if tx.Date.Equal(row.Date) && math.Abs(tx.Amount-row.Amount) <= m.AmountTolerance {
			candidates = append(candidates, tx)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	for _, tx := range candidates {
		if tx.Bank != "" && strings.EqualFold(tx.Bank, bankName) {
			return tx
		}
	}
	if len(candidates) == 1 {
		return candidates[0]
	}
	return nil
}

func dateDiffDays(a, b time.Time) int {
	d := a.Sub(b).Hours() / 24
	if d < 0 {
		d = -d
	}
	return int(d + 0.5)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
