package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2026, time.January, d, 0, 0, 0, 0, time.UTC)
}

func bankRow(id string, d int, amount float64, desc string) domain.BankRow {
	return domain.BankRow{ID: id, Date: day(d), Amount: amount, Description: desc, Direction: domain.Debit}
}

func ledgerTx(id string, d int, amount float64, desc string) domain.LedgerTransaction {
	return domain.LedgerTransaction{ID: id, Date: day(d), Amount: amount, Description: desc, Type: domain.TypeExpense}
}

func TestAutoMatch_WithinWindow(t *testing.T) {
	m := NewMatcher()
	rows := []domain.BankRow{bankRow("b1", 10, 5000, "Transfer to John Doe")}
	ledger := []domain.LedgerTransaction{ledgerTx("l1", 12, 5000, "John Doe transfer")}

	results := m.AutoMatch(rows, ledger)
	require.Len(t, results, 1)

	assert.Equal(t, "b1", results[0].BankRowID)
	assert.Equal(t, "l1", results[0].LedgerTransactionID)
	assert.Equal(t, domain.MatchMatched, results[0].Status)
	assert.Equal(t, MethodAuto, results[0].Method)
	assert.Greater(t, results[0].Confidence, 0.4)
}

func TestAutoMatch_OutsideDateWindow(t *testing.T) {
	m := NewMatcher()
	rows := []domain.BankRow{bankRow("b1", 10, 5000, "Transfer to John Doe")}
	ledger := []domain.LedgerTransaction{ledgerTx("l1", 15, 5000, "Transfer to John Doe")}

	assert.Empty(t, m.AutoMatch(rows, ledger))
}

func TestAutoMatch_AmountMismatch(t *testing.T) {
	m := NewMatcher()
	rows := []domain.BankRow{bankRow("b1", 10, 5000, "Transfer to John Doe")}
	ledger := []domain.LedgerTransaction{ledgerTx("l1", 10, 5000.05, "Transfer to John Doe")}

	assert.Empty(t, m.AutoMatch(rows, ledger))
}

func TestAutoMatch_BelowThreshold(t *testing.T) {
	m := NewMatcher()
	// Same amount, window edge, no textual similarity: the date bonus alone
	// cannot clear the threshold.
	rows := []domain.BankRow{bankRow("b1", 10, 5000, "qqq www eee")}
	ledger := []domain.LedgerTransaction{ledgerTx("l1", 13, 5000, "zzz xxx ccc")}

	assert.Empty(t, m.AutoMatch(rows, ledger))
}

func TestAutoMatch_VendorSimilarityCounts(t *testing.T) {
	m := NewMatcher()
	rows := []domain.BankRow{bankRow("b1", 10, 5000, "NIP/TRF/0001 John Doe")}
	ledger := []domain.LedgerTransaction{{
		ID: "l1", Date: day(10), Amount: 5000, Description: "xqzk", Vendor: "NIP/TRF/0001 John Doe",
	}}

	results := m.AutoMatch(rows, ledger)
	require.Len(t, results, 1)
	assert.Equal(t, "l1", results[0].LedgerTransactionID)
}

func TestAutoMatch_PicksBestCandidate(t *testing.T) {
	m := NewMatcher()
	rows := []domain.BankRow{bankRow("b1", 10, 5000, "Transfer to John Doe")}
	ledger := []domain.LedgerTransaction{
		ledgerTx("far", 13, 5000, "Transfer to John Doe"),
		ledgerTx("near", 10, 5000, "Transfer to John Doe"),
	}

	results := m.AutoMatch(rows, ledger)
	require.Len(t, results, 1)
	// Same text either way; the same-day candidate gets the larger bonus.
	assert.Equal(t, "near", results[0].LedgerTransactionID)
}

func TestManualMatch_CleanPair(t *testing.T) {
	m := NewMatcher()
	res := m.ManualMatch(bankRow("b1", 10, 5000, "x"), ledgerTx("l1", 11, 5000, "y"))

	assert.Equal(t, domain.MatchMatched, res.Status)
	assert.Equal(t, 1.0, res.Confidence)
	assert.Equal(t, MethodManual, res.Method)
}

func TestManualMatch_Discrepancy(t *testing.T) {
	m := NewMatcher()

	amountOff := m.ManualMatch(bankRow("b1", 10, 5000, "x"), ledgerTx("l1", 10, 4000, "y"))
	assert.Equal(t, domain.MatchDiscrepancy, amountOff.Status)
	assert.Equal(t, 0.5, amountOff.Confidence)

	dateOff := m.ManualMatch(bankRow("b1", 10, 5000, "x"), ledgerTx("l1", 20, 5000, "y"))
	assert.Equal(t, domain.MatchDiscrepancy, dateOff.Status)
	assert.Equal(t, 0.5, dateOff.Confidence)
}

func TestUnmatch(t *testing.T) {
	m := NewMatcher()
	res := m.Unmatch(bankRow("b1", 10, 5000, "x"))

	assert.Equal(t, domain.MatchUnmatched, res.Status)
	assert.Empty(t, res.LedgerTransactionID)
	assert.Zero(t, res.Confidence)
}

func TestFindDuplicate_ByReference(t *testing.T) {
	m := NewMatcher()
	row := domain.BankRow{ID: "b1", Date: day(10), Amount: 5000, Reference: "REF12345"}
	ledger := []domain.LedgerTransaction{
		ledgerTx("l1", 1, 1, "unrelated"),
		ledgerTx("l2", 1, 1, "Imported REF12345 transfer"),
	}

	dup := m.FindDuplicate(row, ledger, "GTBank")
	require.NotNil(t, dup)
	assert.Equal(t, "l2", dup.ID)
}

func TestFindDuplicate_SameBankWins(t *testing.T) {
	m := NewMatcher()
	row := domain.BankRow{ID: "b1", Date: day(10), Amount: 5000}
	ledger := []domain.LedgerTransaction{
		{ID: "l1", Date: day(10), Amount: 5000, Bank: "Zenith"},
		{ID: "l2", Date: day(10), Amount: 5000, Bank: "GTBank"},
	}

	dup := m.FindDuplicate(row, ledger, "gtbank")
	require.NotNil(t, dup)
	assert.Equal(t, "l2", dup.ID)
}

func TestFindDuplicate_SingleUnambiguousCandidate(t *testing.T) {
	m := NewMatcher()
	row := domain.BankRow{ID: "b1", Date: day(10), Amount: 5000}
	ledger := []domain.LedgerTransaction{
		{ID: "l1", Date: day(10), Amount: 5000},
		{ID: "l2", Date: day(11), Amount: 5000},
	}

	dup := m.FindDuplicate(row, ledger, "GTBank")
	require.NotNil(t, dup)
	assert.Equal(t, "l1", dup.ID)
}

func TestFindDuplicate_AmbiguousNeverLinks(t *testing.T) {
	m := NewMatcher()
	row := domain.BankRow{ID: "b1", Date: day(10), Amount: 5000}
	ledger := []domain.LedgerTransaction{
		{ID: "l1", Date: day(10), Amount: 5000},
		{ID: "l2", Date: day(10), Amount: 5000},
	}

	assert.Nil(t, m.FindDuplicate(row, ledger, "GTBank"))
}

func TestFindDuplicate_NoCandidates(t *testing.T) {
	m := NewMatcher()
	row := domain.BankRow{ID: "b1", Date: day(10), Amount: 5000}
	assert.Nil(t, m.FindDuplicate(row, []domain.LedgerTransaction{ledgerTx("l1", 10, 100, "x")}, ""))
}
