package domain

import (
	"time"
)

// Direction says whether a transaction moved money out of the account
// (debit) or into it (credit).
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// TxType is the user-facing classification of a transaction.
type TxType string

const (
	TypeExpense  TxType = "expense"
	TypeIncome   TxType = "income"
	TypeTransfer TxType = "transfer"
)

// BankRow is one normalized transaction extracted from a bank statement.
// Invariants maintained by the normalizer: Amount > 0, Direction is debit
// or credit, Date is a valid calendar date and Description is never empty.
type BankRow struct {
	ID          string
	StatementID string

	Date        time.Time // date-only; time component is always midnight UTC
	Description string
	Amount      float64
	Direction   Direction
	Reference   string // empty when the source carried none
	Vendor      string // best-effort recipient/merchant extracted from the description

	// Filled by the suggestion engine. "Other" means unresolved.
	SuggestedCategory string
	SuggestedType     TxType
}

// LedgerTransaction is a user-recorded transaction. The reconciliation
// matcher reads these but never mutates them.
type LedgerTransaction struct {
	ID          string
	Date        time.Time
	Amount      float64 // positive magnitude
	Type        TxType
	Category    string
	Description string
	Vendor      string
	Bank        string // bank label the transaction was imported from, if any
	Currency    string
}

// MatchStatus is the reconciliation state of a bank row.
type MatchStatus string

const (
	MatchUnmatched   MatchStatus = "unmatched"
	MatchMatched     MatchStatus = "matched"
	MatchDiscrepancy MatchStatus = "discrepancy"
)

// MatchResult links a bank row to a ledger transaction. Confidence is 0
// while unmatched; auto-match stores its score, manual matches store 1.0
// (or 0.5 when the pair disagrees beyond tolerance).
type MatchResult struct {
	BankRowID           string
	LedgerTransactionID string // empty while unmatched
	Status              MatchStatus
	Confidence          float64
	Method              string // "auto", "manual" or "duplicate_import"
}

// Statement is the metadata of one uploaded statement file.
type Statement struct {
	ID         string
	BankName   string
	FileURI    string
	FileType   string // "csv", "excel" or "pdf"
	Status     string // "pending", "parsing", "parsed", "failed"
	UploadedAt time.Time
	RowCount   int
}
