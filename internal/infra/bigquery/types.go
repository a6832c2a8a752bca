package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

// StatementRow is a record in finance_recon.statements.
type StatementRow struct {
	StatementID string `bigquery:"statement_id"`
	BankName    string `bigquery:"bank_name"`
	FileURI     string `bigquery:"file_uri"`
	FileType    string `bigquery:"file_type"`
	Status      string `bigquery:"status"`

	RowCount   bigquery.NullInt64  `bigquery:"row_count"`
	FailReason bigquery.NullString `bigquery:"fail_reason"`

	UploadedTS time.Time              `bigquery:"uploaded_ts"`
	UpdatedTS  bigquery.NullTimestamp `bigquery:"updated_ts"`
}

// BankTxRow is a record in finance_recon.bank_rows: one normalized
// statement transaction plus its reconciliation state.
type BankTxRow struct {
	RowID       string `bigquery:"row_id"`
	StatementID string `bigquery:"statement_id"`

	TxDate      civil.Date `bigquery:"tx_date"`
	Description string     `bigquery:"description"`
	Amount      float64    `bigquery:"amount"`
	Direction   string     `bigquery:"direction"`

	Reference bigquery.NullString `bigquery:"reference"`
	Vendor    bigquery.NullString `bigquery:"vendor"`

	SuggestedCategory bigquery.NullString `bigquery:"suggested_category"`
	SuggestedType     bigquery.NullString `bigquery:"suggested_type"`

	MatchStatus     string               `bigquery:"match_status"`
	MatchedLedgerID bigquery.NullString  `bigquery:"matched_ledger_id"`
	MatchConfidence bigquery.NullFloat64 `bigquery:"match_confidence"`
	MatchMethod     bigquery.NullString  `bigquery:"match_method"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// LedgerRow is a record in finance_recon.ledger_transactions.
type LedgerRow struct {
	TransactionID string     `bigquery:"transaction_id"`
	TxDate        civil.Date `bigquery:"tx_date"`
	Amount        float64    `bigquery:"amount"`
	TxType        string     `bigquery:"tx_type"`
	Category      string     `bigquery:"category"`
	Description   string     `bigquery:"description"`

	Vendor   bigquery.NullString `bigquery:"vendor"`
	Bank     bigquery.NullString `bigquery:"bank"`
	Currency string              `bigquery:"currency"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

// AuditEventRow is a record in finance_recon.audit_events.
type AuditEventRow struct {
	EventID    string              `bigquery:"event_id"`
	EntityType string              `bigquery:"entity_type"`
	EntityID   string              `bigquery:"entity_id"`
	Action     string              `bigquery:"action"`
	Detail     bigquery.NullJSON   `bigquery:"detail"`
	OldValues  bigquery.NullString `bigquery:"old_values"`

	CreatedTS time.Time `bigquery:"created_ts"`
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// NewStatementRow converts a domain statement for insertion.
func NewStatementRow(st domain.Statement) *StatementRow {
	return &StatementRow{
		StatementID: st.ID,
		BankName:    st.BankName,
		FileURI:     st.FileURI,
		FileType:    st.FileType,
		Status:      st.Status,
		RowCount:    bigquery.NullInt64{Int64: int64(st.RowCount), Valid: true},
		UploadedTS:  st.UploadedAt,
	}
}

// Statement converts back to the domain shape.
func (r *StatementRow) Statement() domain.Statement {
	return domain.Statement{
		ID:         r.StatementID,
		BankName:   r.BankName,
		FileURI:    r.FileURI,
		FileType:   r.FileType,
		Status:     r.Status,
		UploadedAt: r.UploadedTS,
		RowCount:   int(r.RowCount.Int64),
	}
}

// NewBankTxRow converts a normalized bank row for insertion; fresh rows
// always start unmatched.
func NewBankTxRow(row domain.BankRow, now time.Time) *BankTxRow {
	return &BankTxRow{
		RowID:             row.ID,
		StatementID:       row.StatementID,
		TxDate:            civil.DateOf(row.Date),
		Description:       row.Description,
		Amount:            row.Amount,
		Direction:         string(row.Direction),
		Reference:         nullString(row.Reference),
		Vendor:            nullString(row.Vendor),
		SuggestedCategory: nullString(row.SuggestedCategory),
		SuggestedType:     nullString(string(row.SuggestedType)),
		MatchStatus:       string(domain.MatchUnmatched),
		CreatedTS:         now,
	}
}

// BankRow converts back to the domain shape.
func (r *BankTxRow) BankRow() domain.BankRow {
	return domain.BankRow{
		ID:                r.RowID,
		StatementID:       r.StatementID,
		Date:              r.TxDate.In(time.UTC),
		Description:       r.Description,
		Amount:            r.Amount,
		Direction:         domain.Direction(r.Direction),
		Reference:         r.Reference.StringVal,
		Vendor:            r.Vendor.StringVal,
		SuggestedCategory: r.SuggestedCategory.StringVal,
		SuggestedType:     domain.TxType(r.SuggestedType.StringVal),
	}
}

// Match converts the persisted reconciliation state.
func (r *BankTxRow) Match() domain.MatchResult {
	return domain.MatchResult{
		BankRowID:           r.RowID,
		LedgerTransactionID: r.MatchedLedgerID.StringVal,
		Status:              domain.MatchStatus(r.MatchStatus),
		Confidence:          r.MatchConfidence.Float64,
		Method:              r.MatchMethod.StringVal,
	}
}

// NewLedgerRow converts a domain ledger transaction for insertion.
func NewLedgerRow(tx domain.LedgerTransaction, now time.Time) *LedgerRow {
	return &LedgerRow{
		TransactionID: tx.ID,
		TxDate:        civil.DateOf(tx.Date),
		Amount:        tx.Amount,
		TxType:        string(tx.Type),
		Category:      tx.Category,
		Description:   tx.Description,
		Vendor:        nullString(tx.Vendor),
		Bank:          nullString(tx.Bank),
		Currency:      tx.Currency,
		CreatedTS:     now,
	}
}

// Ledger converts back to the domain shape.
func (r *LedgerRow) Ledger() domain.LedgerTransaction {
	return domain.LedgerTransaction{
		ID:          r.TransactionID,
		Date:        r.TxDate.In(time.UTC),
		Amount:      r.Amount,
		Type:        domain.TxType(r.TxType),
		Category:    r.Category,
		Description: r.Description,
		Vendor:      r.Vendor.StringVal,
		Bank:        r.Bank.StringVal,
		Currency:    r.Currency,
	}
}
