package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

const bankRowColumns = `row_id, statement_id, tx_date, description, amount, direction,
	       reference, vendor, suggested_category, suggested_type,
	       match_status, matched_ledger_id, match_confidence, match_method, created_ts`

// InsertBankRows persists a batch of normalized rows.
func (s *Store) InsertBankRows(ctx context.Context, rows []*BankTxRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.table(bankRowsTable).Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertBankRows: inserting rows: %w", err)
	}
	return nil
}

// ListBankRows returns all rows of one statement in date order.
func (s *Store) ListBankRows(ctx context.Context, statementID string) ([]*BankTxRow, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s.%s
		WHERE statement_id = @statement_id
		ORDER BY tx_date, created_ts
	`, bankRowColumns, datasetID, bankRowsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: statementID},
	}
	return s.readBankRows(ctx, q, "ListBankRows")
}

// ListUnmatchedBankRows returns the statement's rows still awaiting
// reconciliation.
func (s *Store) ListUnmatchedBankRows(ctx context.Context, statementID string) ([]*BankTxRow, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s.%s
		WHERE statement_id = @statement_id
		  AND match_status = @match_status
		ORDER BY tx_date, created_ts
	`, bankRowColumns, datasetID, bankRowsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: statementID},
		{Name: "match_status", Value: string(domain.MatchUnmatched)},
	}
	return s.readBankRows(ctx, q, "ListUnmatchedBankRows")
}

// GetBankRow fetches one row by ID; returns nil when absent.
func (s *Store) GetBankRow(ctx context.Context, rowID string) (*BankTxRow, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s.%s
		WHERE row_id = @row_id
		LIMIT 1
	`, bankRowColumns, datasetID, bankRowsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "row_id", Value: rowID},
	}
	rows, err := s.readBankRows(ctx, q, "GetBankRow")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ApplyMatch writes a reconciliation decision onto a bank row. An
// unmatched result clears the link fields.
func (s *Store) ApplyMatch(ctx context.Context, m domain.MatchResult) error {
	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET match_status = @match_status,
		    matched_ledger_id = @matched_ledger_id,
		    match_confidence = @match_confidence,
		    match_method = @match_method
		WHERE row_id = @row_id
	`, datasetID, bankRowsTable))

	var ledgerID, method bigquery.NullString
	var confidence bigquery.NullFloat64
	if m.Status != domain.MatchUnmatched {
		ledgerID = bigquery.NullString{StringVal: m.LedgerTransactionID, Valid: true}
		method = bigquery.NullString{StringVal: m.Method, Valid: m.Method != ""}
		confidence = bigquery.NullFloat64{Float64: m.Confidence, Valid: true}
	}
	q.Parameters = []bigquery.QueryParameter{
		{Name: "match_status", Value: string(m.Status)},
		{Name: "matched_ledger_id", Value: ledgerID},
		{Name: "match_confidence", Value: confidence},
		{Name: "match_method", Value: method},
		{Name: "row_id", Value: m.BankRowID},
	}
	return runQuery(ctx, q, "ApplyMatch")
}

// ReconciliationSummary aggregates a statement's match states.
type ReconciliationSummary struct {
	Total         int `json:"total"`
	Matched       int `json:"matched"`
	Unmatched     int `json:"unmatched"`
	Discrepancies int `json:"discrepancies"`
}

// SummarizeMatches counts the statement's rows per match status.
func (s *Store) SummarizeMatches(ctx context.Context, statementID string) (*ReconciliationSummary, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT match_status, COUNT(*) AS n
		FROM %s.%s
		WHERE statement_id = @statement_id
		GROUP BY match_status
	`, datasetID, bankRowsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: statementID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("SummarizeMatches: query read: %w", err)
	}

	summary := &ReconciliationSummary{}
	for {
		var r struct {
			MatchStatus string `bigquery:"match_status"`
			N           int64  `bigquery:"n"`
		}
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("SummarizeMatches: iter next: %w", err)
		}
		summary.Total += int(r.N)
		switch domain.MatchStatus(r.MatchStatus) {
		case domain.MatchMatched:
			summary.Matched = int(r.N)
		case domain.MatchDiscrepancy:
			summary.Discrepancies = int(r.N)
		default:
			summary.Unmatched += int(r.N)
		}
	}
	return summary, nil
}

func (s *Store) readBankRows(ctx context.Context, q *bigquery.Query, op string) ([]*BankTxRow, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", op, err)
	}
	var rows []*BankTxRow
	for {
		var r BankTxRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", op, err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}
