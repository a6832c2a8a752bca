package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// InsertLedgerTransactions persists ledger transactions created from an
// import.
func (s *Store) InsertLedgerTransactions(ctx context.Context, rows []*LedgerRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.table(ledgerTable).Inserter().Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertLedgerTransactions: inserting rows: %w", err)
	}
	return nil
}

// GetLedgerTransaction fetches one ledger transaction by ID; returns
// nil when absent.
func (s *Store) GetLedgerTransaction(ctx context.Context, transactionID string) (*LedgerRow, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT transaction_id, tx_date, amount, tx_type, category,
		       description, vendor, bank, currency, created_ts
		FROM %s.%s
		WHERE transaction_id = @transaction_id
		LIMIT 1
	`, datasetID, ledgerTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "transaction_id", Value: transactionID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetLedgerTransaction: query read: %w", err)
	}
	var row LedgerRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetLedgerTransaction: iter next: %w", err)
	}
	return &row, nil
}

// ListLedgerTransactions returns the whole ledger in date order. The
// matcher works over the full set; candidate filtering happens in memory.
func (s *Store) ListLedgerTransactions(ctx context.Context) ([]*LedgerRow, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT transaction_id, tx_date, amount, tx_type, category,
		       description, vendor, bank, currency, created_ts
		FROM %s.%s
		ORDER BY tx_date, created_ts
	`, datasetID, ledgerTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListLedgerTransactions: query read: %w", err)
	}
	var rows []*LedgerRow
	for {
		var r LedgerRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListLedgerTransactions: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}
