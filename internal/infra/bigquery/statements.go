package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// InsertStatement records a freshly uploaded statement.
func (s *Store) InsertStatement(ctx context.Context, row *StatementRow) error {
	if err := s.table(statementsTable).Inserter().Put(ctx, row); err != nil {
		return fmt.Errorf("InsertStatement: inserting row: %w", err)
	}
	return nil
}

// UpdateStatementStatus moves a statement through its parse lifecycle and
// records the row count once parsing lands.
func (s *Store) UpdateStatementStatus(ctx context.Context, statementID, status, failReason string, rowCount int) error {
	q := s.client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    row_count = @row_count,
		    fail_reason = @fail_reason,
		    updated_ts = @updated_ts
		WHERE statement_id = @statement_id
	`, datasetID, statementsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "status", Value: status},
		{Name: "row_count", Value: rowCount},
		{Name: "fail_reason", Value: failReason},
		{Name: "updated_ts", Value: time.Now()},
		{Name: "statement_id", Value: statementID},
	}
	return runQuery(ctx, q, "UpdateStatementStatus")
}

// GetStatement fetches one statement by ID; returns nil when absent.
func (s *Store) GetStatement(ctx context.Context, statementID string) (*StatementRow, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT statement_id, bank_name, file_uri, file_type, status,
		       row_count, fail_reason, uploaded_ts, updated_ts
		FROM %s.%s
		WHERE statement_id = @statement_id
		LIMIT 1
	`, datasetID, statementsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "statement_id", Value: statementID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetStatement: query read: %w", err)
	}
	var row StatementRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetStatement: iter next: %w", err)
	}
	return &row, nil
}

// ListStatements returns all statements, newest first.
func (s *Store) ListStatements(ctx context.Context) ([]*StatementRow, error) {
	q := s.client.Query(fmt.Sprintf(`
		SELECT statement_id, bank_name, file_uri, file_type, status,
		       row_count, fail_reason, uploaded_ts, updated_ts
		FROM %s.%s
		ORDER BY uploaded_ts DESC
	`, datasetID, statementsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListStatements: query read: %w", err)
	}
	var rows []*StatementRow
	for {
		var r StatementRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListStatements: iter next: %w", err)
		}
		rows = append(rows, &r)
	}
	return rows, nil
}

// runQuery executes a DML query and surfaces both run and job errors.
func runQuery(ctx context.Context, q *bigquery.Query, op string) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("%s: running query: %w", op, err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("%s: job error: %w", op, err)
	}
	return nil
}
