package bigquery

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"
)

const (
	defaultProjectID = "bankrecon-prod"
	datasetID        = "finance_recon"

	statementsTable = "statements"
	bankRowsTable   = "bank_rows"
	ledgerTable     = "ledger_transactions"
	auditTable      = "audit_events"
)

// ProjectID resolves the GCP project, preferring the environment.
func ProjectID() string {
	if p := os.Getenv("BANKRECON_BQ_PROJECT"); p != "" {
		return p
	}
	return defaultProjectID
}

// Store is the BigQuery-backed persistence layer. It holds one shared
// client; create it once at startup and Close it on shutdown.
type Store struct {
	client *bigquery.Client
}

// NewStore creates a Store against the configured project. Credentials
// resolve through the usual ADC chain; BANKRECON_BQ_CREDENTIALS overrides
// with an explicit service-account file.
func NewStore(ctx context.Context) (*Store, error) {
	var opts []option.ClientOption
	if creds := os.Getenv("BANKRECON_BQ_CREDENTIALS"); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	client, err := bigquery.NewClient(ctx, ProjectID(), opts...)
	if err != nil {
		return nil, fmt.Errorf("NewStore: bigquery client: %w", err)
	}
	return &Store{client: client}, nil
}

// NewStoreWithClient wraps an existing client; the caller keeps ownership.
func NewStoreWithClient(client *bigquery.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *Store) table(name string) *bigquery.Table {
	return s.client.Dataset(datasetID).Table(name)
}
