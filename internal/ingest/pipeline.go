package ingest

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/obiorah-dev/bankrecon/internal/archive"
	"github.com/obiorah-dev/bankrecon/internal/classify"
	"github.com/obiorah-dev/bankrecon/internal/domain"
	infra "github.com/obiorah-dev/bankrecon/internal/infra/bigquery"
	"github.com/obiorah-dev/bankrecon/internal/logger"
	"github.com/obiorah-dev/bankrecon/internal/pdfextract"
	"github.com/obiorah-dev/bankrecon/internal/statement"
)

// Storage is the slice of the persistence layer the pipeline needs.
type Storage interface {
	UpdateStatementStatus(ctx context.Context, statementID, status, failReason string, rowCount int) error
	InsertBankRows(ctx context.Context, rows []*infra.BankTxRow) error
	RecordAudit(ctx context.Context, entityType, entityID, action string, detail any)
}

// Step is a single stage of the statement ingestion pipeline.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State is the shared state threaded through the steps.
type State struct {
	StatementID string
	BankName    string
	FileURI     string
	FileType    string // "csv", "excel" or "pdf"

	FileBytes []byte
	Rows      []domain.BankRow
}

// Pipeline runs ingestion steps in order. Any step error marks the
// statement failed and aborts.
type Pipeline struct {
	steps   []Step
	storage Storage
}

func NewPipeline(storage Storage, steps ...Step) *Pipeline {
	return &Pipeline{steps: steps, storage: storage}
}

// Execute runs the steps. On failure the statement record carries the
// failing step's error as the fail reason.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			wrapped := fmt.Errorf("pipeline step %d failed: %w", i+1, err)
			if uerr := p.storage.UpdateStatementStatus(ctx, state.StatementID, "failed", wrapped.Error(), 0); uerr != nil {
				log := logger.FromContext(ctx)
				log.Error().Err(uerr).
					Str("statement_id", state.StatementID).
					Msg("marking statement failed")
			}
			return wrapped
		}
	}
	return nil
}

// NewStatementPipeline wires the standard steps: mark parsing, fetch the
// archived file, extract rows, dedup, suggest categories, persist, mark
// parsed.
func NewStatementPipeline(storage Storage, files archive.Store, engine *classify.Engine, cascade *pdfextract.Cascade) *Pipeline {
	return NewPipeline(storage,
		&MarkParsingStep{Storage: storage},
		&FetchFileStep{Files: files},
		&ExtractRowsStep{Cascade: cascade},
		&DedupStep{},
		&SuggestStep{Engine: engine},
		&PersistRowsStep{Storage: storage},
		&MarkParsedStep{Storage: storage},
	)
}

// MarkParsingStep moves the statement into the parsing state.
type MarkParsingStep struct {
	Storage Storage
}

func (s *MarkParsingStep) Execute(ctx context.Context, state *State) error {
	return s.Storage.UpdateStatementStatus(ctx, state.StatementID, "parsing", "", 0)
}

// FetchFileStep downloads the archived statement bytes.
type FetchFileStep struct {
	Files archive.Store
}

func (s *FetchFileStep) Execute(ctx context.Context, state *State) error {
	data, err := s.Files.Fetch(ctx, state.FileURI)
	if err != nil {
		return err
	}
	state.FileBytes = data
	return nil
}

// ExtractRowsStep parses the file into normalized rows, dispatching on
// file type.
type ExtractRowsStep struct {
	Cascade *pdfextract.Cascade
}

func (s *ExtractRowsStep) Execute(ctx context.Context, state *State) error {
	var rows []domain.BankRow
	var err error

	switch state.FileType {
	case "csv":
		rows, err = statement.ParseCSV(bytes.NewReader(state.FileBytes))
	case "excel":
		rows, err = statement.ParseExcel(bytes.NewReader(state.FileBytes))
	case "pdf":
		var doc *pdfextract.Document
		doc, err = pdfextract.LoadBytes(state.FileBytes)
		if err == nil {
			rows, err = s.Cascade.Extract(ctx, doc)
		}
	default:
		err = fmt.Errorf("unsupported file type %q", state.FileType)
	}
	if err != nil {
		return err
	}
	state.Rows = rows
	return nil
}

// DedupStep collapses duplicate rows before anything downstream sees them.
type DedupStep struct{}

func (s *DedupStep) Execute(ctx context.Context, state *State) error {
	state.Rows = statement.Deduplicate(state.Rows)
	return nil
}

// SuggestStep attaches category/type suggestions.
type SuggestStep struct {
	Engine *classify.Engine
}

func (s *SuggestStep) Execute(ctx context.Context, state *State) error {
	s.Engine.Suggest(ctx, state.Rows)
	return nil
}

// PersistRowsStep assigns IDs and writes the rows.
type PersistRowsStep struct {
	Storage Storage
}

func (s *PersistRowsStep) Execute(ctx context.Context, state *State) error {
	now := time.Now()
	txRows := make([]*infra.BankTxRow, 0, len(state.Rows))
	for i := range state.Rows {
		state.Rows[i].ID = uuid.NewString()
		state.Rows[i].StatementID = state.StatementID
		txRows = append(txRows, infra.NewBankTxRow(state.Rows[i], now))
	}
	return s.Storage.InsertBankRows(ctx, txRows)
}

// MarkParsedStep finishes the lifecycle and leaves an audit trail.
type MarkParsedStep struct {
	Storage Storage
}

func (s *MarkParsedStep) Execute(ctx context.Context, state *State) error {
	if err := s.Storage.UpdateStatementStatus(ctx, state.StatementID, "parsed", "", len(state.Rows)); err != nil {
		return err
	}
	s.Storage.RecordAudit(ctx, "statement", state.StatementID, "parsed", map[string]any{
		"rows":      len(state.Rows),
		"file_type": state.FileType,
		"bank_name": state.BankName,
	})
	log := logger.FromContext(ctx)
	log.Info().
		Str("statement_id", state.StatementID).
		Int("rows", len(state.Rows)).
		Msg("statement parsed")
	return nil
}
