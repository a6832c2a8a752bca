package handlers

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/obiorah-dev/bankrecon/internal/api/middleware"
	"github.com/obiorah-dev/bankrecon/internal/archive"
	infra "github.com/obiorah-dev/bankrecon/internal/infra/bigquery"
	"github.com/obiorah-dev/bankrecon/internal/jobs"
)

// maxUploadBytes bounds statement uploads. Real statements run a few MB;
// anything bigger is almost certainly not a statement.
const maxUploadBytes = 32 << 20

// StatementStore is the slice of the persistence layer the statement
// endpoints need.
type StatementStore interface {
	InsertStatement(ctx context.Context, row *infra.StatementRow) error
	GetStatement(ctx context.Context, statementID string) (*infra.StatementRow, error)
	ListStatements(ctx context.Context) ([]*infra.StatementRow, error)
	ListBankRows(ctx context.Context, statementID string) ([]*infra.BankTxRow, error)
	RecordAudit(ctx context.Context, entityType, entityID, action string, detail any)
}

// StatementsHandler serves statement upload and retrieval.
type StatementsHandler struct {
	store     StatementStore
	files     archive.Store
	publisher jobs.Publisher
	log       zerolog.Logger
}

func NewStatementsHandler(store StatementStore, files archive.Store, publisher jobs.Publisher, log zerolog.Logger) *StatementsHandler {
	return &StatementsHandler{
		store:     store,
		files:     files,
		publisher: publisher,
		log:       log,
	}
}

// statementResponse is the JSON shape of one statement.
type statementResponse struct {
	StatementID string `json:"statement_id"`
	BankName    string `json:"bank_name"`
	FileURI     string `json:"file_uri"`
	FileType    string `json:"file_type"`
	Status      string `json:"status"`
	RowCount    int    `json:"row_count"`
	FailReason  string `json:"fail_reason,omitempty"`
	UploadedAt  string `json:"uploaded_at"`
}

func toStatementResponse(r *infra.StatementRow) statementResponse {
	return statementResponse{
		StatementID: r.StatementID,
		BankName:    r.BankName,
		FileURI:     r.FileURI,
		FileType:    r.FileType,
		Status:      r.Status,
		RowCount:    int(r.RowCount.Int64),
		FailReason:  r.FailReason.StringVal,
		UploadedAt:  r.UploadedTS.Format(time.RFC3339),
	}
}

// bankRowResponse is the JSON shape of one extracted statement row,
// including its reconciliation state.
type bankRowResponse struct {
	RowID       string  `json:"row_id"`
	StatementID string  `json:"statement_id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Direction   string  `json:"direction"`
	Reference   string  `json:"reference,omitempty"`
	Vendor      string  `json:"vendor,omitempty"`

	SuggestedCategory string `json:"suggested_category,omitempty"`
	SuggestedType     string `json:"suggested_type,omitempty"`

	MatchStatus     string  `json:"match_status"`
	MatchedLedgerID string  `json:"matched_ledger_id,omitempty"`
	MatchConfidence float64 `json:"match_confidence,omitempty"`
	MatchMethod     string  `json:"match_method,omitempty"`
}

func toBankRowResponse(r *infra.BankTxRow) bankRowResponse {
	return bankRowResponse{
		RowID:             r.RowID,
		StatementID:       r.StatementID,
		Date:              r.TxDate.String(),
		Description:       r.Description,
		Amount:            r.Amount,
		Direction:         r.Direction,
		Reference:         r.Reference.StringVal,
		Vendor:            r.Vendor.StringVal,
		SuggestedCategory: r.SuggestedCategory.StringVal,
		SuggestedType:     r.SuggestedType.StringVal,
		MatchStatus:       r.MatchStatus,
		MatchedLedgerID:   r.MatchedLedgerID.StringVal,
		MatchConfidence:   r.MatchConfidence.Float64,
		MatchMethod:       r.MatchMethod.StringVal,
	}
}

// Upload accepts a multipart statement file plus bank_name, archives the
// file, records the statement and enqueues async parsing.
func (h *StatementsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.files == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "File uploads are not configured")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	bankName := strings.TrimSpace(r.FormValue("bank_name"))
	if bankName == "" {
		middleware.WriteError(w, http.StatusBadRequest, "bank_name is required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	fileType, err := detectFileType(header)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	statementID := uuid.NewString()
	objectName := fmt.Sprintf("statements/%s/%s%s",
		time.Now().UTC().Format("2006/01/02"), statementID, strings.ToLower(filepath.Ext(header.Filename)))

	uri, err := h.files.Upload(ctx, objectName, file)
	if err != nil {
		h.log.Error().Err(err).Str("object", objectName).Msg("Failed to archive statement file")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	row := &infra.StatementRow{
		StatementID: statementID,
		BankName:    bankName,
		FileURI:     uri,
		FileType:    fileType,
		Status:      "pending",
		UploadedTS:  time.Now().UTC(),
	}
	if err := h.store.InsertStatement(ctx, row); err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to record statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to record statement")
		return
	}

	job := &jobs.ParseStatementJob{
		StatementID: statementID,
		FileURI:     uri,
		FileType:    fileType,
		BankName:    bankName,
	}
	if err := h.publisher.PublishParseStatement(ctx, job); err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to enqueue parse job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue parsing")
		return
	}

	h.store.RecordAudit(ctx, "statement", statementID, "uploaded", map[string]any{
		"bank_name": bankName,
		"file_type": fileType,
		"filename":  header.Filename,
	})

	h.log.Info().
		Str("statement_id", statementID).
		Str("job_id", job.JobID).
		Str("file_type", fileType).
		Msg("Statement uploaded")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"statement_id": statementID,
		"job_id":       job.JobID,
		"status":       "pending",
	})
}

// List returns all statements, newest first.
func (h *StatementsHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListStatements(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list statements")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list statements")
		return
	}

	out := make([]statementResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toStatementResponse(row))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"statements": out,
		"count":      len(out),
	})
}

// Get returns one statement by ID.
func (h *StatementsHandler) Get(w http.ResponseWriter, r *http.Request, statementID string) {
	row, err := h.store.GetStatement(r.Context(), statementID)
	if err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to get statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get statement")
		return
	}
	if row == nil {
		middleware.WriteError(w, http.StatusNotFound, "Statement not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, toStatementResponse(row))
}

// ListRows returns the extracted rows of one statement.
func (h *StatementsHandler) ListRows(w http.ResponseWriter, r *http.Request, statementID string) {
	st, err := h.store.GetStatement(r.Context(), statementID)
	if err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to get statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get statement")
		return
	}
	if st == nil {
		middleware.WriteError(w, http.StatusNotFound, "Statement not found")
		return
	}

	rows, err := h.store.ListBankRows(r.Context(), statementID)
	if err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to list bank rows")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list rows")
		return
	}

	out := make([]bankRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toBankRowResponse(row))
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"statement_id": statementID,
		"rows":         out,
		"count":        len(out),
	})
}

// detectFileType maps the upload to one of the supported parser inputs,
// preferring the filename extension and falling back to Content-Type.
func detectFileType(header *multipart.FileHeader) (string, error) {
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		return "csv", nil
	case ".xlsx", ".xls":
		return "excel", nil
	case ".pdf":
		return "pdf", nil
	}

	switch header.Header.Get("Content-Type") {
	case "text/csv":
		return "csv", nil
	case "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "application/vnd.ms-excel":
		return "excel", nil
	case "application/pdf":
		return "pdf", nil
	}
	return "", fmt.Errorf("unsupported file type %q; expected csv, excel or pdf", header.Filename)
}
