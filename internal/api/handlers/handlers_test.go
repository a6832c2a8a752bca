package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obiorah-dev/bankrecon/internal/domain"
	infra "github.com/obiorah-dev/bankrecon/internal/infra/bigquery"
	"github.com/obiorah-dev/bankrecon/internal/jobs"
	"github.com/obiorah-dev/bankrecon/internal/reconcile"
)

// fakeStore satisfies both StatementStore and ReconcileStore in memory.
type fakeStore struct {
	statements map[string]*infra.StatementRow
	bankRows   map[string]*infra.BankTxRow
	ledger     []*infra.LedgerRow
	matches    []domain.MatchResult
	audits     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		statements: make(map[string]*infra.StatementRow),
		bankRows:   make(map[string]*infra.BankTxRow),
	}
}

func (f *fakeStore) InsertStatement(ctx context.Context, row *infra.StatementRow) error {
	f.statements[row.StatementID] = row
	return nil
}

func (f *fakeStore) GetStatement(ctx context.Context, id string) (*infra.StatementRow, error) {
	return f.statements[id], nil
}

func (f *fakeStore) ListStatements(ctx context.Context) ([]*infra.StatementRow, error) {
	var out []*infra.StatementRow
	for _, s := range f.statements {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeStore) ListBankRows(ctx context.Context, statementID string) ([]*infra.BankTxRow, error) {
	var out []*infra.BankTxRow
	for _, r := range f.bankRows {
		if r.StatementID == statementID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListUnmatchedBankRows(ctx context.Context, statementID string) ([]*infra.BankTxRow, error) {
	var out []*infra.BankTxRow
	for _, r := range f.bankRows {
		if r.StatementID == statementID && r.MatchStatus == string(domain.MatchUnmatched) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetBankRow(ctx context.Context, rowID string) (*infra.BankTxRow, error) {
	return f.bankRows[rowID], nil
}

func (f *fakeStore) GetLedgerTransaction(ctx context.Context, id string) (*infra.LedgerRow, error) {
	for _, tx := range f.ledger {
		if tx.TransactionID == id {
			return tx, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListLedgerTransactions(ctx context.Context) ([]*infra.LedgerRow, error) {
	return f.ledger, nil
}

func (f *fakeStore) InsertLedgerTransactions(ctx context.Context, rows []*infra.LedgerRow) error {
	f.ledger = append(f.ledger, rows...)
	return nil
}

func (f *fakeStore) ApplyMatch(ctx context.Context, m domain.MatchResult) error {
	f.matches = append(f.matches, m)
	if row, ok := f.bankRows[m.BankRowID]; ok {
		row.MatchStatus = string(m.Status)
		row.MatchedLedgerID = bigquery.NullString{StringVal: m.LedgerTransactionID, Valid: m.LedgerTransactionID != ""}
	}
	return nil
}

func (f *fakeStore) SummarizeMatches(ctx context.Context, statementID string) (*infra.ReconciliationSummary, error) {
	summary := &infra.ReconciliationSummary{}
	for _, r := range f.bankRows {
		if r.StatementID != statementID {
			continue
		}
		summary.Total++
		switch domain.MatchStatus(r.MatchStatus) {
		case domain.MatchMatched:
			summary.Matched++
		case domain.MatchDiscrepancy:
			summary.Discrepancies++
		default:
			summary.Unmatched++
		}
	}
	return summary, nil
}

func (f *fakeStore) RecordAudit(ctx context.Context, entityType, entityID, action string, detail any) {
	f.audits = append(f.audits, entityType+":"+action)
}

type fakeFiles struct{ uploaded map[string][]byte }

func (f *fakeFiles) Upload(ctx context.Context, objectName string, r io.Reader) (string, error) {
	data, _ := io.ReadAll(r)
	if f.uploaded == nil {
		f.uploaded = make(map[string][]byte)
	}
	f.uploaded[objectName] = data
	return "gs://test/" + objectName, nil
}

func (f *fakeFiles) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return f.uploaded[strings.TrimPrefix(uri, "gs://test/")], nil
}

type fakePublisher struct{ published []*jobs.ParseStatementJob }

func (f *fakePublisher) PublishParseStatement(ctx context.Context, job *jobs.ParseStatementJob) error {
	if job.JobID == "" {
		job.JobID = "job-1"
	}
	f.published = append(f.published, job)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func seedBankRow(store *fakeStore, rowID, statementID string, d civil.Date, amount float64, desc string) {
	store.bankRows[rowID] = &infra.BankTxRow{
		RowID:       rowID,
		StatementID: statementID,
		TxDate:      d,
		Description: desc,
		Amount:      amount,
		Direction:   string(domain.Debit),
		MatchStatus: string(domain.MatchUnmatched),
	}
}

func seedLedger(store *fakeStore, id string, d civil.Date, amount float64, desc string) {
	store.ledger = append(store.ledger, &infra.LedgerRow{
		TransactionID: id,
		TxDate:        d,
		Amount:        amount,
		TxType:        string(domain.TypeExpense),
		Category:      "Other",
		Description:   desc,
		Currency:      "NGN",
	})
}

func multipartBody(t *testing.T, filename, bankName, content string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	require.NoError(t, w.WriteField("bank_name", bankName))
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf, w.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStatementsUpload(t *testing.T) {
	store := newFakeStore()
	files := &fakeFiles{}
	pub := &fakePublisher{}
	h := NewStatementsHandler(store, files, pub, zerolog.Nop())

	body, contentType := multipartBody(t, "statement.csv", "GTBank", "Date,Narration,Debit\n")
	req := httptest.NewRequest(http.MethodPost, "/api/statements", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	resp := decodeBody(t, rec)
	statementID := resp["statement_id"].(string)
	require.NotEmpty(t, statementID)

	st := store.statements[statementID]
	require.NotNil(t, st)
	assert.Equal(t, "csv", st.FileType)
	assert.Equal(t, "pending", st.Status)
	assert.Equal(t, "GTBank", st.BankName)

	require.Len(t, pub.published, 1)
	assert.Equal(t, statementID, pub.published[0].StatementID)
	assert.Equal(t, "csv", pub.published[0].FileType)
	assert.Contains(t, store.audits, "statement:uploaded")
}

func TestStatementsUpload_MissingBankName(t *testing.T) {
	h := NewStatementsHandler(newFakeStore(), &fakeFiles{}, &fakePublisher{}, zerolog.Nop())

	body, contentType := multipartBody(t, "statement.csv", "", "data")
	req := httptest.NewRequest(http.MethodPost, "/api/statements", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatementsUpload_UnsupportedType(t *testing.T) {
	h := NewStatementsHandler(newFakeStore(), &fakeFiles{}, &fakePublisher{}, zerolog.Nop())

	body, contentType := multipartBody(t, "statement.docx", "GTBank", "data")
	req := httptest.NewRequest(http.MethodPost, "/api/statements", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatementsUpload_NoArchive(t *testing.T) {
	h := NewStatementsHandler(newFakeStore(), nil, &fakePublisher{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/statements", nil)
	rec := httptest.NewRecorder()

	h.Upload(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatementsGet_NotFound(t *testing.T) {
	h := NewStatementsHandler(newFakeStore(), &fakeFiles{}, &fakePublisher{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/statements/nope", nil), "nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatementsListRows(t *testing.T) {
	store := newFakeStore()
	store.statements["st-1"] = &infra.StatementRow{StatementID: "st-1", Status: "parsed", UploadedTS: time.Now()}
	seedBankRow(store, "b1", "st-1", civil.Date{Year: 2026, Month: time.January, Day: 2}, 1500, "POS Purchase")
	h := NewStatementsHandler(store, &fakeFiles{}, &fakePublisher{}, zerolog.Nop())

	rec := httptest.NewRecorder()
	h.ListRows(rec, httptest.NewRequest(http.MethodGet, "/api/statements/st-1/rows", nil), "st-1")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, float64(1), resp["count"])
}

func TestReconcileAutoMatch(t *testing.T) {
	store := newFakeStore()
	store.statements["st-1"] = &infra.StatementRow{StatementID: "st-1", UploadedTS: time.Now()}
	d := civil.Date{Year: 2026, Month: time.January, Day: 10}
	seedBankRow(store, "b1", "st-1", d, 5000, "Transfer to John Doe")
	seedLedger(store, "l1", d, 5000, "John Doe transfer")

	h := NewReconcileHandler(store, reconcile.NewMatcher(), zerolog.Nop())
	rec := httptest.NewRecorder()
	h.AutoMatch(rec, httptest.NewRequest(http.MethodPost, "/api/statements/st-1/auto-match", nil), "st-1")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, float64(1), resp["matched"])
	require.Len(t, store.matches, 1)
	assert.Equal(t, "l1", store.matches[0].LedgerTransactionID)
	assert.Contains(t, store.audits, "bank_row:auto_matched")
}

func TestReconcileManualMatch(t *testing.T) {
	store := newFakeStore()
	d := civil.Date{Year: 2026, Month: time.January, Day: 10}
	seedBankRow(store, "b1", "st-1", d, 5000, "whatever")
	seedLedger(store, "l1", civil.Date{Year: 2026, Month: time.January, Day: 25}, 5000, "far away")

	h := NewReconcileHandler(store, reconcile.NewMatcher(), zerolog.Nop())
	body := strings.NewReader(`{"bank_row_id":"b1","ledger_transaction_id":"l1"}`)
	rec := httptest.NewRecorder()
	h.ManualMatch(rec, httptest.NewRequest(http.MethodPost, "/api/reconcile/match", body))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody(t, rec)
	// Outside the date window: linked but flagged.
	assert.Equal(t, string(domain.MatchDiscrepancy), resp["status"])
	assert.Equal(t, 0.5, resp["confidence"])
}

func TestReconcileManualMatch_UnknownRow(t *testing.T) {
	h := NewReconcileHandler(newFakeStore(), reconcile.NewMatcher(), zerolog.Nop())
	body := strings.NewReader(`{"bank_row_id":"nope","ledger_transaction_id":"l1"}`)
	rec := httptest.NewRecorder()
	h.ManualMatch(rec, httptest.NewRequest(http.MethodPost, "/api/reconcile/match", body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReconcileUnmatch(t *testing.T) {
	store := newFakeStore()
	d := civil.Date{Year: 2026, Month: time.January, Day: 10}
	seedBankRow(store, "b1", "st-1", d, 5000, "x")
	store.bankRows["b1"].MatchStatus = string(domain.MatchMatched)

	h := NewReconcileHandler(store, reconcile.NewMatcher(), zerolog.Nop())
	body := strings.NewReader(`{"bank_row_id":"b1"}`)
	rec := httptest.NewRecorder()
	h.Unmatch(rec, httptest.NewRequest(http.MethodPost, "/api/reconcile/unmatch", body))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, string(domain.MatchUnmatched), store.bankRows["b1"].MatchStatus)
}

func TestReconcileStatus(t *testing.T) {
	store := newFakeStore()
	store.statements["st-1"] = &infra.StatementRow{StatementID: "st-1", UploadedTS: time.Now()}
	d := civil.Date{Year: 2026, Month: time.January, Day: 10}
	seedBankRow(store, "b1", "st-1", d, 100, "a")
	seedBankRow(store, "b2", "st-1", d, 200, "b")
	store.bankRows["b2"].MatchStatus = string(domain.MatchMatched)

	h := NewReconcileHandler(store, reconcile.NewMatcher(), zerolog.Nop())
	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/statements/st-1/status", nil), "st-1")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, float64(2), resp["total"])
	assert.Equal(t, float64(1), resp["matched"])
	assert.Equal(t, float64(1), resp["unmatched"])
}

func TestImportTransactions_CreatesAndLinks(t *testing.T) {
	store := newFakeStore()
	store.statements["st-1"] = &infra.StatementRow{StatementID: "st-1", BankName: "GTBank", UploadedTS: time.Now()}
	d := civil.Date{Year: 2026, Month: time.January, Day: 10}
	seedBankRow(store, "b1", "st-1", d, 5000, "Transfer to John Doe")

	h := NewReconcileHandler(store, reconcile.NewMatcher(), zerolog.Nop())
	body := strings.NewReader(`{"items":[{"bank_row_id":"b1","category":"Shopping","type":"expense"}]}`)
	rec := httptest.NewRecorder()
	h.ImportTransactions(rec, httptest.NewRequest(http.MethodPost, "/api/statements/st-1/import", body), "st-1")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, float64(1), resp["imported"])
	assert.Equal(t, float64(0), resp["duplicates"])

	require.Len(t, store.ledger, 1)
	assert.Equal(t, "Shopping", store.ledger[0].Category)
	assert.Equal(t, "GTBank", store.ledger[0].Bank.StringVal)
	assert.Equal(t, "NGN", store.ledger[0].Currency)

	require.Len(t, store.matches, 1)
	assert.Equal(t, store.ledger[0].TransactionID, store.matches[0].LedgerTransactionID)
	assert.Equal(t, 1.0, store.matches[0].Confidence)
}

func TestImportTransactions_DuplicateLinked(t *testing.T) {
	store := newFakeStore()
	store.statements["st-1"] = &infra.StatementRow{StatementID: "st-1", BankName: "GTBank", UploadedTS: time.Now()}
	d := civil.Date{Year: 2026, Month: time.January, Day: 10}
	seedBankRow(store, "b1", "st-1", d, 5000, "Transfer to John Doe")
	seedLedger(store, "l1", d, 5000, "already recorded")

	h := NewReconcileHandler(store, reconcile.NewMatcher(), zerolog.Nop())
	body := strings.NewReader(`{"items":[{"bank_row_id":"b1"}]}`)
	rec := httptest.NewRecorder()
	h.ImportTransactions(rec, httptest.NewRequest(http.MethodPost, "/api/statements/st-1/import", body), "st-1")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, float64(0), resp["imported"])
	assert.Equal(t, float64(1), resp["duplicates"])
	assert.Empty(t, store.ledger[1:])

	require.Len(t, store.matches, 1)
	assert.Equal(t, "l1", store.matches[0].LedgerTransactionID)
	assert.Equal(t, reconcile.MethodDuplicateImport, store.matches[0].Method)
}

func TestImportTransactions_SkipsMatchedRows(t *testing.T) {
	store := newFakeStore()
	store.statements["st-1"] = &infra.StatementRow{StatementID: "st-1", BankName: "GTBank", UploadedTS: time.Now()}
	d := civil.Date{Year: 2026, Month: time.January, Day: 10}
	seedBankRow(store, "b1", "st-1", d, 5000, "x")
	store.bankRows["b1"].MatchStatus = string(domain.MatchMatched)

	h := NewReconcileHandler(store, reconcile.NewMatcher(), zerolog.Nop())
	body := strings.NewReader(`{"items":[{"bank_row_id":"b1"},{"bank_row_id":"ghost"}]}`)
	rec := httptest.NewRecorder()
	h.ImportTransactions(rec, httptest.NewRequest(http.MethodPost, "/api/statements/st-1/import", body), "st-1")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody(t, rec)
	assert.Equal(t, float64(0), resp["imported"])
	assert.Equal(t, float64(2), resp["skipped"])
}

func TestDetectFileType(t *testing.T) {
	mk := func(filename, contentType string) *multipart.FileHeader {
		h := &multipart.FileHeader{Filename: filename}
		if contentType != "" {
			h.Header = map[string][]string{"Content-Type": {contentType}}
		}
		return h
	}

	tests := []struct {
		filename    string
		contentType string
		want        string
		wantErr     bool
	}{
		{"st.csv", "", "csv", false},
		{"st.XLSX", "", "excel", false},
		{"st.pdf", "", "pdf", false},
		{"upload", "text/csv", "csv", false},
		{"upload", "application/pdf", "pdf", false},
		{"st.docx", "application/msword", "", true},
	}
	for _, tt := range tests {
		got, err := detectFileType(mk(tt.filename, tt.contentType))
		if tt.wantErr {
			assert.Error(t, err, tt.filename)
		} else {
			require.NoError(t, err, tt.filename)
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestHealthHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler("gemini-2.5-flash").Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "gemini-2.5-flash", resp["ai"])

	rec = httptest.NewRecorder()
	NewHealthHandler("").Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	resp = decodeBody(t, rec)
	assert.Equal(t, "disabled", resp["ai"])
}
