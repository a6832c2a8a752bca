package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/obiorah-dev/bankrecon/internal/api/middleware"
	"github.com/obiorah-dev/bankrecon/internal/domain"
	infra "github.com/obiorah-dev/bankrecon/internal/infra/bigquery"
	"github.com/obiorah-dev/bankrecon/internal/reconcile"
)

// defaultCurrency applies when an import item carries none.
const defaultCurrency = "NGN"

// ReconcileStore is the slice of the persistence layer the
// reconciliation endpoints need.
type ReconcileStore interface {
	GetStatement(ctx context.Context, statementID string) (*infra.StatementRow, error)
	GetBankRow(ctx context.Context, rowID string) (*infra.BankTxRow, error)
	ListUnmatchedBankRows(ctx context.Context, statementID string) ([]*infra.BankTxRow, error)
	GetLedgerTransaction(ctx context.Context, transactionID string) (*infra.LedgerRow, error)
	ListLedgerTransactions(ctx context.Context) ([]*infra.LedgerRow, error)
	InsertLedgerTransactions(ctx context.Context, rows []*infra.LedgerRow) error
	ApplyMatch(ctx context.Context, m domain.MatchResult) error
	SummarizeMatches(ctx context.Context, statementID string) (*infra.ReconciliationSummary, error)
	RecordAudit(ctx context.Context, entityType, entityID, action string, detail any)
}

// ReconcileHandler serves matching, unmatching and ledger import.
type ReconcileHandler struct {
	store   ReconcileStore
	matcher *reconcile.Matcher
	log     zerolog.Logger
}

func NewReconcileHandler(store ReconcileStore, matcher *reconcile.Matcher, log zerolog.Logger) *ReconcileHandler {
	return &ReconcileHandler{
		store:   store,
		matcher: matcher,
		log:     log,
	}
}

// matchResultResponse is the JSON shape of one reconciliation decision.
type matchResultResponse struct {
	BankRowID           string  `json:"bank_row_id"`
	LedgerTransactionID string  `json:"ledger_transaction_id,omitempty"`
	Status              string  `json:"status"`
	Confidence          float64 `json:"confidence"`
	Method              string  `json:"method,omitempty"`
}

func toMatchResultResponse(m domain.MatchResult) matchResultResponse {
	return matchResultResponse{
		BankRowID:           m.BankRowID,
		LedgerTransactionID: m.LedgerTransactionID,
		Status:              string(m.Status),
		Confidence:          m.Confidence,
		Method:              m.Method,
	}
}

// AutoMatch runs the matcher over a statement's unmatched rows against
// the full ledger and persists every accepted pair.
func (h *ReconcileHandler) AutoMatch(w http.ResponseWriter, r *http.Request, statementID string) {
	ctx := r.Context()

	st, err := h.store.GetStatement(ctx, statementID)
	if err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to get statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get statement")
		return
	}
	if st == nil {
		middleware.WriteError(w, http.StatusNotFound, "Statement not found")
		return
	}

	unmatched, err := h.store.ListUnmatchedBankRows(ctx, statementID)
	if err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to list unmatched rows")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list unmatched rows")
		return
	}
	ledger, err := h.store.ListLedgerTransactions(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list ledger transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list ledger transactions")
		return
	}

	rows := make([]domain.BankRow, 0, len(unmatched))
	for _, row := range unmatched {
		rows = append(rows, row.BankRow())
	}
	txs := make([]domain.LedgerTransaction, 0, len(ledger))
	for _, tx := range ledger {
		txs = append(txs, tx.Ledger())
	}

	results := h.matcher.AutoMatch(rows, txs)
	applied := make([]matchResultResponse, 0, len(results))
	for _, m := range results {
		if err := h.store.ApplyMatch(ctx, m); err != nil {
			h.log.Error().Err(err).Str("bank_row_id", m.BankRowID).Msg("Failed to apply match")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to apply match")
			return
		}
		h.store.RecordAudit(ctx, "bank_row", m.BankRowID, "auto_matched", map[string]any{
			"ledger_transaction_id": m.LedgerTransactionID,
			"confidence":            m.Confidence,
		})
		applied = append(applied, toMatchResultResponse(m))
	}

	h.log.Info().
		Str("statement_id", statementID).
		Int("considered", len(rows)).
		Int("matched", len(applied)).
		Msg("Auto-match completed")

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"statement_id": statementID,
		"considered":   len(rows),
		"matched":      len(applied),
		"matches":      applied,
	})
}

type manualMatchRequest struct {
	BankRowID           string `json:"bank_row_id"`
	LedgerTransactionID string `json:"ledger_transaction_id"`
}

// ManualMatch links a user-chosen bank row and ledger transaction. Pairs
// outside tolerance are linked as discrepancies rather than rejected.
func (h *ReconcileHandler) ManualMatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req manualMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.BankRowID == "" || req.LedgerTransactionID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "bank_row_id and ledger_transaction_id are required")
		return
	}

	row, err := h.store.GetBankRow(ctx, req.BankRowID)
	if err != nil {
		h.log.Error().Err(err).Str("bank_row_id", req.BankRowID).Msg("Failed to get bank row")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get bank row")
		return
	}
	if row == nil {
		middleware.WriteError(w, http.StatusNotFound, "Bank row not found")
		return
	}

	tx, err := h.store.GetLedgerTransaction(ctx, req.LedgerTransactionID)
	if err != nil {
		h.log.Error().Err(err).Str("transaction_id", req.LedgerTransactionID).Msg("Failed to get ledger transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get ledger transaction")
		return
	}
	if tx == nil {
		middleware.WriteError(w, http.StatusNotFound, "Ledger transaction not found")
		return
	}

	result := h.matcher.ManualMatch(row.BankRow(), tx.Ledger())
	if err := h.store.ApplyMatch(ctx, result); err != nil {
		h.log.Error().Err(err).Str("bank_row_id", result.BankRowID).Msg("Failed to apply match")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to apply match")
		return
	}
	h.store.RecordAudit(ctx, "bank_row", result.BankRowID, "manual_matched", map[string]any{
		"ledger_transaction_id": result.LedgerTransactionID,
		"status":                string(result.Status),
	})

	middleware.WriteJSON(w, http.StatusOK, toMatchResultResponse(result))
}

type unmatchRequest struct {
	BankRowID string `json:"bank_row_id"`
}

// Unmatch clears a bank row's link so it can be rematched.
func (h *ReconcileHandler) Unmatch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req unmatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.BankRowID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "bank_row_id is required")
		return
	}

	row, err := h.store.GetBankRow(ctx, req.BankRowID)
	if err != nil {
		h.log.Error().Err(err).Str("bank_row_id", req.BankRowID).Msg("Failed to get bank row")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get bank row")
		return
	}
	if row == nil {
		middleware.WriteError(w, http.StatusNotFound, "Bank row not found")
		return
	}

	result := h.matcher.Unmatch(row.BankRow())
	if err := h.store.ApplyMatch(ctx, result); err != nil {
		h.log.Error().Err(err).Str("bank_row_id", result.BankRowID).Msg("Failed to apply unmatch")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to apply unmatch")
		return
	}
	h.store.RecordAudit(ctx, "bank_row", result.BankRowID, "unmatched", nil)

	middleware.WriteJSON(w, http.StatusOK, toMatchResultResponse(result))
}

// Status returns the match-state counts of one statement.
func (h *ReconcileHandler) Status(w http.ResponseWriter, r *http.Request, statementID string) {
	ctx := r.Context()

	st, err := h.store.GetStatement(ctx, statementID)
	if err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to get statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get statement")
		return
	}
	if st == nil {
		middleware.WriteError(w, http.StatusNotFound, "Statement not found")
		return
	}

	summary, err := h.store.SummarizeMatches(ctx, statementID)
	if err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to summarize matches")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to summarize matches")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"statement_id":  statementID,
		"total":         summary.Total,
		"matched":       summary.Matched,
		"unmatched":     summary.Unmatched,
		"discrepancies": summary.Discrepancies,
	})
}

type importItem struct {
	BankRowID   string `json:"bank_row_id"`
	Category    string `json:"category,omitempty"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

type importRequest struct {
	Items []importItem `json:"items"`
}

// ImportTransactions turns selected bank rows into ledger transactions.
// Rows already matched are skipped; rows whose counterpart already exists
// in the ledger are linked as duplicates instead of imported twice.
func (h *ReconcileHandler) ImportTransactions(w http.ResponseWriter, r *http.Request, statementID string) {
	ctx := r.Context()

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Items) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "items is required")
		return
	}

	st, err := h.store.GetStatement(ctx, statementID)
	if err != nil {
		h.log.Error().Err(err).Str("statement_id", statementID).Msg("Failed to get statement")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get statement")
		return
	}
	if st == nil {
		middleware.WriteError(w, http.StatusNotFound, "Statement not found")
		return
	}

	ledgerRows, err := h.store.ListLedgerTransactions(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list ledger transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list ledger transactions")
		return
	}
	ledger := make([]domain.LedgerTransaction, 0, len(ledgerRows))
	for _, tx := range ledgerRows {
		ledger = append(ledger, tx.Ledger())
	}

	var imported, duplicates, skipped int
	for _, item := range req.Items {
		row, err := h.store.GetBankRow(ctx, item.BankRowID)
		if err != nil {
			h.log.Error().Err(err).Str("bank_row_id", item.BankRowID).Msg("Failed to get bank row")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to get bank row")
			return
		}
		if row == nil || row.StatementID != statementID {
			skipped++
			continue
		}
		if row.MatchStatus != string(domain.MatchUnmatched) {
			skipped++
			continue
		}

		bankRow := row.BankRow()
		if dup := h.matcher.FindDuplicate(bankRow, ledger, st.BankName); dup != nil {
			m := domain.MatchResult{
				BankRowID:           bankRow.ID,
				LedgerTransactionID: dup.ID,
				Status:              domain.MatchMatched,
				Confidence:          1.0,
				Method:              reconcile.MethodDuplicateImport,
			}
			if err := h.store.ApplyMatch(ctx, m); err != nil {
				h.log.Error().Err(err).Str("bank_row_id", bankRow.ID).Msg("Failed to link duplicate")
				middleware.WriteError(w, http.StatusInternalServerError, "Failed to link duplicate")
				return
			}
			h.store.RecordAudit(ctx, "bank_row", bankRow.ID, "duplicate_linked", map[string]any{
				"ledger_transaction_id": dup.ID,
			})
			duplicates++
			continue
		}

		tx := buildLedgerTransaction(bankRow, item, st.BankName)
		if err := h.store.InsertLedgerTransactions(ctx, []*infra.LedgerRow{infra.NewLedgerRow(tx, time.Now().UTC())}); err != nil {
			h.log.Error().Err(err).Str("bank_row_id", bankRow.ID).Msg("Failed to insert ledger transaction")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to insert ledger transaction")
			return
		}
		// Later items in the batch can duplicate-match this one.
		ledger = append(ledger, tx)

		m := domain.MatchResult{
			BankRowID:           bankRow.ID,
			LedgerTransactionID: tx.ID,
			Status:              domain.MatchMatched,
			Confidence:          1.0,
			Method:              reconcile.MethodManual,
		}
		if err := h.store.ApplyMatch(ctx, m); err != nil {
			h.log.Error().Err(err).Str("bank_row_id", bankRow.ID).Msg("Failed to link imported transaction")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to link imported transaction")
			return
		}
		h.store.RecordAudit(ctx, "ledger_transaction", tx.ID, "imported", map[string]any{
			"bank_row_id":  bankRow.ID,
			"statement_id": statementID,
		})
		imported++
	}

	h.log.Info().
		Str("statement_id", statementID).
		Int("imported", imported).
		Int("duplicates", duplicates).
		Int("skipped", skipped).
		Msg("Import completed")

	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"statement_id": statementID,
		"imported":     imported,
		"duplicates":   duplicates,
		"skipped":      skipped,
	})
}

// buildLedgerTransaction fills a new ledger transaction from a bank row,
// letting the import item override classification fields.
func buildLedgerTransaction(row domain.BankRow, item importItem, bankName string) domain.LedgerTransaction {
	txType := domain.TxType(item.Type)
	if txType != domain.TypeExpense && txType != domain.TypeIncome && txType != domain.TypeTransfer {
		txType = row.SuggestedType
	}
	if txType == "" {
		if row.Direction == domain.Credit {
			txType = domain.TypeIncome
		} else {
			txType = domain.TypeExpense
		}
	}

	category := item.Category
	if category == "" {
		category = row.SuggestedCategory
	}
	if category == "" {
		category = "Other"
	}

	description := item.Description
	if description == "" {
		description = row.Description
	}

	currency := item.Currency
	if currency == "" {
		currency = defaultCurrency
	}

	return domain.LedgerTransaction{
		ID:          uuid.NewString(),
		Date:        row.Date,
		Amount:      row.Amount,
		Type:        txType,
		Category:    category,
		Description: description,
		Vendor:      row.Vendor,
		Bank:        bankName,
		Currency:    currency,
	}
}
