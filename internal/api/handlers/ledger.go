package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/obiorah-dev/bankrecon/internal/api/middleware"
	infra "github.com/obiorah-dev/bankrecon/internal/infra/bigquery"
)

// LedgerStore is the slice of the persistence layer the ledger
// endpoints need.
type LedgerStore interface {
	ListLedgerTransactions(ctx context.Context) ([]*infra.LedgerRow, error)
}

// LedgerHandler serves the recorded transactions the matcher
// reconciles against.
type LedgerHandler struct {
	store LedgerStore
	log   zerolog.Logger
}

func NewLedgerHandler(store LedgerStore, log zerolog.Logger) *LedgerHandler {
	return &LedgerHandler{store: store, log: log}
}

type ledgerTransactionResponse struct {
	TransactionID string  `json:"transaction_id"`
	Date          string  `json:"date"`
	Amount        float64 `json:"amount"`
	Type          string  `json:"type"`
	Category      string  `json:"category"`
	Description   string  `json:"description"`
	Vendor        string  `json:"vendor,omitempty"`
	Bank          string  `json:"bank,omitempty"`
	Currency      string  `json:"currency"`
}

// List returns the whole ledger in date order.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListLedgerTransactions(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list ledger transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	out := make([]ledgerTransactionResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, ledgerTransactionResponse{
			TransactionID: row.TransactionID,
			Date:          row.TxDate.String(),
			Amount:        row.Amount,
			Type:          row.TxType,
			Category:      row.Category,
			Description:   row.Description,
			Vendor:        row.Vendor.StringVal,
			Bank:          row.Bank.StringVal,
			Currency:      row.Currency,
		})
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"count":        len(out),
	})
}
