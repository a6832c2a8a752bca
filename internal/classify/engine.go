package classify

import (
	"context"

	"github.com/obiorah-dev/bankrecon/internal/domain"
	"github.com/obiorah-dev/bankrecon/internal/logger"
)

// BatchItem is one undecided row sent to the collaborator. Only the index,
// description and direction leave the process.
type BatchItem struct {
	Index       int              `json:"i"`
	Description string           `json:"desc"`
	Direction   domain.Direction `json:"dir"`
}

// BatchSuggestion is one classification returned by the collaborator.
type BatchSuggestion struct {
	Index    int    `json:"i"`
	Category string `json:"category"`
	Type     string `json:"type"`
}

// BatchClassifier is the external collaborator for rows the keyword tier
// left at "Other". The AI client satisfies this.
type BatchClassifier interface {
	ClassifyBatch(ctx context.Context, items []BatchItem) ([]BatchSuggestion, error)
}

// Engine runs the two suggestion tiers over freshly parsed rows.
type Engine struct {
	Classifier BatchClassifier // nil disables the second tier
}

// Suggest fills SuggestedCategory and SuggestedType on every row in place.
// Tier one is the keyword pass; tier two batches the remaining "Other" rows
// into a single collaborator call. The second tier never fails the caller:
// any error leaves the keyword results untouched.
func (e *Engine) Suggest(ctx context.Context, rows []domain.BankRow) {
	for i := range rows {
		cat, typ := SuggestKeyword(rows[i].Description, rows[i].Direction)
		rows[i].SuggestedCategory = cat
		rows[i].SuggestedType = typ
	}

	if e.Classifier == nil {
		return
	}

	var items []BatchItem
	for i := range rows {
		if rows[i].SuggestedCategory == OtherCategory {
			items = append(items, BatchItem{
				Index:       i,
				Description: rows[i].Description,
				Direction:   rows[i].Direction,
			})
		}
	}
	if len(items) == 0 {
		return
	}

	suggestions, err := e.Classifier.ClassifyBatch(ctx, items)
	if err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("batch classification failed")
		return
	}

	// Defensive merge: out-of-range indices, "Other" and unknown types are
	// ignored rather than trusted.
	for _, s := range suggestions {
		if s.Index < 0 || s.Index >= len(rows) {
			continue
		}
		if s.Category != "" && s.Category != OtherCategory {
			rows[s.Index].SuggestedCategory = s.Category
		}
		switch domain.TxType(s.Type) {
		case domain.TypeExpense, domain.TypeIncome, domain.TypeTransfer:
			rows[s.Index].SuggestedType = domain.TxType(s.Type)
		}
	}
}
