package pdfextract

import (
	"context"
	"fmt"

	"github.com/obiorah-dev/bankrecon/internal/domain"
	"github.com/obiorah-dev/bankrecon/internal/logger"
	"github.com/obiorah-dev/bankrecon/internal/statement"
)

// TextExtractor pulls transactions out of free-form statement text. The AI
// client satisfies this; the cascade only calls it when every structural
// strategy came up empty.
type TextExtractor interface {
	ExtractTransactions(ctx context.Context, text string) ([]domain.BankRow, error)
}

const (
	// Chunking for the AI fallback. The overlap keeps transactions that
	// straddle a chunk boundary from being lost.
	aiChunkSize    = 6000
	aiChunkOverlap = 500

	// Table extraction wins outright when it found at least this fraction
	// of the text heuristic's row count; structure is more trustworthy.
	tableWinRatio = 0.8
)

// Cascade runs the ordered PDF extraction strategies.
type Cascade struct {
	AI TextExtractor // nil disables the last-resort strategy
}

// Extract runs all strategies over the document and applies the selection
// policy:
//
//  1. structured table extraction
//  2. provider reference-suffix text blocks — authoritative when non-empty,
//     unioned with table rows covering other transactions
//  3. generic text-line heuristic — competes with table rows by count
//  4. chunked AI extraction, only when everything else found nothing
//
// Returns ErrNoTransactions when no strategy yields a single row.
func (c *Cascade) Extract(ctx context.Context, doc *Document) ([]domain.BankRow, error) {
	log := logger.FromContext(ctx)

	tableRows := extractTables(doc)
	log.Debug().Int("rows", len(tableRows)).Msg("pdf table extraction")

	providerRows := extractProviderLines(doc)
	log.Debug().Int("rows", len(providerRows)).Msg("pdf provider-line extraction")

	// Provider rows capture transactions outside bordered cells, so they are
	// the base; table rows for other transactions are unioned in.
	if len(providerRows) > 0 {
		merged := unionByIdentity(providerRows, tableRows)
		return statement.Deduplicate(merged), nil
	}

	textRows := extractTextLines(doc)
	log.Debug().Int("rows", len(textRows)).Msg("pdf text heuristic")

	switch {
	case len(tableRows) > 0 && len(textRows) > 0:
		if float64(len(tableRows)) >= float64(len(textRows))*tableWinRatio {
			return statement.Deduplicate(tableRows), nil
		}
		return statement.Deduplicate(append(tableRows, textRows...)), nil
	case len(tableRows) > 0:
		return tableRows, nil
	case len(textRows) > 0:
		return textRows, nil
	}

	if c.AI == nil {
		return nil, statement.ErrNoTransactions
	}

	log.Info().Msg("falling back to AI statement extraction")
	rows := c.extractAI(ctx, doc.Text())
	if len(rows) == 0 {
		return nil, statement.ErrNoTransactions
	}
	return rows, nil
}

// extractAI feeds the raw text to the collaborator in overlapping chunks.
// A failed chunk is logged and skipped; partial extraction beats none.
func (c *Cascade) extractAI(ctx context.Context, text string) []domain.BankRow {
	log := logger.FromContext(ctx)

	var out []domain.BankRow
	for offset := 0; offset < len(text); offset += aiChunkSize - aiChunkOverlap {
		end := offset + aiChunkSize
		if end > len(text) {
			end = len(text)
		}
		rows, err := c.AI.ExtractTransactions(ctx, text[offset:end])
		if err != nil {
			log.Warn().Err(err).Int("offset", offset).Msg("ai chunk extraction failed")
			continue
		}
		out = append(out, rows...)
		if end == len(text) {
			break
		}
	}
	return statement.Deduplicate(out)
}

// unionByIdentity appends extra rows whose (date, amount, direction)
// identity is not already present in base.
func unionByIdentity(base, extra []domain.BankRow) []domain.BankRow {
	seen := make(map[string]bool, len(base))
	key := func(r domain.BankRow) string {
		return fmt.Sprintf("%s|%.2f|%s", r.Date.Format("2006-01-02"), r.Amount, r.Direction)
	}
	for _, r := range base {
		seen[key(r)] = true
	}
	out := base
	for _, r := range extra {
		k := key(r)
		if !seen[k] {
			seen[k] = true
			out = append(out, r)
		}
	}
	return out
}
