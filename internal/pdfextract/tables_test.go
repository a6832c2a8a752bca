package pdfextract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestExtractTables_HeaderedGrid(t *testing.T) {
	doc := &Document{Pages: []Page{{
		Tables: [][][]string{{
			{"Date", "Narration", "Debit", "Credit"},
			{"02/01/2026", "POS Purchase", "1,500.00", ""},
			{"03/01/2026", "Salary", "", "250,000.00"},
		}},
	}}}

	rows := extractTables(doc)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.Debit, rows[0].Direction)
	assert.Equal(t, domain.Credit, rows[1].Direction)
}

func TestExtractTables_ContinuationPageReusesHeader(t *testing.T) {
	doc := &Document{Pages: []Page{
		{Tables: [][][]string{{
			{"Date", "Narration", "Debit", "Credit"},
			{"02/01/2026", "POS Purchase", "1,500.00", ""},
		}}},
		// Second page: same shape, no header row of its own.
		{Tables: [][][]string{{
			{"04/01/2026", "Fuel station", "3,000.00", ""},
			{"05/01/2026", "Refund", "", "1,200.00"},
		}}},
	}}

	rows := extractTables(doc)
	require.Len(t, rows, 3)
	assert.Equal(t, day(2026, time.January, 4), rows[1].Date)
	assert.Equal(t, domain.Credit, rows[2].Direction)
}

func TestExtractTables_SingleRowBlocks(t *testing.T) {
	// One bordered row per transaction, ISO date first, fixed column order.
	doc := &Document{Pages: []Page{{
		Tables: [][][]string{
			{{"2026-01-05", "Transfer to JOHN DOE", "REF_DEBIT_7", "5,000.00", "--", "10,000.00"}},
			{{"2026-01-06", "Salary inflow", "REF_CREDIT_8", "--", "2,500.00", "12,500.00"}},
		},
	}}}

	rows := extractTables(doc)
	require.Len(t, rows, 2)

	assert.Equal(t, day(2026, time.January, 5), rows[0].Date)
	assert.Equal(t, domain.Debit, rows[0].Direction)
	assert.Equal(t, 5000.0, rows[0].Amount)
	assert.Equal(t, "JOHN DOE", rows[0].Vendor)

	assert.Equal(t, domain.Credit, rows[1].Direction)
	assert.Equal(t, 2500.0, rows[1].Amount)
}

func TestExtractTables_IgnoresNonTransactionGrids(t *testing.T) {
	doc := &Document{Pages: []Page{{
		Tables: [][][]string{{
			{"Opening Balance", "10,000.00"},
			{"Closing Balance", "8,500.00"},
		}},
	}}}
	assert.Empty(t, extractTables(doc))
}
