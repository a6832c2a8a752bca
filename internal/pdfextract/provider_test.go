package pdfextract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

func TestExtractProviderLines(t *testing.T) {
	doc := &Document{Pages: []Page{{
		Lines: []string{
			"Account Statement",
			"2026-01-05T09:",
			"Transfer to JOHN DOE 100004250711_DEBIT_7 5,000.00 0.00 10,000.00",
			"55:32",
			"2026-01-06T10:",
			"100004250712_CREDIT_8 0.00 2,500.00 12,500.00",
			"12:01",
		},
	}}}

	rows := extractProviderLines(doc)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, "Transfer to JOHN DOE", rows[0].Description)
	assert.Equal(t, "100004250711_DEBIT_7", rows[0].Reference)
	assert.Equal(t, 5000.0, rows[0].Amount)
	assert.Equal(t, domain.Debit, rows[0].Direction)
	assert.Equal(t, "JOHN DOE", rows[0].Vendor)

	// Reference-only data line: direction and amount from the credit column,
	// generic narration.
	assert.Equal(t, time.Date(2026, time.January, 6, 0, 0, 0, 0, time.UTC), rows[1].Date)
	assert.Equal(t, "Credit transaction", rows[1].Description)
	assert.Equal(t, "100004250712_CREDIT_8", rows[1].Reference)
	assert.Equal(t, 2500.0, rows[1].Amount)
	assert.Equal(t, domain.Credit, rows[1].Direction)
}

func TestExtractProviderLines_CreditFallsBackToDebitColumn(t *testing.T) {
	// Credit marker but the amount landed in the debit column.
	doc := &Document{Pages: []Page{{
		Lines: []string{
			"2026-01-07",
			"Wallet top-up ABC_CREDIT_9 3,000.00 0.00 15,000.00",
		},
	}}}

	rows := extractProviderLines(doc)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.Credit, rows[0].Direction)
	assert.Equal(t, 3000.0, rows[0].Amount)
}

func TestExtractProviderLines_NoPrecedingDate(t *testing.T) {
	doc := &Document{Pages: []Page{{
		Lines: []string{
			"Transfer out XYZ_DEBIT_1 1,000.00 0.00 9,000.00",
		},
	}}}
	assert.Empty(t, extractProviderLines(doc))
}

func TestExtractProviderLines_IgnoresPlainAmountLines(t *testing.T) {
	// Three trailing amounts but no reference marker.
	doc := &Document{Pages: []Page{{
		Lines: []string{
			"2026-01-05",
			"Some totals row 1,000.00 2,000.00 3,000.00",
		},
	}}}
	assert.Empty(t, extractProviderLines(doc))
}

func TestSplitReference(t *testing.T) {
	narr, ref := splitReference("Transfer to JOHN DOE 100004250711_DEBIT_7")
	assert.Equal(t, "Transfer to JOHN DOE", narr)
	assert.Equal(t, "100004250711_DEBIT_7", ref)

	narr, ref = splitReference("100004250712_CREDIT_8")
	assert.Empty(t, narr)
	assert.Equal(t, "100004250712_CREDIT_8", ref)

	narr, ref = splitReference("no marker here")
	assert.Equal(t, "no marker here", narr)
	assert.Empty(t, ref)
}
