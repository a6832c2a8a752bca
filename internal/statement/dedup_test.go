package statement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

func mkRow(day int, amount float64, desc, ref string) domain.BankRow {
	return domain.BankRow{
		Date:        time.Date(2026, time.January, day, 0, 0, 0, 0, time.UTC),
		Description: desc,
		Amount:      amount,
		Direction:   domain.Debit,
		Reference:   ref,
	}
}

func TestDeduplicate_ByReference(t *testing.T) {
	rows := []domain.BankRow{
		mkRow(2, 100, "first copy", "REF1"),
		mkRow(2, 100, "second copy different desc", "REF1"),
		mkRow(2, 100, "same amount new ref", "REF2"),
	}
	got := Deduplicate(rows)
	assert.Len(t, got, 2)
	assert.Equal(t, "first copy", got[0].Description)
}

func TestDeduplicate_ByDescriptionPrefix(t *testing.T) {
	long := "a very long narration that keeps going and going far beyond sixty characters of text"
	rows := []domain.BankRow{
		mkRow(2, 100, long, ""),
		mkRow(2, 100, long+" with a different tail", ""),
		mkRow(2, 100, "totally different", ""),
		mkRow(3, 100, long, ""),
	}
	got := Deduplicate(rows)
	// Same 60-char prefix collapses; other date or description survives.
	assert.Len(t, got, 3)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	rows := []domain.BankRow{
		mkRow(2, 100, "one", ""),
		mkRow(2, 200, "two", ""),
	}
	once := Deduplicate(rows)
	twice := Deduplicate(once)
	assert.Equal(t, once, twice)
}

func TestDeduplicate_Empty(t *testing.T) {
	assert.Empty(t, Deduplicate(nil))
}
