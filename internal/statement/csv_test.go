package statement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

func TestParseCSV_Comma(t *testing.T) {
	in := "Date,Narration,Debit,Credit\n" +
		"02/01/2026,POS Purchase,\"1,500.00\",\n" +
		"03/01/2026,Salary,,\"250,000.00\"\n"
	rows, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.Debit, rows[0].Direction)
	assert.Equal(t, domain.Credit, rows[1].Direction)
}

func TestParseCSV_Semicolon(t *testing.T) {
	in := "Date;Narration;Debit;Credit\n" +
		"02/01/2026;POS Purchase;1500.00;\n"
	rows, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1500.0, rows[0].Amount)
}

func TestParseCSV_Tab(t *testing.T) {
	in := "Date\tNarration\tAmount\n" +
		"02/01/2026\tAirtime\t500.00 DR\n"
	rows, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.Debit, rows[0].Direction)
}

func TestParseCSV_BOM(t *testing.T) {
	in := "\xEF\xBB\xBFDate,Narration,Debit\n02/01/2026,Charge,100.00\n"
	rows, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestParseCSV_Windows1252(t *testing.T) {
	// 0xD1 is Ñ in cp1252 and invalid as a standalone UTF-8 byte.
	in := "Date,Narration,Debit\n02/01/2026,PE\xd1A STORES,100.00\n"
	rows, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "PEÑA STORES", rows[0].Description)
}

func TestParseCSV_PreambleBeforeHeader(t *testing.T) {
	in := "ACME Bank PLC,,\n" +
		"Account 0123456789,,\n" +
		"Date,Narration,Debit\n" +
		"02/01/2026,POS Purchase,100.00\n"
	rows, err := ParseCSV(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestParseCSV_NoTransactions(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("just some text\nwith no structure\n"))
	assert.ErrorIs(t, err, ErrNoTransactions)
}
