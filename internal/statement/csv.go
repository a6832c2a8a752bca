package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

var csvSeparators = []rune{',', ';', '\t', '|'}

// ParseCSV reads a delimited statement export. Banks are inconsistent about
// both encoding and separator, so the reader tries UTF-8 first and falls
// back to Windows-1252 and Latin-1, and probes each candidate separator
// until one yields at least two columns and usable transactions.
func ParseCSV(r io.Reader) ([]domain.BankRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ParseCSV: read: %w", err)
	}

	text, err := decodeStatementBytes(data)
	if err != nil {
		return nil, fmt.Errorf("ParseCSV: %w", err)
	}

	var best []domain.BankRow
	for _, sep := range csvSeparators {
		grid, err := readGrid(text, sep)
		if err != nil || len(grid) == 0 || len(grid[0]) < 2 {
			continue
		}
		rows := ParseGrid(grid)
		if len(rows) > len(best) {
			best = rows
		}
	}
	if len(best) == 0 {
		return nil, ErrNoTransactions
	}
	return best, nil
}

// decodeStatementBytes returns the content as UTF-8 text. Legacy exports
// from Windows tooling arrive as cp1252 or latin-1.
func decodeStatementBytes(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	if utf8.Valid(data) {
		return string(data), nil
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		decoded, err := cm.NewDecoder().Bytes(data)
		if err == nil {
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("decodeStatementBytes: undecodable content")
}

func readGrid(text string, sep rune) ([][]string, error) {
	reader := csv.NewReader(bytes.NewBufferString(text))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader.ReadAll()
}
