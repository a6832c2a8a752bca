package pdfextract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/obiorah-dev/bankrecon/internal/domain"
	"github.com/obiorah-dev/bankrecon/internal/statement"
)

var isoDatePrefixRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

var lineBreakRe = regexp.MustCompile(`[\r\n]+`)

// Column order used by providers that render one transaction per bordered
// single-row block.
var singleRowColumns = []string{"Date", "Narration", "Reference", "Debit", "Credit", "Balance"}

// extractTables runs structured table extraction over every grid in the
// document.
//
// Each grid is tried three ways: first row as header, whole grid as data
// with an internal header scan, and (for headerless continuation pages)
// the most recent successful header from an earlier grid. Single-row
// grids whose first cell is an ISO date are collected and assembled into
// one synthetic table using the fixed single-row column order.
func extractTables(doc *Document) []domain.BankRow {
	var out []domain.BankRow
	var lastGoodHeader []string
	var singleTxRows [][]string

	for _, page := range doc.Pages {
		for _, grid := range page.Tables {
			if len(grid) == 0 {
				continue
			}

			// One bordered row per transaction, ISO date first.
			if len(grid) == 1 && len(grid[0]) >= 4 {
				first := strings.TrimSpace(lineBreakRe.ReplaceAllString(grid[0][0], ""))
				if isoDatePrefixRe.MatchString(first) {
					singleTxRows = append(singleTxRows, grid[0])
					continue
				}
			}

			if len(grid) < 2 {
				continue
			}

			rows := statement.ParseGrid(grid)
			if len(rows) > 0 {
				// Only a grid that parsed with its own header can donate
				// that header to later continuation pages.
				lastGoodHeader = grid[0]
				out = append(out, rows...)
				continue
			}

			// Continuation page: no header of its own, same shape as the
			// last table that parsed.
			if lastGoodHeader != nil && len(grid[0]) == len(lastGoodHeader) {
				tbl := statement.NewTable(lastGoodHeader, grid)
				parsed, err := statement.NormalizeRows(tbl, statement.ResolveColumns(tbl.Columns))
				if err == nil {
					out = append(out, parsed...)
				}
			}
		}
	}

	if len(singleTxRows) > 0 {
		out = append(out, assembleSingleRowTables(singleTxRows)...)
	}
	return out
}

// assembleSingleRowTables stitches the collected single-row grids into one
// table under the fixed column order, padding with placeholder labels when
// a provider appends extra columns.
func assembleSingleRowTables(rows [][]string) []domain.BankRow {
	ncols := 0
	for _, r := range rows {
		if len(r) > ncols {
			ncols = len(r)
		}
	}
	header := make([]string, 0, ncols)
	header = append(header, singleRowColumns...)
	for i := len(singleRowColumns); i < ncols; i++ {
		header = append(header, fmt.Sprintf("_col_%d", i))
	}
	if ncols < len(header) {
		header = header[:ncols]
	}

	tbl := statement.NewTable(header, rows)
	out, err := statement.NormalizeRows(tbl, statement.ResolveColumns(tbl.Columns))
	if err != nil {
		return nil
	}
	return out
}
