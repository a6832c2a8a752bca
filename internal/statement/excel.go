package statement

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/obiorah-dev/bankrecon/internal/domain"
)

// ParseExcel reads an .xlsx statement export. Sheets are scanned in workbook
// order and the first one yielding transactions wins; cover and summary
// sheets placed before the data simply produce nothing and are skipped.
func ParseExcel(r io.Reader) ([]domain.BankRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("ParseExcel: open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		grid, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		if rows := ParseGrid(grid); len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, ErrNoTransactions
}
