package pdfextract

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Fragments closer than this (in points) belong to the same visual cell;
// wider gaps are column boundaries.
const cellGapPts = 10.0

// Page is one PDF page reduced to the two views the extraction strategies
// consume: plain text lines in reading order, and cell grids for regions
// that render as tables.
type Page struct {
	Lines  []string
	Tables [][][]string
}

// Document is the layout-level view of a statement PDF.
type Document struct {
	Pages []Page
}

// Text returns the whole document as newline-joined text, the shape the
// AI fallback prompt expects.
func (d *Document) Text() string {
	var b strings.Builder
	for _, p := range d.Pages {
		for _, l := range p.Lines {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// Load reads a PDF from disk and reconstructs lines and table grids from
// the positioned text fragments.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Load: read pdf: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses in-memory PDF content, the shape the async worker gets
// back from the archive. Pages that fail to decode are skipped; statements
// are routinely produced by buggy generators and a bad page must not sink
// the rest.
func LoadBytes(data []byte) (*Document, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("LoadBytes: open pdf: %w", err)
	}

	doc := &Document{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		rows, err := p.GetTextByRow()
		if err != nil {
			continue
		}
		doc.Pages = append(doc.Pages, buildPage(rows))
	}
	return doc, nil
}

// buildPage turns positioned rows into text lines and groups consecutive
// multi-cell lines into table grids.
func buildPage(rows pdf.Rows) Page {
	sort.Slice(rows, func(i, j int) bool { return rows[i].Position > rows[j].Position })

	var page Page
	var grids [][]string

	flush := func() {
		if len(grids) > 0 {
			page.Tables = append(page.Tables, grids)
			grids = nil
		}
	}

	for _, row := range rows {
		cells := splitCells(row.Content)
		page.Lines = append(page.Lines, strings.Join(cells, " "))
		if len(cells) >= 2 {
			grids = append(grids, cells)
		} else {
			flush()
		}
	}
	flush()
	return page
}

// splitCells merges a row's text fragments into cells, breaking on
// horizontal gaps wider than cellGapPts.
func splitCells(frags []pdf.Text) []string {
	if len(frags) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(frags))
	copy(sorted, frags)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var cells []string
	var cur strings.Builder
	cursor := sorted[0].X

	for i, fr := range sorted {
		if i > 0 {
			gap := fr.X - cursor
			if gap > cellGapPts {
				cells = append(cells, strings.TrimSpace(cur.String()))
				cur.Reset()
			} else if gap > 1.0 && cur.Len() > 0 {
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(fr.S)
		cursor = fr.X + fr.W
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		cells = append(cells, s)
	}
	return cells
}
