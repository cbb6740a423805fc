// Package dataset reads a Talkwalker-style Excel export fully into
// memory and writes the tagged result back out.
package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cureanalytics/twtagger/pkg/tagging"
)

// Column names expected in the export. Matching is case-insensitive
// and whitespace-tolerant; only url is strictly needed.
const (
	ColURL     = "url"
	ColContent = "content"
	ColTitle   = "title"
	ColTags    = "tags_ai"
)

// Excel holds one loaded worksheet: a header row plus data rows.
type Excel struct {
	sheet   string
	headers []string
	rows    [][]string

	urlCol, contentCol, titleCol, tagsCol int
}

// Load reads the first sheet of an .xlsx file. Short rows are padded
// to header width, and the output tag column is created when absent so
// string assignment always has a cell to land in.
func Load(path string) (*Excel, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	sheet := sheets[0]
	all, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	ds := &Excel{sheet: sheet, headers: all[0], rows: all[1:]}
	if ds.column(ColTags) < 0 {
		ds.headers = append(ds.headers, ColTags)
	}
	for i, row := range ds.rows {
		for len(row) < len(ds.headers) {
			row = append(row, "")
		}
		ds.rows[i] = row
	}
	ds.urlCol = ds.column(ColURL)
	ds.contentCol = ds.column(ColContent)
	ds.titleCol = ds.column(ColTitle)
	ds.tagsCol = ds.column(ColTags)
	return ds, nil
}

func (e *Excel) column(name string) int {
	for i, h := range e.headers {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func (e *Excel) cell(row, col int) string {
	if col < 0 || row < 0 || row >= len(e.rows) || col >= len(e.rows[row]) {
		return ""
	}
	return e.rows[row][col]
}

// Records returns every data row in original order. Row indices are
// the batch identities used in classifier prompts and responses.
func (e *Excel) Records() []tagging.Record {
	recs := make([]tagging.Record, len(e.rows))
	for i := range e.rows {
		recs[i] = tagging.Record{
			Row:     i,
			URL:     e.cell(i, e.urlCol),
			Content: e.cell(i, e.contentCol),
			Title:   e.cell(i, e.titleCol),
		}
	}
	return recs
}

// SetTags writes the validated tag string into the output column.
func (e *Excel) SetTags(row int, tags string) {
	if row < 0 || row >= len(e.rows) {
		return
	}
	e.rows[row][e.tagsCol] = tags
}

// Export writes the full dataset, untouched rows included, to a new
// workbook at path.
func (e *Excel) Export(path string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	writeRow := func(idx int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, idx)
		if err != nil {
			return err
		}
		row := make([]any, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(sheet, cell, &row)
	}

	if err := writeRow(1, e.headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range e.rows {
		if err := writeRow(i+2, row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
