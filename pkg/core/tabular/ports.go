// Package tabular defines the port through which transcription reads and
// writes grid-shaped backing stores (a Google spreadsheet, an .xlsx workbook,
// or memory in tests).
package tabular

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned by Read for a sheet the store does not have.
var ErrSheetNotFound = errors.New("sheet not found")

// Cell is one value at a column letter and 1-based row.
type Cell struct {
	Sheet  string
	Column string
	Row    int
	Value  any
}

// Ref returns the cell reference without the sheet, e.g. "A6".
func (c Cell) Ref() string { return fmt.Sprintf("%s%d", c.Column, c.Row) }

// A1 returns the sheet-qualified reference, e.g. "'Sheet'!A6".
func (c Cell) A1() string { return QuoteSheet(c.Sheet) + "!" + c.Ref() }

// Range is a rectangular area, or a whole sheet when Ref is empty.
type Range struct {
	Sheet string
	Ref   string
}

// A1 returns the sheet-qualified range.
func (r Range) A1() string {
	if r.Ref == "" {
		return QuoteSheet(r.Sheet)
	}
	return QuoteSheet(r.Sheet) + "!" + r.Ref
}

// ColumnRange spans rows first..last of one column.
func ColumnRange(sheet, column string, first, last int) Range {
	if first == last {
		return Range{Sheet: sheet, Ref: fmt.Sprintf("%s%d", column, first)}
	}
	return Range{Sheet: sheet, Ref: fmt.Sprintf("%s%d:%s%d", column, first, column, last)}
}

// QuoteSheet quotes a sheet title for use in A1 notation.
func QuoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// Bounds returns the 1-based column and row bounds of ref ("A6" or "A6:C8").
func Bounds(ref string) (col1, row1, col2, row2 int, err error) {
	from, to, found := strings.Cut(ref, ":")
	col1, row1, err = excelize.CellNameToCoordinates(from)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("bad range %q: %w", ref, err)
	}
	if !found {
		return col1, row1, col1, row1, nil
	}
	col2, row2, err = excelize.CellNameToCoordinates(to)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("bad range %q: %w", ref, err)
	}
	if col2 < col1 {
		col1, col2 = col2, col1
	}
	if row2 < row1 {
		row1, row2 = row2, row1
	}
	return col1, row1, col2, row2, nil
}

// Reader returns every row of a sheet as strings. Missing sheets yield ErrSheetNotFound.
type Reader interface {
	Read(ctx context.Context, sheet string) ([][]string, error)
}

// Writer clears ranges and writes individual cells. Sheets are created on demand.
type Writer interface {
	Clear(ctx context.Context, ranges ...Range) error
	Write(ctx context.Context, cells ...Cell) error
}

// Appender adds rows after the last non-empty row of a sheet.
type Appender interface {
	Append(ctx context.Context, sheet string, rows [][]any) error
}

// Store is the full backing-store port.
type Store interface {
	Reader
	Writer
	Appender
}

// Flusher is implemented by stores that buffer changes until saved.
type Flusher interface {
	Flush(ctx context.Context) error
}
