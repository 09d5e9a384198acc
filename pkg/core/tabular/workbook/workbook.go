// Package workbook adapts a local .xlsx file to tabular.Store using excelize.
// Changes are buffered in memory until Flush saves them.
package workbook

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xuri/excelize/v2"

	"statement_transcriber/pkg/core/tabular"
)

var (
	_ tabular.Store   = (*Workbook)(nil)
	_ tabular.Flusher = (*Workbook)(nil)
)

type Workbook struct {
	mu   sync.Mutex
	file *excelize.File
	out  string
}

// Open loads templatePath (or starts an empty workbook when it is empty).
// Flush writes to outputPath.
func Open(templatePath, outputPath string) (*Workbook, error) {
	if outputPath == "" {
		outputPath = templatePath
	}
	if outputPath == "" {
		return nil, fmt.Errorf("workbook: no output path")
	}
	var (
		f   *excelize.File
		err error
	)
	if templatePath == "" {
		f = excelize.NewFile()
	} else {
		f, err = excelize.OpenFile(templatePath)
		if err != nil {
			return nil, fmt.Errorf("open workbook %s: %w", templatePath, err)
		}
	}
	return &Workbook{file: f, out: outputPath}, nil
}

// New wraps an already-open file, for tests.
func New(f *excelize.File, outputPath string) *Workbook {
	return &Workbook{file: f, out: outputPath}
}

func (w *Workbook) ensureSheet(name string) error {
	idx, err := w.file.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("sheet %s: %w", name, err)
	}
	if idx >= 0 {
		return nil
	}
	if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	return nil
}

func (w *Workbook) Clear(_ context.Context, ranges ...tabular.Range) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range ranges {
		if err := w.ensureSheet(r.Sheet); err != nil {
			return err
		}
		var c1, r1, c2, r2 int
		if r.Ref == "" {
			rows, err := w.file.GetRows(r.Sheet)
			if err != nil {
				return fmt.Errorf("read %s: %w", r.Sheet, err)
			}
			c1, r1, r2 = 1, 1, len(rows)
			for _, row := range rows {
				c2 = max(c2, len(row))
			}
		} else {
			var err error
			c1, r1, c2, r2, err = tabular.Bounds(r.Ref)
			if err != nil {
				return err
			}
		}
		for row := r1; row <= r2; row++ {
			for col := c1; col <= c2; col++ {
				name, _ := excelize.CoordinatesToCellName(col, row)
				if err := w.file.SetCellValue(r.Sheet, name, nil); err != nil {
					return fmt.Errorf("clear %s!%s: %w", r.Sheet, name, err)
				}
			}
		}
	}
	return nil
}

func (w *Workbook) Write(_ context.Context, cells ...tabular.Cell) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, c := range cells {
		if err := w.ensureSheet(c.Sheet); err != nil {
			return err
		}
		if err := w.file.SetCellValue(c.Sheet, c.Ref(), c.Value); err != nil {
			return fmt.Errorf("write %s: %w", c.A1(), err)
		}
	}
	return nil
}

func (w *Workbook) Read(_ context.Context, sheet string) ([][]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx, err := w.file.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", tabular.ErrSheetNotFound, sheet)
	}
	rows, err := w.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}
	return rows, nil
}

func (w *Workbook) Append(_ context.Context, sheet string, rows [][]any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureSheet(sheet); err != nil {
		return err
	}
	existing, err := w.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", sheet, err)
	}
	next := len(existing) + 1
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, next+i)
		values := append([]interface{}(nil), row...)
		if err := w.file.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("append %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

// Flush saves the workbook to its output path.
func (w *Workbook) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.SaveAs(w.out); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.out, err)
	}
	slog.InfoContext(ctx, "workbook saved", "path", w.out)
	return nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}
