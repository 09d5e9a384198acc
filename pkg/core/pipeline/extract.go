package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"statement_transcriber/pkg/core/amount"
	"statement_transcriber/pkg/core/extract"
	"statement_transcriber/pkg/core/logging"
	"statement_transcriber/pkg/core/synthesis"
	"statement_transcriber/pkg/core/tabular"
	"statement_transcriber/pkg/core/textnorm"
	"statement_transcriber/pkg/core/validate"
)

// WorksheetHeader is row 1 of the OCR work sheet.
var WorksheetHeader = []string{"勘定科目", "前々期", "前期", "当期"}

var worksheetColumns = [...]string{"A", "B", "C", "D"}

// Extract reads the documents, merges the periods, drops unsafe names and
// replaces the OCR work sheet with the result.
func (t *Transcriber) Extract(ctx context.Context, docs Documents) ([]synthesis.LineItem, error) {
	if err := docs.validate(); err != nil {
		return nil, err
	}
	if t.extractor == nil {
		return nil, ErrNoExtractor
	}

	var periods [3][]synthesis.Entry
	if docs.Comparative != nil {
		lines, err := t.extractor.ExtractComparative(ctx, *docs.Comparative)
		if err != nil {
			return nil, err
		}
		periods = comparativeEntries(ctx, lines)
	} else {
		byPeriod := [3]*extract.Document{docs.TwoPeriodsAgo, docs.OnePeriodAgo, docs.Current}
		for _, p := range synthesis.Periods {
			doc := byPeriod[p]
			if doc == nil {
				continue
			}
			lines, err := t.extractor.ExtractPeriod(ctx, *doc)
			if err != nil {
				return nil, fmt.Errorf("%s statement: %w", p, err)
			}
			periods[p] = singleEntries(ctx, p, lines)
		}
	}

	items := t.zipper.Stitch(periods[synthesis.TwoPeriodsAgo], periods[synthesis.OnePeriodAgo], periods[synthesis.Current])
	items = safeItems(ctx, items)
	if err := t.writeWorksheet(ctx, items); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "extraction written to work sheet",
		logging.FieldComponent, logging.ComponentExtract, logging.FieldCount, len(items))
	return items, nil
}

func singleEntries(ctx context.Context, p synthesis.Period, lines []extract.Line) []synthesis.Entry {
	out := make([]synthesis.Entry, 0, len(lines))
	for _, l := range lines {
		out = append(out, synthesis.Entry{Name: l.Name, Amount: parseAmount(ctx, l.Name, p, l.Value(synthesis.Current))})
	}
	return out
}

// comparativeEntries splits three-period lines into per-period entries. Every
// line is a current-period entry; prior periods only get lines with a value.
func comparativeEntries(ctx context.Context, lines []extract.Line) [3][]synthesis.Entry {
	var out [3][]synthesis.Entry
	for _, l := range lines {
		for _, p := range synthesis.Periods {
			raw := l.Value(p)
			if p != synthesis.Current && amount.Parse(raw).Status == amount.Empty {
				continue
			}
			out[p] = append(out[p], synthesis.Entry{Name: l.Name, Amount: parseAmount(ctx, l.Name, p, raw)})
		}
	}
	return out
}

// parseAmount treats an unreadable amount as zero after logging it.
func parseAmount(ctx context.Context, name string, p synthesis.Period, raw string) float64 {
	v := amount.Parse(raw)
	if v.Status == amount.Invalid {
		slog.WarnContext(ctx, "unreadable amount treated as zero",
			logging.FieldItem, name, logging.FieldPeriod, p.String(), "raw", v.Raw)
	}
	return v.Float()
}

func safeItems(ctx context.Context, items []synthesis.LineItem) []synthesis.LineItem {
	out := items[:0:0]
	for _, li := range items {
		if err := validate.Check(li.RawName); err != nil {
			slog.WarnContext(ctx, "dropping unsafe item name",
				logging.FieldComponent, logging.ComponentExtract, logging.FieldItem, li.RawName, logging.FieldError, err)
			continue
		}
		out = append(out, li)
	}
	return out
}

func (t *Transcriber) writeWorksheet(ctx context.Context, items []synthesis.LineItem) error {
	sheet := t.sheets.OCR
	if err := t.store.Clear(ctx, tabular.Range{Sheet: sheet}); err != nil {
		return fmt.Errorf("failed to clear work sheet: %w", err)
	}
	cells := make([]tabular.Cell, 0, (len(items)+1)*len(worksheetColumns))
	for j, h := range WorksheetHeader {
		cells = append(cells, tabular.Cell{Sheet: sheet, Column: worksheetColumns[j], Row: 1, Value: h})
	}
	for i, li := range items {
		row := i + 2
		cells = append(cells, tabular.Cell{Sheet: sheet, Column: worksheetColumns[0], Row: row, Value: li.DisplayName()})
		for _, p := range synthesis.Periods {
			cells = append(cells, tabular.Cell{
				Sheet:  sheet,
				Column: worksheetColumns[1+int(p)],
				Row:    row,
				Value:  strconv.FormatFloat(li.Amounts[p], 'f', -1, 64),
			})
		}
	}
	if err := t.store.Write(ctx, cells...); err != nil {
		return fmt.Errorf("failed to write work sheet: %w", err)
	}
	return nil
}

// LoadWorksheet reads merged items back from the OCR work sheet.
func (t *Transcriber) LoadWorksheet(ctx context.Context) ([]synthesis.LineItem, error) {
	rows, err := t.store.Read(ctx, t.sheets.OCR)
	if err != nil {
		return nil, fmt.Errorf("failed to read work sheet %s: %w", t.sheets.OCR, err)
	}
	var items []synthesis.LineItem
	seen := make(map[string]bool)
	for i, row := range rows {
		if len(row) == 0 || (i == 0 && row[0] == WorksheetHeader[0]) {
			continue
		}
		name := textnorm.Display(row[0])
		key := textnorm.Key(name)
		if key == "" {
			continue
		}
		if seen[key] {
			slog.WarnContext(ctx, "duplicate item in work sheet, keeping first", logging.FieldItem, name)
			continue
		}
		seen[key] = true
		li := synthesis.LineItem{RawName: name, NormalizedName: key}
		for _, p := range synthesis.Periods {
			if j := 1 + int(p); j < len(row) {
				li.Amounts[p] = parseAmount(ctx, name, p, row[j])
			}
		}
		items = append(items, li)
	}
	return items, nil
}
