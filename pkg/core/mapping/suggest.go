package mapping

import (
	"context"
	"fmt"

	"statement_transcriber/pkg/core/tabular"
)

// Suggestion is a classifier proposal for one name, written to the mapping
// sheet for a human to confirm or correct.
type Suggestion struct {
	Source   string
	Report   string
	Category string
	Rule     string
}

// NoteHeader heads the note column, which sits right of the override columns
// and is ignored when the sheet is read back.
const NoteHeader = "備考"

// Note explains where a suggestion came from.
func (s Suggestion) Note() string {
	if s.Report == "" {
		return "候補なし: 手動で設定してください"
	}
	return "自動提案 (" + s.Rule + ")"
}

// WriteSuggestions replaces the mapping sheet with one row per suggestion.
// Unclassified names are written with a blank target so they stand out.
func WriteSuggestions(ctx context.Context, w tabular.Writer, sheet string, suggestions []Suggestion) error {
	if err := w.Clear(ctx, tabular.Range{Sheet: sheet}); err != nil {
		return fmt.Errorf("failed to clear mapping sheet: %w", err)
	}
	noteCol := column(len(Header))
	cells := make([]tabular.Cell, 0, (len(suggestions)+1)*(len(Header)+1))
	for j, h := range Header {
		cells = append(cells, tabular.Cell{Sheet: sheet, Column: column(j), Row: 1, Value: h})
	}
	cells = append(cells, tabular.Cell{Sheet: sheet, Column: noteCol, Row: 1, Value: NoteHeader})
	for i, s := range suggestions {
		row := i + 2
		cells = append(cells,
			tabular.Cell{Sheet: sheet, Column: column(0), Row: row, Value: s.Source},
			tabular.Cell{Sheet: sheet, Column: column(1), Row: row, Value: s.Report},
			tabular.Cell{Sheet: sheet, Column: column(2), Row: row, Value: s.Category},
			tabular.Cell{Sheet: sheet, Column: noteCol, Row: row, Value: s.Note()},
		)
	}
	if err := w.Write(ctx, cells...); err != nil {
		return fmt.Errorf("failed to write mapping suggestions: %w", err)
	}
	return nil
}

func column(i int) string { return string(rune('A' + i)) }
