package pipeline

import (
	"context"
	"log/slog"

	"statement_transcriber/pkg/core/classify"
	"statement_transcriber/pkg/core/logging"
	"statement_transcriber/pkg/core/mapping"
	"statement_transcriber/pkg/core/validate"
)

// Suggest classifies every work-sheet item and replaces the mapping sheet
// with the proposals. Totals and unsafe names are left out.
func (t *Transcriber) Suggest(ctx context.Context) ([]mapping.Suggestion, error) {
	items, err := t.LoadWorksheet(ctx)
	if err != nil {
		return nil, err
	}
	var out []mapping.Suggestion
	for _, li := range items {
		if !validate.IsSafe(li.RawName) || classify.IsAggregateRow(li.RawName) {
			continue
		}
		s := mapping.Suggestion{Source: li.DisplayName()}
		if res, ok := t.classifier.Classify(li.RawName); ok {
			s.Report = string(res.Report)
			s.Category = string(res.Category)
			s.Rule = res.Rule
		} else {
			slog.InfoContext(ctx, "no classification rule matched",
				logging.FieldComponent, logging.ComponentClassify, logging.FieldItem, li.RawName)
		}
		out = append(out, s)
	}
	if err := mapping.WriteSuggestions(ctx, t.store, t.sheets.Mapping, out); err != nil {
		return nil, err
	}
	return out, nil
}
