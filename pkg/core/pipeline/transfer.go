package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"statement_transcriber/pkg/core/audit"
	"statement_transcriber/pkg/core/classify"
	"statement_transcriber/pkg/core/layout"
	"statement_transcriber/pkg/core/logging"
	"statement_transcriber/pkg/core/mapping"
	"statement_transcriber/pkg/core/synthesis"
	"statement_transcriber/pkg/core/tabular"
	"statement_transcriber/pkg/core/validate"
)

// Summary reports the outcome of one transfer run.
type Summary struct {
	RunID         string
	Written       int // placements written, overflow rows included
	Aggregated    int // items folded into overflow rows
	Skipped       int
	Unmapped      int
	Errors        int
	UnmappedItems []string
	Warnings      []string
}

// target is a resolved destination for one item.
type target struct {
	report *layout.ReportLayout
	group  *layout.Group
	row    int
	column string
}

type transferRun struct {
	t       *Transcriber
	log     *audit.Log
	summary *Summary
	allocs  map[*layout.Group]*layout.Allocation
}

// Transfer places items into the report layout. Items with a mapping entry go
// where it says; the rest are classified by rule. The layout regions and the
// pinned cells of table are cleared before writing, and every placement, skip
// and failure is audited. A balance sheet that does not balance is audited and
// reported as a warning.
func (t *Transcriber) Transfer(ctx context.Context, items []synthesis.LineItem, table *mapping.Table) (*Summary, error) {
	log := t.newLog()
	ctx = logging.WithRunID(ctx, log.RunID())
	run := &transferRun{
		t:       t,
		log:     log,
		summary: &Summary{RunID: log.RunID()},
		allocs:  make(map[*layout.Group]*layout.Allocation),
	}

	for _, li := range items {
		run.collect(ctx, li, table)
	}

	if err := t.store.Clear(ctx, t.regions(table)...); err != nil {
		return run.finish(ctx, fmt.Errorf("failed to clear layout regions: %w", err))
	}

	cells, placed := run.place(ctx)
	if err := t.store.Write(ctx, cells...); err != nil {
		for _, p := range placed {
			log.Error(strings.Join(p.placement.Sources, ", "), p.destination(), p.placement.Amounts[synthesis.Current], err.Error())
			run.summary.Errors++
		}
		return run.finish(ctx, fmt.Errorf("failed to write layout: %w", err))
	}

	for _, a := range run.allocs {
		if err := a.MarkWritten(); err != nil {
			run.warn(ctx, err.Error())
		}
	}
	for _, p := range placed {
		pl := p.placement
		msg := "転記完了"
		if pl.Kind == layout.KindOverflow {
			msg = fmt.Sprintf("%d件を合算: %s", pl.AggregatedCount, strings.Join(pl.Sources, ", "))
			run.summary.Aggregated += pl.AggregatedCount
		}
		log.Success(pl.Name, p.destination(), pl.Amounts[synthesis.Current], msg)
		run.summary.Written++
	}
	run.checkBalance(ctx, placed)
	return run.finish(ctx, nil)
}

// collect resolves one item and adds it to its group's allocation.
func (r *transferRun) collect(ctx context.Context, li synthesis.LineItem, table *mapping.Table) {
	t0 := li.Amounts[synthesis.Current]
	if err := validate.Check(li.RawName); err != nil {
		r.skip(ctx, li, err.Error())
		return
	}
	if li.Amounts == (synthesis.Amounts{}) {
		r.skip(ctx, li, "金額がすべてゼロ")
		return
	}

	var report, category string
	var row int
	var column string
	if entry, ok := table.Lookup(li.RawName); ok {
		if entry.Unmapped() {
			r.unmapped(ctx, li, "マッピングで転記先が未設定")
			return
		}
		report, category, row, column = entry.Report, entry.Category, entry.Row, entry.Column
	} else if res, ok := r.t.classifier.Classify(li.RawName); ok {
		report, category = string(res.Report), string(res.Category)
		slog.DebugContext(ctx, "classified item", logging.FieldItem, li.RawName, logging.FieldRule, res.Rule)
	} else if classify.IsAggregateRow(li.RawName) {
		r.skip(ctx, li, "合計行")
		return
	} else {
		r.unmapped(ctx, li, "分類ルールに該当なし")
		return
	}

	tg, err := r.t.resolve(report, category, row, column)
	if err != nil {
		r.log.Error(li.RawName, "", t0, err.Error())
		r.summary.Errors++
		slog.WarnContext(ctx, "cannot resolve destination", logging.FieldItem, li.RawName, logging.FieldReport, report, logging.FieldError, err)
		return
	}
	if tg.report.Optional && !r.t.costOfProduction {
		r.skip(ctx, li, fmt.Sprintf("%sは無効", tg.report.Key))
		return
	}

	a, ok := r.allocs[tg.group]
	if !ok {
		a = layout.NewAllocation(tg.group)
		r.allocs[tg.group] = a
	}
	if err := a.Add(layout.Candidate{Item: li, ExplicitRow: tg.row, ExplicitColumn: tg.column}); err != nil {
		r.log.Error(li.RawName, "", t0, err.Error())
		r.summary.Errors++
	}
}

func (t *Transcriber) resolve(report, category string, row int, column string) (target, error) {
	rl, g, err := t.layout.Resolve(report, category)
	if err != nil {
		return target{}, err
	}
	return target{report: rl, group: g, row: row, column: column}, nil
}

// placedCell ties a placement to the report and group it was written into.
type placedCell struct {
	report    *layout.ReportLayout
	group     *layout.Group
	placement layout.Placement
}

func (p placedCell) destination() string {
	col := p.report.ItemColumn
	if p.placement.Kind == layout.KindCell {
		col = p.placement.Column
	}
	return tabular.Cell{Sheet: p.report.Sheet, Column: col, Row: p.placement.Row}.A1()
}

// place allocates every group in layout order and renders the cells.
// Zero amounts are left blank.
func (r *transferRun) place(ctx context.Context) ([]tabular.Cell, []placedCell) {
	var cells []tabular.Cell
	var placed []placedCell
	for i := range r.t.layout.Reports {
		rl := &r.t.layout.Reports[i]
		for j := range rl.Groups {
			a, ok := r.allocs[&rl.Groups[j]]
			if !ok {
				continue
			}
			for _, p := range a.Place() {
				cells = append(cells, render(rl, p)...)
				placed = append(placed, placedCell{report: rl, group: a.Group, placement: p})
			}
			slog.DebugContext(ctx, "group placed", logging.FieldReport, string(rl.Key),
				logging.FieldGroup, string(a.Group.Key), logging.FieldCount, a.Len(), "state", a.State.String())
		}
	}
	return cells, placed
}

func render(rl *layout.ReportLayout, p layout.Placement) []tabular.Cell {
	if p.Kind == layout.KindCell {
		if v := p.Amounts[synthesis.Current]; v != 0 {
			return []tabular.Cell{{Sheet: rl.Sheet, Column: p.Column, Row: p.Row, Value: v}}
		}
		return nil
	}
	cells := []tabular.Cell{{Sheet: rl.Sheet, Column: rl.ItemColumn, Row: p.Row, Value: p.Name}}
	for _, period := range synthesis.Periods {
		if v := p.Amounts[period]; v != 0 {
			cells = append(cells, tabular.Cell{Sheet: rl.Sheet, Column: rl.Columns.For(period), Row: p.Row, Value: v})
		}
	}
	return cells
}

// regions lists every item and amount column range of the enabled reports,
// plus the rows and cells pinned by table.
func (t *Transcriber) regions(table *mapping.Table) []tabular.Range {
	var out []tabular.Range
	for i := range t.layout.Reports {
		rl := &t.layout.Reports[i]
		if rl.Optional && !t.costOfProduction {
			continue
		}
		for j := range rl.Groups {
			g := &rl.Groups[j]
			for _, c := range rowColumns(rl) {
				out = append(out, tabular.ColumnRange(rl.Sheet, c, g.FirstRow(), g.LastRow()))
			}
		}
	}

	for _, e := range table.Entries() {
		if e.Row <= 0 || e.Unmapped() {
			continue
		}
		tg, err := t.resolve(e.Report, e.Category, e.Row, e.Column)
		if err != nil || (tg.report.Optional && !t.costOfProduction) {
			continue
		}
		cols := rowColumns(tg.report)
		if e.Column != "" {
			cols = []string{e.Column}
		}
		for _, c := range cols {
			out = append(out, tabular.ColumnRange(tg.report.Sheet, c, e.Row, e.Row))
		}
	}
	return out
}

func rowColumns(rl *layout.ReportLayout) []string {
	return []string{rl.ItemColumn, rl.Columns.TwoPeriodsAgo, rl.Columns.OnePeriodAgo, rl.Columns.Current}
}

// balanceItem is the audit item name of a failed balance check.
const balanceItem = "貸借バランス"

// checkBalance compares the transcribed assets with liabilities plus net
// assets for each period. Only what was written counts: a cell placement
// contributes its current-period amount.
func (r *transferRun) checkBalance(ctx context.Context, placed []placedCell) {
	var totals validate.BalanceTotals
	var sheet string
	for _, p := range placed {
		if p.group.Side == "" {
			continue
		}
		amounts := p.placement.Amounts
		if p.placement.Kind == layout.KindCell {
			amounts = synthesis.Amounts{synthesis.Current: amounts[synthesis.Current]}
		}
		totals.Add(p.group.Side, amounts)
		sheet = p.report.Sheet
	}
	if sheet == "" {
		return
	}

	for _, c := range totals.Check(validate.BalanceTolerance) {
		if c.IsBalanced {
			slog.DebugContext(ctx, "balance sheet balances", logging.FieldPeriod, c.Period.String())
			continue
		}
		msg := fmt.Sprintf("%s %s (資産 %.0f, 負債 %.0f, 純資産 %.0f)",
			c.Period, c.Message(), c.Assets, c.Liabilities, c.NetAssets)
		r.log.Error(balanceItem, tabular.QuoteSheet(sheet), c.Difference, msg)
		r.summary.Warnings = append(r.summary.Warnings, balanceItem+": "+msg)
		slog.WarnContext(ctx, "balance sheet does not balance",
			logging.FieldComponent, logging.ComponentLayout, logging.FieldPeriod, c.Period.String(),
			"assets", c.Assets, "liabilities", c.Liabilities, "net_assets", c.NetAssets, "difference", c.Difference)
	}
}

func (r *transferRun) skip(ctx context.Context, li synthesis.LineItem, msg string) {
	r.log.Skipped(li.RawName, li.Amounts[synthesis.Current], msg)
	r.summary.Skipped++
	slog.InfoContext(ctx, "item skipped", logging.FieldItem, li.RawName, "reason", msg)
}

func (r *transferRun) unmapped(ctx context.Context, li synthesis.LineItem, msg string) {
	r.log.Unmapped(li.RawName, li.Amounts[synthesis.Current], msg)
	r.summary.Unmapped++
	r.summary.UnmappedItems = append(r.summary.UnmappedItems, li.DisplayName())
	slog.InfoContext(ctx, "item needs manual mapping", logging.FieldItem, li.RawName, "reason", msg)
}

func (r *transferRun) warn(ctx context.Context, msg string) {
	r.summary.Warnings = append(r.summary.Warnings, msg)
	slog.WarnContext(ctx, msg)
}

// finish flushes the audit log to the audit sheet and any extra sinks.
// A flush failure is returned unless cause is already set.
func (r *transferRun) finish(ctx context.Context, cause error) (*Summary, error) {
	sinks := append([]audit.Sink{audit.NewSheetSink(r.t.store, r.t.sheets.Audit)}, r.t.sinks...)
	if err := r.log.Flush(ctx, sinks...); err != nil {
		r.warn(ctx, "audit flush failed: "+err.Error())
		if cause == nil {
			cause = fmt.Errorf("failed to write audit log: %w", err)
		}
	}
	slog.InfoContext(ctx, "transfer finished",
		logging.FieldComponent, logging.ComponentLayout, logging.FieldOperation, logging.OpTransfer,
		"written", r.summary.Written, "aggregated", r.summary.Aggregated, "skipped", r.summary.Skipped,
		"unmapped", r.summary.Unmapped, "errors", r.summary.Errors)
	return r.summary, cause
}
