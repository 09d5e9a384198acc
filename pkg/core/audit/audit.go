// Package audit records the outcome of every line item in a transfer run.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"statement_transcriber/pkg/core/tabular"
)

// Status is the outcome of one item.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusSkipped  Status = "skipped"
	StatusError    Status = "error"
	StatusUnmapped Status = "unmapped"
)

// Label is the Japanese status shown on the audit sheet.
func (s Status) Label() string {
	switch s {
	case StatusSuccess:
		return "成功"
	case StatusSkipped:
		return "スキップ"
	case StatusError:
		return "エラー"
	case StatusUnmapped:
		return "未マッピング"
	}
	return string(s)
}

// Entry is one audit row.
type Entry struct {
	RunID       string
	Timestamp   time.Time
	SourceItem  string
	Destination string // "sheet!A6", empty when nothing was written
	Amount      float64
	Status      Status
	Message     string
}

// Sink persists audit entries.
type Sink interface {
	Record(ctx context.Context, entries []Entry) error
}

// Log accumulates entries for one run.
type Log struct {
	mu      sync.Mutex
	runID   string
	now     func() time.Time
	entries []Entry
}

// NewLog starts a log with a fresh run id.
func NewLog() *Log {
	return &Log{runID: uuid.NewString(), now: time.Now}
}

// NewLogWithClock is NewLog with a fixed run id and clock, for tests.
func NewLogWithClock(runID string, now func() time.Time) *Log {
	return &Log{runID: runID, now: now}
}

func (l *Log) RunID() string { return l.runID }

func (l *Log) add(status Status, item, dest string, amount float64, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, Entry{
		RunID:       l.runID,
		Timestamp:   l.now(),
		SourceItem:  item,
		Destination: dest,
		Amount:      amount,
		Status:      status,
		Message:     msg,
	})
}

func (l *Log) Success(item, dest string, amount float64, msg string) {
	l.add(StatusSuccess, item, dest, amount, msg)
}

func (l *Log) Skipped(item string, amount float64, msg string) {
	l.add(StatusSkipped, item, "", amount, msg)
}

func (l *Log) Error(item, dest string, amount float64, msg string) {
	l.add(StatusError, item, dest, amount, msg)
}

func (l *Log) Unmapped(item string, amount float64, msg string) {
	l.add(StatusUnmapped, item, "", amount, msg)
}

// Entries returns a copy of the recorded entries.
func (l *Log) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Count returns how many entries have the given status.
func (l *Log) Count(s Status) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Status == s {
			n++
		}
	}
	return n
}

// Flush sends the entries to every sink and joins their errors.
func (l *Log) Flush(ctx context.Context, sinks ...Sink) error {
	entries := l.Entries()
	var errs []error
	for _, s := range sinks {
		if err := s.Record(ctx, entries); err != nil {
			slog.ErrorContext(ctx, "audit sink failed", "run_id", l.runID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// =============================================================================
// SHEET SINK
// =============================================================================

// Header is the first row of the audit sheet.
var Header = []any{"日時", "元項目名", "転記先", "金額", "ステータス", "詳細", "実行ID"}

// SheetSink appends entries to an audit sheet, writing the header when the sheet is new.
type SheetSink struct {
	store tabular.Store
	sheet string
}

func NewSheetSink(store tabular.Store, sheet string) *SheetSink {
	return &SheetSink{store: store, sheet: sheet}
}

func (s *SheetSink) Record(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	var rows [][]any
	existing, err := s.store.Read(ctx, s.sheet)
	if err != nil && !errors.Is(err, tabular.ErrSheetNotFound) {
		return fmt.Errorf("audit sheet %s: %w", s.sheet, err)
	}
	if len(existing) == 0 {
		rows = append(rows, Header)
	}
	for _, e := range entries {
		rows = append(rows, []any{
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.SourceItem,
			e.Destination,
			e.Amount,
			e.Status.Label(),
			e.Message,
			e.RunID,
		})
	}
	if err := s.store.Append(ctx, s.sheet, rows); err != nil {
		return fmt.Errorf("audit sheet %s: %w", s.sheet, err)
	}
	return nil
}
