package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"statement_transcriber/pkg/core/tabular/memory"
)

var fixed = time.Date(2026, 3, 31, 9, 30, 0, 0, time.UTC)

func TestLogCounts(t *testing.T) {
	l := NewLogWithClock("run-1", func() time.Time { return fixed })
	l.Success("売上高", "'S'!A6", 100, "")
	l.Skipped("合計", 300, "aggregate row")
	l.Unmapped("謎の科目", 5, "no rule")
	l.Error("雑費", "", 1, "unknown group")

	if l.Count(StatusSuccess) != 1 || l.Count(StatusSkipped) != 1 || l.Count(StatusUnmapped) != 1 || l.Count(StatusError) != 1 {
		t.Errorf("unexpected counts: %+v", l.Entries())
	}
	for _, e := range l.Entries() {
		if e.RunID != "run-1" || !e.Timestamp.Equal(fixed) {
			t.Errorf("entry %+v missing run id or timestamp", e)
		}
	}
}

func TestNewLogAssignsRunID(t *testing.T) {
	a, b := NewLog(), NewLog()
	if a.RunID() == "" || a.RunID() == b.RunID() {
		t.Errorf("run ids = %q, %q", a.RunID(), b.RunID())
	}
}

func TestSheetSinkWritesHeaderOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	sink := NewSheetSink(store, "転記ログ")

	l := NewLogWithClock("r", func() time.Time { return fixed })
	l.Success("売上高", "'S'!A6", 100, "")
	if err := l.Flush(ctx, sink); err != nil {
		t.Fatal(err)
	}
	if err := l.Flush(ctx, sink); err != nil {
		t.Fatal(err)
	}

	rows, err := store.Read(ctx, "転記ログ")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "日時" || rows[1][4] != "成功" || rows[1][0] != "2026-03-31 09:30:00" {
		t.Errorf("rows = %q", rows)
	}
}

type failingSink struct{}

func (failingSink) Record(context.Context, []Entry) error { return errors.New("down") }

func TestFlushJoinsErrors(t *testing.T) {
	l := NewLog()
	l.Skipped("x", 0, "")
	store := memory.New()
	err := l.Flush(context.Background(), failingSink{}, NewSheetSink(store, "log"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if rows, _ := store.Read(context.Background(), "log"); len(rows) != 2 {
		t.Errorf("working sink should still record, rows = %q", rows)
	}
}
