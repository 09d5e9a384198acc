package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"statement_transcriber/pkg/core/audit"
)

func TestAuditRepoWithoutPool(t *testing.T) {
	r := NewAuditRepo(nil)
	if GetPool() != nil {
		t.Skip("shared pool already initialized")
	}
	err := r.Record(context.Background(), []audit.Entry{{RunID: "x"}})
	if err == nil {
		t.Errorf("expected error without a pool")
	}
	if err := r.Record(context.Background(), nil); err != nil {
		t.Errorf("empty record should be a no-op, got %v", err)
	}
}

// Requires a reachable PostgreSQL in DATABASE_URL.
func TestAuditRepoRoundTrip(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	if err := InitDB(ctx, url); err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	r := NewAuditRepo(GetPool())
	if err := r.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	runID := uuid.NewString()
	now := time.Now().UTC().Truncate(time.Second)
	entries := []audit.Entry{
		{RunID: runID, Timestamp: now, SourceItem: "売上高", Destination: "'S'!A6", Amount: 100, Status: audit.StatusSuccess},
		{RunID: runID, Timestamp: now, SourceItem: "合計", Status: audit.StatusSkipped, Message: "aggregate row"},
	}
	if err := r.Record(ctx, entries); err != nil {
		t.Fatalf("Record: %v", err)
	}
	got, err := r.ListRun(ctx, runID)
	if err != nil {
		t.Fatalf("ListRun: %v", err)
	}
	if len(got) != 2 || got[0].SourceItem != "売上高" || got[1].Status != audit.StatusSkipped {
		t.Errorf("ListRun = %+v", got)
	}

	if err := r.SaveSummary(ctx, runID, map[string]int{"written": 1}); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}
	var summary map[string]int
	ok, err := r.LoadSummary(ctx, runID, &summary)
	if err != nil || !ok || summary["written"] != 1 {
		t.Errorf("LoadSummary = %v, %v, %v", summary, ok, err)
	}
}
