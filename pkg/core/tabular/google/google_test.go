package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"statement_transcriber/pkg/core/tabular"
)

// fakeSheets records requests against a minimal Sheets v4 surface.
type fakeSheets struct {
	mu        sync.Mutex
	titles    []string
	added     []string
	updates   []gsheet.BatchUpdateValuesRequest
	cleared   []string
	appended  int
	valueRows [][]interface{}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, _ := io.ReadAll(r.Body)
	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(path, "/values:batchUpdate"):
		var req gsheet.BatchUpdateValuesRequest
		_ = json.Unmarshal(body, &req)
		f.updates = append(f.updates, req)
		_, _ = w.Write([]byte(`{}`))
	case strings.HasSuffix(path, "/values:batchClear"):
		var req gsheet.BatchClearValuesRequest
		_ = json.Unmarshal(body, &req)
		f.cleared = append(f.cleared, req.Ranges...)
		_, _ = w.Write([]byte(`{}`))
	case strings.HasSuffix(path, ":append"):
		f.appended++
		_, _ = w.Write([]byte(`{}`))
	case strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.Unmarshal(body, &req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.added = append(f.added, rq.AddSheet.Properties.Title)
			}
		}
		_, _ = w.Write([]byte(`{}`))
	case strings.Contains(path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"values": f.valueRows})
	default:
		sheets := make([]map[string]interface{}, 0, len(f.titles))
		for _, t := range f.titles {
			sheets = append(sheets, map[string]interface{}{"properties": map[string]string{"title": t}})
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"sheets": sheets})
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return NewWithService(svc, "sheet-id")
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), " ", Credentials{JSON: "{}"})
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), "sheet-id", Credentials{})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_WriteCreatesMissingSheetsAndUsesRaw(t *testing.T) {
	fake := &fakeSheets{titles: []string{"３期比較表ＢＳ"}}
	c := newTestClient(t, fake)

	err := c.Write(context.Background(),
		tabular.Cell{Sheet: "３期比較表ＢＳ", Column: "A", Row: 4, Value: "現金及び預金"},
		tabular.Cell{Sheet: "OCR結果", Column: "A", Row: 1, Value: "=1+1"},
	)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(fake.added) != 1 || fake.added[0] != "OCR結果" {
		t.Errorf("added sheets = %v", fake.added)
	}
	if len(fake.updates) != 1 {
		t.Fatalf("expected one batch update, got %d", len(fake.updates))
	}
	req := fake.updates[0]
	if req.ValueInputOption != "RAW" {
		t.Errorf("ValueInputOption = %q, want RAW", req.ValueInputOption)
	}
	if len(req.Data) != 2 || req.Data[0].Range != "'３期比較表ＢＳ'!A4" {
		t.Errorf("data = %+v", req.Data)
	}
}

func TestClient_ReadMissingSheet(t *testing.T) {
	c := newTestClient(t, &fakeSheets{titles: []string{"A"}})
	_, err := c.Read(context.Background(), "B")
	if !errors.Is(err, tabular.ErrSheetNotFound) {
		t.Errorf("err = %v, want ErrSheetNotFound", err)
	}
}

func TestClient_ReadStringifiesValues(t *testing.T) {
	fake := &fakeSheets{
		titles:    []string{"マッピング"},
		valueRows: [][]interface{}{{"勘定科目", "転記先"}, {"売上高", "SALES"}},
	}
	c := newTestClient(t, fake)
	rows, err := c.Read(context.Background(), "マッピング")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "売上高" || rows[1][1] != "SALES" {
		t.Errorf("rows = %q", rows)
	}
}

func TestClient_ClearAndAppend(t *testing.T) {
	fake := &fakeSheets{titles: []string{"S", "log"}}
	c := newTestClient(t, fake)
	ctx := context.Background()
	if err := c.Clear(ctx, tabular.Range{Sheet: "S", Ref: "A6:A8"}, tabular.Range{Sheet: "S"}); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if len(fake.cleared) != 2 || fake.cleared[0] != "'S'!A6:A8" || fake.cleared[1] != "'S'" {
		t.Errorf("cleared = %v", fake.cleared)
	}
	if err := c.Append(ctx, "log", [][]any{{"a", 1}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if fake.appended != 1 || len(fake.added) != 0 {
		t.Errorf("appended = %d, added = %v", fake.appended, fake.added)
	}
}

func TestClient_ConcurrentReadAndAppend(t *testing.T) {
	fake := &fakeSheets{titles: []string{"S"}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, 2*n)
	for i := 0; i < n; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			errs <- c.Append(ctx, fmt.Sprintf("log-%d", i), [][]any{{i}})
		}(i)
		go func() {
			defer wg.Done()
			_, err := c.Read(ctx, "S")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("concurrent call: %v", err)
		}
	}
	if len(fake.added) != n || fake.appended != n {
		t.Errorf("added = %v, appended = %d", fake.added, fake.appended)
	}
}
