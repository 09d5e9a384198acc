// Package google adapts a Google spreadsheet to tabular.Store.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"statement_transcriber/pkg/core/tabular"
)

var (
	_ tabular.Store = (*Client)(nil)
)

// Credentials locates a service-account key. JSON wins over File.
type Credentials struct {
	JSON string
	File string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu     sync.Mutex
	titles map[string]bool // nil until first fetched
}

// New creates a Sheets client for one spreadsheet.
func New(ctx context.Context, spreadsheetID string, creds Credentials) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// NewWithService wraps an existing service, e.g. one pointed at a test server.
func NewWithService(svc *gsheet.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, creds Credentials) (*gsheet.Service, error) {
	var (
		credentialsJSON []byte
		err             error
	)
	switch {
	case strings.TrimSpace(creds.JSON) != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(creds.JSON)
	case strings.TrimSpace(creds.File) != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", creds.File)
		credentialsJSON, err = os.ReadFile(creds.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func (c *Client) Clear(ctx context.Context, ranges ...tabular.Range) error {
	if len(ranges) == 0 {
		return nil
	}
	names := make([]string, 0, len(ranges))
	a1 := make([]string, 0, len(ranges))
	for _, r := range ranges {
		names = append(names, r.Sheet)
		a1 = append(a1, r.A1())
	}
	if err := c.ensureSheets(ctx, names...); err != nil {
		return err
	}
	_, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{
		Ranges: a1,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets batch clear: %w", err)
	}
	return nil
}

// Write sends every cell in one batch with RAW input so text is never parsed as a formula.
func (c *Client) Write(ctx context.Context, cells ...tabular.Cell) error {
	if len(cells) == 0 {
		return nil
	}
	names := make([]string, 0, len(cells))
	data := make([]*gsheet.ValueRange, 0, len(cells))
	for _, cell := range cells {
		names = append(names, cell.Sheet)
		data = append(data, &gsheet.ValueRange{
			Range:  cell.A1(),
			Values: [][]interface{}{{cell.Value}},
		})
	}
	if err := c.ensureSheets(ctx, names...); err != nil {
		return err
	}
	_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets batch update: %w", err)
	}
	slog.DebugContext(ctx, "sheets cells written", "count", len(cells))
	return nil
}

func (c *Client) Read(ctx context.Context, sheet string) ([][]string, error) {
	titles, err := c.sheetTitles(ctx)
	if err != nil {
		return nil, err
	}
	if !titles[sheet] {
		return nil, fmt.Errorf("%w: %s", tabular.ErrSheetNotFound, sheet)
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, tabular.QuoteSheet(sheet)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets get %s: %w", sheet, err)
	}
	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out := make([]string, len(row))
		for j, v := range row {
			out[j] = fmt.Sprint(v)
		}
		rows[i] = out
	}
	return rows, nil
}

func (c *Client) Append(ctx context.Context, sheet string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	if err := c.ensureSheets(ctx, sheet); err != nil {
		return err
	}
	values := make([][]interface{}, len(rows))
	for i, r := range rows {
		values[i] = r
	}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, tabular.QuoteSheet(sheet)+"!A1", &gsheet.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets append %s: %w", sheet, err)
	}
	return nil
}

// sheetTitles returns a snapshot of the cached sheet titles, fetching them
// on first use.
func (c *Client) sheetTitles(ctx context.Context) (map[string]bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.titles != nil {
		return maps.Clone(c.titles), nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets metadata: %w", err)
	}
	titles := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles[s.Properties.Title] = true
		}
	}
	c.titles = titles
	return maps.Clone(titles), nil
}

// ensureSheets adds any missing sheet tabs in a single request.
func (c *Client) ensureSheets(ctx context.Context, names ...string) error {
	titles, err := c.sheetTitles(ctx)
	if err != nil {
		return err
	}
	var reqs []*gsheet.Request
	added := make(map[string]bool)
	for _, name := range names {
		if titles[name] || added[name] {
			continue
		}
		added[name] = true
		reqs = append(reqs, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: name}},
		})
	}
	if len(reqs) == 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: reqs,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets add sheet: %w", err)
	}
	slog.InfoContext(ctx, "created missing sheets", "count", len(reqs))

	c.mu.Lock()
	for name := range added {
		c.titles[name] = true
	}
	c.mu.Unlock()
	return nil
}
