// Package memory is an in-process tabular.Store used by tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"

	"statement_transcriber/pkg/core/tabular"
)

var _ tabular.Store = (*Store)(nil)

type coord struct{ col, row int }

type Store struct {
	mu     sync.Mutex
	sheets map[string]map[coord]any
	writes int
}

func New(sheets ...string) *Store {
	s := &Store{sheets: make(map[string]map[coord]any)}
	for _, name := range sheets {
		s.sheets[name] = make(map[coord]any)
	}
	return s
}

func (s *Store) sheet(name string) map[coord]any {
	cells, ok := s.sheets[name]
	if !ok {
		cells = make(map[coord]any)
		s.sheets[name] = cells
	}
	return cells
}

func (s *Store) Clear(_ context.Context, ranges ...tabular.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range ranges {
		cells := s.sheet(r.Sheet)
		if r.Ref == "" {
			for k := range cells {
				delete(cells, k)
			}
			continue
		}
		c1, r1, c2, r2, err := tabular.Bounds(r.Ref)
		if err != nil {
			return err
		}
		for k := range cells {
			if k.col >= c1 && k.col <= c2 && k.row >= r1 && k.row <= r2 {
				delete(cells, k)
			}
		}
	}
	return nil
}

func (s *Store) Write(_ context.Context, cells ...tabular.Cell) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cells {
		col, err := excelize.ColumnNameToNumber(c.Column)
		if err != nil {
			return fmt.Errorf("write %s: %w", c.A1(), err)
		}
		if c.Row < 1 {
			return fmt.Errorf("write %s: row must be positive", c.A1())
		}
		s.sheet(c.Sheet)[coord{col, c.Row}] = c.Value
		s.writes++
	}
	return nil
}

func (s *Store) Read(_ context.Context, name string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells, ok := s.sheets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tabular.ErrSheetNotFound, name)
	}
	maxRow, maxCol := extent(cells)
	rows := make([][]string, maxRow)
	for r := 1; r <= maxRow; r++ {
		row := make([]string, maxCol)
		for c := 1; c <= maxCol; c++ {
			if v, ok := cells[coord{c, r}]; ok {
				row[c-1] = format(v)
			}
		}
		rows[r-1] = row
	}
	return rows, nil
}

func (s *Store) Append(_ context.Context, name string, rows [][]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cells := s.sheet(name)
	next, _ := extent(cells)
	for i, row := range rows {
		for j, v := range row {
			cells[coord{j + 1, next + i + 1}] = v
		}
	}
	return nil
}

// Value returns the raw value at a reference such as "A6".
func (s *Store) Value(sheet, ref string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, row, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		return nil, false
	}
	v, ok := s.sheets[sheet][coord{col, row}]
	return v, ok
}

// Set seeds a cell, for tests.
func (s *Store) Set(sheet, ref string, v any) {
	col, row, err := excelize.CellNameToCoordinates(ref)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheet(sheet)[coord{col, row}] = v
}

// Writes counts cells written through Write.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func extent(cells map[coord]any) (maxRow, maxCol int) {
	for k := range cells {
		maxRow = max(maxRow, k.row)
		maxCol = max(maxCol, k.col)
	}
	return
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
