// Package mapping holds the user-maintained table of explicit account-name
// targets. An entry takes precedence over the keyword classifier.
package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"statement_transcriber/pkg/core/tabular"
	"statement_transcriber/pkg/core/textnorm"
	"statement_transcriber/pkg/core/utils"
)

// Entry maps one account name to a report target.
// An empty Report marks the name as deliberately unmapped.
type Entry struct {
	Source   string `json:"source" yaml:"source" validate:"required"`
	Report   string `json:"report" yaml:"report"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Row      int    `json:"row,omitempty" yaml:"row,omitempty" validate:"gte=0"`
	Column   string `json:"column,omitempty" yaml:"column,omitempty" validate:"omitempty,alpha,uppercase"`
}

// Unmapped reports whether the entry says "do not transcribe".
func (e Entry) Unmapped() bool { return strings.TrimSpace(e.Report) == "" }

// Table is an immutable lookup keyed by the strong-normalized source name.
type Table struct {
	byKey map[string]Entry
	order []string
}

// NewTable validates entries. For repeated names the first entry wins.
func NewTable(entries []Entry) (*Table, error) {
	v := validator.New()
	t := &Table{byKey: make(map[string]Entry, len(entries))}
	for i, e := range entries {
		e.Column = strings.ToUpper(strings.TrimSpace(e.Column))
		if err := v.Struct(e); err != nil {
			return nil, fmt.Errorf("mapping entry %d (%q): %w", i+1, e.Source, err)
		}
		key := textnorm.Key(e.Source)
		if _, dup := t.byKey[key]; dup {
			slog.Warn("duplicate mapping entry, keeping first", "item", e.Source)
			continue
		}
		t.byKey[key] = e
		t.order = append(t.order, key)
	}
	return t, nil
}

// Lookup finds the entry for name after strong normalization.
func (t *Table) Lookup(name string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.byKey[textnorm.Key(name)]
	return e, ok
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Entries returns the entries in load order.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, t.Len())
	for _, k := range t.order {
		out = append(out, t.byKey[k])
	}
	return out
}

// =============================================================================
// LOADING
// =============================================================================

type file struct {
	Mappings []Entry `json:"mappings" yaml:"mappings"`
}

// LoadFile reads a YAML (.yaml, .yml) or Hjson/JSON (anything else) mapping file.
// The document is either a list of entries or an object with a "mappings" list.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file %s: %w", path, err)
	}
	entries, err := decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}
	return NewTable(entries)
}

func decode(path string, data []byte) ([]Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var list []Entry
		if err := yaml.Unmarshal(data, &list); err == nil {
			return list, nil
		}
		var f file
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f.Mappings, nil
	default:
		converted, err := utils.ParseHJSON(data)
		if err != nil {
			return nil, err
		}
		var list []Entry
		if err := json.Unmarshal(converted, &list); err == nil {
			return list, nil
		}
		var f file
		if err := json.Unmarshal(converted, &f); err != nil {
			return nil, err
		}
		return f.Mappings, nil
	}
}

// Columns of the mapping sheet.
var Header = []string{"勘定科目", "転記先", "区分", "行", "列"}

// ParseRows builds a table from sheet rows: source, report, category, row, column.
// A leading header row is skipped. Blank source cells are ignored.
func ParseRows(rows [][]string) (*Table, error) {
	var entries []Entry
	for i, row := range rows {
		cell := func(j int) string {
			if j < len(row) {
				return strings.TrimSpace(row[j])
			}
			return ""
		}
		if i == 0 && isHeader(cell(0)) {
			continue
		}
		source := cell(0)
		if source == "" {
			continue
		}
		e := Entry{Source: source, Report: cell(1), Category: cell(2), Column: cell(4)}
		if r := cell(3); r != "" {
			n, err := strconv.Atoi(r)
			if err != nil || n < 0 {
				slog.Warn("ignoring invalid row override in mapping sheet", "item", source, "row", r)
			} else {
				e.Row = n
			}
		}
		if e.Column != "" && e.Row == 0 {
			slog.Warn("ignoring column override without a row", "item", source, "column", e.Column)
			e.Column = ""
		}
		entries = append(entries, e)
	}
	return NewTable(entries)
}

func isHeader(s string) bool {
	switch strings.ToLower(s) {
	case "勘定科目", "項目", "科目", "source", "name":
		return true
	}
	return false
}

// LoadSheet reads the mapping sheet. A missing sheet yields a nil table and no error.
func LoadSheet(ctx context.Context, r tabular.Reader, sheet string) (*Table, error) {
	rows, err := r.Read(ctx, sheet)
	if errors.Is(err, tabular.ErrSheetNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping sheet %s: %w", sheet, err)
	}
	return ParseRows(rows)
}
