// Package layout describes where each report lives in the output workbook and
// allocates classified line items to its fixed slots.
package layout

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"statement_transcriber/pkg/core/classify"
	"statement_transcriber/pkg/core/synthesis"
	"statement_transcriber/pkg/core/textnorm"
	"statement_transcriber/pkg/core/validate"
)

//go:embed layouts.yaml
var defaultLayoutYAML []byte

var (
	ErrUnknownReport = errors.New("unknown report")
	ErrUnknownGroup  = errors.New("unknown group")
)

// =============================================================================
// LAYOUT TYPES
// =============================================================================

// Layout is the full set of report layouts. It is immutable once loaded.
type Layout struct {
	Version string         `yaml:"version"`
	Reports []ReportLayout `yaml:"reports" validate:"required,min=1,dive"`
}

// Columns are the amount column letters for each period.
type Columns struct {
	TwoPeriodsAgo string `yaml:"t2" validate:"required,alpha,uppercase"`
	OnePeriodAgo  string `yaml:"t1" validate:"required,alpha,uppercase"`
	Current       string `yaml:"t0" validate:"required,alpha,uppercase"`
}

// For returns the column letter of period p.
func (c Columns) For(p synthesis.Period) string {
	switch p {
	case synthesis.TwoPeriodsAgo:
		return c.TwoPeriodsAgo
	case synthesis.OnePeriodAgo:
		return c.OnePeriodAgo
	default:
		return c.Current
	}
}

// ReportLayout is one target report on one worksheet.
type ReportLayout struct {
	Key          classify.ReportKey   `yaml:"key" validate:"required"`
	Name         string               `yaml:"name"`
	Sheet        string               `yaml:"sheet" validate:"required"`
	Optional     bool                 `yaml:"optional"`
	Aliases      []string             `yaml:"aliases"`
	ItemColumn   string               `yaml:"item_column" validate:"required,alpha,uppercase"`
	Columns      Columns              `yaml:"columns"`
	DefaultGroup classify.CategoryKey `yaml:"default_group" validate:"required"`
	Groups       []Group              `yaml:"groups" validate:"required,min=1,dive"`
}

// Group is a contiguous block of slots plus one overflow row.
type Group struct {
	Key           classify.CategoryKey   `yaml:"key" validate:"required"`
	Label         string                 `yaml:"label" validate:"required"`
	OverflowLabel string                 `yaml:"overflow_label"`
	Aliases       []string               `yaml:"aliases"`
	Categories    []classify.CategoryKey `yaml:"categories"`
	StartSlot     int                    `yaml:"start_slot" validate:"gte=1"`
	SlotCount     int                    `yaml:"slot_count" validate:"gte=0"`
	OverflowSlot  int                    `yaml:"overflow_slot" validate:"gte=1"`
	Side          validate.BalanceSide   `yaml:"side" validate:"omitempty,oneof=assets liabilities net-assets"`
}

// AggregateLabel is the item name written on the overflow row.
func (g *Group) AggregateLabel() string {
	if g.OverflowLabel != "" {
		return g.OverflowLabel
	}
	return g.Label
}

// FirstRow and LastRow bound every row the group may write.
func (g *Group) FirstRow() int {
	if g.SlotCount == 0 {
		return g.OverflowSlot
	}
	return min(g.StartSlot, g.OverflowSlot)
}

func (g *Group) LastRow() int {
	if g.SlotCount == 0 {
		return g.OverflowSlot
	}
	return max(g.StartSlot+g.SlotCount-1, g.OverflowSlot)
}

// =============================================================================
// LOADING
// =============================================================================

var (
	defaultOnce   sync.Once
	defaultLayout *Layout
	defaultErr    error
)

// Default returns the embedded layout, parsed once.
func Default() (*Layout, error) {
	defaultOnce.Do(func() {
		defaultLayout, defaultErr = Parse(defaultLayoutYAML)
	})
	return defaultLayout, defaultErr
}

// Load reads a layout file, falling back to the embedded layout when path is empty.
func Load(path string) (*Layout, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates layout YAML.
func Parse(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.UnmarshalStrict(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Validate checks struct constraints and slot geometry.
func (l *Layout) Validate() error {
	if err := validator.New().Struct(l); err != nil {
		return fmt.Errorf("invalid layout: %w", err)
	}

	type block struct {
		report classify.ReportKey
		group  classify.CategoryKey
		first  int
		last   int
	}
	occupied := make(map[string][]block)

	seenReports := make(map[classify.ReportKey]bool)
	for i := range l.Reports {
		r := &l.Reports[i]
		if seenReports[r.Key] {
			return fmt.Errorf("invalid layout: duplicate report %s", r.Key)
		}
		seenReports[r.Key] = true

		seenGroups := make(map[classify.CategoryKey]bool)
		for j := range r.Groups {
			g := &r.Groups[j]
			if seenGroups[g.Key] {
				return fmt.Errorf("invalid layout: %s has duplicate group %s", r.Key, g.Key)
			}
			seenGroups[g.Key] = true

			if g.SlotCount > 0 && g.OverflowSlot >= g.StartSlot && g.OverflowSlot < g.StartSlot+g.SlotCount {
				return fmt.Errorf("invalid layout: %s/%s overflow row %d lies inside its slots", r.Key, g.Key, g.OverflowSlot)
			}

			region := r.Sheet + "!" + r.ItemColumn
			b := block{r.Key, g.Key, g.FirstRow(), g.LastRow()}
			for _, o := range occupied[region] {
				if b.first <= o.last && o.first <= b.last {
					return fmt.Errorf("invalid layout: %s/%s rows %d-%d overlap %s/%s",
						b.report, b.group, b.first, b.last, o.report, o.group)
				}
			}
			occupied[region] = append(occupied[region], b)
		}
		if _, ok := r.Group(string(r.DefaultGroup)); !ok {
			return fmt.Errorf("invalid layout: %s default group %s not defined", r.Key, r.DefaultGroup)
		}
	}
	return nil
}

// =============================================================================
// LOOKUP
// =============================================================================

// Report finds a report by key or alias.
func (l *Layout) Report(name string) (*ReportLayout, bool) {
	key := textnorm.Key(name)
	if key == "" {
		return nil, false
	}
	for i := range l.Reports {
		r := &l.Reports[i]
		if textnorm.Key(string(r.Key)) == key || textnorm.Key(r.Name) == key {
			return r, true
		}
		for _, a := range r.Aliases {
			if textnorm.Key(a) == key {
				return r, true
			}
		}
	}
	return nil, false
}

// Group finds a group by key, member category or alias. An empty name
// selects the default group.
func (r *ReportLayout) Group(name string) (*Group, bool) {
	if name == "" {
		name = string(r.DefaultGroup)
	}
	key := textnorm.Key(name)
	for i := range r.Groups {
		g := &r.Groups[i]
		if textnorm.Key(string(g.Key)) == key {
			return g, true
		}
	}
	for i := range r.Groups {
		g := &r.Groups[i]
		for _, c := range g.Categories {
			if textnorm.Key(string(c)) == key {
				return g, true
			}
		}
		for _, a := range g.Aliases {
			if textnorm.Key(a) == key {
				return g, true
			}
		}
	}
	return nil, false
}

// Resolve turns a (report, category) pair from a classifier result or a
// mapping entry into a concrete report and group. A report string that names
// no report is also tried as a group alias (e.g. "BS:流動資産").
func (l *Layout) Resolve(report, category string) (*ReportLayout, *Group, error) {
	if r, ok := l.Report(report); ok {
		if g, ok := r.Group(category); ok {
			return r, g, nil
		}
		return nil, nil, fmt.Errorf("%w: %s in report %s", ErrUnknownGroup, category, r.Key)
	}

	key := textnorm.Key(report)
	for i := range l.Reports {
		r := &l.Reports[i]
		for j := range r.Groups {
			g := &r.Groups[j]
			for _, a := range g.Aliases {
				if textnorm.Key(a) == key && key != "" {
					return r, g, nil
				}
			}
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrUnknownReport, report)
}
