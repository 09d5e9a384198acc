// Package synthesis implements the "Zipper" algorithm that merges three
// single-period extractions into one list of multi-period line items.
//
// The Zipper algorithm prioritizes:
//  1. Current-Period Authority: the current period (T0) defines the identity set.
//  2. Exact Before Fuzzy: a prior-period name first matches an existing key exactly,
//     and only then fuzzily, and fuzzy candidates are current-period names only.
//  3. First Wins: a second value for an already-filled period slot is a duplicate
//     and is dropped with a warning.
package synthesis

import (
	"log/slog"

	"statement_transcriber/pkg/core/similarity"
	"statement_transcriber/pkg/core/textnorm"
)

// =============================================================================
// CORE DATA STRUCTURES
// =============================================================================

// Period indexes the three reporting periods.
type Period int

const (
	TwoPeriodsAgo Period = iota // T-2
	OnePeriodAgo                // T-1
	Current                     // T0
)

// Periods lists all periods oldest first.
var Periods = [3]Period{TwoPeriodsAgo, OnePeriodAgo, Current}

func (p Period) String() string {
	switch p {
	case TwoPeriodsAgo:
		return "T-2"
	case OnePeriodAgo:
		return "T-1"
	case Current:
		return "T0"
	}
	return "T?"
}

// Amounts holds one value per period, indexed by Period.
type Amounts [3]float64

// Add returns the elementwise sum.
func (a Amounts) Add(b Amounts) Amounts {
	return Amounts{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// Entry is one extracted (name, amount) row for a single period.
type Entry struct {
	Name   string
	Amount float64
}

// LineItem is one account across the three periods.
// NormalizedName is the strong key and is unique within a merge result.
type LineItem struct {
	RawName        string
	NormalizedName string
	Amounts        Amounts
}

// DisplayName is the weak normalization of RawName.
func (li LineItem) DisplayName() string { return textnorm.Display(li.RawName) }

// =============================================================================
// ZIPPER ENGINE
// =============================================================================

// ZipperEngine is the three-period merger.
type ZipperEngine struct {
	Threshold float64 // fuzzy match score must be strictly above this
	Logger    *slog.Logger
}

// NewZipperEngine creates a ZipperEngine with the default fuzzy threshold.
func NewZipperEngine() *ZipperEngine {
	return &ZipperEngine{Threshold: similarity.DefaultThreshold}
}

// Stitch merges the three periods. Ordering follows first appearance:
// current-period items, then items new in T-1, then items new in T-2.
func (z *ZipperEngine) Stitch(twoAgo, oneAgo, current []Entry) []LineItem {
	m := newMerge(z)
	m.seed(current)
	m.apply(OnePeriodAgo, oneAgo)
	m.apply(TwoPeriodsAgo, twoAgo)

	out := make([]LineItem, len(m.items))
	copy(out, m.items)
	return out
}

type merge struct {
	z       *ZipperEngine
	log     *slog.Logger
	items   []LineItem
	filled  [][3]bool
	index   map[string]int
	current []string // T0 keys, the only fuzzy candidates
}

func newMerge(z *ZipperEngine) *merge {
	log := z.Logger
	if log == nil {
		log = slog.Default()
	}
	return &merge{z: z, log: log, index: make(map[string]int)}
}

func (m *merge) seed(entries []Entry) {
	for _, e := range entries {
		key := textnorm.Key(e.Name)
		if key == "" {
			m.log.Warn("dropping entry with empty name", "period", Current.String())
			continue
		}
		if _, dup := m.index[key]; dup {
			m.log.Warn("duplicate item in period, keeping first", "period", Current.String(), "item", e.Name)
			continue
		}
		m.add(e, key, Current)
		m.current = append(m.current, key)
	}
}

func (m *merge) apply(p Period, entries []Entry) {
	for _, e := range entries {
		key := textnorm.Key(e.Name)
		if key == "" {
			m.log.Warn("dropping entry with empty name", "period", p.String())
			continue
		}

		if idx, ok := m.index[key]; ok {
			if m.filled[idx][p] {
				m.log.Warn("duplicate item in period, keeping first", "period", p.String(), "item", e.Name)
				continue
			}
			m.set(idx, p, e.Amount)
			continue
		}

		if match, ok := similarity.FindBestMatch(key, m.current, m.z.Threshold); ok {
			idx := m.index[match.Candidate]
			if !m.filled[idx][p] {
				m.log.Info("fuzzy matched prior-period item",
					"period", p.String(), "item", e.Name, "matched", m.items[idx].RawName, "score", match.Score)
				m.set(idx, p, e.Amount)
				continue
			}
		}

		m.add(e, key, p)
	}
}

func (m *merge) add(e Entry, key string, p Period) {
	li := LineItem{RawName: e.Name, NormalizedName: key}
	li.Amounts[p] = e.Amount
	m.index[key] = len(m.items)
	m.items = append(m.items, li)
	var f [3]bool
	f[p] = true
	m.filled = append(m.filled, f)
}

func (m *merge) set(idx int, p Period, v float64) {
	m.items[idx].Amounts[p] = v
	m.filled[idx][p] = true
}
