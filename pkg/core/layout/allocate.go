package layout

import (
	"fmt"
	"log/slog"
	"sort"

	"statement_transcriber/pkg/core/synthesis"
)

// =============================================================================
// SLOT ALLOCATION
// =============================================================================

// GroupState tracks a group through one transfer run.
type GroupState int

const (
	Collecting GroupState = iota
	Sorted
	Placed
	Overflowed
	Written
)

func (s GroupState) String() string {
	return [...]string{"collecting", "sorted", "placed", "overflowed", "written"}[s]
}

// PlacementKind says how a placement was produced.
type PlacementKind int

const (
	KindSlot     PlacementKind = iota // one item in one sequential slot
	KindOverflow                      // aggregate of items beyond the slot count
	KindRow                           // item pinned to an explicit row
	KindCell                          // current-period amount pinned to one cell
)

// Candidate is a line item assigned to a group, with optional pinned coordinates.
type Candidate struct {
	Item           synthesis.LineItem
	ExplicitRow    int
	ExplicitColumn string
}

func (c Candidate) pinned() bool { return c.ExplicitRow > 0 }

// Placement is one row (or cell) to write.
type Placement struct {
	Kind            PlacementKind
	Row             int
	Column          string // KindCell only
	Name            string
	Amounts         synthesis.Amounts
	AggregatedCount int
	Sources         []string
}

// Allocation collects the candidates of one group and places them.
type Allocation struct {
	Group      *Group
	State      GroupState
	Placements []Placement
	candidates []Candidate
}

// NewAllocation starts collecting for g.
func NewAllocation(g *Group) *Allocation {
	return &Allocation{Group: g, State: Collecting}
}

// Add appends a candidate. It fails once placement has happened.
func (a *Allocation) Add(c Candidate) error {
	if a.State != Collecting {
		return fmt.Errorf("group %s: cannot add item in state %s", a.Group.Key, a.State)
	}
	a.candidates = append(a.candidates, c)
	return nil
}

// Len returns the number of collected candidates.
func (a *Allocation) Len() int { return len(a.candidates) }

// Place sorts the unpinned candidates by current-period amount, descending and
// stable, fills the sequential slots and aggregates the rest into the overflow
// row. Pinned candidates follow so that they win any row collision.
func (a *Allocation) Place() []Placement {
	if a.State != Collecting {
		return a.Placements
	}

	var pool, pinned []Candidate
	for _, c := range a.candidates {
		if c.pinned() {
			pinned = append(pinned, c)
		} else {
			pool = append(pool, c)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].Item.Amounts[synthesis.Current] > pool[j].Item.Amounts[synthesis.Current]
	})
	a.State = Sorted

	g := a.Group
	var out []Placement
	slots := min(len(pool), g.SlotCount)
	for i := 0; i < slots; i++ {
		li := pool[i].Item
		out = append(out, Placement{
			Kind:    KindSlot,
			Row:     g.StartSlot + i,
			Name:    li.DisplayName(),
			Amounts: li.Amounts,
			Sources: []string{li.RawName},
		})
	}
	a.State = Placed

	if rest := pool[slots:]; len(rest) > 0 {
		agg := Placement{
			Kind:            KindOverflow,
			Row:             g.OverflowSlot,
			Name:            g.AggregateLabel(),
			AggregatedCount: len(rest),
		}
		for _, c := range rest {
			agg.Amounts = agg.Amounts.Add(c.Item.Amounts)
			agg.Sources = append(agg.Sources, c.Item.RawName)
		}
		out = append(out, agg)
		a.State = Overflowed
	}

	used := make(map[int]bool, len(out))
	for _, p := range out {
		used[p.Row] = true
	}
	for _, c := range pinned {
		li := c.Item
		p := Placement{
			Kind:    KindRow,
			Row:     c.ExplicitRow,
			Name:    li.DisplayName(),
			Amounts: li.Amounts,
			Sources: []string{li.RawName},
		}
		if c.ExplicitColumn != "" {
			p.Kind = KindCell
			p.Column = c.ExplicitColumn
		}
		if p.Kind == KindRow && used[p.Row] {
			slog.Warn("explicit row overrides an allocated slot", "group", string(g.Key), "row", p.Row, "item", li.RawName)
		}
		used[p.Row] = true
		out = append(out, p)
	}

	a.Placements = out
	return out
}

// MarkWritten records that the placements reached the backing store.
func (a *Allocation) MarkWritten() error {
	if a.State != Placed && a.State != Overflowed {
		return fmt.Errorf("group %s: cannot mark written in state %s", a.Group.Key, a.State)
	}
	a.State = Written
	return nil
}

// Allocate is a one-shot helper: collect items into g and place them.
func Allocate(g *Group, items []Candidate) []Placement {
	a := NewAllocation(g)
	for _, c := range items {
		_ = a.Add(c)
	}
	return a.Place()
}
