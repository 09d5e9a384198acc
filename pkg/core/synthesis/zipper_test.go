package synthesis

import "testing"

func names(items []LineItem) []string {
	out := make([]string, len(items))
	for i, li := range items {
		out[i] = li.NormalizedName
	}
	return out
}

func TestStitchExactMatch(t *testing.T) {
	z := NewZipperEngine()
	items := z.Stitch(
		[]Entry{{"売上高", 80}},
		[]Entry{{"売上高", 90}},
		[]Entry{{"売上高", 100}},
	)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d: %v", len(items), names(items))
	}
	if items[0].Amounts != (Amounts{80, 90, 100}) {
		t.Errorf("amounts = %v, want [80 90 100]", items[0].Amounts)
	}
}

func TestStitchFuzzyMatch(t *testing.T) {
	z := NewZipperEngine()
	items := z.Stitch(nil, []Entry{{"給与手当", 90}}, []Entry{{"給料手当", 100}})
	// 給与手当 vs 給料手当 scores 0.75, above the 0.7 threshold
	if len(items) != 1 {
		t.Fatalf("expected fuzzy merge into one item, got %v", names(items))
	}
	if items[0].RawName != "給料手当" {
		t.Errorf("current-period name should win, got %q", items[0].RawName)
	}
	if items[0].Amounts[OnePeriodAgo] != 90 || items[0].Amounts[Current] != 100 {
		t.Errorf("amounts = %v", items[0].Amounts)
	}
}

func TestStitchNewPriorItems(t *testing.T) {
	z := NewZipperEngine()
	items := z.Stitch(
		[]Entry{{"雑損失", 5}},
		[]Entry{{"為替差益", 7}},
		[]Entry{{"売上高", 100}},
	)
	want := []string{"売上高", "為替差益", "雑損失"}
	got := names(items)
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("items[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if items[1].Amounts != (Amounts{0, 7, 0}) {
		t.Errorf("T-1 only item amounts = %v", items[1].Amounts)
	}
}

// A T-2 name that matches a T-1-only item exactly joins it; a fuzzy
// near-miss of that item does not, because fuzzy candidates are T0 names only.
func TestStitchAsymmetricTwoAgoMatching(t *testing.T) {
	z := NewZipperEngine()
	items := z.Stitch(
		[]Entry{{"為替差益", 3}, {"受取配当金等", 4}},
		[]Entry{{"為替差益", 7}, {"受取配当金", 8}},
		[]Entry{{"売上高", 100}},
	)
	got := names(items)
	want := []string{"売上高", "為替差益", "受取配当金", "受取配当金等"}
	if len(got) != len(want) {
		t.Fatalf("items = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("items[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if items[1].Amounts != (Amounts{3, 7, 0}) {
		t.Errorf("exact T-2 match amounts = %v, want [3 7 0]", items[1].Amounts)
	}
}

func TestStitchDuplicateKeepsFirst(t *testing.T) {
	z := NewZipperEngine()
	items := z.Stitch(nil,
		[]Entry{{"売上高", 90}, {"売上高", 999}},
		[]Entry{{"売上高", 100}, {"売上高（再掲）", 555}},
	)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %v", names(items))
	}
	if items[0].Amounts[Current] != 100 || items[0].Amounts[OnePeriodAgo] != 90 {
		t.Errorf("first value should win, got %v", items[0].Amounts)
	}
}

func TestStitchFuzzyIntoFilledSlotCreatesNewItem(t *testing.T) {
	z := NewZipperEngine()
	items := z.Stitch(nil,
		[]Entry{{"給料手当", 90}, {"給与手当", 80}},
		[]Entry{{"給料手当", 100}},
	)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %v", names(items))
	}
	if items[1].NormalizedName != "給与手当" || items[1].Amounts != (Amounts{0, 80, 0}) {
		t.Errorf("second item = %+v", items[1])
	}
}

func TestStitchKeysUnique(t *testing.T) {
	z := NewZipperEngine()
	items := z.Stitch(
		[]Entry{{"A", 1}, {"B", 2}, {"C", 3}},
		[]Entry{{"A", 1}, {"D", 2}},
		[]Entry{{"A", 1}, {"E", 2}},
	)
	seen := map[string]bool{}
	for _, li := range items {
		if seen[li.NormalizedName] {
			t.Errorf("duplicate key %q", li.NormalizedName)
		}
		seen[li.NormalizedName] = true
	}
}

func TestStitchDoesNotMutateInput(t *testing.T) {
	current := []Entry{{"売上高", 100}}
	z := NewZipperEngine()
	first := z.Stitch(nil, nil, current)
	first[0].Amounts[Current] = 1
	second := z.Stitch(nil, nil, current)
	if second[0].Amounts[Current] != 100 {
		t.Errorf("results must be independent values")
	}
}
