package tabular

import "testing"

func TestCellA1(t *testing.T) {
	c := Cell{Sheet: "４．３期比較表", Column: "A", Row: 6}
	if got := c.A1(); got != "'４．３期比較表'!A6" {
		t.Errorf("A1() = %q", got)
	}
	if got := QuoteSheet("O'Brien"); got != "'O''Brien'" {
		t.Errorf("QuoteSheet = %q", got)
	}
}

func TestColumnRange(t *testing.T) {
	if got := ColumnRange("S", "B", 6, 8).Ref; got != "B6:B8" {
		t.Errorf("ColumnRange = %q", got)
	}
	if got := ColumnRange("S", "B", 37, 37).Ref; got != "B37" {
		t.Errorf("single-row ColumnRange = %q", got)
	}
	if got := (Range{Sheet: "S"}).A1(); got != "'S'" {
		t.Errorf("whole-sheet A1 = %q", got)
	}
}

func TestBounds(t *testing.T) {
	c1, r1, c2, r2, err := Bounds("B6:D8")
	if err != nil || c1 != 2 || r1 != 6 || c2 != 4 || r2 != 8 {
		t.Errorf("Bounds(B6:D8) = %d,%d,%d,%d,%v", c1, r1, c2, r2, err)
	}
	c1, r1, c2, r2, err = Bounds("T41")
	if err != nil || c1 != 20 || r1 != 41 || c2 != 20 || r2 != 41 {
		t.Errorf("Bounds(T41) = %d,%d,%d,%d,%v", c1, r1, c2, r2, err)
	}
	if _, _, _, _, err := Bounds("not a ref"); err == nil {
		t.Errorf("expected error for bad ref")
	}
}
