package amount

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		status Status
	}{
		{"¥1,234,000", 1234000, Valid},
		{"▲500", -500, Valid},
		{"△1,200", -1200, Valid},
		{"(300)", -300, Valid},
		{"（300）", -300, Valid},
		{"-42", -42, Valid},
		{"１２，３４５", 12345, Valid},
		{"5千円", 5000, Valid},
		{"3百万円", 3000000, Valid},
		{"2億円", 200000000, Valid},
		{"1500円", 1500, Valid},
		{"12.5", 12.5, Valid},
		{"－", 0, Empty},
		{"—", 0, Empty},
		{"-", 0, Empty},
		{"", 0, Empty},
		{"   ", 0, Empty},
		{"N/A", 0, Invalid},
		{"NaN", 0, Invalid},
		{"12abc", 0, Invalid},
		{"0x1p3", 0, Invalid},
		{"1_000", 0, Invalid},
		{"1e3", 0, Invalid},
		{"Inf", 0, Invalid},
		{"1.2.3", 0, Invalid},
		{"1千万円", 10000000, Valid},
		{"▲2千万", -20000000, Valid},
		{".5", 0.5, Valid},
	}
	for _, tt := range tests {
		got := Parse(tt.in)
		if got.Status != tt.status {
			t.Errorf("Parse(%q).Status = %v, want %v", tt.in, got.Status, tt.status)
			continue
		}
		if got.Float() != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.in, got.Float(), tt.want)
		}
		if got.Raw != tt.in {
			t.Errorf("Parse(%q).Raw = %q, want original text", tt.in, got.Raw)
		}
	}
}

func TestParseInvalidKeepsRaw(t *testing.T) {
	got := Parse("N/A")
	if got.OK() {
		t.Fatalf("expected N/A to be unusable")
	}
	if got.Raw != "N/A" {
		t.Errorf("Raw = %q, want N/A", got.Raw)
	}
}
