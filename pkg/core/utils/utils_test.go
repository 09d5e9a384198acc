package utils

import (
	"encoding/json"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"csv fence", "```csv\n売上高,100\n給料,50\n```", "売上高,100\n給料,50"},
		{"bare fence", "```\nA,1\n```", "A,1"},
		{"chatter around fence", "以下の通りです。\n\n```csv\nA,1\n```\n以上", "A,1"},
		{"no fence", "  A,1\nB,2  ", "A,1\nB,2"},
		{"unclosed fence", "```csv\nA,1\nB,2", "A,1\nB,2"},
		{"two fences joined", "```\nA,1\n```\n\n```\nB,2\n```", "A,1\nB,2"},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Errorf("%s: StripCodeFence() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestSmartParse(t *testing.T) {
	type row struct {
		Name string `json:"name"`
		T0   string `json:"t0"`
	}
	inputs := []string{
		`[{"name": "売上高", "t0": "100"}]`,
		`[{"name": "売上高", "t0": "100",}]`,
	}
	for _, in := range inputs {
		var rows []row
		if err := SmartParse(in, &rows); err != nil {
			t.Errorf("SmartParse(%q) error: %v", in, err)
			continue
		}
		if len(rows) != 1 || rows[0].Name != "売上高" || rows[0].T0 != "100" {
			t.Errorf("SmartParse(%q) = %+v", in, rows)
		}
	}
}

func TestParseHJSON(t *testing.T) {
	in := "{\n  # mapping\n  source: 売上高\n  report: SALES\n}"
	out, err := ParseHJSON([]byte(in))
	if err != nil {
		t.Fatalf("ParseHJSON error: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("ParseHJSON produced invalid JSON %s: %v", out, err)
	}
	if got["source"] != "売上高" || got["report"] != "SALES" {
		t.Errorf("ParseHJSON = %s", out)
	}
}
