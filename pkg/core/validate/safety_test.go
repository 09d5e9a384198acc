package validate

import (
	"errors"
	"testing"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		in     string
		reason Reason
	}{
		{"=SUM(A1:A3)", ReasonFormula},
		{"+81-3-1234", ReasonFormula},
		{"-売上", ReasonFormula},
		{"@import", ReasonFormula},
		{"<script>alert(1)</script>", ReasonScript},
		{"javascript:void(0)", ReasonScript},
		{"img onerror=x", ReasonScript},
		{"ONLOAD = x", ReasonScript},
		{"売上\x00高", ReasonControl},
		{"売上\n高", ReasonControl},
		{"<b>売上高</b>", ReasonMarkup},
		{"<img src=x>", ReasonMarkup},
	}
	for _, tt := range tests {
		err := Check(tt.in)
		var ue *UnsafeError
		if !errors.As(err, &ue) {
			t.Errorf("Check(%q) = %v, want UnsafeError", tt.in, err)
			continue
		}
		if ue.Reason != tt.reason {
			t.Errorf("Check(%q).Reason = %s, want %s", tt.in, ue.Reason, tt.reason)
		}
	}
}

func TestIsSafeAcceptsOrdinaryNames(t *testing.T) {
	for _, in := range []string{
		"現金及び預金",
		"売上高",
		"1年内返済予定の長期借入金",
		"3<5",
		"",
	} {
		if !IsSafe(in) {
			t.Errorf("IsSafe(%q) = false, want true: %v", in, Check(in))
		}
	}
}
