// Package validate rejects text that is unsafe to write into a spreadsheet cell.
// Rejected names are still auditable; they are never transcribed.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// =============================================================================
// SAFETY FILTER
// =============================================================================

// Reason classifies why text was rejected.
type Reason string

const (
	ReasonFormula Reason = "formula-prefix"
	ReasonScript  Reason = "script-pattern"
	ReasonMarkup  Reason = "markup"
	ReasonControl Reason = "control-character"
)

// UnsafeError is returned by Check for rejected text.
type UnsafeError struct {
	Text   string
	Reason Reason
}

func (e *UnsafeError) Error() string {
	return fmt.Sprintf("unsafe text %q: %s", e.Text, e.Reason)
}

var (
	reFormulaLead = regexp.MustCompile(`^[=+\-@]`)
	reScript      = regexp.MustCompile(`(?i)<script|javascript:|on(?:error|click|load)\s*=`)
)

// IsSafe reports whether text may be written to a cell.
func IsSafe(text string) bool { return Check(text) == nil }

// Check returns an *UnsafeError describing the first rule text violates.
func Check(text string) error {
	if reFormulaLead.MatchString(text) {
		return &UnsafeError{Text: text, Reason: ReasonFormula}
	}
	if reScript.MatchString(text) {
		return &UnsafeError{Text: text, Reason: ReasonScript}
	}
	for _, r := range text {
		if unicode.IsControl(r) {
			return &UnsafeError{Text: text, Reason: ReasonControl}
		}
	}
	if strings.Contains(text, "<") && containsElement(text) {
		return &UnsafeError{Text: text, Reason: ReasonMarkup}
	}
	return nil
}

// containsElement parses text as an HTML fragment and reports whether any
// element survived into the body.
func containsElement(text string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return true
	}
	return doc.Find("body *").Length() > 0 || doc.Find("head *").Length() > 0
}
