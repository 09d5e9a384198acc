// Package amount parses Japanese-formatted monetary strings as they appear
// on scanned financial statements.
package amount

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Status describes the outcome of parsing one amount field.
type Status int

const (
	// Valid means Number holds the parsed value.
	Valid Status = iota
	// Empty means the field was blank or a lone dash. It contributes nothing.
	Empty
	// Invalid means the text could not be read as a number. Raw keeps the original.
	Invalid
)

func (s Status) String() string {
	switch s {
	case Valid:
		return "valid"
	case Empty:
		return "empty"
	default:
		return "invalid"
	}
}

// Value is the result of Parse.
type Value struct {
	Number float64
	Raw    string
	Status Status
}

// Float returns the number for valid values and zero otherwise.
func (v Value) Float() float64 {
	if v.Status != Valid {
		return 0
	}
	return v.Number
}

// OK reports whether the value is usable as a number.
func (v Value) OK() bool { return v.Status == Valid }

// placeholder dashes written where a period has no value
var emptyMarks = map[string]bool{
	"-": true, "−": true, "—": true, "―": true, "–": true, "‐": true, "‑": true,
}

// unit suffixes, checked in order; the first present wins.
var units = []struct {
	mark       string
	multiplier float64
}{
	{"千万", 1e7},
	{"千", 1e3},
	{"百万", 1e6},
	{"億", 1e8},
}

// decimal is the only numeral syntax accepted after cleanup. It keeps Go
// literal forms such as 0x1p3, 1_000 and 1e3 out of ParseFloat.
var decimal = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)$`)

var stripper = strings.NewReplacer(
	"¥", "", "$", "", ",", "", "\\", "", " ", "",
)

// Parse reads text such as "¥1,234,000", "▲500", "(300)", "5千円", "3千万円" or "2億円".
func Parse(text string) Value {
	v := Value{Raw: text}
	s := strings.TrimSpace(norm.NFKC.String(text))
	if s == "" || emptyMarks[s] {
		v.Status = Empty
		return v
	}

	negative := false
	if strings.HasPrefix(s, "▲") || strings.HasPrefix(s, "△") {
		negative = true
		s = strings.TrimSpace(s[len("▲"):])
	}
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	if strings.HasPrefix(s, "−") {
		s = "-" + strings.TrimPrefix(s, "−")
	}

	s = stripper.Replace(s)

	multiplier := 1.0
	for _, u := range units {
		if strings.Contains(s, u.mark) {
			multiplier = u.multiplier
			s = strings.ReplaceAll(s, u.mark+"円", "")
			s = strings.ReplaceAll(s, u.mark, "")
			break
		}
	}
	s = strings.TrimSuffix(s, "円")

	if !decimal.MatchString(s) {
		v.Status = Invalid
		return v
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		v.Status = Invalid
		return v
	}
	n *= multiplier
	if negative {
		n = -n
	}
	v.Number = n
	v.Status = Valid
	return v
}
