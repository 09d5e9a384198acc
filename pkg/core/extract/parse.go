package extract

import (
	"log/slog"
	"strings"

	"statement_transcriber/pkg/core/synthesis"
	"statement_transcriber/pkg/core/textnorm"
	"statement_transcriber/pkg/core/utils"
)

// Line is one extracted account with raw amount text per period.
// Single-period extraction fills only the current period.
type Line struct {
	Name   string
	Values [3]string
}

// Value returns the raw text for period p.
func (l Line) Value(p synthesis.Period) string { return l.Values[p] }

// ParseSinglePeriod reads "name,amount" lines. Everything after the first
// comma is the amount, so "売上高,1,234,000" keeps its separators.
func ParseSinglePeriod(text string) []Line {
	var out []Line
	seen := make(map[string]bool)
	for _, raw := range lines(text) {
		name, value, ok := strings.Cut(raw, ",")
		if !ok {
			slog.Debug("ignoring line without a comma", "line", raw)
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := textnorm.Key(name)
		if seen[key] {
			slog.Warn("duplicate item in extraction, keeping first", "item", name)
			continue
		}
		seen[key] = true
		l := Line{Name: name}
		l.Values[synthesis.Current] = strings.TrimSpace(value)
		out = append(out, l)
	}
	return out
}

// ParseMultiPeriod reads "name,T-2,T-1,T0" lines. A two-field line is read
// as current-period only. With more than four fields the last three are the
// amounts and the rest is the name. Other shapes are ignored.
func ParseMultiPeriod(text string) []Line {
	var out []Line
	seen := make(map[string]bool)
	for _, raw := range lines(text) {
		fields := strings.Split(raw, ",")
		var l Line
		switch {
		case len(fields) == 2:
			l.Name = fields[0]
			l.Values[synthesis.Current] = fields[1]
		case len(fields) >= 4:
			n := len(fields)
			l.Name = strings.Join(fields[:n-3], ",")
			l.Values = [3]string{fields[n-3], fields[n-2], fields[n-1]}
		default:
			slog.Debug("ignoring malformed line", "line", raw, "fields", len(fields))
			continue
		}
		l.Name = strings.TrimSpace(l.Name)
		for i := range l.Values {
			l.Values[i] = strings.TrimSpace(l.Values[i])
		}
		if l.Name == "" {
			continue
		}
		key := textnorm.Key(l.Name)
		if seen[key] {
			slog.Warn("duplicate item in extraction, keeping first", "item", l.Name)
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}

type jsonLine struct {
	Name string `json:"name"`
	T2   string `json:"t2"`
	T1   string `json:"t1"`
	T0   string `json:"t0"`
}

// ParseMultiPeriodJSON reads a JSON array of {name, t2, t1, t0}, repairing
// malformed model output where possible.
func ParseMultiPeriodJSON(text string) ([]Line, error) {
	var rows []jsonLine
	if err := utils.SmartParse(utils.StripCodeFence(text), &rows); err != nil {
		return nil, err
	}
	var out []Line
	seen := make(map[string]bool)
	for _, r := range rows {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			continue
		}
		key := textnorm.Key(name)
		if seen[key] {
			slog.Warn("duplicate item in extraction, keeping first", "item", name)
			continue
		}
		seen[key] = true
		out = append(out, Line{Name: name, Values: [3]string{
			strings.TrimSpace(r.T2), strings.TrimSpace(r.T1), strings.TrimSpace(r.T0),
		}})
	}
	return out, nil
}

func lines(text string) []string {
	body := utils.StripCodeFence(text)
	var out []string
	for _, l := range strings.Split(body, "\n") {
		l = strings.TrimSpace(strings.TrimSuffix(l, "\r"))
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
