// Package textnorm canonicalizes account names read from scanned statements.
//
// Two strengths are provided:
//   - Weak (display): Unicode NFKC, trimmed, internal whitespace collapsed.
//   - Strong (matching key): weak plus removal of parenthetical notes,
//     separators and whitespace, and unification of conjunction and dash variants.
//
// Both forms are idempotent: Normalize(Normalize(x, s), s) == Normalize(x, s).
package textnorm

import (
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	reWhitespace = regexp.MustCompile(`\s+`)

	// NFKC folds full-width parentheses and brackets to ASCII before these run.
	reParenthetical = []*regexp.Regexp{
		regexp.MustCompile(`\([^()]*\)`),
		regexp.MustCompile(`\[[^\[\]]*\]`),
		regexp.MustCompile(`【[^【】]*】`),
		regexp.MustCompile(`〔[^〔〕]*〕`),
	}

	reConjunction = regexp.MustCompile(`及び?`)

	separators = strings.NewReplacer(
		"・", "", "·", "", "•", "",
		",", "", "、", "",
	)

	dashes = strings.NewReplacer(
		"‐", "-", "‑", "-", "‒", "-", "–", "-",
		"—", "-", "―", "-", "−", "-", "⁃", "-",
	)

	conjunctions = strings.NewReplacer(
		"および", "及び",
		"並びに", "及び",
		"&", "及び",
	)
)

// Display returns the weak normalization of text.
func Display(text string) string { return Normalize(text, false) }

// Key returns the strong normalization of text, used for equality and fuzzy matching.
func Key(text string) string { return Normalize(text, true) }

// Normalize never fails. Malformed input degrades to a plain trim.
func Normalize(text string, strong bool) (out string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("normalization fell back to trim", "text", text, "panic", r)
			out = strings.TrimSpace(text)
		}
	}()

	out = weak(text)
	if !strong {
		return out
	}
	// Each pass can expose a pattern for the next (" お よび " -> "および"),
	// so iterate to a fixed point.
	for i := 0; i < 4; i++ {
		next := strongPass(out)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func weak(text string) string {
	s := strings.ToValidUTF8(text, "")
	s = norm.NFKC.String(s)
	s = reWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func strongPass(s string) string {
	s = stripParentheticals(s)
	s = separators.Replace(s)
	s = reWhitespace.ReplaceAllString(s, "")
	s = dashes.Replace(s)
	s = conjunctions.Replace(s)
	s = reConjunction.ReplaceAllString(s, "及び")
	return norm.NFKC.String(s)
}

// stripParentheticals removes innermost groups repeatedly so nested notes vanish too.
func stripParentheticals(s string) string {
	for {
		before := s
		for _, re := range reParenthetical {
			s = re.ReplaceAllString(s, "")
		}
		if s == before {
			return s
		}
	}
}
