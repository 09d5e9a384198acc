package utils

import (
	"log/slog"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// StripCodeFence returns the contents of every fenced code block in input
// (```csv ... ``` and the like), joined in order. Input with no fenced block
// is returned trimmed.
func StripCodeFence(input string) string {
	src := []byte(input)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	var b strings.Builder
	found := false
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		found = true
		lines := fb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		slog.Warn("markdown walk failed, using raw text", "error", err)
		return strings.TrimSpace(input)
	}

	if !found {
		return strings.TrimSpace(input)
	}
	return strings.TrimSpace(b.String())
}
