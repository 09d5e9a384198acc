package extract

import (
	"context"
	"fmt"
	"log/slog"
)

// Extractor runs prompts through a Provider with retry and optional caching.
type Extractor struct {
	provider Provider
	retry    RetryPolicy
	cache    *Cache
	json     bool
}

// Option configures an Extractor.
type Option func(*Extractor)

func WithRetry(p RetryPolicy) Option { return func(e *Extractor) { e.retry = p } }

func WithCache(c *Cache) Option { return func(e *Extractor) { e.cache = c } }

// WithJSON requests JSON output for comparative extraction.
func WithJSON(enabled bool) Option { return func(e *Extractor) { e.json = enabled } }

// New creates an Extractor with the default retry policy.
func New(p Provider, opts ...Option) *Extractor {
	e := &Extractor{provider: p, retry: DefaultRetryPolicy()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractPeriod reads a single-period statement. Amounts land in the current period.
func (e *Extractor) ExtractPeriod(ctx context.Context, doc Document) ([]Line, error) {
	prompt, err := renderPrompt("single.tmpl", promptData{Document: describe(doc)})
	if err != nil {
		return nil, err
	}
	text, err := e.generate(ctx, Request{Prompt: prompt, Document: doc}, "single")
	if err != nil {
		return nil, err
	}
	lines := ParseSinglePeriod(text)
	slog.InfoContext(ctx, "extracted single-period statement", "document", doc.Name, "items", len(lines))
	return lines, nil
}

// ExtractComparative reads a three-period comparison statement in one call.
func (e *Extractor) ExtractComparative(ctx context.Context, doc Document) ([]Line, error) {
	prompt, err := renderPrompt("multi.tmpl", promptData{Document: describe(doc), JSON: e.json})
	if err != nil {
		return nil, err
	}
	variant := "multi"
	if e.json {
		variant = "multi_json"
	}
	text, err := e.generate(ctx, Request{Prompt: prompt, Document: doc, JSON: e.json}, variant)
	if err != nil {
		return nil, err
	}

	var lines []Line
	if e.json {
		lines, err = ParseMultiPeriodJSON(text)
		if err != nil {
			slog.WarnContext(ctx, "json response unreadable, falling back to csv", "document", doc.Name, "error", err)
			lines = ParseMultiPeriod(text)
		}
	} else {
		lines = ParseMultiPeriod(text)
	}
	slog.InfoContext(ctx, "extracted comparative statement", "document", doc.Name, "items", len(lines))
	return lines, nil
}

func (e *Extractor) generate(ctx context.Context, req Request, variant string) (string, error) {
	if e.cache != nil {
		if text, ok := e.cache.Get(req.Document, variant); ok {
			slog.InfoContext(ctx, "using cached extraction", "document", req.Document.Name, "variant", variant)
			return text, nil
		}
	}
	text, err := e.retry.Do(ctx, func(ctx context.Context) (string, error) {
		return e.provider.Generate(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", req.Document.Name, err)
	}
	if e.cache != nil {
		if err := e.cache.Set(req.Document, variant, text); err != nil {
			slog.WarnContext(ctx, "failed to cache extraction", "document", req.Document.Name, "error", err)
		}
	}
	return text, nil
}

func describe(doc Document) string {
	if doc.MIMEType == "application/pdf" {
		return "PDF"
	}
	return "画像"
}
