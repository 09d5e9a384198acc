// Package pipeline wires extraction, period merging, classification and
// layout allocation into the three user-facing steps: extract, suggest and
// transfer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"statement_transcriber/pkg/core/audit"
	"statement_transcriber/pkg/core/classify"
	"statement_transcriber/pkg/core/config"
	"statement_transcriber/pkg/core/extract"
	"statement_transcriber/pkg/core/layout"
	"statement_transcriber/pkg/core/logging"
	"statement_transcriber/pkg/core/mapping"
	"statement_transcriber/pkg/core/synthesis"
	"statement_transcriber/pkg/core/tabular"
)

var (
	ErrNoDocuments = errors.New("no current-period or comparative document given")
	ErrNoExtractor = errors.New("no extractor configured")
)

// Documents are the statements of one run. Either Comparative (one statement
// covering all three periods) or at least Current must be set.
type Documents struct {
	TwoPeriodsAgo *extract.Document
	OnePeriodAgo  *extract.Document
	Current       *extract.Document
	Comparative   *extract.Document
}

func (d Documents) validate() error {
	if d.Comparative == nil && d.Current == nil {
		return ErrNoDocuments
	}
	return nil
}

// Transcriber runs the pipeline against one tabular store.
type Transcriber struct {
	extractor        *extract.Extractor
	store            tabular.Store
	layout           *layout.Layout
	classifier       *classify.Classifier
	zipper           *synthesis.ZipperEngine
	sheets           config.SheetNames
	mappingFile      string
	costOfProduction bool
	sinks            []audit.Sink
	newLog           func() *audit.Log
}

// Option configures a Transcriber.
type Option func(*Transcriber)

// WithExtractor sets the OCR extractor. Transfer-only runs may omit it.
func WithExtractor(e *extract.Extractor) Option { return func(t *Transcriber) { t.extractor = e } }

func WithLayout(l *layout.Layout) Option { return func(t *Transcriber) { t.layout = l } }

func WithSheets(s config.SheetNames) Option { return func(t *Transcriber) { t.sheets = s } }

// WithThreshold sets the fuzzy match threshold of the period merger.
func WithThreshold(v float64) Option {
	return func(t *Transcriber) {
		if v > 0 {
			t.zipper.Threshold = v
		}
	}
}

// WithCostOfProduction enables the cost-of-production report and rules.
func WithCostOfProduction(enabled bool) Option {
	return func(t *Transcriber) { t.costOfProduction = enabled }
}

// WithMappingFile reads the mapping table from a file instead of the mapping sheet.
func WithMappingFile(path string) Option { return func(t *Transcriber) { t.mappingFile = path } }

// WithAuditSinks adds audit destinations besides the audit sheet.
func WithAuditSinks(sinks ...audit.Sink) Option {
	return func(t *Transcriber) { t.sinks = append(t.sinks, sinks...) }
}

// WithAuditLog overrides how each transfer run creates its audit log.
func WithAuditLog(fn func() *audit.Log) Option { return func(t *Transcriber) { t.newLog = fn } }

// New creates a Transcriber writing to store.
func New(store tabular.Store, opts ...Option) (*Transcriber, error) {
	if store == nil {
		return nil, errors.New("pipeline: store is required")
	}
	t := &Transcriber{
		store:  store,
		zipper: synthesis.NewZipperEngine(),
		sheets: config.Default().Sheets,
		newLog: audit.NewLog,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.layout == nil {
		l, err := layout.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load default layout: %w", err)
		}
		t.layout = l
	}
	t.classifier = classify.New(classify.WithCostOfProduction(t.costOfProduction))
	return t, nil
}

// FromConfig builds a Transcriber from the loaded configuration.
func FromConfig(cfg *config.Config, store tabular.Store, extractor *extract.Extractor, sinks ...audit.Sink) (*Transcriber, error) {
	opts := []Option{
		WithExtractor(extractor),
		WithSheets(cfg.Sheets),
		WithThreshold(cfg.Match.Threshold),
		WithCostOfProduction(cfg.CostOfProduction),
		WithMappingFile(cfg.MappingFile),
		WithAuditSinks(sinks...),
	}
	if cfg.LayoutFile != "" {
		l, err := layout.Load(cfg.LayoutFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithLayout(l))
	}
	return New(store, opts...)
}

// LoadMapping reads the override table from the mapping file when one is
// configured, otherwise from the mapping sheet. A nil table means none exists.
func (t *Transcriber) LoadMapping(ctx context.Context) (*mapping.Table, error) {
	if t.mappingFile != "" {
		return mapping.LoadFile(t.mappingFile)
	}
	return mapping.LoadSheet(ctx, t.store, t.sheets.Mapping)
}

// Run is extract followed by transfer with the current mapping table.
func (t *Transcriber) Run(ctx context.Context, docs Documents) (*Summary, error) {
	items, err := t.Extract(ctx, docs)
	if err != nil {
		return nil, err
	}
	table, err := t.LoadMapping(ctx)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "starting transfer", logging.FieldComponent, logging.ComponentLayout,
		logging.FieldOperation, logging.OpRun, logging.FieldCount, len(items))
	return t.Transfer(ctx, items, table)
}
