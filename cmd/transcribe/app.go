package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"statement_transcriber/pkg/core/audit"
	"statement_transcriber/pkg/core/config"
	"statement_transcriber/pkg/core/extract"
	"statement_transcriber/pkg/core/pipeline"
	"statement_transcriber/pkg/core/store"
	"statement_transcriber/pkg/core/tabular"
	"statement_transcriber/pkg/core/tabular/google"
	"statement_transcriber/pkg/core/tabular/memory"
	"statement_transcriber/pkg/core/tabular/workbook"
)

// app holds the collaborators of one command.
type app struct {
	transcriber *pipeline.Transcriber
	store       tabular.Store
	history     *store.AuditRepo
	closers     []func()
}

func newApp(ctx context.Context, cfg *config.Config, needExtractor bool) (*app, error) {
	a := &app{}
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.store = st
	if wb, ok := st.(*workbook.Workbook); ok {
		a.closers = append(a.closers, func() { _ = wb.Close() })
	}

	var sinks []audit.Sink
	if cfg.DatabaseURL != "" {
		if err := store.InitDB(ctx, cfg.DatabaseURL); err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		a.history = store.NewAuditRepo(nil)
		if err := a.history.EnsureSchema(ctx); err != nil {
			a.close()
			return nil, err
		}
		sinks = append(sinks, a.history)
	}

	var ex *extract.Extractor
	if needExtractor {
		if ex, err = newExtractor(cfg); err != nil {
			a.close()
			return nil, err
		}
	}

	a.transcriber, err = pipeline.FromConfig(cfg, st, ex, sinks...)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config) (tabular.Store, error) {
	switch cfg.Backend() {
	case "sheets":
		return google.New(ctx, cfg.Google.SpreadsheetID, google.Credentials{
			JSON: cfg.Google.ServiceAccountJSON,
			File: cfg.Google.CredentialsFile(),
		})
	case "xlsx":
		return workbook.Open(cfg.XLSX.Template, cfg.XLSX.Output)
	default:
		slog.Warn("no spreadsheet configured, results are kept in memory only")
		return memory.New(), nil
	}
}

func newExtractor(cfg *config.Config) (*extract.Extractor, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	provider := extract.NewGeminiProvider(extract.GeminiConfig{
		APIKey:          cfg.Gemini.APIKey,
		Model:           cfg.Gemini.Model,
		Temperature:     cfg.Gemini.Temperature,
		TopP:            cfg.Gemini.TopP,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
		Timeout:         cfg.Gemini.Timeout,
	})
	opts := []extract.Option{
		extract.WithRetry(extract.RetryPolicy{
			MaxAttempts:  cfg.Extract.MaxAttempts,
			InitialDelay: cfg.Extract.InitialDelay,
		}),
		extract.WithJSON(cfg.Extract.JSON),
	}
	if cfg.Extract.CacheDir != "" {
		cache, err := extract.NewCache(cfg.Extract.CacheDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, extract.WithCache(cache))
	}
	return extract.New(provider, opts...), nil
}

// report prints the summary and stores it with the audit history.
func (a *app) report(ctx context.Context, sum *pipeline.Summary) {
	if sum == nil {
		return
	}
	printSummary(sum)
	if a.history != nil {
		if err := a.history.SaveSummary(ctx, sum.RunID, sum); err != nil {
			slog.WarnContext(ctx, "failed to save run summary", "run_id", sum.RunID, "error", err)
		}
	}
	if os.Getenv("SUMMARY_JSON") != "" {
		out, _ := json.MarshalIndent(sum, "", "  ")
		fmt.Println(string(out))
	}
}

func (a *app) flush(ctx context.Context) error {
	if f, ok := a.store.(tabular.Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func readDocument(path string) (*extract.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &extract.Document{Name: filepath.Base(path), MIMEType: mimeType(path, data), Data: data}, nil
}

func mimeType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	}
	return http.DetectContentType(data)
}
