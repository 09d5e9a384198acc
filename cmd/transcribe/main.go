// Command transcribe reads financial statements with Gemini and fills the
// three-period comparison workbook.
//
// Usage:
//
//	transcribe extract  -current 当期.pdf [-previous 前期.pdf] [-two-ago 前々期.pdf]
//	transcribe extract  -combined 3期比較.pdf
//	transcribe suggest
//	transcribe transfer
//	transcribe run      (extract flags)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"statement_transcriber/pkg/core/config"
	"statement_transcriber/pkg/core/extract"
	"statement_transcriber/pkg/core/logging"
	"statement_transcriber/pkg/core/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Warning: failed to read .env:", err)
	}
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1], os.Args[2:]); err != nil {
		slog.Error("transcribe failed", logging.FieldError, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: transcribe <extract|suggest|transfer|run> [flags]")
}

type docFlags struct {
	current, previous, twoAgo, combined string
}

func (f *docFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.current, "current", "", "current-period statement (PDF or image)")
	fs.StringVar(&f.previous, "previous", "", "previous-period statement")
	fs.StringVar(&f.twoAgo, "two-ago", "", "statement of two periods ago")
	fs.StringVar(&f.combined, "combined", "", "one statement comparing all three periods")
}

func (f *docFlags) documents() (pipeline.Documents, error) {
	var docs pipeline.Documents
	var err error
	if f.combined != "" {
		if docs.Comparative, err = readDocument(f.combined); err != nil {
			return docs, err
		}
		return docs, nil
	}
	for _, d := range []struct {
		path string
		dst  **extract.Document
	}{
		{f.current, &docs.Current},
		{f.previous, &docs.OnePeriodAgo},
		{f.twoAgo, &docs.TwoPeriodsAgo},
	} {
		if d.path == "" {
			continue
		}
		if *d.dst, err = readDocument(d.path); err != nil {
			return docs, err
		}
	}
	return docs, nil
}

func run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "extract", "suggest", "transfer", "run":
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	configPath := fs.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	var df docFlags
	if cmd == "extract" || cmd == "run" {
		df.register(fs)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	_, closeLog, err := logging.Setup(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	app, err := newApp(ctx, cfg, cmd == "extract" || cmd == "run")
	if err != nil {
		return err
	}
	defer app.close()

	err = dispatch(ctx, app, cfg, cmd, &df)
	if flushErr := app.flush(ctx); flushErr != nil {
		err = errors.Join(err, fmt.Errorf("failed to save workbook: %w", flushErr))
	}
	return err
}

func dispatch(ctx context.Context, app *app, cfg *config.Config, cmd string, df *docFlags) error {
	switch cmd {
	case "extract":
		docs, err := df.documents()
		if err != nil {
			return err
		}
		items, err := app.transcriber.Extract(ctx, docs)
		if err != nil {
			return err
		}
		fmt.Printf("%d items written to %s\n", len(items), cfg.Sheets.OCR)
	case "suggest":
		suggestions, err := app.transcriber.Suggest(ctx)
		if err != nil {
			return err
		}
		unclassified := 0
		for _, s := range suggestions {
			if s.Report == "" {
				unclassified++
			}
		}
		fmt.Printf("%d suggestions written to %s (%d need manual mapping)\n", len(suggestions), cfg.Sheets.Mapping, unclassified)
	case "transfer":
		items, err := app.transcriber.LoadWorksheet(ctx)
		if err != nil {
			return err
		}
		table, err := app.transcriber.LoadMapping(ctx)
		if err != nil {
			return err
		}
		sum, err := app.transcriber.Transfer(ctx, items, table)
		app.report(ctx, sum)
		if err != nil {
			return err
		}
	case "run":
		docs, err := df.documents()
		if err != nil {
			return err
		}
		sum, err := app.transcriber.Run(ctx, docs)
		app.report(ctx, sum)
		if err != nil {
			return err
		}
	}
	return nil
}

func printSummary(sum *pipeline.Summary) {
	fmt.Printf("run %s: %d written (%d aggregated), %d skipped, %d unmapped, %d errors\n",
		sum.RunID, sum.Written, sum.Aggregated, sum.Skipped, sum.Unmapped, sum.Errors)
	if len(sum.UnmappedItems) > 0 {
		fmt.Println("needs manual mapping: " + strings.Join(sum.UnmappedItems, ", "))
	}
	for _, w := range sum.Warnings {
		fmt.Println("warning: " + w)
	}
}
