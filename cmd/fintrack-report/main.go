package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/GiGurra/boa/pkg/boa"

	"fintrack/internal/aggregate"
	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/report"
	"fintrack/internal/services"
)

type Params struct {
	User        string `descr:"User ID (UUID) to report on" short:"u"`
	View        string `descr:"What to show" alts:"summary,transactions,forecast,heatmap" strict:"true" default:"summary"`
	Format      string `descr:"Output format" alts:"table,yaml,pdf,xlsx" strict:"true" default:"table" short:"f"`
	From        string `descr:"First day of the range (YYYY-MM-DD), defaults to 30 days before --to" optional:"true"`
	To          string `descr:"Last day of the range (YYYY-MM-DD), defaults to today" optional:"true"`
	Days        int    `descr:"Forecast: trailing days of series to show, 0 for all; heatmap: window length" default:"0"`
	Out         string `descr:"Output file for pdf/xlsx, defaults to the report file name" optional:"true" short:"o"`
	Backend     string `descr:"Data backend" alts:"memory,sqlite,postgres" strict:"true" default:"sqlite" env:"DATA_BACKEND"`
	DB          string `descr:"SQLite database path" default:"./data/fintrack.db" env:"SQLITE_DB_PATH"`
	DatabaseURL string `descr:"Postgres connection URL" optional:"true" env:"DATABASE_URL"`
	SeedFile    string `descr:"JSON seed file for the memory backend" optional:"true" env:"SEED_FILE"`
}

func main() {
	cli.LoadEnvFile()
	boa.NewCmdT[Params]("fintrack-report").
		WithShort("Print or export a user's finance report").
		WithLong("Reads a user's transactions from the configured store and prints a summary, transaction list, spend forecast or expense heatmap, or exports the range as a PDF or XLSX report.").
		WithRunFunc(func(params *Params) {
			logger := newLogger(os.Getenv("LOG_LEVEL"))
			if err := run(context.Background(), params, os.Stdout, time.Now); err != nil {
				logger.Error("Report failed", "error", err)
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}).
		Run()
}

// newLogger logs to stderr so stdout carries only the report. The default
// level is warn.
func newLogger(level string) *applog.Logger {
	if level == "" {
		level = "warn"
	}
	lvl, _ := applog.ParseLevel(level)
	logger := applog.New(applog.Config{Level: lvl, Format: "text", Component: applog.ComponentReport, Output: os.Stderr})
	applog.SetDefault(logger)
	return logger
}

func run(ctx context.Context, p *Params, stdout io.Writer, now func() time.Time) error {
	if p.User == "" {
		return core.ErrMissingUser
	}
	if p.Days < 0 || p.Days > aggregate.MaxWindowDays {
		return fmt.Errorf("--days must be between 0 and %d", aggregate.MaxWindowDays)
	}
	result, err := backend.NewFactory(nil).CreateBackend(ctx, backend.Config{
		Type:         backend.BackendType(p.Backend),
		SQLiteDBPath: p.DB,
		DatabaseURL:  p.DatabaseURL,
		SeedFile:     p.SeedFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = result.Cleanup() }()

	reports := services.NewReportService(result.Backend, nil, now)
	analytics := services.NewAnalyticsService(result.Backend, services.AnalyticsOptions{Now: now})
	req := services.ReportRequest{UserID: p.User, From: p.From, To: p.To}

	switch p.Format {
	case "pdf", "xlsx":
		return export(ctx, reports, req, report.Format(p.Format), p.Out, stdout)
	}

	var v any
	switch p.View {
	case "summary", "transactions":
		doc, err := reports.Document(ctx, req)
		if err != nil {
			return err
		}
		if p.View == "summary" {
			v = newSummaryView(doc)
		} else {
			v = newTransactionsView(doc)
		}
	case "forecast":
		f, err := analytics.Forecast(ctx, p.User, p.Days)
		if err != nil {
			return err
		}
		v = newForecastView(f)
	case "heatmap":
		var ref time.Time
		if p.To != "" {
			if ref, err = core.ParseDay(p.To); err != nil {
				return err
			}
		}
		hm, err := analytics.Heatmap(ctx, p.User, p.Days, ref)
		if err != nil {
			return err
		}
		v = newHeatmapView(hm)
	default:
		return fmt.Errorf("unknown view %q", p.View)
	}

	if p.Format == "yaml" {
		return writeYAML(stdout, v)
	}
	return writeTable(stdout, v)
}

func export(ctx context.Context, reports *services.ReportService, req services.ReportRequest, format report.Format, out string, stdout io.Writer) error {
	req.Format = format
	rendered, err := reports.Generate(ctx, req)
	if err != nil {
		return err
	}
	if out == "" {
		out = rendered.FileName
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(out, rendered.Data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(stdout, "Wrote %s (%d bytes)\n", out, len(rendered.Data))
	return nil
}
