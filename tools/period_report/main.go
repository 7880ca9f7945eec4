package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	clientpostgres "energy-accounting/internal/clients/infrastructure/postgres"
	metering "energy-accounting/internal/metering/domain"
	reportapp "energy-accounting/internal/reporting/application"
	reportpostgres "energy-accounting/internal/reporting/infrastructure/postgres"
	reporthttp "energy-accounting/internal/reporting/interfaces"
)

type config struct {
	dbURL        string
	mainClientID string
	from         metering.BillingPeriod
	to           metering.BillingPeriod
	subClientIDs []string
	out          string
	maxSubs      int
	maxMonths    int
	timeout      time.Duration
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	db, err := sql.Open("pgx", cfg.dbURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "db open:", err)
		os.Exit(2)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer cancel()
	if err := run(ctx, db, cfg, log.New(os.Stderr, "", log.LstdFlags)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, db *sql.DB, cfg config, logger *log.Logger) error {
	service, err := reportapp.NewPeriodService(
		clientpostgres.NewClientRepository(db),
		reportpostgres.NewDocumentRepository(db),
		reportapp.Limits{MaxSubClients: cfg.maxSubs, MaxPeriodMonths: cfg.maxMonths},
		reportapp.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	report, err := service.Aggregate(ctx, reportapp.PeriodRequest{
		MainClientID: cfg.mainClientID,
		SubClientIDs: cfg.subClientIDs,
		From:         cfg.from,
		To:           cfg.to,
	})
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}
	data, err := reporthttp.BuildPeriodXLSX(report)
	if err != nil {
		return fmt.Errorf("render xlsx: %w", err)
	}
	if dir := filepath.Dir(cfg.out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create out dir: %w", err)
		}
	}
	if err := os.WriteFile(cfg.out, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cfg.out, err)
	}
	logger.Printf("period report written: file=%s main=%s from=%s to=%s rows=%d missing=%d warnings=%d",
		cfg.out, cfg.mainClientID, cfg.from, cfg.to, len(report.Rows), len(report.MissingMonths), len(report.Warnings))
	for _, warning := range report.Warnings {
		logger.Printf("warning: %s", warning)
	}
	return nil
}

func parseFlags(args []string, output io.Writer) (config, error) {
	defaults := reportapp.DefaultConfig().Limits
	var cfg config
	var from, to, subs string
	fs := flag.NewFlagSet("period_report", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&cfg.dbURL, "db", getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")), "Postgres DSN")
	fs.StringVar(&cfg.mainClientID, "main", "", "main client id")
	fs.StringVar(&from, "from", "", "first month in YYYY-MM")
	fs.StringVar(&to, "to", "", "last month in YYYY-MM")
	fs.StringVar(&subs, "subs", "", "comma separated sub client ids (default: all)")
	fs.StringVar(&cfg.out, "out", "", "output xlsx path (default: ./out/period-<main>-<from>-<to>.xlsx)")
	fs.IntVar(&cfg.maxSubs, "max-subs", getenvIntDefault("REPORTING_MAX_SUB_CLIENTS", defaults.MaxSubClients), "maximum sub clients")
	fs.IntVar(&cfg.maxMonths, "max-months", getenvIntDefault("REPORTING_MAX_PERIOD_MONTHS", defaults.MaxPeriodMonths), "maximum months in range")
	fs.DurationVar(&cfg.timeout, "timeout", 2*time.Minute, "overall timeout")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if cfg.dbURL == "" {
		return cfg, errors.New("missing --db or DATABASE_URL/PG_DSN")
	}
	if cfg.mainClientID == "" {
		return cfg, errors.New("missing --main")
	}
	if from == "" || to == "" {
		return cfg, errors.New("missing --from/--to (YYYY-MM)")
	}
	var err error
	if cfg.from, err = metering.ParseBillingPeriod(from); err != nil {
		return cfg, fmt.Errorf("--from: %w", err)
	}
	if cfg.to, err = metering.ParseBillingPeriod(to); err != nil {
		return cfg, fmt.Errorf("--to: %w", err)
	}
	if cfg.to.Before(cfg.from) {
		return cfg, errors.New("--to is before --from")
	}
	if cfg.maxSubs <= 0 || cfg.maxMonths <= 0 {
		return cfg, errors.New("--max-subs and --max-months must be positive")
	}
	cfg.subClientIDs = reportapp.SplitCSV(subs)
	if cfg.out == "" {
		cfg.out = filepath.Join("out", fmt.Sprintf("period-%s-%s-%s.xlsx", cfg.mainClientID, cfg.from, cfg.to))
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
