package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"energy-accounting/internal/audit"
	"energy-accounting/internal/auth"
	clients "energy-accounting/internal/clients/domain"
	clientmemory "energy-accounting/internal/clients/infrastructure/memory"
	clientpostgres "energy-accounting/internal/clients/infrastructure/postgres"
	meteringapp "energy-accounting/internal/metering/application"
	metering "energy-accounting/internal/metering/domain"
	meteringmemory "energy-accounting/internal/metering/infrastructure/memory"
	meteringpostgres "energy-accounting/internal/metering/infrastructure/postgres"
	meteringhttp "energy-accounting/internal/metering/interfaces"
	"energy-accounting/internal/observability/metrics"
	reportapp "energy-accounting/internal/reporting/application"
	reporting "energy-accounting/internal/reporting/domain"
	reportmemory "energy-accounting/internal/reporting/infrastructure/memory"
	reportpostgres "energy-accounting/internal/reporting/infrastructure/postgres"
	"energy-accounting/internal/reporting/infrastructure/redislock"
	reporthttp "energy-accounting/internal/reporting/interfaces"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	reportCfg, err := reportapp.LoadConfig()
	if err != nil {
		logger.Fatalf("reporting config error: %v", err)
	}

	stores, err := openStores(cfg, logger)
	if err != nil {
		logger.Fatalf("store error: %v", err)
	}
	defer stores.close()
	metrics.Init(stores.db, logger)

	opts := []reportapp.ServiceOption{
		reportapp.WithLogger(logger),
		reportapp.WithPublisher(reporthttp.NewLoggingPublisher(logger)),
	}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		locker, err := redislock.New(client,
			redislock.WithTTL(reportCfg.Lock.TTL),
			redislock.WithWait(reportCfg.Lock.Wait),
			redislock.WithLogger(logger),
		)
		if err != nil {
			logger.Fatalf("redis lock error: %v", err)
		}
		opts = append(opts, reportapp.WithLocker(locker))
		logger.Printf("report lock: redis addr=%s ttl=%s wait=%s", cfg.RedisAddr, reportCfg.Lock.TTL, reportCfg.Lock.Wait)
	}

	resolver, err := meteringapp.NewResolver(stores.records, logger)
	if err != nil {
		logger.Fatalf("meter resolver error: %v", err)
	}
	dailyService, err := reportapp.NewDailyReportService(stores.clients, resolver, stores.loggers, stores.daily, opts...)
	if err != nil {
		logger.Fatalf("daily report service error: %v", err)
	}
	lossesService, err := reportapp.NewMonthlyLossesService(stores.clients, resolver, stores.losses, opts...)
	if err != nil {
		logger.Fatalf("monthly losses service error: %v", err)
	}
	periodService, err := reportapp.NewPeriodService(stores.clients, stores.losses, reportCfg.Limits, opts...)
	if err != nil {
		logger.Fatalf("period service error: %v", err)
	}

	reportHandler, err := reporthttp.NewReportHandler(dailyService, lossesService, periodService, stores.audit)
	if err != nil {
		logger.Fatalf("report handler error: %v", err)
	}
	ingestHandler, err := meteringhttp.NewIngestHandler(stores.recordWriter, stores.loggerWriter, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := reportapp.NewScheduler(dailyService, lossesService, reportCfg.Schedule, logger)
	go scheduler.Start(ctx)

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewIngestAuthMiddleware([]byte(cfg.IngestSecret), time.Duration(cfg.IngestSkewSeconds)*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/ingest/meter-records", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/ingest/logger-readings", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/api/v1/reports/", reportHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if stores.db != nil {
			if err := stores.db.PingContext(r.Context()); err != nil {
				http.Error(w, "db unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(authMiddleware.Wrap(mux), logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Printf("http shutdown error: %v", err)
		}
	}()

	logger.Printf("http listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(err)
	}
	logger.Printf("http stopped")
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	JWTSecret         string
	IngestSecret      string
	IngestSkewSeconds int
	RedisAddr         string
	ClientSeed        string
	ShutdownTimeout   time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestSecret:      getenvDefault("INGEST_HMAC_SECRET", ""),
		IngestSkewSeconds: getenvIntDefault("INGEST_MAX_SKEW_SECONDS", 300),
		RedisAddr:         getenvDefault("REDIS_ADDR", ""),
		ClientSeed:        getenvDefault("CLIENT_SEED_FILE", ""),
		ShutdownTimeout:   getenvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

type backends struct {
	db           *sql.DB
	clients      clients.Repository
	records      metering.MeterRecordRepository
	loggers      metering.LoggerReadingRepository
	recordWriter meteringhttp.MeterRecordWriter
	loggerWriter meteringhttp.LoggerReadingWriter
	daily        reporting.DailyReportRepository
	losses       reporting.MonthlyLossesRepository
	audit        audit.Logger
}

func (s *backends) close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// openStores uses Postgres when a DSN is configured and in-memory stores otherwise.
func openStores(cfg config, logger *log.Logger) (*backends, error) {
	if cfg.DatabaseURL == "" {
		logger.Printf("DATABASE_URL not set: using in-memory stores")
		clientRepo := clientmemory.NewClientRepository()
		if cfg.ClientSeed != "" {
			n, err := clientRepo.LoadSeedFile(context.Background(), cfg.ClientSeed)
			if err != nil {
				return nil, err
			}
			logger.Printf("client seed loaded: file=%s clients=%d", cfg.ClientSeed, n)
		}
		records := meteringmemory.NewMeterRecordRepository()
		loggers := meteringmemory.NewLoggerReadingRepository()
		docs := reportmemory.NewDocumentRepository()
		return &backends{
			clients:      clientRepo,
			records:      records,
			loggers:      loggers,
			recordWriter: records,
			loggerWriter: loggers,
			daily:        docs,
			losses:       docs,
			audit:        audit.NewLogLogger(logger),
		}, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	records := meteringpostgres.NewMeterRecordRepository(db)
	loggers := meteringpostgres.NewLoggerReadingRepository(db)
	docs := reportpostgres.NewDocumentRepository(db)
	return &backends{
		db:           db,
		clients:      clientpostgres.NewClientRepository(db),
		records:      records,
		loggers:      loggers,
		recordWriter: records,
		loggerWriter: loggers,
		daily:        docs,
		losses:       docs,
		audit:        audit.NewRepository(db),
	}, nil
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

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
