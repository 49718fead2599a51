package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/abyssal-labs/archive-engine/pkg/acquire"
	"github.com/abyssal-labs/archive-engine/pkg/config"
	"github.com/abyssal-labs/archive-engine/pkg/database"
	"github.com/abyssal-labs/archive-engine/pkg/handlers"
	"github.com/abyssal-labs/archive-engine/pkg/llm"
	"github.com/abyssal-labs/archive-engine/pkg/logging"
	"github.com/abyssal-labs/archive-engine/pkg/middleware"
	"github.com/abyssal-labs/archive-engine/pkg/repositories"
	"github.com/abyssal-labs/archive-engine/pkg/services"
	"github.com/abyssal-labs/archive-engine/pkg/services/workqueue"
	"github.com/abyssal-labs/archive-engine/pkg/vector"
)

// Version is set at build time via ldflags
var Version = "dev"

// maxConcurrentOracleCalls bounds how many ingest tasks talk to the LLM at once.
const maxConcurrentOracleCalls = 2

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting archive-engine",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("db", logging.SanitizeDSN(cfg.Database.ConnectionString())),
		zap.String("qdrant", cfg.Qdrant.BaseURL()),
		zap.String("llm_endpoint", logging.SanitizeEndpoint(cfg.LLM.Endpoint)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("archive-engine exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Migrations run over database/sql; the application itself uses pgxpool.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		_ = migrationDB.Close()
		return err
	}
	_ = migrationDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	entryRepo := repositories.NewEntryRepository(db)
	jobRepo := repositories.NewJobRepository(db)

	llmClient, err := llm.NewFromConfig(&cfg.LLM, logger)
	if err != nil {
		return err
	}

	store := vector.NewQdrantStore(cfg.Qdrant.BaseURL(), cfg.Qdrant.Collection, cfg.Qdrant.Timeout(), logger)
	if err := store.EnsureCollection(ctx, cfg.Qdrant.EmbeddingDim); err != nil {
		// The indexer re-ensures the collection on every operation, so an
		// unreachable Qdrant at boot only degrades until it comes back.
		logger.Warn("Vector collection unavailable at startup", zap.Error(err))
	}
	indexer := vector.NewIndexer(store, llmClient, cfg.Qdrant.EmbeddingDim, logger)

	fetcher := acquire.NewFetcher(
		time.Duration(cfg.Ingest.FetchTimeoutSeconds)*time.Second,
		cfg.Ingest.MaxBodyBytes,
		logger,
	)

	queue := workqueue.New(logger,
		workqueue.WithStrategy(workqueue.NewThrottledLLMStrategy(maxConcurrentOracleCalls)),
		workqueue.WithRetryConfig(workqueue.NoRetryConfig()),
	)
	defer queue.Cancel()

	oracle := services.NewOracleService(llmClient, logger)
	ingestService := services.NewIngestService(jobRepo, entryRepo, oracle, fetcher, indexer, queue, logger)
	entryService := services.NewEntryService(entryRepo, indexer, logger)
	graphService := services.NewGraphService(entryRepo, logger)
	archivistService := services.NewArchivistService(entryRepo, oracle, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewKnowledgeHandler(entryService, logger).RegisterRoutes(mux)
	handlers.NewIngestHandler(ingestService, logger).RegisterRoutes(mux)
	handlers.NewGraphHandler(graphService, logger).RegisterRoutes(mux)
	handlers.NewArchivistHandler(archivistService, logger).RegisterRoutes(mux)
	handlers.NewExportHandler(entryService, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(middleware.CORS(cfg.CORSOrigins)(mux))

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Drain in-flight ingest tasks so their jobs reach a terminal state.
	if err := queue.Wait(shutdownCtx); errors.Is(err, context.DeadlineExceeded) {
		logger.Warn("Ingest tasks still running at shutdown")
	}
	return nil
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
