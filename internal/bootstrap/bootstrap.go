package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"cloud.google.com/go/vertexai/genai"
	"github.com/google/uuid"

	"github.com/medwise/medwise-backend/internal/config"
	"github.com/medwise/medwise-backend/internal/core/ports"
	"github.com/medwise/medwise-backend/internal/core/usecase"
	"github.com/medwise/medwise-backend/internal/infrastructure/llm/gemini"
	"github.com/medwise/medwise-backend/internal/infrastructure/llm/ollama"
	"github.com/medwise/medwise-backend/internal/infrastructure/llm/prompt"
	"github.com/medwise/medwise-backend/internal/infrastructure/queue/nats"
	"github.com/medwise/medwise-backend/internal/infrastructure/repository/mongodb"
	"github.com/medwise/medwise-backend/internal/infrastructure/repository/postgres"
	"github.com/medwise/medwise-backend/internal/infrastructure/resilience"
	"github.com/medwise/medwise-backend/internal/infrastructure/security"
	"github.com/medwise/medwise-backend/internal/infrastructure/storage/gcs"
	"github.com/medwise/medwise-backend/internal/infrastructure/storage/localfs"
	"github.com/medwise/medwise-backend/internal/observability/metrics"
)

// Role selects which halves of the application a process builds.
type Role string

const (
	// RoleAPI serves HTTP and, in inprocess mode, runs analyses itself.
	RoleAPI Role = "api"
	// RoleWorker consumes analysis requests from NATS.
	RoleWorker Role = "worker"
)

const geminiStagingPrefix = "gemini-staging"

// App owns every store handle and adapter for the lifetime of the process.
type App struct {
	Config config.Config

	Accounts   *usecase.AccountUseCase
	Upload     *usecase.UploadImageUseCase
	Images     *usecase.ImageQueryUseCase
	Analyzer   *usecase.AnalyzeImageUseCase
	Drugs      *usecase.DrugRegistryUseCase
	Readings   *usecase.ReadingUseCase
	LabReports *usecase.LabReportUseCase

	// Tracker is set in inprocess dispatch mode, Queue in nats mode.
	Tracker *usecase.TaskTracker
	Queue   ports.MessageQueue

	HTTPMetrics     *metrics.HTTPServerMetrics
	PipelineMetrics *metrics.PipelineMetrics

	mongo    *mongodb.Store
	postgres *sql.DB
	closers  []func()
}

func New(ctx context.Context, cfg config.Config, role Role) (app *App, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app = &App{Config: cfg}
	defer func() {
		if err != nil {
			app.Close()
		}
	}()

	app.HTTPMetrics = metrics.NewHTTPServerMetrics(string(role))
	app.PipelineMetrics = metrics.NewPipelineMetrics(string(role), app.HTTPMetrics.Registry())
	resilienceCfg := resilienceConfig(cfg)
	resilienceCfg.OnStateChange = app.PipelineMetrics.BreakerStateChanged
	executor := resilience.NewExecutor(resilienceCfg)

	app.mongo, err = mongodb.Open(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return nil, fmt.Errorf("open mongodb: %w", err)
	}
	app.closers = append(app.closers, func() {
		if err := app.mongo.Close(context.Background()); err != nil {
			slog.Warn("mongodb_close_failed", "error", err)
		}
	})
	db := app.mongo.Database()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	imageRepo := mongodb.NewImageRepository(db)
	responseRepo := mongodb.NewAnalysisResponseRepository(db)
	registryRepo := mongodb.NewDrugRegistryRepository(db)

	var gcsClient *storage.Client
	if cfg.BlobBackend == config.BlobGCS || cfg.GeminiStagingBucket != "" {
		gcsClient, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		app.closers = append(app.closers, func() { _ = gcsClient.Close() })
	}

	blobs, err := newObjectStorage(cfg, gcsClient)
	if err != nil {
		return nil, err
	}

	fanOut := usecase.NewPrescriptionFanOutUseCase(registryRepo, app.PipelineMetrics)
	app.Drugs = usecase.NewDrugRegistryUseCase(registryRepo)
	app.Images = usecase.NewImageQueryUseCase(imageRepo, responseRepo)

	if role == RoleWorker || cfg.DispatchMode == config.DispatchInProcess {
		extractionPrompt, err := prompt.Load(cfg.PromptFile)
		if err != nil {
			return nil, fmt.Errorf("load extraction prompt: %w", err)
		}
		backend, err := app.newExtractionBackend(ctx, cfg, gcsClient, executor)
		if err != nil {
			return nil, err
		}
		app.Analyzer = usecase.NewAnalyzeImageUseCase(
			imageRepo,
			responseRepo,
			blobs,
			backend,
			fanOut,
			extractionPrompt,
			usecase.AnalyzeOptions{StagingDir: cfg.StagingDir, Observer: app.PipelineMetrics},
		)
		slog.Info("extraction_backend_ready", "backend", cfg.ExtractionBackend, "model", backend.Model(), "prompt_version", extractionPrompt.Version)
	}

	var queue *nats.Queue
	if cfg.DispatchMode == config.DispatchNATS {
		queue, err = nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			HandlerTimeout:     cfg.AnalysisTimeout,
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		app.Queue = queue
		app.closers = append(app.closers, queue.Close)
	}

	if role == RoleWorker {
		if queue == nil {
			return nil, errors.New("worker requires DISPATCH_MODE=nats")
		}
		return app, nil
	}

	var dispatcher ports.AnalysisDispatcher
	if queue != nil {
		dispatcher = queue
	} else {
		app.Tracker = usecase.NewTaskTracker(ctx, app.Analyzer)
		dispatcher = app.Tracker
	}
	app.Upload = usecase.NewUploadImageUseCase(imageRepo, blobs, dispatcher, cfg.UploadMaxBytes, app.PipelineMetrics)
	app.Readings = usecase.NewReadingUseCase(mongodb.NewReadingRepository(db))
	app.LabReports = usecase.NewLabReportUseCase(mongodb.NewLabReportRepository(db))

	app.postgres, err = postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	app.closers = append(app.closers, func() { _ = app.postgres.Close() })
	users := postgres.NewUserRepository(app.postgres)
	if err := users.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	tokens, err := security.NewJWTIssuer(jwtSecret(cfg), cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		return nil, fmt.Errorf("init token issuer: %w", err)
	}
	app.Accounts = usecase.NewAccountUseCase(users, security.NewBcryptHasher(cfg.BcryptCost), tokens)

	return app, nil
}

func (a *App) newExtractionBackend(
	ctx context.Context,
	cfg config.Config,
	gcsClient *storage.Client,
	executor *resilience.Executor,
) (ports.ExtractionBackend, error) {
	if cfg.ExtractionBackend == config.ExtractionOllama {
		return ollama.New(cfg.OllamaURL, cfg.OllamaVisionModel, cfg.OllamaTimeout, executor), nil
	}

	client, err := gemini.NewClient(ctx, cfg.GCPProjectID, cfg.VertexAIRegion)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	a.closers = append(a.closers, func() { closeGenAI(client) })

	staging := gemini.Staging{}
	if cfg.GeminiStagingBucket != "" {
		staging = gemini.Staging{
			Stager: gcs.New(gcsClient, cfg.GeminiStagingBucket, ""),
			Bucket: cfg.GeminiStagingBucket,
			Prefix: geminiStagingPrefix,
		}
	}
	return gemini.New(client, cfg.GeminiModel, staging, executor), nil
}

func closeGenAI(client *genai.Client) {
	if err := client.Close(); err != nil {
		slog.Warn("genai_close_failed", "error", err)
	}
}

func newObjectStorage(cfg config.Config, gcsClient *storage.Client) (ports.ObjectStorage, error) {
	if cfg.BlobBackend == config.BlobGCS {
		return gcs.New(gcsClient, cfg.GCSBucket, cfg.GCSPrefix), nil
	}
	blobs, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}
	return blobs, nil
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	out.RetryMaxAttempts = cfg.ResilienceRetryMaxAttempts
	out.RetryInitialBackoff = cfg.ResilienceRetryInitialBackoff
	out.RetryMaxBackoff = cfg.ResilienceRetryMaxBackoff
	out.BreakerEnabled = cfg.ResilienceBreakerEnabled
	if cfg.ResilienceBreakerMinRequests > 0 {
		out.BreakerMinRequests = uint32(cfg.ResilienceBreakerMinRequests)
	}
	out.BreakerFailureRatio = cfg.ResilienceBreakerFailureRatio
	out.BreakerOpenTimeout = cfg.ResilienceBreakerOpenTimeout
	return out
}

// jwtSecret falls back to a per-process secret when auth is disabled, so tokens
// minted in development never survive a restart.
func jwtSecret(cfg config.Config) string {
	if cfg.JWTSecret == "" && cfg.AuthMode == config.AuthModeDisabled {
		return uuid.NewString() + uuid.NewString()
	}
	return cfg.JWTSecret
}

// Ready pings the stores the process was built with.
func (a *App) Ready(ctx context.Context) error {
	var errs []error
	if a.mongo != nil {
		if err := a.mongo.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb: %w", err))
		}
	}
	if a.postgres != nil {
		if err := a.postgres.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Shutdown waits for in-process analyses, bounded by ctx, then releases every handle.
func (a *App) Shutdown(ctx context.Context) error {
	var err error
	if a.Tracker != nil {
		slog.Info("analysis_drain_started", "in_flight", a.Tracker.InFlight())
		if err = a.Tracker.Shutdown(ctx); err != nil {
			slog.Warn("analysis_drain_incomplete", "in_flight", a.Tracker.InFlight(), "error", err)
		}
	}
	a.Close()
	return err
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
