package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"notesum-backend/internal/documents"
	"notesum-backend/internal/extract"
	"notesum-backend/internal/llm"
	openai "notesum-backend/internal/llm/openai"
	"notesum-backend/internal/processing"
	"notesum-backend/internal/queue"
	"notesum-backend/internal/services/health"
	"notesum-backend/internal/shared/cache"
	"notesum-backend/internal/shared/config"
	"notesum-backend/internal/shared/retry"
	"notesum-backend/internal/shared/server"
	"notesum-backend/internal/shared/storage/db"
	"notesum-backend/internal/shared/storage/object"
	localstore "notesum-backend/internal/shared/storage/object/local"
	s3store "notesum-backend/internal/shared/storage/object/s3"
	"notesum-backend/internal/shared/telemetry"
	"notesum-backend/internal/summaries"
	"notesum-backend/internal/summarize"
)

// App holds shared dependencies for every binary.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Cache  cache.Cache
	Queue  queue.Client

	DocumentsRepo     documents.DocumentsRepo
	SummaryStore      summaries.Store
	DocumentsService  *documents.Service
	Extractor         *extract.Router
	Summarizer        *summarize.Summarizer
	ProcessingService *processing.Service
	Health            *health.Service
}

// Options adjust Build for binaries that do not serve HTTP.
type Options struct {
	// SkipRouter leaves App.Router nil.
	SkipRouter bool
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config, opts ...Options) (*App, error) {
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	telemetry.SetLevel(cfg.LogLevel)
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Cache:  buildCache(ctx, cfg),
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	if !opt.SkipRouter {
		deps := server.RouterDeps{
			Config:           app.Config,
			DocumentsHandler: documents.NewHandler(app.DocumentsService),
			ProcessingHandler: processing.NewHandler(
				app.ProcessingService,
			),
			Health: app.Health,
		}
		if local, ok := store.(*localstore.Store); ok {
			deps.Blobs = local.Handler()
		}
		app.Router = server.NewRouter(deps)
	}

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:        cfg.AWSRegion,
			Bucket:        cfg.S3Bucket,
			Prefix:        cfg.S3Prefix,
			KMSKeyID:      cfg.SSEKMSKeyID,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	default:
		signingKey := cfg.BlobSigningKey
		if signingKey == "" {
			if !config.IsDevLike(cfg.Env) {
				return nil, fmt.Errorf("BLOB_SIGNING_KEY is required for the local object store outside dev")
			}
			signingKey = "dev-blob-signing-key"
		}
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL, signingKey), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.QueueURL, cfg.AWSRegion)
}

// buildCache prefers redis and falls back to memory when it is unreachable.
func buildCache(ctx context.Context, cfg config.Config) cache.Cache {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return cache.NewMemory()
	}
	rc, err := cache.NewRedis(cfg.RedisURL)
	if err == nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = rc.Ping(pingCtx)
		cancel()
		if err == nil {
			return rc
		}
		_ = rc.Close()
	}
	telemetry.Warn("bootstrap.cache_fallback", map[string]any{"error": err.Error()})
	return cache.NewMemory()
}

func buildLLM(cfg config.Config) (llm.Completer, llm.Transcriber, error) {
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		if !config.IsDevLike(cfg.Env) {
			return nil, nil, fmt.Errorf("OPENAI_API_KEY is required")
		}
		telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"env": cfg.Env})
		return llm.Placeholder{}, llm.Placeholder{}, nil
	}
	client, err := openai.NewClient(openai.Options{
		APIKey:            cfg.OpenAIAPIKey,
		BaseURL:           cfg.OpenAIBaseURL,
		Model:             cfg.LLMModel,
		TranscribeModel:   cfg.TranscribeModel,
		Timeout:           cfg.LLMTimeout,
		TranscribeTimeout: cfg.TranscribeTimeout,
		RatePerSecond:     cfg.LLMRatePerSecond,
	})
	if err != nil {
		return nil, nil, err
	}
	return llm.WithRetry(client), llm.WithTranscribeRetry(client), nil
}

// BuildExtractor wires the four extractors behind the content router.
func BuildExtractor(cfg config.Config, store object.ObjectStore, locator extract.Locator, c cache.Cache, transcriber llm.Transcriber) *extract.Router {
	fetchClient := &http.Client{Timeout: cfg.FetchTimeout}
	downloadClient := &http.Client{Timeout: cfg.TranscribeTimeout}

	policy := retry.StorageLag
	if cfg.DownloadRetryAttempts > 0 {
		policy.Attempts = cfg.DownloadRetryAttempts
	}
	if cfg.DownloadRetryBaseDelay > 0 {
		policy.BaseDelay = cfg.DownloadRetryBaseDelay
	}
	downloader := extract.NewDownloader(downloadClient, policy)
	audio := &extract.AudioTranscriber{Backend: transcriber}

	return &extract.Router{
		Article: extract.NewArticleExtractor(fetchClient, cfg.ChromePhrases),
		YouTube: &extract.YouTubeExtractor{
			Source:          extract.NewKkdaiSource(fetchClient, cfg.YouTubeRatePerSecond),
			Audio:           audio,
			StreamClient:    downloadClient,
			Cache:           c,
			CacheTTL:        cfg.TranscriptCacheTTL,
			FallbackTimeout: cfg.YouTubeFallbackTimeout,
		},
		PDF: &extract.PDFExtractor{
			Locator:      locator,
			Signer:       store,
			Downloader:   downloader,
			SignedURLTTL: cfg.SignedURLTTL,
			Artifacts:    store,
		},
		Audio: &extract.AudioExtractor{
			Locator:      locator,
			Signer:       store,
			Downloader:   downloader,
			Transcriber:  audio,
			SignedURLTTL: cfg.SignedURLTTL,
		},
	}
}

func buildServices(app *App) error {
	var docRepo documents.DocumentsRepo
	var summaryStore summaries.Store
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
		summaryStore = &summaries.PGStore{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
		summaryStore = summaries.NewMemoryStore()
	}

	completer, transcriber, err := buildLLM(app.Config)
	if err != nil {
		return err
	}

	docSvc := &documents.Service{
		Store:      app.Store,
		Repo:       docRepo,
		Classifier: extract.NewClassifier(app.Config.ArticleDomains),
	}
	router := BuildExtractor(app.Config, app.Store, docSvc, app.Cache, transcriber)
	summarizer := summarize.New(completer, app.Config.SummaryMaxTokens, app.Config.SummaryTemperature)

	app.DocumentsRepo = docRepo
	app.SummaryStore = summaryStore
	app.DocumentsService = docSvc
	app.Extractor = router
	app.Summarizer = summarizer
	app.ProcessingService = &processing.Service{
		Docs:       docRepo,
		Summaries:  summaryStore,
		Extractor:  router,
		Summarizer: summarizer,
		Queue:      app.Queue,
	}

	checks := map[string]health.Pinger{}
	if app.DB != nil {
		checks["database"] = health.PingFunc(app.DB.PingContext)
	}
	if rc, ok := app.Cache.(*cache.Redis); ok {
		checks["redis"] = rc
	}
	app.Health = health.NewService(checks)
	return nil
}
