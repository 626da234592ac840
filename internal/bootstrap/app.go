package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/documents"
	"triage-backend/internal/llm"
	"triage-backend/internal/llm/gemini"
	"triage-backend/internal/llm/openai"
	"triage-backend/internal/search"
	"triage-backend/internal/services/health"
	"triage-backend/internal/shared/config"
	"triage-backend/internal/shared/server"
	"triage-backend/internal/shared/storage/db"
	"triage-backend/internal/shared/telemetry"
	"triage-backend/internal/triage"
)

const appTitle = "document-triage"

// App holds shared dependencies, constructed once per process.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	DocumentsRepo    documents.Repo
	DocumentsService *documents.Service
	LLM              llm.Client
	Pipeline         *triage.Pipeline
	SearchService    *search.Service
	Health           *health.Service
	DocumentsHandler *documents.Handler
	TriageHandler    *triage.Handler
	SearchHandler    *search.Handler
}

// Build prepares dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	return BuildWithClient(cfg, nil)
}

// BuildWithClient is Build with an injected Categorization Client, mainly for tests.
// A nil client means one is built from cfg.
func BuildWithClient(cfg config.Config, client llm.Client) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if len(cfg.Departments) == 0 {
		cfg.Departments = config.DefaultDepartments()
	}
	if cfg.LogLevel != "" {
		telemetry.SetLevel(cfg.LogLevel)
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client, err = buildLLM(ctx, cfg)
		if err != nil {
			return nil, err
		}
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		LLM:    client,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		DocumentsHandler: app.DocumentsHandler,
		TriageHandler:    app.TriageHandler,
		SearchHandler:    app.SearchHandler,
		Health:           app.Health,
	})

	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		if err = db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_store", map[string]any{"reason": "database unavailable", "error": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	var provider llm.Provider
	switch cfg.LLMProvider {
	case "none":
	case "gemini":
		if cfg.LLMAPIKey == "" {
			break
		}
		p, err := gemini.NewClient(ctx, cfg.LLMAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		provider = p
	default:
		if cfg.LLMAPIKey == "" {
			break
		}
		opts := openai.Options{
			BaseURL: cfg.LLMBaseURL,
			Timeout: time.Duration(cfg.LLMTimeoutSecs) * time.Second,
		}
		if cfg.LLMProvider == "openrouter" {
			opts.AppTitle = appTitle
		}
		p, err := openai.NewClient(cfg.LLMAPIKey, cfg.LLMModel, opts)
		if err != nil {
			return nil, err
		}
		provider = p
	}

	if provider == nil {
		telemetry.Warn("bootstrap.llm_disabled", map[string]any{
			"provider": cfg.LLMProvider,
			"reason":   "no provider or API key configured; triage will use fallbacks",
		})
		return llm.PlaceholderClient{}, nil
	}

	var client llm.Client = llm.NewPromptClient(provider, cfg.Departments)
	if cfg.LLMBreaker {
		client = llm.NewBreakerClient(client, llm.DefaultBreakerConfig())
	}
	telemetry.Info("bootstrap.llm", map[string]any{
		"provider": cfg.LLMProvider,
		"model":    cfg.LLMModel,
		"breaker":  cfg.LLMBreaker,
	})
	return client, nil
}

func buildServices(app *App) error {
	var docRepo documents.Repo
	if app.DB != nil {
		docRepo = &documents.PGRepo{DB: app.DB}
	} else {
		docRepo = documents.NewMemoryRepo()
	}

	docSvc := documents.NewService(docRepo)
	pipeline := triage.NewPipeline(docSvc, app.LLM)
	searchSvc := search.NewService(docRepo, app.LLM, app.Config.Departments)

	app.DocumentsRepo = docRepo
	app.DocumentsService = docSvc
	app.Pipeline = pipeline
	app.SearchService = searchSvc
	app.Health = health.NewService(app.DB)
	app.DocumentsHandler = documents.NewHandler(docSvc)
	app.TriageHandler = triage.NewHandler(pipeline, app.Config.MaxUploadBytes)
	app.SearchHandler = search.NewHandler(searchSvc)

	if app.DocumentsHandler == nil || app.TriageHandler == nil || app.SearchHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
