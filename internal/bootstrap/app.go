package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-optimizer/internal/jobdesc"
	"resume-optimizer/internal/llm"
	"resume-optimizer/internal/llm/gemini"
	"resume-optimizer/internal/llm/openai"
	"resume-optimizer/internal/optimize"
	"resume-optimizer/internal/shared/config"
	"resume-optimizer/internal/shared/server"
	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/shared/storage/db"
	"resume-optimizer/internal/shared/telemetry"
	"resume-optimizer/internal/usage"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Generator       llm.Generator
	Fetcher         *jobdesc.Fetcher
	UsageService    *usage.Service
	OptimizeService *optimize.Service
	OptimizeHandler *optimize.Handler
	UsageHandler    *usage.Handler
}

// Build prepares dependencies and the router. A generator configuration
// error does not stop the build outside production: the service starts and
// every generation call reports the error again.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	gen, err := BuildGenerator(ctx, cfg)
	if err != nil {
		if !isDevLike(cfg.Env) {
			return nil, err
		}
		telemetry.Error("bootstrap.generator_unconfigured", map[string]any{
			"provider": cfg.LLMProvider,
			"model":    cfg.LLMModel,
			"error":    err.Error(),
		})
		gen = llm.Unconfigured{Reason: err}
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Generator: gen,
		Fetcher: jobdesc.NewFetcher(jobdesc.Options{
			Timeout:   cfg.FetchTimeout,
			MaxBytes:  cfg.FetchMaxBytes,
			UserAgent: cfg.FetchUserAgent,
		}),
	}

	if sqlDB != nil {
		app.UsageService = usage.NewPostgresService(usage.NewPGStore(sqlDB), cfg.GenerationDailyLimit)
	} else {
		app.UsageService = usage.NewService(cfg.GenerationDailyLimit)
	}

	app.OptimizeService = &optimize.Service{
		Generator: app.Generator,
		Fetcher:   app.Fetcher,
		Provider:  cfg.LLMProvider,
		Model:     cfg.LLMModel,
	}
	if app.UsageService.Enabled() {
		app.OptimizeService.Quota = app.UsageService
	}
	app.OptimizeHandler = optimize.NewHandler(app.OptimizeService, cfg.MaxUploadBytes)
	app.UsageHandler = usage.NewHandler(app.UsageService)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		OptimizeHandler: app.OptimizeHandler,
		UsageHandler:    app.UsageHandler,
		RateLimiter:     middleware.NewRateLimiter(nil),
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":             cfg.Env,
		"provider":        cfg.LLMProvider,
		"model":           cfg.LLMModel,
		"quota_limit":     cfg.GenerationDailyLimit,
		"quota_store":     quotaStoreName(sqlDB),
		"fetch_timeout_s": cfg.FetchTimeout.Seconds(),
	})
	return app, nil
}

// BuildGenerator constructs the configured provider client.
func BuildGenerator(ctx context.Context, cfg config.Config) (llm.Generator, error) {
	switch cfg.LLMProvider {
	case "gemini":
		return gemini.New(ctx, cfg.GoogleAPIKey, cfg.LLMModel, cfg.GenerationTimeout)
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.GenerationTimeout)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM_PROVIDER %q", config.ErrInvalidConfig, cfg.LLMProvider)
	}
}

// Close releases the database pool if one was opened.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		telemetry.Info("bootstrap.db_skipped", map[string]any{"reason": "DATABASE_URL empty; using in-memory quota store"})
		return nil, nil
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.db_unavailable", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.migrations_failed", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func quotaStoreName(sqlDB *sql.DB) string {
	if sqlDB != nil {
		return "postgres"
	}
	return "memory"
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
