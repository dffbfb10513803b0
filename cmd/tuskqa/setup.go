package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sandevgo/tuskqa/internal/config"
	"github.com/sandevgo/tuskqa/internal/core"
	"github.com/sandevgo/tuskqa/internal/providers/llm"
	"github.com/sandevgo/tuskqa/internal/providers/web"
	"github.com/sandevgo/tuskqa/internal/service/command"
	"github.com/sandevgo/tuskqa/internal/service/qa"
	"github.com/sandevgo/tuskqa/internal/storage/sqlite"
	"github.com/sandevgo/tuskqa/pkg/log"
)

// App is the wired core shared by every subcommand.
type App struct {
	cfg    *config.AppConfig
	llmCfg *config.LLMConfig
	db     *sql.DB
	qa     *qa.Service
}

func NewApp(ctx context.Context) (*App, error) {
	logger := log.FromCtx(ctx)

	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, fmt.Errorf("failed to init env: %w", err)
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	if ownerID != "" {
		appCfg.Owner = ownerID
	}
	llmCfg := config.NewLLMConfig(ctx)
	webCfg := config.NewWebConfig(ctx)

	if err := os.MkdirAll(appCfg.GetRuntimePath(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// 3. LLM. Without one every answer takes the fallback path.
	var (
		client   *llm.RetryingClient
		executor qa.Executor
	)
	transport, err := llm.NewTransport(ctx, llmCfg)
	if err != nil {
		logger.Warn().Err(err).Msg("llm unavailable, answers will use fallbacks only")
	} else {
		client = llm.NewRetryingClient(transport, llm.Options{
			Timeout:        llmCfg.Timeout,
			MaxRetries:     llmCfg.MaxRetries,
			InitialBackoff: llmCfg.InitialBackoff,
		})
		executor = client
	}

	// 4. General knowledge
	knowledge, err := initKnowledge(webCfg, client, appCfg.WebNoteWords)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// 5. QA service
	prompts, err := qa.LoadPromptBuilder(appCfg.GetPromptPath())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	svc := qa.NewService(qa.Deps{
		Facts:     sqlite.NewFactRepo(db),
		Meals:     sqlite.NewMealRepo(db),
		CheckIns:  sqlite.NewCheckInRepo(db),
		Log:       sqlite.NewHistory(db),
		LLM:       executor,
		Knowledge: knowledge,
	}, prompts, qa.Options{
		EvidenceCap:        appCfg.EvidenceCap,
		MinFacts:           appCfg.MinFacts,
		WordCap:            appCfg.WordCap,
		WebNoteWords:       appCfg.WebNoteWords,
		WebNoteBudget:      webCfg.NoteBudget,
		WebOnLowConfidence: webCfg.OnLowConfidence,
		LowConfidence:      qa.DefaultLowConfidence,
		Summarize:          appCfg.SummarizeLong,
	})

	return &App{cfg: appCfg, llmCfg: llmCfg, db: db, qa: svc}, nil
}

func (a *App) Owner() string {
	return a.cfg.Owner
}

// Router builds the slash commands for a surface; source tags facts it ingests.
func (a *App) Router(source string) *command.Router {
	return command.New(command.NewCommands(a.llmCfg, a.qa, source))
}

func (a *App) Close() error {
	return a.db.Close()
}

// initKnowledge builds the web note source. client may be nil.
func initKnowledge(cfg *config.WebConfig, client *llm.RetryingClient, noteWords int) (core.WebKnowledge, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	chain := web.Chain{web.NewWikipedia(cfg.WikipediaURL, cfg.Timeout)}
	if cfg.LLMFallback && client != nil {
		chain = append(chain, web.NewGeneralKnowledge(client, noteWords, cfg.LLMTimeout))
	}

	cached, err := web.NewCached(chain, cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create knowledge cache: %w", err)
	}
	return cached, nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := config.AppConfig{RuntimePath: runtimePath}.GetEnvPath()

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
