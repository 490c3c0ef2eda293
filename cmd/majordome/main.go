package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/amarchal/majordome/internal/assistant"
	"github.com/amarchal/majordome/internal/bot"
	"github.com/amarchal/majordome/internal/briefing"
	"github.com/amarchal/majordome/internal/cli"
	"github.com/amarchal/majordome/internal/config"
	"github.com/amarchal/majordome/internal/conversation"
	"github.com/amarchal/majordome/internal/db"
	"github.com/amarchal/majordome/internal/intelligence"
	"github.com/amarchal/majordome/internal/jobs"
	"github.com/amarchal/majordome/internal/llm"
	"github.com/amarchal/majordome/internal/ops"
	"github.com/amarchal/majordome/internal/planner"
	"github.com/amarchal/majordome/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("MAJORDOME_CONFIG"))
	if err != nil {
		return err
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	tasks := repository.NewSQLiteTaskRepo(database)
	history := repository.NewSQLiteHistoryRepo(database)
	content := repository.NewSQLiteContentRepo(database)

	var cache repository.CacheStore
	if cfg.Cache.Backend == "redis" {
		cache = repository.NewRedisCacheStore(cfg.Cache.RedisAddr)
	} else {
		cache = repository.NewSQLiteCacheStore(database)
	}

	// Wire the LLM subsystem
	llmCfg := llm.LoadConfig()
	client := llm.NewClient(llmCfg, llm.NewZerologObserver(log))

	// Wire services
	extract := intelligence.NewExtractService(client)
	calendar := intelligence.NewCalendarService(client, cfg.Timezone)
	engine := planner.NewEngine(tasks, history, cache, client, extract, log)
	aggregator := briefing.NewAggregator(tasks, content, extract, client, nil, nil, engine, log)
	conv := conversation.NewManager()
	router := assistant.NewRouter(conv, extract, calendar, nil, tasks, engine, aggregator, log)

	app := &cli.App{
		Router:  router,
		Planner: engine,
	}
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// Job notifications go to Telegram when it is configured; otherwise
	// they print locally so cron-driven runs still surface something.
	var notifier briefing.Notifier = consoleNotifier{}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := bot.New(cfg.Telegram.Token, cfg.Telegram.ChatID, router, engine, log)
		if err != nil {
			log.Warn().Err(err).Msg("telegram unavailable, notifications print to stdout")
		} else {
			notifier = tg.Notifier()
			app.RunBot = tg.Run
		}
	}
	app.Jobs = jobs.NewRunner(tasks, history, content, extract, notifier, log)

	opsServer := ops.NewServer(database, tasks, cache, log)
	app.ServeOps = func(ctx context.Context) error {
		return opsServer.ListenAndServe(ctx, cfg.Ops.ListenAddr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.ExecuteContext(ctx)
}

// consoleNotifier is the no-Telegram fallback for job output.
type consoleNotifier struct{}

func (consoleNotifier) Send(_ context.Context, text string) error {
	_, err := fmt.Println(text)
	return err
}
