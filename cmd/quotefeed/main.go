package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quotefeed/internal/adapter/analysis"
	"quotefeed/internal/adapter/cache"
	"quotefeed/internal/adapter/exchange"
	"quotefeed/internal/adapter/generator"
	"quotefeed/internal/adapter/handler"
	"quotefeed/internal/adapter/storage"
	"quotefeed/internal/application/service"
	"quotefeed/internal/application/usecase"
	"quotefeed/internal/concurrency/worker"
	"quotefeed/internal/domain/model"
	"quotefeed/internal/domain/port"
	"quotefeed/internal/infrastructure/config"
	"quotefeed/internal/infrastructure/logger"
	"quotefeed/internal/infrastructure/server"
	"quotefeed/internal/infrastructure/telemetry"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to the YAML config file")
	portFlag   = flag.Int("port", 0, "Port number")
	onceFlag   = flag.Bool("once", false, "Run one refresh cycle, print the ticker and exit")
	helpFlag   = flag.Bool("help", false, "Show help")
)

func main() {
	flag.Parse()

	if *helpFlag {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *portFlag != 0 {
		cfg.Server.Port = *portFlag
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	shutdownTelemetry, err := telemetry.Setup(context.Background(), telemetry.Config{
		Exporter:    cfg.Telemetry.Exporter,
		Endpoint:    cfg.Telemetry.Endpoint,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		log.Error("failed to set up telemetry", "error", err)
		os.Exit(1)
	}

	mode, err := model.ParseDataMode(cfg.Feed.Mode)
	if err != nil {
		log.Error("invalid feed mode", "error", err)
		os.Exit(1)
	}
	sources := buildSources(cfg, log)

	feed := service.NewQuoteFeed(sources[mode], cfg.Feed.Symbols, cfg.Feed.PollInterval, log,
		service.WithRequestTimeout(cfg.Feed.RequestTimeout))

	code := 0
	if *onceFlag {
		code = runOnce(feed)
	} else if err := run(cfg, feed, sources, mode, log); err != nil {
		log.Error("quotefeed exited with error", "error", err)
		code = 1
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := shutdownTelemetry(flushCtx); err != nil {
		log.Warn("failed to flush telemetry", "error", err)
	}
	cancel()
	os.Exit(code)
}

func buildSources(cfg *config.Config, log *slog.Logger) map[model.DataMode]port.QuoteSource {
	if cfg.Finnhub.APIKey == "" {
		log.Warn("FINNHUB_API_KEY is not set, live quotes will fail")
	}
	return map[model.DataMode]port.QuoteSource{
		model.LiveMode: exchange.NewFinnhubExchange(cfg.Finnhub.BaseURL, cfg.Finnhub.APIKey, cfg.Finnhub.Timeout, log),
		model.TestMode: generator.NewTestGenerator("test-generator", cfg.Feed.Seed, log),
	}
}

func runOnce(feed *service.QuoteFeed) int {
	ctx, cancel := context.WithTimeout(context.Background(), feed.Interval())
	defer cancel()

	table, _ := feed.Refresh(ctx)
	fmt.Println(usecase.Line(usecase.BuildTrack(feed.Symbols(), table)))
	if table.Len() == 0 {
		return 1
	}
	return 0
}

func run(cfg *config.Config, feed *service.QuoteFeed, sources map[model.DataMode]port.QuoteSource, mode model.DataMode, log *slog.Logger) error {
	startedAt := time.Now()
	log.Info("starting quotefeed", "mode", mode, "symbols", len(cfg.Feed.Symbols))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresAdapter, err := storage.NewPostgresAdapter(cfg.PostgresDSN())
	if err != nil {
		return fmt.Errorf("failed to initialize postgres: %w", err)
	}
	defer postgresAdapter.Close()
	postgresAdapter.SetPool(cfg.PostgreSQL.MaxOpenConns, cfg.PostgreSQL.MaxIdleConns, cfg.PostgreSQL.ConnMaxLifetime)

	if err := postgresAdapter.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	redisAdapter, err := cache.NewRedisAdapter(
		cfg.RedisAddr(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.DataRetention.RedisTTL,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer redisAdapter.Close()
	sessions := cache.NewSessionStore(redisAdapter.Client())

	// archive pipeline: published tables -> worker pool -> redis, then
	// periodic roll-up into postgres
	pool := worker.NewPool(cfg.Workers.Count, feed.SourceName, redisAdapter, postgresAdapter, log)
	archive := service.NewArchiveService(pool, cfg.Workers.ArchiveBuffer, log)
	archiveCtx, stopArchive := context.WithCancel(context.Background())
	archive.Start(archiveCtx)
	feed.Subscribe(archive.Enqueue)

	aggregationService := service.NewAggregationService(redisAdapter, postgresAdapter, feed, log)
	aggregationService.Start(context.Background(), cfg.DataRetention.AggregationInterval)

	modeService := service.NewModeService(feed, sources, mode, log)

	tickerUseCase := usecase.NewTickerUseCase(feed, cfg.Feed.ScrollDuration)
	priceUseCase := usecase.NewPriceUseCase(postgresAdapter, redisAdapter)
	if cfg.Analysis.BaseURL == "" {
		log.Warn("ANALYSIS_BASE_URL is not set, /analyze and /chat will fail")
	}
	analysisUseCase := usecase.NewAnalysisUseCase(
		analysis.NewClient(cfg.Analysis.BaseURL, cfg.Analysis.Timeout, log),
		sessions,
		tickerUseCase,
		log,
	)

	mux := http.NewServeMux()
	handler.Register(mux, handler.Handlers{
		Ticker:   handler.NewTickerHandler(tickerUseCase, log),
		Price:    handler.NewPriceHandler(priceUseCase, log),
		Mode:     handler.NewModeHandler(modeService, log),
		Health:   handler.NewHealthHandler(postgresAdapter, redisAdapter, feed, log),
		Analysis: handler.NewAnalysisHandler(analysisUseCase, log),
	})

	srv := server.NewServer(cfg.Server.Port, mux, server.Options{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, log)

	if err := feed.Start(context.Background()); err != nil {
		return fmt.Errorf("failed to start feed: %w", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down gracefully")
	case err = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error("shutdown error", "error", shutdownErr)
	}

	feed.Stop()
	stopArchive()
	archive.Wait()
	aggregationService.Stop()

	log.Info("shutdown complete",
		"archived", archive.Archived(),
		"archive_dropped", archive.Dropped(),
		"uptime", time.Since(startedAt).Round(time.Second))
	return err
}

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  quotefeed [--config <path>] [--port <N>]")
	fmt.Println("  quotefeed --once")
	fmt.Println("  quotefeed --help")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config PATH  YAML config file (default configs/config.yaml)")
	fmt.Println("  --port N       Port number")
	fmt.Println("  --once         Fetch every symbol once, print the ticker line and exit")
}
