package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haoxiang14/solana-wallet-tracker/internal/bot"
	"github.com/haoxiang14/solana-wallet-tracker/internal/config"
	"github.com/haoxiang14/solana-wallet-tracker/internal/handler"
	"github.com/haoxiang14/solana-wallet-tracker/internal/helius"
	"github.com/haoxiang14/solana-wallet-tracker/internal/logger"
	"github.com/haoxiang14/solana-wallet-tracker/internal/market"
	"github.com/haoxiang14/solana-wallet-tracker/internal/notify"
	"github.com/haoxiang14/solana-wallet-tracker/internal/redis"
	"github.com/haoxiang14/solana-wallet-tracker/internal/store"
	"github.com/haoxiang14/solana-wallet-tracker/internal/subscription"
	"github.com/haoxiang14/solana-wallet-tracker/internal/swap"
	"github.com/haoxiang14/solana-wallet-tracker/internal/web"
)

// Application bundles everything main wires together.
type Application struct {
	cfg    *config.Config
	log    logger.Logger
	db     *store.Postgres
	cache  *redis.Client
	bot    *bot.Bot
	server *web.Server
	subs   *subscription.Service
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:      logger.ParseLevel(cfg.Logger.Level),
		Format:     cfg.Logger.Format,
		TimeFormat: cfg.Logger.TimeFormat,
		AppName:    cfg.App.Name,
	})
	logger.SetGlobal(log)

	app, err := newApplication(cfg, log)
	if err != nil {
		log.Fatal("startup failed", logger.F("error", err))
	}

	app.Run()
}

func newApplication(cfg *config.Config, log logger.Logger) (*Application, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.NewPostgres(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.Info("database connected")

	// Redis is optional; without it duplicate webhook deliveries are
	// notified twice rather than dropped.
	var cache *redis.Client
	var dedup handler.Deduplicator
	if cfg.Redis.Enabled {
		cache, err = redis.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn("redis unavailable, deduplication disabled",
				logger.F("error", err))
		} else {
			dedup = redis.NewDeduplicator(cache, cfg.Redis.SeenTTL, log)
		}
	}

	var syncer subscription.Syncer
	if cfg.IsHeliusEnabled() {
		syncer = helius.NewClient(cfg.Helius, log)
	} else {
		log.Warn("helius not configured, allowlist sync disabled")
	}

	subs := subscription.NewService(db, syncer, log)

	b, err := bot.New(cfg.Telegram, subs, log)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	pipeline := handler.NewPipeline(
		swap.NewParser(log),
		market.NewClient(log),
		notify.NewComposer(),
		notify.NewDispatcher(b, subs, log),
		dedup,
		log,
	)

	var cachePinger web.Pinger
	if cache != nil {
		cachePinger = cache
	}
	server := web.New(cfg.Server.Port, pipeline, db, cachePinger, log)

	return &Application{
		cfg:    cfg,
		log:    log,
		db:     db,
		cache:  cache,
		bot:    b,
		server: server,
		subs:   subs,
	}, nil
}

// Run starts the bot, the webhook server, and the optional allowlist resync
// loop, then blocks until a shutdown signal arrives.
func (a *Application) Run() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.bot.Run(ctx)

	go func() {
		if err := a.server.Start(); err != nil {
			a.log.Error("http server stopped", logger.F("error", err))
			cancel()
		}
	}()

	if a.cfg.Helius.ResyncInterval > 0 {
		go a.resyncLoop(ctx)
	}

	a.log.Info("application started",
		logger.F("env", a.cfg.App.Environment),
		logger.F("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.log.Info("shutdown signal received", logger.F("signal", sig.String()))
	case <-ctx.Done():
	}

	a.shutdown()
}

// resyncLoop periodically pushes the full allowlist so earlier soft sync
// failures heal without operator action.
func (a *Application) resyncLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Helius.ResyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.subs.Resync(ctx); err != nil {
				a.log.Warn("allowlist resync failed", logger.F("error", err))
			}
		}
	}
}

func (a *Application) shutdown() {
	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http shutdown failed", logger.F("error", err))
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Error("redis close failed", logger.F("error", err))
		}
	}

	a.db.Close()
	a.log.Info("goodbye")
}
