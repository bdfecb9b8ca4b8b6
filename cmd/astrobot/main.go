package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/gratefultolord/astro_bot/internal/bot"
	"github.com/gratefultolord/astro_bot/internal/config"
	"github.com/gratefultolord/astro_bot/internal/db"
	"github.com/gratefultolord/astro_bot/internal/geo"
	"github.com/gratefultolord/astro_bot/internal/llm"
	"github.com/gratefultolord/astro_bot/internal/logger"
	"github.com/gratefultolord/astro_bot/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		log.Fatalf("Error creating logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zlog); err != nil {
		zlog.Fatal("bot stopped with error", zap.Error(err))
	}
	zlog.Info("bot stopped")
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	profiles, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("creating telegram bot: %w", err)
	}
	botAPI.Debug = cfg.Debug

	states := bot.NewStateStore(cfg.PendingReplyTTL)
	go sweepStates(ctx, states, cfg.PendingReplyTTL, log)

	botService := bot.New(
		bot.NewRateLimitedSender(botAPI, cfg.SendRatePerSecond),
		profiles,
		newCompleter(cfg),
		geo.NewTimezoneClient(cfg.TimezoneAPIKey),
		states,
		log,
	)

	dedup, closeDedup := newDeduper(cfg)
	defer closeDedup()

	log.Info("bot started",
		zap.String("username", botAPI.Self.UserName),
		zap.String("transport", cfg.TransportMode),
		zap.String("store", cfg.StoreDriver),
		zap.String("llm", cfg.LLMProvider))

	mux := transport.NewMux()
	addr := ":" + cfg.Port

	if cfg.TransportMode == config.TransportWebhook {
		if err := transport.Register(botAPI, cfg.WebhookEndpoint()); err != nil {
			log.Error("failed to register webhook", zap.Error(err))
		} else {
			log.Info("webhook registered", zap.String("endpoint", cfg.WebhookEndpoint()))
		}

		transport.NewWebhook(config.WebhookPath, botService, dedup, log).Mount(mux)
		return transport.Serve(ctx, addr, mux, log)
	}

	go func() {
		if err := transport.Serve(ctx, addr, mux, log); err != nil {
			log.Error("health server stopped", zap.Error(err))
		}
	}()

	return transport.NewPoller(botAPI, botService, dedup, log).Run(ctx)
}

// openStore connects the configured profile store, retrying until it is
// reachable or ctx is cancelled.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (db.ProfileStore, func(), error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		database, err := db.ConnectWithRetry(ctx, log, cfg.StoreRetryDelay, func(ctx context.Context) (*db.DB, error) {
			return db.New(ctx, cfg)
		})
		if err != nil {
			return nil, nil, err
		}

		if err := db.RunMigrations(database.Conn, "db_scripts/init.sql"); err != nil {
			_ = database.Close()
			return nil, nil, err
		}

		return db.NewPostgresProfileRepository(database.Conn), func() { _ = database.Close() }, nil

	case config.StoreMemory:
		log.Warn("using in-memory profile store, profiles are lost on restart")
		return db.NewMemoryProfileRepository(), func() {}, nil

	default:
		client, err := db.ConnectWithRetry(ctx, log, cfg.StoreRetryDelay, func(ctx context.Context) (*mongo.Client, error) {
			return db.ConnectMongo(ctx, cfg.MongoURI)
		})
		if err != nil {
			return nil, nil, err
		}

		closeFn := func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(shutdownCtx)
		}

		return db.NewMongoProfileRepository(client, cfg.MongoDB), closeFn, nil
	}
}

func newCompleter(cfg *config.Config) bot.Completer {
	if cfg.LLMProvider == config.ProviderYandex {
		return llm.NewYandexClient(cfg.YandexKey, cfg.YandexCatalogID)
	}

	var opts []llm.Option
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, llm.WithBaseURL(cfg.OpenAIBaseURL))
	}

	return llm.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel, opts...)
}

func newDeduper(cfg *config.Config) (transport.Deduper, func()) {
	if cfg.RedisAddr == "" {
		return transport.NewMemoryDeduper(10000), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	return transport.NewRedisDeduper(client, "astrobot:update:", 24*time.Hour), func() { _ = client.Close() }
}

func sweepStates(ctx context.Context, states *bot.StateStore, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := states.Sweep(); n > 0 {
				log.Debug("expired pending replies removed", zap.Int("count", n))
			}
		}
	}
}
