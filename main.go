package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Devhypertech/aigroupgepanda/config"
	"github.com/Devhypertech/aigroupgepanda/handlers"
	"github.com/Devhypertech/aigroupgepanda/internal/ai"
	"github.com/Devhypertech/aigroupgepanda/internal/autoreply"
	"github.com/Devhypertech/aigroupgepanda/internal/chat"
	"github.com/Devhypertech/aigroupgepanda/internal/kv"
	"github.com/Devhypertech/aigroupgepanda/internal/llm"
	"github.com/Devhypertech/aigroupgepanda/internal/logger"
	"github.com/Devhypertech/aigroupgepanda/internal/repository"
	"github.com/Devhypertech/aigroupgepanda/internal/ws"
	"github.com/Devhypertech/aigroupgepanda/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	log, err := logger.New(logger.Config{Development: os.Getenv("APP_ENV") != "production"})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.LoadConfig(log)
	if err != nil {
		log.Errorw("refusing to start", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, kvStore, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Errorw("storage unavailable", "error", err)
		os.Exit(1)
	}
	defer closeStore()
	log.Infow("storage ready", "backend", store.Backend)

	if cfg.SeedDemo {
		if err := config.SeedDemo(ctx, store, log); err != nil {
			log.Warnw("seed demo data", "error", err)
		}
	}

	streamClient, err := chat.NewStreamClient(chat.StreamConfig{
		APIKey:    cfg.StreamAPIKey,
		APISecret: cfg.StreamAPISecret,
		BaseURL:   cfg.StreamBaseURL,
	}, log)
	if err != nil {
		log.Errorw("chat provider", "error", err)
		os.Exit(1)
	}

	llmClient, err := llm.New(llm.Config{
		APIKey: cfg.ZhipuAPIKey,
		URL:    cfg.LLMAPIURL,
		Model:  cfg.LLMModel,
	}, log)
	if err != nil {
		log.Errorw("llm client", "error", err)
		os.Exit(1)
	}

	aiUser := chat.User{ID: cfg.AIUserID, Name: cfg.AIUserName, Role: "admin"}
	go initAIUser(ctx, streamClient, aiUser, log)

	responder := autoreply.NewResponder(
		streamClient,
		store,
		ai.NewOrchestrator(llmClient, log),
		autoreply.NewCooldown(kvStore, autoreply.DefaultCooldown),
		aiUser,
		log,
	)

	hub := ws.NewHub(store, responder, log)
	go hub.Run()

	go cleanupInvites(ctx, store.Invites, cfg.InviteCleanupInterval, cfg.InviteMaxAge, log)

	app := fiber.New(fiber.Config{
		AppName:      "GePanda Group Chat API",
		ServerHeader: "GePanda API/0.1",
		ErrorHandler: handlers.ErrorHandler(log),
	})

	middleware.SetupMiddleware(app, middleware.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowMethods: cfg.CORSAllowMethods,
		AllowHeaders: cfg.CORSAllowHeaders,
		AccessLog:    true,
	})

	handlers.SetupRoutes(app, handlers.Routes{
		System:        handlers.NewSystemHandler(store.Backend),
		Rooms:         handlers.NewRoomHandler(store, cfg.WebURL, log),
		Message:       handlers.NewMessageHandler(store.Messages, hub),
		Stream:        handlers.NewStreamHandler(streamClient, log),
		Webhook:       handlers.NewWebhookHandler(responder, log),
		AI:            handlers.NewAIHandler(responder, log),
		Chat:          handlers.NewChatHandler(hub),
		StreamSecret:  cfg.StreamAPISecret,
		VerifyWebhook: cfg.StreamWebhookVerify,
	})
	middleware.SetupNotFound(app)

	go func() {
		<-ctx.Done()
		log.Info("shutting down gracefully")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Warnw("shutdown", "error", err)
		}
	}()

	log.Infow("server starting", "host", cfg.HOST, "port", cfg.AppPort, "env", cfg.AppEnv)
	if err := app.Listen(cfg.HOST + ":" + cfg.AppPort); err != nil {
		log.Errorw("failed to start server", "error", err)
	}
}

// openStore picks the single persistence backing for the process: the
// database when DATABASE_URL is set, otherwise the key-value store (Redis
// when REDIS_URL is set, in-process memory otherwise). The key-value store
// is returned separately because the AI cooldown always lives there.
func openStore(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*repository.Store, kv.Store, func(), error) {
	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var kvStore kv.Store = kv.NewMemory()
	if cfg.RedisURL != "" {
		client, err := kv.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, closeAll, err
		}
		closers = append(closers, func() { _ = client.Close() })
		kvStore = kv.NewRedis(client, "gepanda:")
	}

	if cfg.DatabaseURL == "" {
		return repository.NewEphemeralStore(kvStore), kvStore, closeAll, nil
	}

	db, err := config.OpenDatabase(cfg.DatabaseURL, log)
	if err != nil {
		closeAll()
		return nil, nil, func() {}, err
	}
	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, func() { _ = sqlDB.Close() })
	}
	if err := config.Migrate(db, log); err != nil {
		closeAll()
		return nil, nil, func() {}, err
	}
	return repository.NewGormStore(db), kvStore, closeAll, nil
}

func initAIUser(ctx context.Context, provider chat.Provider, user chat.User, log *zap.SugaredLogger) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := provider.UpsertUser(ctx, user); err != nil {
		log.Errorw("initialize ai companion user", "user", user.ID, "error", err)
		return
	}
	log.Infow("ai companion user initialized", "user", user.ID)
}

func cleanupInvites(ctx context.Context, invites repository.InviteRepository, every, maxAge time.Duration, log *zap.SugaredLogger) {
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := invites.Cleanup(ctx, maxAge)
			if err != nil {
				log.Warnw("invite cleanup", "error", err)
				continue
			}
			if removed > 0 {
				log.Infow("invite cleanup", "removed", removed)
			}
		}
	}
}
