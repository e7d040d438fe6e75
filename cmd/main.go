package main

import (
	"chachat/backend/internal/api/handler"
	"chachat/backend/internal/chathub"
	"chachat/backend/internal/config"
	"chachat/backend/internal/gateway"
	"chachat/backend/internal/localization"
	"chachat/backend/internal/logging"
	"chachat/backend/internal/report"
	"chachat/backend/internal/session"
	"chachat/backend/internal/storage"
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func setupDependencies(cfg config.Config, logger *slog.Logger) (*gorm.DB, *redis.Client) {
	// 1. База даних аудиту
	db, err := storage.OpenDatabase(cfg.Driver, cfg.DSN)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// 2. Redis (необов'язковий)
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, audit events are not published")
		return db, nil
	}
	rdb, err := storage.OpenRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	logger.Info("database and redis connections established", "driver", cfg.Driver, "redis", cfg.RedisAddr)
	return db, rdb
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("starting chachat backend", "addr", cfg.Addr())

	// 1. Ініціалізація залежностей
	db, rdb := setupDependencies(cfg, logger)
	store := storage.NewStorageService(db, rdb, logger)

	auditCtx, stopAudit := context.WithCancel(context.Background())
	auditor := storage.NewAuditor(store, cfg.AuditBuffer, logger)
	go auditor.Run(auditCtx)

	// 2. Chat core
	hub := chathub.NewManagerService(logger)
	messages := chathub.NewMessageStore(chathub.WithMaxPerSender(config.MaxMessagesPerSender))
	rooms := chathub.NewRoomManager(hub, messages,
		chathub.WithRoomTiming(config.RoomDuration, config.TickInterval),
		chathub.WithRecorder(auditor),
		chathub.WithLogger(logger),
	)
	matcher := chathub.NewMatcherService(chathub.NewQueue(), rooms, logger)

	localizer, err := localization.New()
	if err != nil {
		log.Fatalf("Failed to load locales: %v", err)
	}

	gw := gateway.New(gateway.Deps{
		Sessions:  session.NewRegistry(),
		Tokens:    session.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		Matcher:   matcher,
		Rooms:     rooms,
		Messages:  messages,
		Transport: hub,
		Reports:   report.NewService(store, rooms, logger),
		Localizer: localizer,
		Logger:    logger,
	})

	// 3. HTTP
	gin.SetMode(gin.ReleaseMode)
	h := handler.NewHandler(gw, handler.Counters{
		Waiting:     matcher.Waiting,
		ActiveRooms: rooms.ActiveCount,
		Connections: hub.ConnectionCount,
	}, cfg.AllowedOrigins, logger)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler.NewRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
			"chat-core": func(ctx context.Context) error {
				rooms.Shutdown()
				hub.CloseAll()

				stopAudit()
				select {
				case <-auditor.Done():
				case <-ctx.Done():
					return ctx.Err()
				}
				if rdb != nil {
					return rdb.Close()
				}
				return nil
			},
		},
	)

	exitCode := <-wait
	logger.Info("shutdown complete", "exit_code", exitCode)
	os.Exit(exitCode)
}
