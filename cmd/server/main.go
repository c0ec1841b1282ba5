package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vacation-approval/internal/handler"
	"vacation-approval/pkg/config"
	"vacation-approval/pkg/deputy"
	"vacation-approval/pkg/idgen"
	"vacation-approval/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (yaml/json/toml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Store.Seed {
		if err := deputy.Seed(ctx, store, time.Now()); err != nil {
			return err
		}
		log.Info("seeded deputy commitments")
	}

	ids, err := idgen.New(cfg.IDGen)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	h := handler.NewVacationHandler(deputy.NewService(store, log), cfg.Rules, ids,
		cfg.Server.ConflictTimeout, time.Now, log)
	router := handler.NewRouter(h, handler.AuthConfig{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer}, log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.Bool("auth", cfg.Auth.JWTSecret != ""),
			zap.String("store", cfg.Store.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore 按配置创建承诺日期存储，启用 Redis 时包一层缓存
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (deputy.CommitmentStore, func(), error) {
	var store deputy.CommitmentStore
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	switch cfg.Store.Driver {
	case "memory":
		store = deputy.NewMemoryStore()
	default:
		db, err := deputy.OpenDB(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, sqlDB.Close)

		gs, err := deputy.NewGormStore(db)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		store = gs
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, client.Close)

		cache := deputy.NewRedisCache(client, store, cfg.Redis.TTL, log)
		if err := cache.Ping(ctx); err != nil {
			log.Warn("redis unavailable, cache falls back to store", zap.Error(err))
		}
		store = cache
	}

	return store, cleanup, nil
}
