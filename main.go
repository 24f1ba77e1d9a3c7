package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"prism-todo/api"
	"prism-todo/config"
	"prism-todo/storage"
	"prism-todo/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	backend, closeBackend, err := newBackend(cfg, logger)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer closeBackend()

	mgr := tasks.New(storage.NewStore(backend, logger), logger, tasks.WithWriterConfig(tasks.WriterConfig{
		Buffer:       cfg.WriteBuffer,
		WriteTimeout: cfg.WriteTimeout,
	}))
	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	mgr.Load(loadCtx)
	cancel()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderContentEncoding},
	}))
	api.Register(e, mgr, logger)

	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()
	logger.WithFields(log.Fields{"addr": cfg.ListenAddr, "backend": cfg.Backend}).Info("todo service started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.WithError(err).Warn("http shutdown")
	}
	if err := mgr.Close(ctx); err != nil {
		logger.WithError(err).Error("snapshot writer did not drain")
	}
	logger.Info("todo service stopped")
}

// newBackend builds the document backend selected by cfg. The returned func
// releases any redis client it opened.
func newBackend(cfg config.Config, logger *log.Logger) (storage.Backend, func(), error) {
	switch cfg.Backend {
	case config.BackendRedis:
		rc, err := newRedisClient(cfg.RedisConnection)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewRedisBackend(rc, cfg.KeyPrefix), closeRedis(rc, logger), nil

	case config.BackendTables:
		tb, err := storage.NewTableBackend(cfg.StorageConnection, cfg.Table, cfg.Partition, nil)
		if err != nil {
			return nil, nil, err
		}
		if !cfg.CacheEnabled() {
			return tb, func() {}, nil
		}
		rc, err := newRedisClient(cfg.RedisConnection)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewCachedBackend(tb, rc, cfg.CacheTTL, logger), closeRedis(rc, logger), nil
	}
	return nil, nil, config.ErrUnknownBackend
}

func newRedisClient(conn string) (*redis.Client, error) {
	opts, err := config.RedisOptions(conn)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func closeRedis(rc *redis.Client, logger *log.Logger) func() {
	return func() {
		if err := rc.Close(); err != nil {
			logger.WithError(err).Warn("redis close")
		}
	}
}
