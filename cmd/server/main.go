package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Thiagobarros01/hotel-reservation/config"
	"github.com/Thiagobarros01/hotel-reservation/internal/app"
	"github.com/Thiagobarros01/hotel-reservation/internal/cache"
	"github.com/Thiagobarros01/hotel-reservation/internal/handler"
	"github.com/Thiagobarros01/hotel-reservation/internal/logger"
	"github.com/Thiagobarros01/hotel-reservation/internal/mq"
	"github.com/Thiagobarros01/hotel-reservation/internal/repository"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log = log.With(zap.String("service", cfg.Service))

	var db *gorm.DB
	if cfg.Runs(app.RoleHotel) || cfg.Runs(app.RoleReservation) || cfg.Runs(app.RolePayment) {
		var err error
		db, err = repository.Open(cfg.DatabaseDSN, log)
		if err != nil {
			return err
		}
	}

	var redisCache *cache.RedisCache
	if cfg.Runs(app.RoleHotel) || cfg.Runs(app.RoleNotification) {
		var err error
		redisCache, err = cache.NewRedisCache(cfg.CacheURL)
		if err != nil {
			return err
		}
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("redis not reachable yet", zap.String("addr", cfg.CacheURL), zap.Error(err))
		}
	}

	mqClient := mq.NewClient(cfg.MQURL, cfg.MQReconnectDelay, log)

	a, err := app.New(cfg, db, redisCache, mqClient, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if db != nil {
		if err := repository.Migrate(db, a.Models()...); err != nil {
			return err
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.NewRouter(a, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	startErr := make(chan error, 1)
	go func() { startErr <- a.Start(ctx) }()

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	started := true
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		stop()
		<-startErr
		return err
	case err := <-startErr:
		if err != nil {
			stop()
			_ = srv.Close()
			return err
		}
		// nothing to consume for this role, keep serving http
		started = false
		<-ctx.Done()
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if !started {
		return nil
	}
	select {
	case err := <-startErr:
		return err
	case <-shutdownCtx.Done():
		return shutdownCtx.Err()
	}
}
