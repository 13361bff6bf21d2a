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

	"go.uber.org/zap"

	"github.com/AcMongue/gestion-pfe-sub000/config"
	"github.com/AcMongue/gestion-pfe-sub000/internal/api/handler"
	"github.com/AcMongue/gestion-pfe-sub000/internal/api/router"
	"github.com/AcMongue/gestion-pfe-sub000/internal/event"
	"github.com/AcMongue/gestion-pfe-sub000/internal/repository"
	"github.com/AcMongue/gestion-pfe-sub000/internal/service"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/database"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/jwt"
	applogger "github.com/AcMongue/gestion-pfe-sub000/pkg/logger"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/mail"
	"github.com/AcMongue/gestion-pfe-sub000/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (default ./config/config.yaml or ./config.yaml)")
	flag.Parse()

	// 1. configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("timezone", cfg.Defense.Timezone),
	)

	// 3. database and migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB failed", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	// 4. Redis is optional: without it tokens cannot be revoked, login is
	// not rate limited and events stay in-process
	var blacklist service.TokenBlacklist
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running degraded", zap.Error(err))
		rdb = nil
	} else {
		blacklist = rdb
	}

	// 5. events and mail
	bus := event.NewBus(logger)
	if rdb != nil {
		bus.Subscribe("redis", event.NewRedisForwarder(rdb))
	}
	mailer := mail.NewSender(&cfg.Mail, logger)

	// 6. Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, bus, mailer, logger)
	h := handler.NewHandler(svc)

	engine, err := router.Setup(cfg, h, jwtMgr, rdb, logger)
	if err != nil {
		logger.Fatal("router setup failed", zap.Error(err))
	}

	// 7. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("close database failed", zap.Error(err))
	}

	if rdb != nil {
		rdb.Close()
	}

	logger.Info("stopped")
}
