package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"list-manager/internal/auth"
	"list-manager/internal/bootstrap"
	"list-manager/internal/config"
	apphttp "list-manager/internal/http"
	"list-manager/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	logger := bootstrap.NewLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(cfg, logger)
	if err != nil {
		logger.Fatalf("setup database: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logger.Warnf("close database: %v", err)
		}
	}()

	// Warm the connection so a bad connection string shows up at boot.
	if err := store.Health(ctx); err != nil {
		logger.WithError(err).Warn("database not reachable yet; will retry on first request")
	}

	inv, closeInv := bootstrap.NewInvalidator(ctx, cfg, logger)
	defer closeInv()

	snapshots, err := bootstrap.NewSnapshotStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup export storage: %v", err)
	}

	listService := service.NewListService(store.Lists, inv, logger)
	itemService := service.NewItemService(store.Lists, store.Items, inv, logger)
	userService := service.NewUserService(store.Users)
	exportService := service.NewExportService(store.Lists, store.Items, snapshots, logger)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(apphttp.Options{
		Lists:       listService,
		Items:       itemService,
		Users:       userService,
		Exports:     exportService,
		Tokens:      auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.TokenTTL()),
		Health:      store.Health,
		Logger:      logger,
		CORSOrigins: cfg.CORS.Origins,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (%s backend)", cfg.Server.Addr, cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

