package main

import (
	"context"
	"errors"
	"github.com/ZilDuck/opensea-trader/internal/config"
	"github.com/ZilDuck/opensea-trader/internal/config/di"
	"go.uber.org/zap"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const version = "0.0.1"

func main() {
	cfg := config.Init()

	container, err := di.NewContainer(cfg)
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}
	defer container.Delete()

	server, err := container.GetServer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build API server")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to stop API server")
		}
	}()

	zap.L().With(zap.String("port", cfg.Port), zap.Strings("networks", cfg.NetworkNames)).Info("API is ready. v " + version)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.L().With(zap.Error(err)).Fatal("Failed to start API server")
	}

	zap.L().Info("API stopped")
}
