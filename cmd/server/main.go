package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/api"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/cache"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/config"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/dataset"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/drive"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/pipeline/pricing"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/service"
	"github.com/andresuchdata/bidco-kpi/backend-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	logger.Configure(cfg.Server.Mode, cfg.Server.LogFormat)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	var driveSvc drive.FileService
	if cfg.Drive.CredentialsJSON != "" {
		svc, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize Google Drive service")
		}
		driveSvc = svc
	}

	source, closeSource, err := dataset.FromConfig(ctx, cfg, dataset.Deps{Drive: driveSvc})
	if err != nil {
		logger.Log.Fatal().Err(err).Str("source", cfg.Dataset.Source).Msg("Failed to configure dataset source")
	}
	defer closeSource()

	reportCache, err := cache.NewReportCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Report cache unavailable, continuing without it")
		reportCache = cache.NewNoopReportCache()
	}

	pricingService := service.NewPricingService(pricing.NewAnalyzer(pricing.ConfigFrom(cfg.Pricing)), source, reportCache)

	// The dashboard only serves a computed snapshot.
	if _, err := pricingService.Refresh(ctx); err != nil {
		logger.Log.Fatal().Err(err).Str("source", source.Describe()).Msg("Failed to build initial pricing report")
	}

	services := &api.Services{Pricing: pricingService, UploadDir: cfg.App.UploadDir}
	if driveSvc != nil {
		downloader := drive.NewDownloader(driveSvc)
		analyze := func(ctx context.Context, fileID string) error {
			_, err := pricingService.RefreshFrom(ctx, dataset.DriveSource{
				Downloader: downloader,
				FileID:     fileID,
				WorkDir:    cfg.App.UploadDir,
			})
			return err
		}
		services.Drive = drive.NewHandler(driveSvc, analyze).Router()
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
