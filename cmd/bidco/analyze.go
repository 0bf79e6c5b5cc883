package main

import (
	"fmt"
	"path/filepath"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/config"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/drive"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/pipeline"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/pipeline/pricing"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func runAnalyze(c *cli.Context) error {
	ctx := c.Context
	cfg := loadConfig(c)

	files, err := collectLocalFiles(c.StringSlice("input"))
	if err != nil {
		return err
	}

	downloadDir := c.String("download-dir")

	if folderID := c.String("drive-folder-id"); folderID != "" {
		if cfg.Drive.CredentialsJSON == "" {
			return fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON env is required to read Drive folders")
		}
		driveSvc, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
		if err != nil {
			return fmt.Errorf("failed to create Drive service: %w", err)
		}
		log.Info().Str("folder_id", folderID).Str("dir", downloadDir).Msg("Downloading sales extracts from Drive")
		driveFiles, err := drive.NewDownloader(driveSvc).DownloadFolder(ctx, drive.DownloadOptions{
			FolderID:    folderID,
			DownloadDir: filepath.Join(downloadDir, "drive"),
		})
		if err != nil {
			return fmt.Errorf("failed to download files from Drive: %w", err)
		}
		files = append(files, driveFiles...)
	}

	var objectStore *storage.S3Client
	if c.IsSet("s3-prefix") || c.Bool("upload") {
		objectStore, err = newObjectStore(cfg.Storage)
		if err != nil {
			return err
		}
	}
	if c.IsSet("s3-prefix") {
		objectFiles, err := downloadObjects(ctx, objectStore, c.String("s3-prefix"), filepath.Join(downloadDir, "s3"))
		if err != nil {
			return err
		}
		files = append(files, objectFiles...)
	}

	if len(files) == 0 {
		log.Warn().Msg("No sales extracts found; nothing to process")
		return nil
	}

	pricingPipeline := pricing.NewPricingPipeline(pricing.ConfigFrom(cfg.Pricing))

	pCfg := pipeline.DefaultPipelineConfig(pricingPipeline.Name())
	if dir := c.String("output-dir"); dir != "" {
		pCfg.OutputDir = filepath.Join(dir, pricingPipeline.Name())
	}
	if cfg.Storage.ReportPrefix != "" {
		pCfg.UploadPrefix = cfg.Storage.ReportPrefix + "/" + pricingPipeline.Name()
	}
	pCfg.WriteWorkbook = c.Bool("workbook")
	pCfg.WorkerCount = c.Int("workers")

	var uploader pipeline.Uploader
	if c.Bool("upload") {
		uploader = objectStore
	}

	runs, err := pipeline.NewOrchestrator(pCfg, uploader).Run(ctx, pricingPipeline, files)
	for _, run := range runs {
		log.Info().
			Time("date", run.Date).
			Str("status", string(run.Status)).
			Int("processed", run.ProcessedFiles).
			Int("failed", run.FailedFiles).
			Str("summary", run.SummaryPath).
			Msg("Pricing batch finished")
	}
	if err != nil {
		return fmt.Errorf("pricing pipeline run failed: %w", err)
	}
	return nil
}

func newObjectStore(cfg config.StorageConfig) (*storage.S3Client, error) {
	if !cfg.StorageEnabled() {
		return nil, fmt.Errorf("S3_ENDPOINT, S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required for object storage")
	}
	client, err := storage.NewS3Client(storage.S3ConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	return client, nil
}
