package main

import (
	"os"
	"runtime"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/config"
	"github.com/andresuchdata/bidco-kpi/backend-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func logFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			EnvVars: []string{"LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log output format (console or json)",
			Value:   "console",
			EnvVars: []string{"LOG_FORMAT"},
		},
	}
}

func pricingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "target-supplier",
			Usage:   "Supplier name fragment identifying the target supplier",
			EnvVars: []string{"PRICING_TARGET_SUPPLIER"},
		},
		&cli.Float64Flag{
			Name:    "discount-threshold",
			Usage:   "Minimum discount fraction for a promo day",
			EnvVars: []string{"PRICING_DISCOUNT_THRESHOLD"},
		},
		&cli.IntFlag{
			Name:    "min-days",
			Usage:   "Minimum promo days in a week to flag a promotion",
			EnvVars: []string{"PRICING_PROMO_MIN_DAYS"},
		},
		&cli.BoolFlag{
			Name:    "pool-stores",
			Usage:   "Detect promotions per item across stores instead of per store",
			EnvVars: []string{"PRICING_PROMO_POOL_STORES"},
		},
	}
}

// sourceFlags select a single dataset; they override the DATASET_* settings.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "source", Usage: "Dataset source: file, s3, drive or postgres"},
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Local CSV or XLSX sales extract"},
		&cli.StringFlag{Name: "object-key", Usage: "Object key of the sales extract (s3 source)"},
		&cli.StringFlag{Name: "drive-file-id", Usage: "Google Drive file id of the sales extract (drive source)"},
		&cli.StringFlag{Name: "dataset", Usage: "Dataset name in the sales table (postgres source)"},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func main() {
	app := &cli.App{
		Name:  "bidco",
		Usage: "Pricing and promotion KPIs for the target supplier",
		Before: func(c *cli.Context) error {
			logger.Configure(c.String("log-level"), c.String("log-format"))
			return nil
		},
		Flags: logFlags(),
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Build CSV/XLSX KPI reports for every sales extract and a batch summary",
				Flags: withFlags(pricingFlags(), []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "input",
						Aliases: []string{"i"},
						Usage:   "Sales extract file or directory (repeatable)",
					},
					&cli.StringFlag{
						Name:    "drive-folder-id",
						Usage:   "Google Drive folder holding sales extracts",
						EnvVars: []string{"GOOGLE_DRIVE_FOLDER_ID"},
					},
					&cli.StringFlag{
						Name:  "s3-prefix",
						Usage: "Object storage prefix holding sales extracts",
					},
					&cli.StringFlag{
						Name:    "download-dir",
						Usage:   "Local directory for extracts pulled from Drive or object storage",
						Value:   "./data/uploads/raw",
						EnvVars: []string{"DOWNLOAD_DIR"},
					},
					&cli.StringFlag{
						Name:    "output-dir",
						Usage:   "Directory for report files",
						EnvVars: []string{"APP_DATA_DIR"},
					},
					&cli.BoolFlag{
						Name:    "workbook",
						Usage:   "Also write an XLSX workbook per dataset",
						Value:   true,
						EnvVars: []string{"APP_WRITE_WORKBOOK"},
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Upload reports to object storage when S3 settings are present",
					},
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "Number of extracts processed concurrently",
						Value:   runtime.NumCPU(),
						EnvVars: []string{"PIPELINE_WORKERS"},
					},
				}),
				Action: runAnalyze,
			},
			{
				Name:   "kpis",
				Usage:  "Print the dashboard KPI payload of one dataset as JSON",
				Flags:  withFlags(pricingFlags(), sourceFlags()),
				Action: runKPIs,
			},
			{
				Name:  "health",
				Usage: "Print the data health report of one dataset",
				Flags: withFlags(pricingFlags(), sourceFlags(), []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print the full report as JSON"},
				}),
				Action: runHealth,
			},
			{
				Name:  "import",
				Usage: "Replace a dataset in the Postgres sales table with a local extract",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Local CSV or XLSX sales extract",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "dataset",
						Usage: "Dataset name to store the rows under (defaults to the file name)",
					},
				},
				Action: runImport,
			},
			{
				Name:   "datasets",
				Usage:  "List the datasets stored in the Postgres sales table",
				Action: runListDatasets,
			},
			{
				Name:  "cache",
				Usage: "Manage the Redis report cache",
				Subcommands: []*cli.Command{
					{
						Name:   "clear",
						Usage:  "Drop every cached pricing report",
						Action: runCacheClear,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("bidco failed")
	}
}

// loadConfig reads the environment configuration and applies command flags on top.
func loadConfig(c *cli.Context) *config.Config {
	cfg := *config.Load()

	if c.IsSet("target-supplier") {
		cfg.Pricing.TargetSupplier = c.String("target-supplier")
	}
	if c.IsSet("discount-threshold") {
		cfg.Pricing.DiscountThreshold = c.Float64("discount-threshold")
	}
	if c.IsSet("min-days") {
		cfg.Pricing.PromoMinDays = c.Int("min-days")
	}
	if c.IsSet("pool-stores") {
		cfg.Pricing.PromoPoolStores = c.Bool("pool-stores")
	}

	if c.IsSet("source") {
		cfg.Dataset.Source = c.String("source")
	}
	if c.IsSet("file") {
		cfg.Dataset.Path = c.String("file")
		if !c.IsSet("source") {
			cfg.Dataset.Source = "file"
		}
	}
	if c.IsSet("object-key") {
		cfg.Dataset.ObjectKey = c.String("object-key")
	}
	if c.IsSet("drive-file-id") {
		cfg.Dataset.DriveFileID = c.String("drive-file-id")
	}
	if c.IsSet("dataset") {
		cfg.Dataset.Name = c.String("dataset")
	}
	return &cfg
}
