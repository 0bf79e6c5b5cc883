package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/config"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/loader"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/repository"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/repository/postgres"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func openSalesRepository(c *cli.Context, cfg *config.Config) (repository.SalesRepository, func(), error) {
	db, err := postgres.NewDB(c.Context, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	repo, err := postgres.NewSalesRepository(db, cfg.Database.SalesTable)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repo, func() { _ = db.Close() }, nil
}

func runImport(c *cli.Context) error {
	cfg := config.Load()
	path := c.String("file")

	records, err := loader.LoadFile(path)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(c.String("dataset"))
	if name == "" {
		base := filepath.Base(path)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	repo, closeDB, err := openSalesRepository(c, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := repo.ReplaceDataset(c.Context, name, records)
	if err != nil {
		return fmt.Errorf("failed to import %s: %w", path, err)
	}
	log.Info().Str("dataset", name).Int("rows", n).Str("table", cfg.Database.SalesTable).Msg("Imported sales extract")
	return nil
}

func runListDatasets(c *cli.Context) error {
	repo, closeDB, err := openSalesRepository(c, config.Load())
	if err != nil {
		return err
	}
	defer closeDB()

	names, err := repo.ListDatasets(c.Context)
	if err != nil {
		return err
	}
	for _, n := range names {
		fmt.Fprintln(c.App.Writer, n)
	}
	return nil
}
