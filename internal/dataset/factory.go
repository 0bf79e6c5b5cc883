package dataset

import (
	"context"
	"fmt"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/config"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/drive"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/repository"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/storage"
)

// Deps carries already-built clients. Missing clients are created from
// configuration when the selected source needs them.
type Deps struct {
	Storage storage.ObjectStorage
	Drive   drive.FileService
	Sales   repository.SalesRepository
}

// FromConfig builds the source selected by DATASET_SOURCE. The returned
// closer releases any connection opened here.
func FromConfig(ctx context.Context, cfg *config.Config, deps Deps) (Source, func(), error) {
	noop := func() {}
	ds := cfg.Dataset
	kind := ds.Source
	if kind == "" {
		kind = KindFile
	}

	switch kind {
	case KindFile:
		return FileSource{Path: ds.Path}, noop, nil

	case KindS3:
		store := deps.Storage
		if store == nil {
			client, err := storage.NewS3Client(storage.S3ConfigFrom(cfg.Storage))
			if err != nil {
				return nil, nil, err
			}
			store = client
		}
		return ObjectSource{Storage: store, Key: ds.ObjectKey, WorkDir: cfg.App.UploadDir}, noop, nil

	case KindDrive:
		svc := deps.Drive
		if svc == nil {
			if cfg.Drive.CredentialsJSON == "" {
				return nil, nil, fmt.Errorf("GOOGLE_DRIVE_CREDENTIALS_JSON is required for the drive source")
			}
			client, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
			if err != nil {
				return nil, nil, err
			}
			svc = client
		}
		return DriveSource{Downloader: drive.NewDownloader(svc), FileID: ds.DriveFileID, WorkDir: cfg.App.UploadDir}, noop, nil

	case KindPostgres:
		if deps.Sales != nil {
			return PostgresSource{Repo: deps.Sales, Filter: repository.SalesFilter{Dataset: ds.Name}}, noop, nil
		}
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		repo, err := postgres.NewSalesRepository(db, cfg.Database.SalesTable)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return PostgresSource{Repo: repo, Filter: repository.SalesFilter{Dataset: ds.Name}}, func() { _ = db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownSource, kind)
	}
}
