// Package dataset loads the sales table the pricing pipeline runs on from a
// local file, an S3 object, a Google Drive file or the Postgres sales table.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/drive"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/loader"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/repository"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
)

// ErrUnknownSource is returned for an unrecognised source kind.
var ErrUnknownSource = errors.New("unknown dataset source")

// Source kinds accepted in configuration.
const (
	KindFile     = "file"
	KindS3       = "s3"
	KindDrive    = "drive"
	KindPostgres = "postgres"
)

// Dataset is one loaded sales table.
type Dataset struct {
	Name    string
	Records []domain.SaleRecord
}

// Source yields a sales table.
type Source interface {
	// Describe names the source for logs and errors.
	Describe() string
	Load(ctx context.Context) (*Dataset, error)
}

// FileSource reads a local CSV or XLSX extract.
type FileSource struct {
	Path string
}

func (s FileSource) Describe() string { return "file:" + s.Path }

func (s FileSource) Load(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := loader.LoadFile(s.Path)
	if err != nil {
		return nil, err
	}
	return &Dataset{Name: baseName(s.Path), Records: records}, nil
}

// ObjectSource downloads an extract from object storage into WorkDir and reads it.
type ObjectSource struct {
	Storage storage.ObjectStorage
	Key     string
	WorkDir string
}

func (s ObjectSource) Describe() string { return "s3:" + s.Key }

func (s ObjectSource) Load(ctx context.Context) (*Dataset, error) {
	if s.Key == "" {
		return nil, fmt.Errorf("object key is required")
	}
	if _, err := loader.FormatOf(s.Key); err != nil {
		return nil, err
	}

	dir, cleanup, err := workDir(s.WorkDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	local := filepath.Join(dir, path.Base(s.Key))
	if err := s.Storage.DownloadObject(ctx, s.Key, local); err != nil {
		return nil, err
	}
	records, err := loader.LoadFile(local)
	if err != nil {
		return nil, err
	}
	return &Dataset{Name: baseName(s.Key), Records: records}, nil
}

// DriveSource downloads one Google Drive file and reads it.
type DriveSource struct {
	Downloader *drive.Downloader
	FileID     string
	WorkDir    string
}

func (s DriveSource) Describe() string { return "drive:" + s.FileID }

func (s DriveSource) Load(ctx context.Context) (*Dataset, error) {
	if s.FileID == "" {
		return nil, fmt.Errorf("drive file id is required")
	}

	dir, cleanup, err := workDir(s.WorkDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	local, err := s.Downloader.DownloadFile(ctx, s.FileID, dir)
	if err != nil {
		return nil, err
	}
	records, err := loader.LoadFile(local)
	if err != nil {
		return nil, err
	}
	return &Dataset{Name: baseName(local), Records: records}, nil
}

// PostgresSource reads the sales table, optionally one stored dataset.
type PostgresSource struct {
	Repo   repository.SalesRepository
	Filter repository.SalesFilter
}

func (s PostgresSource) Describe() string {
	if s.Filter.Dataset == "" {
		return "postgres"
	}
	return "postgres:" + s.Filter.Dataset
}

func (s PostgresSource) Load(ctx context.Context) (*Dataset, error) {
	records, err := s.Repo.ListSales(ctx, s.Filter)
	if err != nil {
		return nil, err
	}
	name := s.Filter.Dataset
	if name == "" {
		name = "postgres"
	}
	return &Dataset{Name: name, Records: records}, nil
}

// Load reads src and logs the outcome.
func Load(ctx context.Context, src Source) (*Dataset, error) {
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Describe(), err)
	}
	log.Info().Str("source", src.Describe()).Str("dataset", ds.Name).Int("rows", len(ds.Records)).Msg("dataset loaded")
	return ds, nil
}

// workDir returns dir, or a fresh temporary directory removed by cleanup.
func workDir(dir string) (string, func(), error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", nil, fmt.Errorf("failed to create work dir: %w", err)
		}
		return dir, func() {}, nil
	}
	tmp, err := os.MkdirTemp("", "bidco-dataset-")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return tmp, func() { _ = os.RemoveAll(tmp) }, nil
}

func baseName(p string) string {
	base := path.Base(filepath.ToSlash(p))
	return strings.TrimSuffix(base, path.Ext(base))
}
