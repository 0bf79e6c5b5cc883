package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// DownloadOptions controls how files are pulled from Google Drive.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader pulls sales extracts out of Drive into a local directory.
type Downloader struct {
	service FileService
}

// NewDownloader creates a new Downloader.
func NewDownloader(s FileService) *Downloader {
	return &Downloader{service: s}
}

// IsSalesExtract reports whether a Drive file name looks like a readable sales table.
func IsSalesExtract(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx", ".xlsm":
		return true
	default:
		return false
	}
}

// DownloadFolder downloads every CSV and XLSX file of the folder into
// DownloadDir and returns the local paths. Other files are skipped.
func (d *Downloader) DownloadFolder(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}

	files, err := d.service.ListFiles(ctx, opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !IsSalesExtract(f.Name) {
			log.Debug().Str("file", f.Name).Str("mime", f.MimeType).Msg("skipping non-tabular drive file")
			continue
		}

		localPath, err := d.download(ctx, f, opts.DownloadDir)
		if err != nil {
			return nil, err
		}
		localPaths = append(localPaths, localPath)
	}

	log.Info().Str("folder", opts.FolderID).Int("files", len(localPaths)).Msg("drive folder downloaded")
	return localPaths, nil
}

// DownloadFile downloads a single file by ID into dir, keeping its Drive name.
func (d *Downloader) DownloadFile(ctx context.Context, fileID, dir string) (string, error) {
	f, err := d.service.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}
	if !IsSalesExtract(f.Name) {
		return "", fmt.Errorf("drive file %s (%s) is not a csv or xlsx file", f.Name, fileID)
	}
	return d.download(ctx, f, dir)
}

func (d *Downloader) download(ctx context.Context, f *File, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create download dir: %w", err)
	}

	localPath := filepath.Join(dir, filepath.Base(f.Name))
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	if err := d.service.DownloadFile(ctx, f.ID, out); err != nil {
		out.Close()
		_ = os.Remove(localPath)
		return "", fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", localPath, err)
	}
	return localPath, nil
}
