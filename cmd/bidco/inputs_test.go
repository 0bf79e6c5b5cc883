package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestCollectLocalFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "week1.csv"))
	touch(t, filepath.Join(dir, "nested", "week2.xlsx"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "~$week2.xlsx"))
	single := filepath.Join(t.TempDir(), "extra.csv")
	touch(t, single)

	files, err := collectLocalFiles([]string{dir, single, single, " "})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "nested", "week2.xlsx"),
		filepath.Join(dir, "week1.csv"),
		single,
	}, files)

	_, err = collectLocalFiles([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

type fakeObjects struct {
	keys       []string
	downloaded []string
}

func (f *fakeObjects) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	out := make([]storage.ObjectInfo, 0, len(f.keys))
	for _, k := range f.keys {
		out = append(out, storage.ObjectInfo{Key: k})
	}
	return out, nil
}

func (f *fakeObjects) DownloadObject(ctx context.Context, key, destPath string) error {
	f.downloaded = append(f.downloaded, key)
	return nil
}

func (f *fakeObjects) UploadObject(ctx context.Context, key string, data []byte) error {
	return nil
}

func TestDownloadObjects(t *testing.T) {
	objects := &fakeObjects{keys: []string{"sales/2025/week1.csv", "sales/readme.md", "sales/week2.xlsx"}}

	paths, err := downloadObjects(context.Background(), objects, "sales/", "/tmp/dl")
	require.NoError(t, err)
	assert.Equal(t, []string{"sales/2025/week1.csv", "sales/week2.xlsx"}, objects.downloaded)
	assert.Equal(t, []string{filepath.Join("/tmp/dl", "2025", "week1.csv"), filepath.Join("/tmp/dl", "week2.xlsx")}, paths)

	_, err = downloadObjects(context.Background(), &fakeObjects{keys: []string{"a.txt"}}, "", "/tmp/dl")
	assert.Error(t, err)
}

func TestObjectRelativePath(t *testing.T) {
	assert.Equal(t, "a/b.csv", objectRelativePath("", "a/b.csv"))
	assert.Equal(t, "b.csv", objectRelativePath("a/", "a/b.csv"))
	assert.Equal(t, "b.csv", objectRelativePath("x", "a/b.csv"))
}

func TestWriteHealth(t *testing.T) {
	var buf bytes.Buffer
	err := writeHealth(&buf, domain.HealthReport{
		OverallScore: 93.8,
		Rating:       "Excellent",
		Stores:       []domain.GroupHealth{{Group: "A", HealthScore: 95, TotalRows: 4}},
		Issues:       []domain.HealthIssue{{Issue: "Missing Values", Subject: "(all)", Count: 1, Detail: "RRP → 1 rows"}},
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "93.8/100 (Excellent)")
	assert.Contains(t, buf.String(), "RRP → 1 rows")
}
