package drive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDrive struct {
	files    []*File
	contents map[string]string
	folders  map[string]string
}

func (f *fakeDrive) ListFiles(_ context.Context, folderID string) ([]*File, error) {
	if folderID == "missing" {
		return nil, errors.New("boom")
	}
	return f.files, nil
}

func (f *fakeDrive) GetFile(_ context.Context, fileID string) (*File, error) {
	for _, file := range f.files {
		if file.ID == fileID {
			return file, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeDrive) DownloadFile(_ context.Context, fileID string, w io.Writer) error {
	body, ok := f.contents[fileID]
	if !ok {
		return errors.New("no content")
	}
	_, err := io.WriteString(w, body)
	return err
}

func (f *fakeDrive) FindFolderByPath(_ context.Context, path string) (string, error) {
	if id, ok := f.folders[path]; ok {
		return id, nil
	}
	return "", errors.New("folder not found: " + path)
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		files: []*File{
			{ID: "1", Name: "sales_20250107.csv", MimeType: "text/csv"},
			{ID: "2", Name: "Test_Data.xlsx", MimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
			{ID: "3", Name: "notes.docx"},
		},
		contents: map[string]string{"1": "a,b\n1,2\n", "2": "xlsx-bytes"},
		folders:  map[string]string{"exports/bidco": "folder-1"},
	}
}

func TestDownloadFolder(t *testing.T) {
	dir := t.TempDir()
	paths, err := NewDownloader(newFakeDrive()).DownloadFolder(context.Background(), DownloadOptions{FolderID: "f", DownloadDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "sales_20250107.csv"), filepath.Join(dir, "Test_Data.xlsx")}, paths)

	body, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(body))
}

func TestDownloadFolderRequiresDir(t *testing.T) {
	_, err := NewDownloader(newFakeDrive()).DownloadFolder(context.Background(), DownloadOptions{})
	assert.Error(t, err)
}

func TestDownloadFile(t *testing.T) {
	d := NewDownloader(newFakeDrive())
	dir := t.TempDir()

	path, err := d.DownloadFile(context.Background(), "2", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Test_Data.xlsx"), path)

	_, err = d.DownloadFile(context.Background(), "3", dir)
	assert.Error(t, err)
}

func TestIsSalesExtract(t *testing.T) {
	assert.True(t, IsSalesExtract("a.CSV"))
	assert.True(t, IsSalesExtract("a.xlsm"))
	assert.False(t, IsSalesExtract("a.pdf"))
}

func TestHandlerListFiles(t *testing.T) {
	router := NewHandler(newFakeDrive(), nil).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/files?path=exports/bidco", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var files []File
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
	assert.Len(t, files, 3)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/files?path=nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/files?folderId=missing", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandlerDownloadFile(t *testing.T) {
	router := NewHandler(newFakeDrive(), nil).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/files/download?fileId=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales_20250107.csv")
	assert.Equal(t, "a,b\n1,2\n", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/files/download", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerAnalyzeFile(t *testing.T) {
	var got string
	router := NewHandler(newFakeDrive(), func(_ context.Context, fileID string) error {
		got = fileID
		if fileID == "bad" {
			return errors.New("missing columns")
		}
		return nil
	}).Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drive/analyze?fileId=2", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", got)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/drive/analyze?fileId=bad", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing columns")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/drive/analyze?fileId=2", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
