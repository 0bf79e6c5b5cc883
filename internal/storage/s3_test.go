package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEndpoint(t *testing.T) {
	tests := []struct {
		endpoint   string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"minio:9000", false, "minio:9000", false},
		{"//objects.example.com", true, "objects.example.com", true},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			host, secure := splitEndpoint(tt.endpoint, tt.useSSL)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestNewS3ClientValidation(t *testing.T) {
	_, err := NewS3Client(S3Config{})
	assert.Error(t, err)

	_, err = NewS3Client(S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.Error(t, err)

	c, err := NewS3Client(S3Config{Endpoint: "http://localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "sales"})
	require.NoError(t, err)
	assert.Equal(t, "sales", c.bucket)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", contentType("reports/kpis.csv"))
	assert.Equal(t, "application/octet-stream", contentType("blob"))
}
