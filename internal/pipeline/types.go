package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/report"
)

// Pipeline defines the interface that all data pipelines must implement
type Pipeline interface {
	// Name returns the unique identifier for this pipeline
	Name() string

	// Transform processes a single input file and returns its report tables
	Transform(ctx context.Context, inputFile string) (*Output, error)

	// GetSnapshotDate extracts the date from the filename
	GetSnapshotDate(filename string) (time.Time, error)

	// Validate checks if the input file is valid for this pipeline
	Validate(inputFile string) error
}

// Output is the result of transforming one input file.
type Output struct {
	Dataset string
	Tables  []report.Table
	// Summary is one row of the cross-dataset summary written at the end of a batch.
	Summary TransformedRow
}

// TransformedRow represents a single row of transformed data
type TransformedRow struct {
	Data map[string]interface{}
}

// PipelineConfig holds configuration for a pipeline instance
type PipelineConfig struct {
	Name          string
	WorkerCount   int    // Number of files processed concurrently
	OutputDir     string // Directory for per-dataset reports and the batch summary
	WriteWorkbook bool   // Also write an XLSX workbook per dataset
	UploadPrefix  string // Object key prefix when an uploader is configured
}

// DefaultPipelineConfig returns sensible defaults
func DefaultPipelineConfig(name string) PipelineConfig {
	return PipelineConfig{
		Name:          name,
		WorkerCount:   4,
		OutputDir:     "data/output/" + name,
		WriteWorkbook: true,
		UploadPrefix:  "reports/" + name,
	}
}

// PipelineStatus represents the current state of a pipeline run
type PipelineStatus string

const (
	StatusPending    PipelineStatus = "pending"
	StatusProcessing PipelineStatus = "processing"
	StatusCompleted  PipelineStatus = "completed"
	StatusPartial    PipelineStatus = "partial"
	StatusFailed     PipelineStatus = "failed"
)

// FileJobStatus represents the state of a single file processing job
type FileJobStatus string

const (
	FileStatusQueued     FileJobStatus = "queued"
	FileStatusProcessing FileJobStatus = "processing"
	FileStatusCompleted  FileJobStatus = "completed"
	FileStatusFailed     FileJobStatus = "failed"
)

// PipelineRun tracks a single execution of a pipeline for a specific date
type PipelineRun struct {
	PipelineName   string
	Date           time.Time
	Status         PipelineStatus
	TotalFiles     int
	ProcessedFiles int
	FailedFiles    int
	StartedAt      time.Time
	CompletedAt    *time.Time
	SummaryPath    string
	Jobs           []*FileJob
}

// FileJob tracks the processing of a single file
type FileJob struct {
	FilePath     string
	Dataset      string
	Status       FileJobStatus
	ErrorMessage string
	ProcessedAt  *time.Time
	Outputs      []string
	Duration     time.Duration
}

// Uploader receives finished report files. storage.ObjectStorage satisfies it.
type Uploader interface {
	UploadObject(ctx context.Context, key string, data []byte) error
}
