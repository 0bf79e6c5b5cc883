package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/report"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Worker processes files for a specific pipeline
type Worker struct {
	pipeline   Pipeline
	config     PipelineConfig
	uploader   Uploader
	aggregator *SummaryAggregator
	mu         sync.Mutex
}

// NewWorker creates a new pipeline worker. uploader may be nil.
func NewWorker(pipeline Pipeline, config PipelineConfig, uploader Uploader) *Worker {
	return &Worker{
		pipeline: pipeline,
		config:   config,
		uploader: uploader,
	}
}

// ProcessBatch processes a batch of files for a specific date. A file that
// fails is recorded on its job and does not stop the others.
func (w *Worker) ProcessBatch(ctx context.Context, date time.Time, files []string) (*PipelineRun, error) {
	log.Info().
		Str("pipeline", w.pipeline.Name()).
		Str("date", date.Format("2006-01-02")).
		Int("files", len(files)).
		Msg("starting batch processing")

	run := &PipelineRun{
		PipelineName: w.pipeline.Name(),
		Date:         date,
		Status:       StatusProcessing,
		TotalFiles:   len(files),
		StartedAt:    time.Now(),
	}

	w.aggregator = NewSummaryAggregator(w.pipeline, w.config, date, func(ctx context.Context, csvPath string) error {
		return w.upload(ctx, date, "", csvPath)
	})

	run.Jobs = make([]*FileJob, len(files))
	for i, file := range files {
		run.Jobs[i] = &FileJob{FilePath: file, Status: FileStatusQueued}
	}

	if err := w.processFilesParallel(ctx, run.Jobs, date); err != nil {
		w.complete(run, StatusFailed)
		return run, err
	}

	for _, job := range run.Jobs {
		if job.Status == FileStatusCompleted {
			run.ProcessedFiles++
		} else {
			run.FailedFiles++
		}
	}

	summaryPath, err := w.aggregator.Finalize(ctx)
	run.SummaryPath = summaryPath
	if err != nil {
		w.complete(run, StatusFailed)
		return run, fmt.Errorf("failed to finalize summary: %w", err)
	}

	switch {
	case run.FailedFiles == 0:
		w.complete(run, StatusCompleted)
	case run.ProcessedFiles == 0:
		w.complete(run, StatusFailed)
	default:
		w.complete(run, StatusPartial)
	}

	log.Info().
		Str("pipeline", w.pipeline.Name()).
		Int("processed", run.ProcessedFiles).
		Int("failed", run.FailedFiles).
		Str("status", string(run.Status)).
		Msg("batch processing completed")

	return run, nil
}

func (w *Worker) complete(run *PipelineRun, status PipelineStatus) {
	now := time.Now()
	run.Status = status
	run.CompletedAt = &now
}

// processFilesParallel processes files with at most WorkerCount in flight
func (w *Worker) processFilesParallel(ctx context.Context, jobs []*FileJob, date time.Time) error {
	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	var g errgroup.Group
	g.SetLimit(workerCount)
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.Go(func() error {
			if err := w.processFile(ctx, job, date); err != nil {
				log.Error().Err(err).
					Str("pipeline", w.pipeline.Name()).
					Str("file", job.FilePath).
					Msg("failed to process file")
			}
			return nil
		})
	}
	_ = g.Wait()
	return ctx.Err()
}

// processFile processes a single file
func (w *Worker) processFile(ctx context.Context, job *FileJob, date time.Time) error {
	startTime := time.Now()
	w.setStatus(job, FileStatusProcessing)

	log.Debug().Str("pipeline", w.pipeline.Name()).Str("file", job.FilePath).Msg("processing file")

	if err := w.pipeline.Validate(job.FilePath); err != nil {
		return w.markJobFailed(job, fmt.Errorf("validation failed: %w", err))
	}

	out, err := w.pipeline.Transform(ctx, job.FilePath)
	if err != nil {
		return w.markJobFailed(job, fmt.Errorf("transformation failed: %w", err))
	}

	dataset := out.Dataset
	if dataset == "" {
		dataset = datasetName(job.FilePath)
	}
	dir := filepath.Join(w.config.OutputDir, dataset)
	outputs, err := report.WriteAll(dir, dataset, out.Tables, w.config.WriteWorkbook)
	if err != nil {
		return w.markJobFailed(job, fmt.Errorf("failed to write reports: %w", err))
	}

	for _, p := range outputs {
		if err := w.upload(ctx, date, dataset, p); err != nil {
			return w.markJobFailed(job, err)
		}
	}

	w.aggregator.Add(out.Summary)

	now := time.Now()
	w.mu.Lock()
	job.Dataset = dataset
	job.Outputs = outputs
	job.Status = FileStatusCompleted
	job.ProcessedAt = &now
	job.Duration = now.Sub(startTime)
	w.mu.Unlock()

	log.Info().
		Str("pipeline", w.pipeline.Name()).
		Str("file", job.FilePath).
		Int("outputs", len(outputs)).
		Dur("duration", job.Duration).
		Msg("file completed")

	return nil
}

// upload sends a written file to the uploader under prefix/date[/dataset]/name.
func (w *Worker) upload(ctx context.Context, date time.Time, dataset, localPath string) error {
	if w.uploader == nil {
		return nil
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("failed to read %s for upload: %w", localPath, err)
	}
	key := path.Join(w.config.UploadPrefix, date.Format("2006-01-02"), dataset, filepath.Base(localPath))
	if err := w.uploader.UploadObject(ctx, key, data); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	log.Debug().Str("key", key).Int("bytes", len(data)).Msg("report uploaded")
	return nil
}

func (w *Worker) setStatus(job *FileJob, status FileJobStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	job.Status = status
}

// markJobFailed records the failure on the job and returns err
func (w *Worker) markJobFailed(job *FileJob, err error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	job.Status = FileStatusFailed
	job.ErrorMessage = err.Error()
	return err
}

func datasetName(file string) string {
	base := filepath.Base(file)
	return base[:len(base)-len(filepath.Ext(base))]
}
