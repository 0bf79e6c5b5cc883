package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

// Orchestrator coordinates running a Pipeline over a set of local files grouped by snapshot date.
type Orchestrator struct {
	cfg      PipelineConfig
	uploader Uploader
	makeW    func(p Pipeline, cfg PipelineConfig, uploader Uploader) *Worker
}

// NewOrchestrator creates a new Orchestrator. uploader may be nil.
func NewOrchestrator(cfg PipelineConfig, uploader Uploader) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		uploader: uploader,
		makeW:    NewWorker,
	}
}

// Run groups the provided files by snapshot date (using p.GetSnapshotDate) and
// runs a Worker batch for each date, oldest first.
func (o *Orchestrator) Run(ctx context.Context, p Pipeline, files []string) ([]*PipelineRun, error) {
	if len(files) == 0 {
		return nil, nil
	}

	// Group files by date
	byDate := make(map[time.Time][]string)
	for _, f := range files {
		date, err := p.GetSnapshotDate(filepath.Base(f))
		if err != nil {
			return nil, fmt.Errorf("failed to get snapshot date for %s: %w", f, err)
		}

		date = date.Truncate(24 * time.Hour)
		byDate[date] = append(byDate[date], f)
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	worker := o.makeW(p, o.cfg, o.uploader)

	runs := make([]*PipelineRun, 0, len(dates))
	for _, date := range dates {
		run, err := worker.ProcessBatch(ctx, date, byDate[date])
		if run != nil {
			runs = append(runs, run)
		}
		if err != nil {
			return runs, fmt.Errorf("failed to process batch for %s: %w", date.Format("2006-01-02"), err)
		}
	}

	return runs, nil
}
