package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/report"
	"github.com/rs/zerolog/log"
)

// SummaryAggregator collects one summary row per dataset and writes them as a
// single CSV once the batch is finished.
type SummaryAggregator struct {
	pipeline      Pipeline
	config        PipelineConfig
	date          time.Time
	rows          []TransformedRow
	mu            sync.Mutex
	flushCallback func(ctx context.Context, csvPath string) error
}

// NewSummaryAggregator creates a new aggregator for a pipeline batch
func NewSummaryAggregator(
	pipeline Pipeline,
	config PipelineConfig,
	date time.Time,
	flushCallback func(ctx context.Context, csvPath string) error,
) *SummaryAggregator {
	return &SummaryAggregator{
		pipeline:      pipeline,
		config:        config,
		date:          date,
		flushCallback: flushCallback,
	}
}

// Add buffers the summary row of one dataset
func (sa *SummaryAggregator) Add(row TransformedRow) {
	if len(row.Data) == 0 {
		return
	}
	sa.mu.Lock()
	defer sa.mu.Unlock()
	sa.rows = append(sa.rows, row)
}

// Finalize writes the buffered rows and triggers the flush callback. It
// returns the written path, or "" when nothing was buffered.
func (sa *SummaryAggregator) Finalize(ctx context.Context) (string, error) {
	sa.mu.Lock()
	defer sa.mu.Unlock()

	if len(sa.rows) == 0 {
		log.Info().Str("pipeline", sa.pipeline.Name()).Msg("no summary rows to finalize")
		return "", nil
	}

	csvPath := filepath.Join(
		sa.config.OutputDir,
		fmt.Sprintf("summary_%s.csv", sa.date.Format("20060102")),
	)
	if err := report.WriteCSVFile(csvPath, summaryTable(sa.rows)); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	log.Info().Str("pipeline", sa.pipeline.Name()).Int("rows", len(sa.rows)).Str("path", csvPath).Msg("summary written")

	if sa.flushCallback != nil {
		if err := sa.flushCallback(ctx, csvPath); err != nil {
			return csvPath, fmt.Errorf("flush callback failed: %w", err)
		}
	}

	sa.rows = sa.rows[:0]
	return csvPath, nil
}

// summaryTable uses the sorted union of keys as header, with "dataset" first,
// and orders rows by dataset.
func summaryTable(rows []TransformedRow) report.Table {
	keys := make(map[string]struct{})
	for _, row := range rows {
		for k := range row.Data {
			keys[k] = struct{}{}
		}
	}
	headers := make([]string, 0, len(keys))
	for k := range keys {
		if k != "dataset" {
			headers = append(headers, k)
		}
	}
	sort.Strings(headers)
	if _, ok := keys["dataset"]; ok {
		headers = append([]string{"dataset"}, headers...)
	}

	sorted := append([]TransformedRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return fmt.Sprint(sorted[i].Data["dataset"]) < fmt.Sprint(sorted[j].Data["dataset"])
	})

	t := report.Table{Name: "summary", Headers: headers}
	for _, row := range sorted {
		record := make([]string, len(headers))
		for i, h := range headers {
			if v, ok := row.Data[h]; ok && v != nil {
				record[i] = fmt.Sprintf("%v", v)
			}
		}
		t.Rows = append(t.Rows, record)
	}
	return t
}
