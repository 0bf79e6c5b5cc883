package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/dataset"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/pipeline/pricing"
	"github.com/urfave/cli/v2"
)

// analyzeSource loads the configured dataset and builds its report.
func analyzeSource(c *cli.Context) (*domain.Report, error) {
	cfg := loadConfig(c)

	src, closeSource, err := dataset.FromConfig(c.Context, cfg, dataset.Deps{})
	if err != nil {
		return nil, err
	}
	defer closeSource()

	ds, err := dataset.Load(c.Context, src)
	if err != nil {
		return nil, err
	}
	return pricing.NewAnalyzer(pricing.ConfigFrom(cfg.Pricing)).Analyze(ds.Name, ds.Records)
}

func runKPIs(c *cli.Context) error {
	report, err := analyzeSource(c)
	if err != nil {
		return err
	}
	return writeJSON(c.App.Writer, report.KPIs)
}

func runHealth(c *cli.Context) error {
	report, err := analyzeSource(c)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c.App.Writer, report.Health)
	}
	return writeHealth(c.App.Writer, report.Health)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeHealth(w io.Writer, h domain.HealthReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Data health\t%.1f/100 (%s)\n", h.OverallScore, h.Rating)
	fmt.Fprintf(tw, "Duplicates\t%d rows (%.2f%%)\n", h.DuplicateRows, h.DuplicateRatePct)
	fmt.Fprintf(tw, "Negative rows\t%d\n\n", h.NegativeRows)

	fmt.Fprintln(tw, "STORE\tSCORE\tROWS\tNEGATIVE %\tMISSING RRP %\tOUTLIERS %\tMISSING CELLS %")
	for _, s := range h.Stores {
		fmt.Fprintf(tw, "%s\t%.1f\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			s.Group, s.HealthScore, s.TotalRows, s.PctNegative, s.PctMissingRRP, s.PctOutliers, s.PctMissingAllCols)
	}

	if len(h.Issues) > 0 {
		fmt.Fprintln(tw, "\nISSUE\tSUBJECT\tCOUNT\tDETAIL")
		for _, i := range h.Issues {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", i.Issue, i.Subject, i.Count, i.Detail)
		}
	}
	return tw.Flush()
}
