package pricing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/samber/lo"
)

// HealthScorer computes the Data Health Score of a raw sales table.
type HealthScorer struct {
	cfg        Config
	classifier *OutlierClassifier
}

// NewHealthScorer creates a scorer from the pipeline configuration.
func NewHealthScorer(cfg Config) *HealthScorer {
	return &HealthScorer{cfg: cfg, classifier: NewOutlierClassifier(cfg)}
}

// Evaluate scores every store, the dataset as a whole, and lists the unhealthy data points.
func (h *HealthScorer) Evaluate(records []domain.SaleRecord) domain.HealthReport {
	report := domain.HealthReport{
		MissingByColumn: missingByColumn(records),
		MissingRRP:      h.missingRRPSplit(records),
	}

	rrpOutliers := h.classifier.RRPOutliers(records)
	report.RRPOutliers = lo.Filter(rrpOutliers, func(r domain.OutlierRow, _ int) bool {
		return r.Status != domain.OutlierNormal
	})
	report.Stores = h.scoreGroups(records, rrpOutliers, func(r domain.SaleRecord) string { return r.StoreName })

	negatives := lo.Filter(records, func(r domain.SaleRecord, _ int) bool { return len(negativeFields(r)) > 0 })
	report.NegativeRows = len(negatives)

	report.DuplicateRows = duplicateRows(records)
	if len(records) > 0 {
		report.DuplicateRatePct = roundFloat(float64(report.DuplicateRows)/float64(len(records))*100, 2)
	}

	report.OverallScore = overallScore(report.Stores)
	report.Rating = domain.HealthRating(report.OverallScore)
	report.Issues = h.issues(report, negatives)
	return report
}

// ScoreBy scores groups chosen by key, e.g. sections, with the same formula as stores.
func (h *HealthScorer) ScoreBy(records []domain.SaleRecord, key func(domain.SaleRecord) string) []domain.GroupHealth {
	return h.scoreGroups(records, h.classifier.RRPOutliersBy(records, key), key)
}

func (h *HealthScorer) scoreGroups(records []domain.SaleRecord, rrpOutliers []domain.OutlierRow, key func(domain.SaleRecord) string) []domain.GroupHealth {
	priced := lo.CountValuesBy(rrpOutliers, func(r domain.OutlierRow) string { return r.Label })
	flagged := lo.CountValuesBy(
		lo.Filter(rrpOutliers, func(r domain.OutlierRow, _ int) bool { return r.Status != domain.OutlierNormal }),
		func(r domain.OutlierRow) string { return r.Label },
	)

	w := h.cfg.Health
	ncols := float64(len(domain.SaleColumns))
	groups := lo.GroupBy(records, key)
	out := make([]domain.GroupHealth, 0, len(groups))
	for name, rows := range groups {
		g := domain.GroupHealth{
			Group:        name,
			TotalRows:    len(rows),
			PricedRows:   priced[name],
			OutlierCount: flagged[name],
		}
		for _, r := range rows {
			if r.Quantity.Valid && r.Quantity.Float64 < 0 {
				g.NegativeRows++
			}
			if !r.RRP.Valid {
				g.MissingRRP++
			}
			g.MissingCells += r.MissingCells()
		}
		if g.PricedRows > 0 {
			g.OutlierRatePct = roundFloat(float64(g.OutlierCount)/float64(g.PricedRows)*100, 2)
		}
		g.Unreliable = g.OutlierRatePct > w.UnreliableRatePct

		total := float64(g.TotalRows)
		g.PctNegative = float64(g.NegativeRows) / total * 100
		g.PctMissingRRP = float64(g.MissingRRP) / total * 100
		g.PctOutliers = float64(g.OutlierCount) / total * 100
		g.PctMissingAllCols = roundFloat(float64(g.MissingCells)/(total*ncols)*100, 2)

		score := 100 -
			g.PctNegative*w.Negative -
			g.PctMissingRRP*w.MissingRRP -
			g.PctOutliers*w.Outliers -
			g.PctMissingAllCols*w.MissingCells
		if g.Unreliable {
			score -= w.UnreliablePenalty
		}
		score = roundFloat(score, 1)
		if score < 0 {
			score = 0
		}
		g.HealthScore = score

		g.PctNegative = roundFloat(g.PctNegative, 2)
		g.PctMissingRRP = roundFloat(g.PctMissingRRP, 2)
		g.PctOutliers = roundFloat(g.PctOutliers, 2)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

// overallScore is the row-weighted mean of group scores.
func overallScore(groups []domain.GroupHealth) float64 {
	var weighted, rows float64
	for _, g := range groups {
		weighted += g.HealthScore * float64(g.TotalRows)
		rows += float64(g.TotalRows)
	}
	if rows == 0 {
		return 0
	}
	return roundFloat(weighted/rows, 1)
}

func missingByColumn(records []domain.SaleRecord) []domain.ColumnMissing {
	counts := make([]int, len(domain.SaleColumns))
	for _, r := range records {
		cells := []bool{
			strings.TrimSpace(r.StoreName) == "",
			strings.TrimSpace(r.ItemCode) == "",
			strings.TrimSpace(r.Description) == "",
			strings.TrimSpace(r.Category) == "",
			strings.TrimSpace(r.Section) == "",
			strings.TrimSpace(r.SubDepartment) == "",
			strings.TrimSpace(r.Supplier) == "",
			!r.Quantity.Valid,
			!r.TotalSales.Valid,
			!r.RRP.Valid,
			!r.DateOfSale.Valid,
		}
		for i, missing := range cells {
			if missing {
				counts[i]++
			}
		}
	}

	out := make([]domain.ColumnMissing, 0)
	for i, n := range counts {
		if n > 0 {
			out = append(out, domain.ColumnMissing{Column: domain.SaleColumns[i], Missing: n})
		}
	}
	return out
}

func (h *HealthScorer) missingRRPSplit(records []domain.SaleRecord) []domain.MissingRRPSplit {
	byStore := make(map[string]*domain.MissingRRPSplit)
	for _, r := range records {
		if r.RRP.Valid {
			continue
		}
		s, ok := byStore[r.StoreName]
		if !ok {
			s = &domain.MissingRRPSplit{StoreName: r.StoreName}
			byStore[r.StoreName] = s
		}
		if h.cfg.IsTarget(r.Supplier) {
			s.Target++
		} else {
			s.Other++
		}
	}
	out := make([]domain.MissingRRPSplit, 0, len(byStore))
	for _, s := range byStore {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StoreName < out[j].StoreName })
	return out
}

type dupKey struct {
	item  string
	store string
	date  time.Time
	dated bool
}

// duplicateRows counts every row sharing (item, store, date) with another row.
func duplicateRows(records []domain.SaleRecord) int {
	counts := lo.CountValuesBy(records, func(r domain.SaleRecord) dupKey {
		return dupKey{item: r.ItemCode, store: r.StoreName, date: r.DateOfSale.Time, dated: r.DateOfSale.Valid}
	})
	dups := 0
	for _, n := range counts {
		if n > 1 {
			dups += n
		}
	}
	return dups
}

func negativeFields(r domain.SaleRecord) []string {
	var fields []string
	if r.Quantity.Valid && r.Quantity.Float64 < 0 {
		fields = append(fields, "Quantity="+strconv.FormatFloat(r.Quantity.Float64, 'f', -1, 64))
	}
	if r.TotalSales.Valid && r.TotalSales.Float64 < 0 {
		fields = append(fields, "Total Sales="+strconv.FormatFloat(r.TotalSales.Float64, 'f', -1, 64))
	}
	if r.RRP.Valid && r.RRP.Float64 < 0 {
		fields = append(fields, "RRP="+strconv.FormatFloat(r.RRP.Float64, 'f', -1, 64))
	}
	return fields
}

func (h *HealthScorer) issues(report domain.HealthReport, negatives []domain.SaleRecord) []domain.HealthIssue {
	issues := make([]domain.HealthIssue, 0)
	for _, m := range report.MissingByColumn {
		issues = append(issues, domain.HealthIssue{
			Issue:   "Missing Values",
			Subject: "(all)",
			Count:   m.Missing,
			Detail:  fmt.Sprintf("%s → %d rows", m.Column, m.Missing),
		})
	}
	for _, r := range negatives {
		issues = append(issues, domain.HealthIssue{
			Issue:   "Negative Value",
			Subject: r.StoreName,
			Count:   1,
			Detail:  fmt.Sprintf("%s %s: %s", r.ItemCode, r.Description, strings.Join(negativeFields(r), ", ")),
		})
	}

	low := lo.Filter(report.Stores, func(g domain.GroupHealth, _ int) bool {
		return g.HealthScore < h.cfg.UnhealthyScoreThreshold
	})
	sort.SliceStable(low, func(i, j int) bool { return low[i].HealthScore < low[j].HealthScore })
	for _, g := range low {
		issues = append(issues, domain.HealthIssue{
			Issue:   "Low Health Score",
			Subject: g.Group,
			Count:   g.TotalRows,
			Detail:  strconv.FormatFloat(g.HealthScore, 'f', -1, 64),
		})
	}
	return issues
}
