package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/dataset"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/loader"
	"github.com/andresuchdata/bidco-kpi/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type PricingHandler struct {
	service   *service.PricingService
	uploadDir string
}

func NewPricingHandler(service *service.PricingService, uploadDir string) *PricingHandler {
	if uploadDir == "" {
		uploadDir = "data/uploads"
	}
	return &PricingHandler{service: service, uploadDir: uploadDir}
}

// report writes the not-ready response and returns nil when no report is published yet.
func (h *PricingHandler) report(c *gin.Context) *domain.Report {
	r, err := h.service.Report()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report not ready", "details": err.Error()})
		return nil
	}
	return r
}

// GetKPIs serves the fixed-key dashboard payload.
func (h *PricingHandler) GetKPIs(c *gin.Context) {
	kpis, err := h.service.KPIs()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report not ready", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, kpis)
}

func (h *PricingHandler) GetSections(c *gin.Context) {
	r := h.report(c)
	if r == nil {
		return
	}
	sections := r.Sections
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		sections = lo.Filter(sections, func(s domain.SectionPricing, _ int) bool {
			return strings.EqualFold(s.Status, status)
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"sections":        sections,
		"section_summary": r.SectionSummaries,
		"weekly_gain_ksh": r.KPIs.WeeklyGainKSh,
	})
}

func (h *PricingHandler) GetStores(c *gin.Context) {
	r := h.report(c)
	if r == nil {
		return
	}
	stores := r.Stores
	if positioning := strings.TrimSpace(c.Query("positioning")); positioning != "" {
		stores = lo.Filter(stores, func(s domain.GroupSummary, _ int) bool {
			return strings.EqualFold(s.Positioning, positioning)
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"stores":        stores,
		"strategy":      lo.Ternary(r.Strategy == nil, []domain.StoreStrategy{}, r.Strategy),
		"strategy_note": r.StrategyNote,
	})
}

func (h *PricingHandler) GetPriceIndex(c *gin.Context) {
	r := h.report(c)
	if r == nil {
		return
	}
	store := strings.TrimSpace(c.Query("store"))
	section := strings.TrimSpace(c.Query("section"))
	rows := lo.Filter(r.PriceIndex, func(p domain.PriceIndexRow, _ int) bool {
		return (store == "" || strings.EqualFold(p.StoreName, store)) &&
			(section == "" || strings.EqualFold(p.Section, section))
	})
	c.JSON(http.StatusOK, gin.H{
		"rows":            rows,
		"overall_index":   r.OverallIndex,
		"has_competitors": r.HasCompetitors,
	})
}

func (h *PricingHandler) GetHealth(c *gin.Context) {
	r := h.report(c)
	if r == nil {
		return
	}
	c.JSON(http.StatusOK, r.Health)
}

func (h *PricingHandler) GetPromotions(c *gin.Context) {
	r := h.report(c)
	if r == nil {
		return
	}
	resp := gin.H{
		"promo_coverage_pct":   r.KPIs.PromoCoveragePct,
		"promo_uplift_pct":     r.KPIs.PromoUpliftPct,
		"store_section_uplift": r.StoreSectionUplift,
		"section_uplift":       r.SectionUplift,
		"by_weekday":           r.PromoByWeekday,
		"intensity":            r.PromoIntensity,
		"section_promos":       r.SectionPromos,
	}
	if c.Query("include_weeks") == "true" {
		resp["weeks"] = r.PromoWeeks
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PricingHandler) GetOutliers(c *gin.Context) {
	r := h.report(c)
	if r == nil {
		return
	}
	item := strings.TrimSpace(c.Query("item"))
	if item == "" {
		c.JSON(http.StatusOK, gin.H{
			"price_outliers": r.PriceOutliers,
			"rrp_outliers":   r.Health.RRPOutliers,
			"items":          lo.Map(r.ItemOutliers, func(o domain.ItemOutliers, _ int) string { return o.ItemCode }),
		})
		return
	}

	drill, _ := lo.Find(r.ItemOutliers, func(o domain.ItemOutliers) bool { return o.ItemCode == item })
	c.JSON(http.StatusOK, gin.H{
		"item":              item,
		"price_outliers":    lo.Filter(r.PriceOutliers, func(o domain.OutlierRow, _ int) bool { return o.GroupKey == item }),
		"rrp_outliers":      lo.Filter(r.Health.RRPOutliers, func(o domain.OutlierRow, _ int) bool { return o.GroupKey == item }),
		"supplier_extremes": lo.Ternary(drill.Suppliers == nil, []domain.OutlierRow{}, drill.Suppliers),
		"store_outliers":    lo.Ternary(drill.Stores == nil, []domain.OutlierRow{}, drill.Stores),
	})
}

func (h *PricingHandler) GetMarket(c *gin.Context) {
	r := h.report(c)
	if r == nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"market":   r.Market,
		"coverage": r.Coverage,
	})
}

// Refresh reloads the configured dataset source. With ?invalidate=true the
// report cache is dropped first so the source is re-analysed.
func (h *PricingHandler) Refresh(c *gin.Context) {
	invalidate, err := strconv.ParseBool(c.DefaultQuery("invalidate", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invalidate flag", "details": err.Error()})
		return
	}
	if invalidate {
		if _, err := h.service.Invalidate(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to invalidate report cache", "details": err.Error()})
			return
		}
	}

	snap, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(refreshStatus(err), gin.H{"error": "failed to refresh report", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(snap))
}

// Upload analyses a sales extract posted as the "file" form field.
func (h *PricingHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	if _, err := loader.FormatOf(file.Filename); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type", "details": err.Error()})
		return
	}

	filePath := filepath.Join(h.uploadDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, filePath); err != nil {
		log.Error().Err(err).Str("filename", file.Filename).Msg("failed to save uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file", "details": err.Error()})
		return
	}

	snap, err := h.service.RefreshFrom(c.Request.Context(), dataset.FileSource{Path: filePath})
	if err != nil {
		c.JSON(refreshStatus(err), gin.H{"error": "failed to analyse file", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshotResponse(snap))
}

func refreshStatus(err error) int {
	if errors.Is(err, loader.ErrMissingColumns) || errors.Is(err, loader.ErrUnsupportedFormat) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func snapshotResponse(snap *service.Snapshot) gin.H {
	return gin.H{
		"dataset":     snap.Report.Dataset,
		"source":      snap.Source,
		"cached":      snap.FromCache,
		"rows":        snap.Report.Rows,
		"fingerprint": snap.Report.Fingerprint,
		"kpis":        snap.Report.KPIs,
	}
}

// HealthCheck reports liveness and whether a report has been published.
func (h *PricingHandler) HealthCheck(c *gin.Context) {
	snap, err := h.service.Snapshot()
	resp := gin.H{"status": "ok", "ready": err == nil}
	if err == nil {
		resp["dataset"] = snap.Report.Dataset
		resp["loaded_at"] = snap.LoadedAt
	}
	c.JSON(http.StatusOK, resp)
}
