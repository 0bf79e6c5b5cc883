package pricing

import (
	"database/sql"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func promoFixture() []domain.SaleRecord {
	return []domain.SaleRecord{
		sale("A", "1", bidco, "Oils", 2, 160, 100, day(2025, 1, 6)),
		sale("A", "1", bidco, "Oils", 4, 320, 100, day(2025, 1, 7)),
		sale("A", "1", bidco, "Oils", 1, 100, 100, day(2025, 1, 14)),
		sale("A", "2", rival, "Oils", 5, 500, 110, day(2025, 1, 6)),
	}
}

func TestAnalyze(t *testing.T) {
	a := NewAnalyzer(DefaultConfig())
	fixed := time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	records := promoFixture()
	before := append([]domain.SaleRecord(nil), records...)

	r, err := a.Analyze("week2", records)
	require.NoError(t, err)
	assert.Equal(t, before, records)

	assert.Equal(t, "week2", r.Dataset)
	assert.Equal(t, fixed, r.GeneratedAt)
	assert.Equal(t, 4, r.Rows)
	assert.Equal(t, 3, r.TargetRows)
	assert.True(t, r.HasCompetitors)
	assert.Equal(t, Fingerprint(records), r.Fingerprint)

	k := r.KPIs
	assert.Equal(t, int64(580), k.TotalRevenueKSh)
	assert.Equal(t, int64(7), k.UnitsSold)
	assert.Equal(t, 17.1, k.AvgDiscountPct)
	require.NotNil(t, k.PriceIndex)
	assert.Equal(t, 0.829, *k.PriceIndex)
	assert.Equal(t, int64(67), k.PromoCoveragePct)
	assert.Equal(t, int64(200), k.PromoUpliftPct)
	assert.Equal(t, int64(57), k.WeeklyGainKSh)
	assert.Equal(t, "100/100", k.DataHealth)

	require.Len(t, r.Sections, 1)
	assert.Equal(t, domain.StatusTooCheapDeep, r.Sections[0].Status)
	assert.Equal(t, "Raise to 9% off → +KSh 57/week", r.Sections[0].Action)

	require.Len(t, r.Stores, 1)
	assert.Equal(t, "A", r.Stores[0].Key)
	require.NotNil(t, r.Stores[0].HealthScore)

	require.Len(t, r.Strategy, 1)
	assert.Empty(t, r.StrategyNote)
	assert.Equal(t, "Reduce promo", r.Strategy[0].Action)

	require.Len(t, r.SectionUplift, 1)
	require.NotNil(t, r.SectionUplift[0].UpliftPct)
	assert.Equal(t, 500.0, *r.SectionUplift[0].UpliftPct)

	assert.Equal(t, 75.0, r.Market.TargetSharePct)
	assert.Equal(t, "Excellent – ready for analysis", r.Health.Rating)
}

func TestAnalyzeTargetOnly(t *testing.T) {
	records := promoFixture()[:3]
	r, err := NewAnalyzer(DefaultConfig()).Analyze("solo", records)
	require.NoError(t, err)

	assert.False(t, r.HasCompetitors)
	assert.Nil(t, r.KPIs.PriceIndex)
	assert.Nil(t, r.OverallIndex)
	assert.Empty(t, r.PriceIndex)
	assert.Nil(t, r.Strategy)
	assert.Equal(t, NoCompetitorNote, r.StrategyNote)
	require.Len(t, r.Sections, 1)
	assert.Equal(t, domain.StatusTooDiscounted, r.Sections[0].Status)
}

func TestAnalyzeStoreHealthCountsEveryRow(t *testing.T) {
	records := []domain.SaleRecord{
		sale("A", "1", bidco, "Oils", 2, 180, 100, day(2025, 1, 6)),
		sale("A", "1", bidco, "Oils", 2, 180, 100, day(2025, 1, 7)),
	}
	for i := 0; i < 4; i++ {
		r := sale("A", "2", rival, "Oils", 1, 95, 0, day(2025, 1, 6))
		r.RRP = sql.NullFloat64{}
		records = append(records, r)
	}

	r, err := NewAnalyzer(DefaultConfig()).Analyze("mixed", records)
	require.NoError(t, err)

	require.Len(t, r.Health.Stores, 1)
	storeScore := r.Health.Stores[0].HealthScore
	assert.Less(t, storeScore, 100.0)

	require.Len(t, r.Stores, 1)
	require.NotNil(t, r.Stores[0].HealthScore)
	assert.Equal(t, storeScore, *r.Stores[0].HealthScore)
	assert.Equal(t, strconv.FormatFloat(storeScore, 'f', -1, 64)+"/100", r.KPIs.DataHealth)

	require.Len(t, r.SectionSummaries, 1)
	require.NotNil(t, r.SectionSummaries[0].HealthScore)
	assert.Equal(t, storeScore, *r.SectionSummaries[0].HealthScore)
}

func TestAnalyzeItemOutliers(t *testing.T) {
	records := []domain.SaleRecord{
		sale("A", "1", bidco, "Oils", 1, 100, 100, day(2025, 1, 6)),
		sale("B", "1", bidco, "Oils", 2, 200, 100, day(2025, 1, 6)),
		sale("C", "1", rival, "Oils", 1, 100, 100, day(2025, 1, 6)),
		sale("D", "1", rival, "Oils", 1, 100, 100, day(2025, 1, 6)),
		sale("G", "1", rival, "Oils", 1, 100, 100, day(2025, 1, 6)),
		sale("H", "1", rival, "Oils", 1, 100, 100, day(2025, 1, 6)),
		sale("E", "1", "CHEAP CO", "Oils", 1, 20, 100, day(2025, 1, 6)),
		sale("E", "1", "CHEAP CO", "Oils", 1, 20, 100, day(2025, 1, 7)),
		sale("A", "2", bidco, "Oils", 1, 50, 50, day(2025, 1, 6)),
	}

	r, err := NewAnalyzer(DefaultConfig()).Analyze("drill", records)
	require.NoError(t, err)

	require.Len(t, r.PriceOutliers, 2)
	require.Len(t, r.ItemOutliers, 1)
	item := r.ItemOutliers[0]
	assert.Equal(t, "1", item.ItemCode)
	require.Len(t, item.Stores, 1)
	assert.Equal(t, "E", item.Stores[0].Label)
	assert.Equal(t, domain.OutlierLow, item.Stores[0].Status)
	// three suppliers only
	assert.Empty(t, item.Suppliers)
}

func TestAnalyzeNoRecords(t *testing.T) {
	_, err := NewAnalyzer(DefaultConfig()).Analyze("empty", nil)
	assert.True(t, errors.Is(err, ErrNoRecords))
}

func TestFingerprint(t *testing.T) {
	records := promoFixture()
	fp := Fingerprint(records)
	assert.Len(t, fp, 40)
	assert.Equal(t, fp, Fingerprint(promoFixture()))

	records[0].Quantity = num(3)
	assert.NotEqual(t, fp, Fingerprint(records))

	blank := promoFixture()
	blank[0].RRP.Valid = false
	assert.NotEqual(t, fp, Fingerprint(blank))
}
