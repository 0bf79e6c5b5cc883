package pricing

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/domain"
	"github.com/samber/lo"
)

// NoCompetitorNote explains an empty store strategy table.
const NoCompetitorNote = "No competitor data found – cannot compare the target supplier with rivals. " +
	"Use discount vs RRP to manage margins."

// Recommender maps a price index and discount depth to a status and action.
type Recommender struct {
	rules     SectionRules
	strategy  StrategyRules
	bands     PositioningBands
	targetPct string
}

// NewRecommender creates a recommender from the pipeline configuration.
func NewRecommender(cfg Config) *Recommender {
	return &Recommender{
		rules:     cfg.Section,
		strategy:  cfg.Strategy,
		bands:     cfg.Positioning,
		targetPct: strconv.FormatFloat(roundFloat(cfg.TargetDiscountPct(), 1), 'f', -1, 64),
	}
}

func (r *Recommender) gain(verb string, gain int64) string {
	return fmt.Sprintf("%s → +KSh %s/week", verb, formatKSh(float64(gain)))
}

// Recommend evaluates the section rule table. discPct is the current discount
// off RRP in percent; a nil index falls back to the discount-only rules.
func (r *Recommender) Recommend(index *float64, discPct float64, gain int64) (status, action string) {
	rules := r.rules
	if index == nil {
		switch {
		case discPct > rules.OverDiscountPct:
			return domain.StatusTooDiscounted, r.gain("Reduce to "+r.targetPct+"% off", gain)
		case discPct < rules.LowDiscountPct:
			return domain.StatusPremium, "Keep — protect margin"
		default:
			return domain.StatusBalanced, "Monitor"
		}
	}

	idx := *index
	switch {
	case idx < rules.CheapIndex && discPct > rules.DeepDiscountPct:
		return domain.StatusTooCheapDeep, r.gain("Raise to "+r.targetPct+"% off", gain)
	case idx < rules.CheapIndex:
		return domain.StatusTooCheap, r.gain("Raise price", gain)
	case idx > rules.ExpensiveIndex && discPct > rules.DeepDiscountPct:
		return domain.StatusTooExpensiveDeep, r.gain("Cut discount", gain)
	case discPct > rules.OverDiscountPct:
		return domain.StatusTooDiscounted, r.gain("Reduce to "+r.targetPct+"%", gain)
	case discPct < rules.LowDiscountPct && idx > rules.PremiumIndex:
		return domain.StatusPremiumGold, "Keep — winning"
	default:
		return domain.StatusBalanced, "Monitor"
	}
}

type strategyVerdict struct {
	verdict string
	action  string
	urgency int
}

func (r *Recommender) storeVerdict(idx, disc float64) strategyVerdict {
	parity, deep := r.strategy.ParityIndex, r.strategy.DeepDiscountPct
	switch {
	case idx < parity && disc > deep:
		return strategyVerdict{"Too cheap + deep discount", "Reduce promo", 1}
	case idx > parity && disc > deep:
		return strategyVerdict{"Expensive + deep discount", "Cut discount", 2}
	case idx < parity:
		return strategyVerdict{"Too cheap", "Raise price +5%", 3}
	case idx > parity:
		return strategyVerdict{"Premium + low discount", "Keep – winning!", 4}
	default:
		return strategyVerdict{"Balanced", "Balanced – monitor", 5}
	}
}

// StoreStrategies builds the per-store action plan from the price index cells,
// most urgent first. With no cell it returns nil and NoCompetitorNote.
func (r *Recommender) StoreStrategies(cells []domain.PriceIndexRow) ([]domain.StoreStrategy, string) {
	if len(cells) == 0 {
		return nil, NoCompetitorNote
	}

	byStore := lo.GroupBy(cells, func(c domain.PriceIndexRow) string { return c.StoreName })
	out := make([]domain.StoreStrategy, 0, len(byStore))
	for store, rows := range byStore {
		idx := mean(lo.Map(rows, func(c domain.PriceIndexRow, _ int) float64 { return c.PriceIndex }))
		disc := mean(lo.FilterMap(rows, func(c domain.PriceIndexRow, _ int) (float64, bool) {
			if c.AvgDiscountPct == nil {
				return 0, false
			}
			return *c.AvgDiscountPct, true
		}))
		if !isFinite(disc) {
			disc = 0
		}
		idx = roundFloat(idx, 3)
		disc = roundFloat(disc, 1)
		v := r.storeVerdict(idx, disc)
		out = append(out, domain.StoreStrategy{
			StoreName:      store,
			AvgPriceIndex:  idx,
			AvgDiscountPct: disc,
			Positioning:    r.bands.Classify(idx),
			Verdict:        v.verdict,
			Action:         v.action,
			Urgency:        v.urgency,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Urgency != out[j].Urgency {
			return out[i].Urgency < out[j].Urgency
		}
		return out[i].StoreName < out[j].StoreName
	})
	return out, ""
}
