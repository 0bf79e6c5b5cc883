package pricing

import (
	"math"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// roundFloat rounds v half-to-even at the given number of decimal places.
// NaN and infinities are returned unchanged.
func roundFloat(v float64, decimals int32) float64 {
	if !isFinite(v) {
		return v
	}
	return decimal.NewFromFloat(v).RoundBank(decimals).InexactFloat64()
}

// roundPtr rounds v and returns nil when v is not a finite number.
func roundPtr(v float64, decimals int32) *float64 {
	if !isFinite(v) {
		return nil
	}
	r := roundFloat(v, decimals)
	return &r
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// safeDiv returns NaN when the denominator is zero or either side is undefined.
func safeDiv(num, den float64) float64 {
	if den == 0 || !isFinite(num) || !isFinite(den) {
		return math.NaN()
	}
	return num / den
}

// mean skips undefined values, returning NaN when nothing is left.
func mean(values []float64) float64 {
	sum, n := 0.0, 0
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// median skips undefined values, returning NaN when nothing is left.
func median(values []float64) float64 {
	finite := finiteSorted(values)
	n := len(finite)
	if n == 0 {
		return math.NaN()
	}
	if n%2 == 1 {
		return finite[n/2]
	}
	return (finite[n/2-1] + finite[n/2]) / 2
}

func finiteSorted(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			out = append(out, v)
		}
	}
	sort.Float64s(out)
	return out
}

// formatKSh formats an amount with comma thousands separators and no decimals.
// Example: 27618.4 => "27,618".
func formatKSh(v float64) string {
	return formatThousands(v, 0)
}

// formatThousands formats v with comma thousands separators and a dot decimal
// separator, rounding half-to-even. 1234.5 (2 decimals) => "1,234.50".
func formatThousands(v float64, decimals int32) string {
	if !isFinite(v) {
		return ""
	}
	if decimals < 0 {
		decimals = 0
	}
	d := decimal.NewFromFloat(v).RoundBank(decimals)
	whole := d.Truncate(0)

	out := humanize.Comma(whole.IntPart())
	if d.IsNegative() && whole.IsZero() {
		out = "-" + out
	}
	if decimals > 0 {
		// "0.50" => ".50"
		out += d.Sub(whole).Abs().StringFixed(decimals)[1:]
	}
	return out
}

// formatFloat renders a value for CSV output; undefined values become empty cells.
func formatFloat(v float64, decimals int) string {
	if !isFinite(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func formatFloatPtr(v *float64, decimals int) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v, decimals)
}
