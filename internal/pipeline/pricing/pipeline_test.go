package pricing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andresuchdata/bidco-kpi/backend-go/internal/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCSV = `Store Name,Item_Code,Description,Category,Section,Sub-Department,Supplier,Quantity,Total Sales,RRP,Date Of Sale
A,1,Golden Fry 1L,Food,Oils,Grocery,BIDCO AFRICA LIMITED,2,160,100,2025-01-06
A,1,Golden Fry 1L,Food,Oils,Grocery,BIDCO AFRICA LIMITED,4,320,100,2025-01-07
A,1,Golden Fry 1L,Food,Oils,Grocery,BIDCO AFRICA LIMITED,1,100,100,2025-01-14
A,2,Fresh Fri 1L,Food,Oils,Grocery,PWANI OIL PRODUCTS,5,500,110,2025-01-06
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPricingPipelineSnapshotDate(t *testing.T) {
	p := NewPricingPipeline(DefaultConfig())
	p.now = func() time.Time { return time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC) }

	tests := []struct {
		file string
		want time.Time
	}{
		{"sales_20250107.csv", time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)},
		{"/data/in/Sales 2025-01-08.xlsx", time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)},
		{"sales.csv", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"sales_20251399.csv", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			got, err := p.GetSnapshotDate(tt.file)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPricingPipelineValidate(t *testing.T) {
	p := NewPricingPipeline(DefaultConfig())

	assert.NoError(t, p.Validate(writeFile(t, "sales.csv", salesCSV)))
	assert.Error(t, p.Validate(filepath.Join(t.TempDir(), "missing.csv")))
	assert.Error(t, p.Validate(t.TempDir()))

	err := p.Validate(writeFile(t, "sales.json", "{}"))
	assert.True(t, errors.Is(err, loader.ErrUnsupportedFormat))
}

func TestPricingPipelineTransform(t *testing.T) {
	p := NewPricingPipeline(DefaultConfig())
	path := writeFile(t, "sales_20250107.csv", salesCSV)

	out, err := p.Transform(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "sales_20250107", out.Dataset)
	require.Len(t, out.Tables, 19)
	assert.Equal(t, "kpis", out.Tables[0].Name)
	assert.Equal(t, "section_pricing", out.Tables[1].Name)

	summary := out.Summary.Data
	assert.Equal(t, "sales_20250107", summary["dataset"])
	assert.Equal(t, int64(580), summary["total_revenue_ksh"])
	assert.Equal(t, "0.829", summary["price_index"])
	assert.Equal(t, "17.1", summary["avg_discount_pct"])
	assert.Equal(t, "100/100", summary["data_health"])
}

func TestPricingPipelineTransformMissingColumns(t *testing.T) {
	p := NewPricingPipeline(DefaultConfig())
	path := writeFile(t, "broken.csv", "Store Name,Quantity\nA,1\n")

	_, err := p.Transform(context.Background(), path)
	assert.True(t, errors.Is(err, loader.ErrMissingColumns))
}

func TestPricingPipelineTransformCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPricingPipeline(DefaultConfig()).Transform(ctx, writeFile(t, "sales.csv", salesCSV))
	assert.ErrorIs(t, err, context.Canceled)
}
