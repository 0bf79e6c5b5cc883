package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaultsMatchPipelineConstants(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, "BIDCO", cfg.Pricing.TargetSupplier)
	assert.Equal(t, 0.10, cfg.Pricing.DiscountThreshold)
	assert.Equal(t, 2, cfg.Pricing.PromoMinDays)
	assert.Equal(t, 0.09, cfg.Pricing.TargetDiscountRate)
	assert.Equal(t, 1.5, cfg.Pricing.OutlierMultiplier)
	assert.Equal(t, 75.0, cfg.Pricing.UnhealthyScoreThreshold)
	assert.Equal(t, "file", cfg.Dataset.Source)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.False(t, cfg.Cache.Enabled)
	assert.False(t, cfg.Storage.StorageEnabled())
}

func TestOverridesAreApplied(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("PRICING_PROMO_MIN_DAYS", 3)
	v.Set("DATASET_SOURCE", " S3 ")
	v.Set("S3_ENDPOINT", "minio:9000")
	v.Set("S3_BUCKET", "sales")
	v.Set("S3_ACCESS_KEY", "key")
	v.Set("S3_SECRET_KEY", "secret")

	cfg := fromViper(v)

	assert.Equal(t, 3, cfg.Pricing.PromoMinDays)
	assert.Equal(t, "s3", cfg.Dataset.Source)
	assert.True(t, cfg.Storage.StorageEnabled())
}
