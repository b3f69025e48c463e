package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
)

func TestNewPricingConfigHolderDefaultsWithoutFile(t *testing.T) {
	holder, err := NewPricingConfigHolder(nil)
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, float64(25), cfg.DefaultMarkupPercent)
	assert.Equal(t, string(pricingdomain.PricingModeMarkup), cfg.Mode)
	assert.Equal(t, int32(2), cfg.RoundingDecimals)
	assert.Equal(t, "USD", cfg.Currency)
}

func TestValidatePricingConfig(t *testing.T) {
	base := DefaultPricingConfig()
	require.NoError(t, validatePricingConfig(base))

	zeroDecimals := base
	zeroDecimals.RoundingDecimals = 0
	assert.NoError(t, validatePricingConfig(zeroDecimals))

	tooMany := base
	tooMany.RoundingDecimals = 7
	assert.Error(t, validatePricingConfig(tooMany))

	negative := base
	negative.RoundingDecimals = -1
	assert.Error(t, validatePricingConfig(negative))

	margin := base
	margin.Mode = string(pricingdomain.PricingModeMargin)
	margin.DefaultMarkupPercent = 100
	assert.Error(t, validatePricingConfig(margin))
}
