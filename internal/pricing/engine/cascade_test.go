package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stackbill/tradequote/internal/pricing/domain"
)

func cascadeRules() []domain.TaxRule {
	return []domain.TaxRule{
		{Code: "HEALTH_LEVY", Name: "Health Levy", RatePercent: dec("2.5"), Tier: domain.TaxTierSubtotal, Enabled: true, Position: 1},
		{Code: "EDU_LEVY", Name: "Education Levy", RatePercent: dec("5"), Tier: domain.TaxTierSubtotal, Enabled: true, Position: 2},
		{Code: "VAT", Name: "Value Added Tax", RatePercent: dec("12.5"), Tier: domain.TaxTierLevyTotal, Enabled: true, Position: 3},
	}
}

func TestApplyTaxes_TwoTierCompounding(t *testing.T) {
	e := New(zap.NewNop())

	result := e.ApplyTaxes(dec("100.00"), cascadeRules(), 2)

	require.Len(t, result.Lines, 3)

	health, ok := findTax(result.Lines, "HEALTH_LEVY")
	require.True(t, ok)
	assert.Equal(t, "2.50", health.StringFixed(2))

	edu, ok := findTax(result.Lines, "EDU_LEVY")
	require.True(t, ok)
	assert.Equal(t, "5.00", edu.StringFixed(2))

	// VAT is computed on the accumulated levy total, not the raw base.
	assert.Equal(t, "107.50", result.LevyTotal.StringFixed(2))
	vat, ok := findTax(result.Lines, "VAT")
	require.True(t, ok)
	assert.Equal(t, "13.44", vat.StringFixed(2)) // 107.50 x 12.5%
	assert.Equal(t, "120.94", result.GrandTotal.StringFixed(2))
}

func TestApplyTaxes_SameTierOrderIndependent(t *testing.T) {
	e := New(zap.NewNop())

	rules := cascadeRules()
	reversed := []domain.TaxRule{rules[1], rules[0], rules[2]}

	a := e.ApplyTaxes(dec("317.40"), rules, 2)
	b := e.ApplyTaxes(dec("317.40"), reversed, 2)

	assert.Equal(t, a.LevyTotal.StringFixed(2), b.LevyTotal.StringFixed(2))
	assert.Equal(t, a.GrandTotal.StringFixed(2), b.GrandTotal.StringFixed(2))
}

func TestApplyTaxes_DisabledRulesOmitted(t *testing.T) {
	e := New(zap.NewNop())

	rules := cascadeRules()
	rules[2].Enabled = false

	result := e.ApplyTaxes(dec("100.00"), rules, 2)

	require.Len(t, result.Lines, 2)
	_, ok := findTax(result.Lines, "VAT")
	assert.False(t, ok, "disabled rule must not appear in the result")
	assert.Equal(t, result.LevyTotal.StringFixed(2), result.GrandTotal.StringFixed(2))
}

func TestApplyTaxes_NoRulesIsIdentity(t *testing.T) {
	e := New(zap.NewNop())

	result := e.ApplyTaxes(dec("842.17"), nil, 2)

	assert.Empty(t, result.Lines)
	assert.Equal(t, "842.17", result.LevyTotal.StringFixed(2))
	assert.Equal(t, "842.17", result.GrandTotal.StringFixed(2))
}

func findTax(lines []domain.TaxLine, code string) (decimal.Decimal, bool) {
	for _, line := range lines {
		if line.Code == code {
			return line.Amount, true
		}
	}
	return decimal.Zero, false
}
