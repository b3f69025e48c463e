package engine

import (
	"github.com/shopspring/decimal"

	"github.com/stackbill/tradequote/internal/pricing/domain"
)

// TaxResult is the output of the two-tier cascade.
type TaxResult struct {
	Lines      []domain.TaxLine
	LevyTotal  decimal.Decimal
	GrandTotal decimal.Decimal
}

// ApplyTaxes runs the ordered, two-tier cascade over the charge-adjusted
// subtotal.
//
// Pass 1 computes every enabled subtotal-tier rule against the raw base
// and accumulates into the levy total. Pass 2 computes every enabled
// levy-tier rule against that fully accumulated levy total, never the
// raw base, and accumulates into the grand total. Rules within a tier
// are additive and order-independent; the tier ordering is load-bearing.
// Disabled rules contribute nothing and are omitted from the result.
// An empty rule set is the valid degenerate case: zero tax,
// grandTotal == base.
func (e *Engine) ApplyTaxes(base decimal.Decimal, rules []domain.TaxRule, decimals int32) TaxResult {
	result := TaxResult{
		Lines:      []domain.TaxLine{},
		LevyTotal:  base,
		GrandTotal: base,
	}

	for _, rule := range rules {
		if !rule.Enabled || rule.Tier != domain.TaxTierSubtotal {
			continue
		}
		amount := round(base.Mul(rule.RatePercent).Div(oneHundred), decimals)
		result.Lines = append(result.Lines, taxLine(rule, amount))
		result.LevyTotal = result.LevyTotal.Add(amount)
	}

	result.GrandTotal = result.LevyTotal
	for _, rule := range rules {
		if !rule.Enabled || rule.Tier != domain.TaxTierLevyTotal {
			continue
		}
		amount := round(result.LevyTotal.Mul(rule.RatePercent).Div(oneHundred), decimals)
		result.Lines = append(result.Lines, taxLine(rule, amount))
		result.GrandTotal = result.GrandTotal.Add(amount)
	}

	return result
}

func taxLine(rule domain.TaxRule, amount decimal.Decimal) domain.TaxLine {
	return domain.TaxLine{
		Code:        rule.Code,
		Name:        rule.Name,
		Tier:        rule.Tier,
		RatePercent: rule.RatePercent,
		Amount:      amount,
	}
}
