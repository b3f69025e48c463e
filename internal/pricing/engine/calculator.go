package engine

import (
	"github.com/shopspring/decimal"

	"github.com/stackbill/tradequote/internal/pricing/domain"
)

var oneHundred = decimal.NewFromInt(100)

// PriceLine derives a line's landed unit cost and selling price.
//
//	unitLandedCost = unitCost + sum(components) + allocated/max(qty, 1)
//	markup: unitPrice = unitLandedCost * (1 + p/100)
//	margin: unitPrice = unitLandedCost / (1 - p/100), p < 100
//
// Each stage is rounded to the configured precision before the next one
// consumes it. A zero quantity is valid and yields a zero line total.
func (e *Engine) PriceLine(index int, line domain.LineItem, allocated decimal.Decimal, settings domain.Settings) (domain.ComputedLine, error) {
	if line.Quantity < 0 {
		return domain.ComputedLine{}, domain.NewLineError(index, line.SKU, domain.ErrInvalidQuantity)
	}

	percent, err := effectivePercent(index, line, settings)
	if err != nil {
		return domain.ComputedLine{}, err
	}

	decimals := roundingDecimals(settings)

	qtyDivisor := line.Quantity
	if qtyDivisor < 1 {
		qtyDivisor = 1
	}
	perUnitShipping := allocated.Div(decimal.NewFromInt(qtyDivisor))
	landed := round(line.UnitCost.Add(line.Components.Sum()).Add(perUnitShipping), decimals)

	var unitPrice decimal.Decimal
	switch settings.Mode {
	case domain.PricingModeMargin:
		if percent.GreaterThanOrEqual(oneHundred) {
			return domain.ComputedLine{}, domain.NewLineError(index, line.SKU, domain.ErrInvalidMarginPercent)
		}
		denominator := decimal.NewFromInt(1).Sub(percent.Div(oneHundred))
		unitPrice = round(landed.Div(denominator), decimals)
	case domain.PricingModeMarkup, "":
		unitPrice = round(landed.Mul(decimal.NewFromInt(1).Add(percent.Div(oneHundred))), decimals)
	default:
		return domain.ComputedLine{}, domain.NewLineError(index, line.SKU, domain.ErrInvalidPricingMode)
	}

	lineTotal := round(unitPrice.Mul(decimal.NewFromInt(line.Quantity)), decimals)

	return domain.ComputedLine{
		LineItem:          line,
		AllocatedShipping: allocated,
		UnitLandedCost:    landed,
		AppliedPercent:    percent,
		UnitPrice:         unitPrice,
		LineTotal:         lineTotal,
	}, nil
}

// effectivePercent resolves the per-line override, falling back to the
// settings default. Missing both is a validation error, never a guessed
// value.
func effectivePercent(index int, line domain.LineItem, settings domain.Settings) (decimal.Decimal, error) {
	if line.OverridePercent != nil {
		return *line.OverridePercent, nil
	}
	if settings.DefaultPercent != nil {
		return *settings.DefaultPercent, nil
	}
	return decimal.Zero, domain.NewLineError(index, line.SKU, domain.ErrMissingPercent)
}
