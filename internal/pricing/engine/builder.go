package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stackbill/tradequote/internal/pricing/domain"
)

// Input carries everything one computation needs. Catalog, settings and
// rules must all come from one logical point in time so no line is
// priced against a different configuration than its siblings.
type Input struct {
	Lines      []domain.DraftLine
	Catalog    map[string]domain.CatalogEntry
	Charges    domain.OrderCharges
	Settings   domain.Settings
	TaxRules   []domain.TaxRule
	ComputedBy string
	ComputedAt time.Time
}

// Compute turns a draft into a fully priced quote. It is deterministic:
// the same inputs always produce the same output, including the
// checksum, which makes recomputation verifiable byte-for-byte.
func (e *Engine) Compute(input Input) (*domain.Quote, error) {
	lines, err := e.ResolveLines(input.Lines, input.Catalog)
	if err != nil {
		return nil, err
	}

	settings := input.Settings
	decimals := roundingDecimals(settings)

	allocations := e.AllocateShipping(lines, input.Charges, settings)

	computed := make([]domain.ComputedLine, 0, len(lines))
	subtotal := decimal.Zero
	totalLanded := decimal.Zero
	for i, line := range lines {
		priced, err := e.PriceLine(i, line, allocations[line.SKU], settings)
		if err != nil {
			return nil, err
		}
		computed = append(computed, priced)
		subtotal = subtotal.Add(priced.LineTotal)
		totalLanded = totalLanded.Add(priced.UnitLandedCost.Mul(decimal.NewFromInt(priced.Quantity)))
	}

	subtotalWithCharges := subtotal.
		Add(input.Charges.Shipping).
		Add(input.Charges.Handling).
		Sub(input.Charges.Discount)

	taxes := e.ApplyTaxes(subtotalWithCharges, input.TaxRules, decimals)

	totals := domain.Totals{
		Subtotal:            subtotal,
		Shipping:            input.Charges.Shipping,
		Handling:            input.Charges.Handling,
		Discount:            input.Charges.Discount,
		SubtotalWithCharges: subtotalWithCharges,
		TaxLines:            taxes.Lines,
		LevyTotal:           taxes.LevyTotal,
		GrandTotal:          taxes.GrandTotal,
		TotalLandedCost:     totalLanded,
		GrossMarginPercent:  grossMarginPercent(subtotal, totalLanded),
	}

	quote := &domain.Quote{
		Lines:    computed,
		Totals:   totals,
		Currency: settings.Currency,
		Incoterm: settings.Incoterm,
		Meta: domain.AuditMeta{
			EngineVersion: Version,
			ComputedAt:    input.ComputedAt,
			ComputedBy:    input.ComputedBy,
		},
	}
	quote.Checksum = checksum(quote)

	return quote, nil
}

// grossMarginPercent reports (subtotal - landed) / subtotal as a
// percentage rounded to two places. The denominator is floored at 1 so
// a zero-subtotal quote yields a harmless figure instead of a division
// blowup; the floor is a documented approximation for that edge.
func grossMarginPercent(subtotal, totalLanded decimal.Decimal) decimal.Decimal {
	denominator := subtotal
	one := decimal.NewFromInt(1)
	if denominator.LessThan(one) {
		denominator = one
	}
	return subtotal.Sub(totalLanded).Div(denominator).Mul(oneHundred).Round(2)
}

// checksum hashes the canonical rendering of the computed quote minus
// the audit metadata, so recomputing from identical frozen inputs can
// be verified regardless of when or by whom it ran.
func checksum(q *domain.Quote) string {
	var b strings.Builder
	for _, line := range q.Lines {
		fmt.Fprintf(&b, "%s|%d|%s|%s|%s|%s|%s\n",
			line.SKU,
			line.Quantity,
			line.UnitLandedCost.String(),
			line.AppliedPercent.String(),
			line.UnitPrice.String(),
			line.LineTotal.String(),
			line.AllocatedShipping.String(),
		)
	}
	for _, tax := range q.Totals.TaxLines {
		fmt.Fprintf(&b, "%s|%s|%s|%s\n",
			tax.Code,
			tax.Tier,
			tax.RatePercent.String(),
			tax.Amount.String(),
		)
	}
	fmt.Fprintf(&b, "%s|%s|%s|%s|%s|%s\n",
		q.Totals.Subtotal.String(),
		q.Totals.SubtotalWithCharges.String(),
		q.Totals.LevyTotal.String(),
		q.Totals.GrandTotal.String(),
		q.Totals.GrossMarginPercent.String(),
		q.Currency,
	)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
