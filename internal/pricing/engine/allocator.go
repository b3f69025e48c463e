package engine

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stackbill/tradequote/internal/pricing/domain"
)

// AllocateShipping distributes the order-level shipping charge across
// line items. Handling and discount are never allocated; they stay at
// the order level.
//
// Allocation keys per method: weight uses quantity x weightKg (weight
// defaults to 1 when unset), value uses quantity x unit cost, equal
// uses quantity. When every key is zero the charge is split equally
// across the number of lines instead. The returned amounts always sum
// to exactly the shipping charge: each share is rounded to the
// configured precision and the rounding remainder, positive or
// negative, is assigned to the first line.
func (e *Engine) AllocateShipping(lines []domain.LineItem, charges domain.OrderCharges, settings domain.Settings) map[string]decimal.Decimal {
	allocations := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		allocations[line.SKU] = decimal.Zero
	}

	shipping := charges.Shipping
	if len(lines) == 0 || shipping.IsZero() {
		return allocations
	}

	method := settings.Allocation
	switch method {
	case domain.AllocationByWeight, domain.AllocationByValue, domain.AllocationEqual:
	default:
		// Unrecognized method is a configuration error, not a
		// computation failure; fall back to the documented default.
		e.log.Warn("unrecognized allocation method, falling back to equal",
			zap.String("method", string(method)))
		method = domain.AllocationEqual
	}

	decimals := roundingDecimals(settings)

	keys := make([]decimal.Decimal, len(lines))
	keySum := decimal.Zero
	for i, line := range lines {
		keys[i] = allocationKey(line, method)
		keySum = keySum.Add(keys[i])
	}

	if keySum.IsZero() {
		// All quantities zero: equal split across lines, not units.
		count := decimal.NewFromInt(int64(len(lines)))
		for i := range keys {
			keys[i] = decimal.NewFromInt(1)
		}
		keySum = count
	}

	allocatedSum := decimal.Zero
	for i, line := range lines {
		share := round(shipping.Mul(keys[i]).Div(keySum), decimals)
		allocations[line.SKU] = allocations[line.SKU].Add(share)
		allocatedSum = allocatedSum.Add(share)
	}

	// Remainder policy: pin any rounding drift onto the first line so
	// the allocated amounts conserve the charge exactly.
	if remainder := shipping.Sub(allocatedSum); !remainder.IsZero() {
		first := lines[0].SKU
		allocations[first] = allocations[first].Add(remainder)
	}

	return allocations
}

func allocationKey(line domain.LineItem, method domain.AllocationMethod) decimal.Decimal {
	qty := decimal.NewFromInt(line.Quantity)
	switch method {
	case domain.AllocationByWeight:
		weight := line.WeightKg
		if weight.IsZero() {
			weight = decimal.NewFromInt(1)
		}
		return qty.Mul(weight)
	case domain.AllocationByValue:
		return qty.Mul(line.UnitCost)
	default:
		return qty
	}
}
