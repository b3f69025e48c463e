package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/stackbill/tradequote/internal/pricing/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testSettings() domain.Settings {
	markup := dec("32")
	return domain.Settings{
		DefaultPercent:   &markup,
		Mode:             domain.PricingModeMarkup,
		Allocation:       domain.AllocationByWeight,
		RoundingDecimals: 2,
		Currency:         "USD",
	}
}

func TestAllocateShipping_WeightConservation(t *testing.T) {
	e := New(zap.NewNop())

	lines := []domain.LineItem{
		{SKU: "PUMP-100", Quantity: 2, UnitCost: dec("400.00"), WeightKg: dec("12.5")},
		{SKU: "VALVE-20", Quantity: 5, UnitCost: dec("35.00"), WeightKg: dec("1.4")},
	}
	charges := domain.OrderCharges{Shipping: dec("50.00")}

	allocations := e.AllocateShipping(lines, charges, testSettings())

	sum := decimal.Zero
	for _, amount := range allocations {
		sum = sum.Add(amount)
	}
	assert.Equal(t, "50.00", sum.StringFixed(2), "allocated shipping must conserve the charge exactly")

	// Heavier line carries the larger share.
	assert.True(t, allocations["PUMP-100"].GreaterThan(allocations["VALVE-20"]))
}

func TestAllocateShipping_ZeroShippingIsNoOp(t *testing.T) {
	e := New(zap.NewNop())

	lines := []domain.LineItem{
		{SKU: "A", Quantity: 3, UnitCost: dec("10")},
		{SKU: "B", Quantity: 1, UnitCost: dec("99")},
	}

	allocations := e.AllocateShipping(lines, domain.OrderCharges{}, testSettings())

	require.Len(t, allocations, 2)
	assert.True(t, allocations["A"].IsZero())
	assert.True(t, allocations["B"].IsZero())
}

func TestAllocateShipping_ZeroKeySumFallsBackToEqualSplit(t *testing.T) {
	e := New(zap.NewNop())

	// All quantities zero: split across line count, not quantity units.
	lines := []domain.LineItem{
		{SKU: "A", Quantity: 0, UnitCost: dec("10")},
		{SKU: "B", Quantity: 0, UnitCost: dec("20")},
	}
	charges := domain.OrderCharges{Shipping: dec("30.00")}

	allocations := e.AllocateShipping(lines, charges, testSettings())

	assert.Equal(t, "15.00", allocations["A"].StringFixed(2))
	assert.Equal(t, "15.00", allocations["B"].StringFixed(2))
}

func TestAllocateShipping_RemainderGoesToFirstLine(t *testing.T) {
	e := New(zap.NewNop())

	settings := testSettings()
	settings.Allocation = domain.AllocationEqual

	lines := []domain.LineItem{
		{SKU: "A", Quantity: 1},
		{SKU: "B", Quantity: 1},
		{SKU: "C", Quantity: 1},
	}
	charges := domain.OrderCharges{Shipping: dec("100.00")}

	allocations := e.AllocateShipping(lines, charges, settings)

	// 100/3 rounds to 33.33 per line; the 0.01 deficit lands on A.
	assert.Equal(t, "33.34", allocations["A"].StringFixed(2))
	assert.Equal(t, "33.33", allocations["B"].StringFixed(2))
	assert.Equal(t, "33.33", allocations["C"].StringFixed(2))
}

func TestAllocateShipping_ByValue(t *testing.T) {
	e := New(zap.NewNop())

	settings := testSettings()
	settings.Allocation = domain.AllocationByValue

	lines := []domain.LineItem{
		{SKU: "A", Quantity: 1, UnitCost: dec("300.00")},
		{SKU: "B", Quantity: 1, UnitCost: dec("100.00")},
	}
	charges := domain.OrderCharges{Shipping: dec("40.00")}

	allocations := e.AllocateShipping(lines, charges, settings)

	assert.Equal(t, "30.00", allocations["A"].StringFixed(2))
	assert.Equal(t, "10.00", allocations["B"].StringFixed(2))
}

func TestAllocateShipping_WeightDefaultsToOne(t *testing.T) {
	e := New(zap.NewNop())

	lines := []domain.LineItem{
		{SKU: "A", Quantity: 2}, // no weight set
		{SKU: "B", Quantity: 2, WeightKg: dec("3")},
	}
	charges := domain.OrderCharges{Shipping: dec("80.00")}

	allocations := e.AllocateShipping(lines, charges, testSettings())

	// Keys: A = 2x1 = 2, B = 2x3 = 6.
	assert.Equal(t, "20.00", allocations["A"].StringFixed(2))
	assert.Equal(t, "60.00", allocations["B"].StringFixed(2))
}

func TestAllocateShipping_UnrecognizedMethodFallsBackToEqual(t *testing.T) {
	e := New(zap.NewNop())

	settings := testSettings()
	settings.Allocation = domain.AllocationMethod("by_vibes")

	lines := []domain.LineItem{
		{SKU: "A", Quantity: 1},
		{SKU: "B", Quantity: 3},
	}
	charges := domain.OrderCharges{Shipping: dec("40.00")}

	allocations := e.AllocateShipping(lines, charges, settings)

	assert.Equal(t, "10.00", allocations["A"].StringFixed(2))
	assert.Equal(t, "30.00", allocations["B"].StringFixed(2))
}
