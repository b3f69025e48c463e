// Package domain contains the value types consumed and produced by the
// pricing engine. Everything here is plain data: no gorm tags, no I/O,
// so the engine can be shared by the API, reporting, and rendering paths
// without dragging persistence along.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricingMode selects how the effective percent is applied to landed cost.
type PricingMode string

const (
	PricingModeMarkup PricingMode = "markup"
	PricingModeMargin PricingMode = "margin"
)

// AllocationMethod selects the key used to spread order-level shipping
// across line items.
type AllocationMethod string

const (
	AllocationByWeight AllocationMethod = "weight"
	AllocationByValue  AllocationMethod = "value"
	AllocationEqual    AllocationMethod = "equal"
)

// TaxTier identifies the base a tax rule is computed on.
type TaxTier string

const (
	// TaxTierSubtotal rules apply to the charge-adjusted subtotal.
	TaxTierSubtotal TaxTier = "subtotal"
	// TaxTierLevyTotal rules apply to the subtotal after all
	// subtotal-tier levies have been added (compounding).
	TaxTierLevyTotal TaxTier = "levy_total"
)

// CostComponents are the per-unit landed-cost additions carried by a
// catalog item. All fields are optional; a zero value contributes nothing.
type CostComponents struct {
	Freight   decimal.Decimal `json:"freight"`
	Duty      decimal.Decimal `json:"duty"`
	Insurance decimal.Decimal `json:"insurance"`
	Packaging decimal.Decimal `json:"packaging"`
	Other     decimal.Decimal `json:"other"`
}

// Sum returns the total per-unit cost-component addition.
func (c CostComponents) Sum() decimal.Decimal {
	return c.Freight.Add(c.Duty).Add(c.Insurance).Add(c.Packaging).Add(c.Other)
}

// DraftLine is a line item as authored on a quote draft, before catalog
// data has been merged in.
type DraftLine struct {
	SKU             string           `json:"sku"`
	Quantity        int64            `json:"quantity"`
	OverridePercent *decimal.Decimal `json:"override_percent,omitempty"`
}

// CatalogEntry is the catalog data the engine needs for one SKU.
type CatalogEntry struct {
	Description string           `json:"description"`
	UnitCost    decimal.Decimal  `json:"unit_cost"`
	WeightKg    decimal.Decimal  `json:"weight_kg"`
	Components  CostComponents   `json:"components"`
	TierTag     string           `json:"tier_tag,omitempty"`
	TierPercent *decimal.Decimal `json:"tier_percent,omitempty"`
}

// LineItem is a fully resolved quote line: draft input merged with
// catalog data. Immutable once a quote is computed; a re-draft produces
// new lines.
type LineItem struct {
	SKU             string           `json:"sku"`
	Description     string           `json:"description"`
	Quantity        int64            `json:"quantity"`
	UnitCost        decimal.Decimal  `json:"unit_cost"`
	Components      CostComponents   `json:"components"`
	WeightKg        decimal.Decimal  `json:"weight_kg"`
	OverridePercent *decimal.Decimal `json:"override_percent,omitempty"`
	TierTag         string           `json:"tier_tag,omitempty"`
}

// OrderCharges are the order-level amounts. Only shipping is allocated
// across lines; handling and discount stay order-level.
type OrderCharges struct {
	Shipping decimal.Decimal `json:"shipping"`
	Handling decimal.Decimal `json:"handling"`
	Discount decimal.Decimal `json:"discount"`
}

// Settings is the pricing configuration in effect for one computation.
// It is read once per computation; already-approved invoices are
// insulated from later changes by their frozen snapshots.
type Settings struct {
	DefaultPercent   *decimal.Decimal `json:"default_percent"`
	Mode             PricingMode      `json:"mode"`
	Allocation       AllocationMethod `json:"allocation"`
	RoundingDecimals int32            `json:"rounding_decimals"`
	Currency         string           `json:"currency"`
	Incoterm         string           `json:"incoterm"`
}

// TaxRule is one ordered, data-driven tax rule. Rules are matched by
// stable Code, never by display name.
type TaxRule struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	RatePercent decimal.Decimal `json:"rate_percent"`
	Tier        TaxTier         `json:"tier"`
	Enabled     bool            `json:"enabled"`
	Position    int             `json:"position"`
}

// TaxSnapshot is the immutable tax configuration frozen onto a record
// at approval time.
type TaxSnapshot struct {
	Version    int64     `json:"version"`
	CapturedAt time.Time `json:"captured_at"`
	Rules      []TaxRule `json:"rules"`
}

// ComputedLine is a priced line item.
type ComputedLine struct {
	LineItem
	AllocatedShipping decimal.Decimal `json:"allocated_shipping"`
	UnitLandedCost    decimal.Decimal `json:"unit_landed_cost"`
	AppliedPercent    decimal.Decimal `json:"applied_percent"`
	UnitPrice         decimal.Decimal `json:"unit_price"`
	LineTotal         decimal.Decimal `json:"line_total"`
}

// TaxLine is one computed tax amount, keyed by rule code.
type TaxLine struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Tier        TaxTier         `json:"tier"`
	RatePercent decimal.Decimal `json:"rate_percent"`
	Amount      decimal.Decimal `json:"amount"`
}

// Totals are the order-level computed amounts.
//
// Invariants:
//
//	subtotalWithCharges = subtotal + shipping + handling - discount
//	levyTotal  = subtotalWithCharges + sum(subtotal-tier amounts)
//	grandTotal = levyTotal + sum(levy-tier amounts)
type Totals struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	Shipping            decimal.Decimal `json:"shipping"`
	Handling            decimal.Decimal `json:"handling"`
	Discount            decimal.Decimal `json:"discount"`
	SubtotalWithCharges decimal.Decimal `json:"subtotal_with_charges"`
	TaxLines            []TaxLine       `json:"tax_lines"`
	LevyTotal           decimal.Decimal `json:"levy_total"`
	GrandTotal          decimal.Decimal `json:"grand_total"`
	TotalLandedCost     decimal.Decimal `json:"total_landed_cost"`
	GrossMarginPercent  decimal.Decimal `json:"gross_margin_percent"`
}

// TaxAmount returns the computed amount for a rule code and whether the
// rule contributed to this computation.
func (t Totals) TaxAmount(code string) (decimal.Decimal, bool) {
	for _, line := range t.TaxLines {
		if line.Code == code {
			return line.Amount, true
		}
	}
	return decimal.Zero, false
}

// AuditMeta records who computed a quote, when, and with which engine
// revision. Required for dispute resolution.
type AuditMeta struct {
	EngineVersion string    `json:"engine_version"`
	ComputedAt    time.Time `json:"computed_at"`
	ComputedBy    string    `json:"computed_by"`
}

// Quote is the fully computed output: per-line results, order totals,
// and audit metadata. Recomputation produces a new Quote, never an
// in-place edit.
type Quote struct {
	Lines    []ComputedLine `json:"lines"`
	Totals   Totals         `json:"totals"`
	Currency string         `json:"currency"`
	Incoterm string         `json:"incoterm,omitempty"`
	Meta     AuditMeta      `json:"meta"`
	Checksum string         `json:"checksum"`
}
