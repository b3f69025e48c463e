// Package domain contains persistence models for the product catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
)

// CatalogItem is a sellable product with its itemized landed-cost
// components. SKU is the stable identifier quotes reference.
type CatalogItem struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	SKU         string       `gorm:"type:text;not null;uniqueIndex" json:"sku"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`

	UnitCost decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_cost"`
	WeightKg decimal.Decimal `gorm:"type:decimal(12,3);not null;default:0" json:"weight_kg"`

	FreightPerUnit   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"freight_per_unit"`
	DutyPerUnit      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"duty_per_unit"`
	InsurancePerUnit decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"insurance_per_unit"`
	PackagingPerUnit decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"packaging_per_unit"`
	OtherPerUnit     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"other_per_unit"`

	TierTag         string           `gorm:"type:text" json:"tier_tag,omitempty"`
	OverridePercent *decimal.Decimal `gorm:"type:decimal(8,4)" json:"override_percent,omitempty"`

	StockOnHand int64 `gorm:"not null;default:0" json:"stock_on_hand"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CatalogItem) TableName() string { return "catalog_items" }

// Entry converts the stored item into the engine's catalog form.
func (i CatalogItem) Entry() pricingdomain.CatalogEntry {
	return pricingdomain.CatalogEntry{
		Description: i.Description,
		UnitCost:    i.UnitCost,
		WeightKg:    i.WeightKg,
		Components: pricingdomain.CostComponents{
			Freight:   i.FreightPerUnit,
			Duty:      i.DutyPerUnit,
			Insurance: i.InsurancePerUnit,
			Packaging: i.PackagingPerUnit,
			Other:     i.OtherPerUnit,
		},
		TierTag:     i.TierTag,
		TierPercent: i.OverridePercent,
	}
}
