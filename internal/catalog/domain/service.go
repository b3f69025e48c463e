package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
)

type Service interface {
	Create(ctx context.Context, req CreateItemRequest) (*CatalogItem, error)
	Update(ctx context.Context, sku string, req UpdateItemRequest) (*CatalogItem, error)
	Get(ctx context.Context, sku string) (*CatalogItem, error)
	List(ctx context.Context) ([]*CatalogItem, error)
	Delete(ctx context.Context, sku string) error

	// Lookup fetches the engine's catalog view for the given SKUs in a
	// single query, so every line of a quote is priced against the same
	// catalog state.
	Lookup(ctx context.Context, skus []string) (map[string]pricingdomain.CatalogEntry, error)

	// DecrementStockTx reduces stock inside the caller's transaction,
	// failing when the remaining stock cannot cover the quantity.
	DecrementStockTx(ctx context.Context, tx *gorm.DB, sku string, quantity int64) error
}

type CreateItemRequest struct {
	SKU              string           `json:"sku"`
	Name             string           `json:"name"`
	Description      string           `json:"description"`
	UnitCost         decimal.Decimal  `json:"unit_cost"`
	WeightKg         decimal.Decimal  `json:"weight_kg"`
	FreightPerUnit   decimal.Decimal  `json:"freight_per_unit"`
	DutyPerUnit      decimal.Decimal  `json:"duty_per_unit"`
	InsurancePerUnit decimal.Decimal  `json:"insurance_per_unit"`
	PackagingPerUnit decimal.Decimal  `json:"packaging_per_unit"`
	OtherPerUnit     decimal.Decimal  `json:"other_per_unit"`
	TierTag          string           `json:"tier_tag"`
	OverridePercent  *decimal.Decimal `json:"override_percent"`
	StockOnHand      int64            `json:"stock_on_hand"`
}

type UpdateItemRequest struct {
	Name             *string          `json:"name,omitempty"`
	Description      *string          `json:"description,omitempty"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	WeightKg         *decimal.Decimal `json:"weight_kg,omitempty"`
	FreightPerUnit   *decimal.Decimal `json:"freight_per_unit,omitempty"`
	DutyPerUnit      *decimal.Decimal `json:"duty_per_unit,omitempty"`
	InsurancePerUnit *decimal.Decimal `json:"insurance_per_unit,omitempty"`
	PackagingPerUnit *decimal.Decimal `json:"packaging_per_unit,omitempty"`
	OtherPerUnit     *decimal.Decimal `json:"other_per_unit,omitempty"`
	TierTag          *string          `json:"tier_tag,omitempty"`
	OverridePercent  *decimal.Decimal `json:"override_percent,omitempty"`
	StockOnHand      *int64           `json:"stock_on_hand,omitempty"`
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidUnitCost   = errors.New("invalid_unit_cost")
	ErrInvalidComponent  = errors.New("invalid_cost_component")
	ErrNotFound          = errors.New("item_not_found")
	ErrDuplicateSKU      = errors.New("duplicate_sku")
	ErrInsufficientStock = errors.New("insufficient_stock")
)
