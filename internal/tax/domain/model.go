package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
)

// TaxRule is a configurable tax rule.
// NOTE:
// - code is a stable, engine-facing identifier (immutable once created);
//   rules are always matched by code, never by display name
// - name/description are UI-facing and editable
type TaxRule struct {
	ID snowflake.ID `gorm:"primaryKey"`

	Code        string                `gorm:"type:text;not null;uniqueIndex"`
	Name        string                `gorm:"type:text;not null"`
	RatePercent decimal.Decimal       `gorm:"type:decimal(8,4);not null"`
	Tier        pricingdomain.TaxTier `gorm:"type:text;not null"`
	Position    int                   `gorm:"not null;default:0"`
	Description *string               `gorm:"type:text"`

	IsEnabled bool `gorm:"column:is_enabled;not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TaxRule) TableName() string { return "tax_rules" }

func (t *TaxRule) Validate() error {
	if t.Code == "" {
		return ErrInvalidTaxCode
	}
	if t.Tier != pricingdomain.TaxTierSubtotal && t.Tier != pricingdomain.TaxTierLevyTotal {
		return ErrInvalidTaxTier
	}
	if t.RatePercent.IsNegative() {
		return ErrInvalidTaxRate
	}
	return nil
}

// Rule converts the stored row into the engine's rule form.
func (t TaxRule) Rule() pricingdomain.TaxRule {
	return pricingdomain.TaxRule{
		Code:        t.Code,
		Name:        t.Name,
		RatePercent: t.RatePercent,
		Tier:        t.Tier,
		Enabled:     t.IsEnabled,
		Position:    t.Position,
	}
}

// ConfigVersion is a single-row counter bumped inside the same
// transaction as every rule mutation. Computed quotes record the
// version they used; approval freezes the full rule set.
type ConfigVersion struct {
	ID        int64     `gorm:"primaryKey"`
	Version   int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (ConfigVersion) TableName() string { return "tax_config_versions" }
