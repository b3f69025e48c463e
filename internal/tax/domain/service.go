package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
)

type Repository interface {
	Create(ctx context.Context, rule *TaxRule) error
	FindByCode(ctx context.Context, code string) (*TaxRule, error)
	List(ctx context.Context, req ListRequest) ([]TaxRule, error)
	Update(ctx context.Context, rule *TaxRule) error
	CurrentVersion(ctx context.Context) (int64, error)
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Disable(ctx context.Context, code string) (*Response, error)

	// ActiveRules returns the enabled rules in position order together
	// with the configuration version, read at one logical point in time.
	ActiveRules(ctx context.Context) ([]pricingdomain.TaxRule, int64, error)

	// Snapshot captures the full enabled rule set for freezing onto an
	// approved record.
	Snapshot(ctx context.Context) (*pricingdomain.TaxSnapshot, error)
}

type ListRequest struct {
	Code      string
	IsEnabled *bool
}

type CreateRequest struct {
	Code        string                `json:"code"`
	Name        string                `json:"name"`
	RatePercent decimal.Decimal       `json:"rate_percent"`
	Tier        pricingdomain.TaxTier `json:"tier"`
	Position    int                   `json:"position"`
	Description *string               `json:"description"`
	IsEnabled   *bool                 `json:"is_enabled"`
}

type UpdateRequest struct {
	Code        string                 `json:"code"`
	Name        *string                `json:"name,omitempty"`
	RatePercent *decimal.Decimal       `json:"rate_percent,omitempty"`
	Tier        *pricingdomain.TaxTier `json:"tier,omitempty"`
	Position    *int                   `json:"position,omitempty"`
	Description *string                `json:"description,omitempty"`
	IsEnabled   *bool                  `json:"is_enabled,omitempty"`
}

type Response struct {
	ID          string                `json:"id"`
	Code        string                `json:"code"`
	Name        string                `json:"name"`
	RatePercent decimal.Decimal       `json:"rate_percent"`
	Tier        pricingdomain.TaxTier `json:"tier"`
	Position    int                   `json:"position"`
	Description *string               `json:"description,omitempty"`
	IsEnabled   bool                  `json:"is_enabled"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
}
