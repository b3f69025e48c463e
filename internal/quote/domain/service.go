package domain

import (
	"context"

	"github.com/shopspring/decimal"
	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
	"github.com/stackbill/tradequote/pkg/db/pagination"
)

// DraftItem is an item as authored on a draft request.
type DraftItem struct {
	SKU             string           `json:"sku"`
	Quantity        int64            `json:"quantity"`
	OverridePercent *decimal.Decimal `json:"override_percent,omitempty"`
}

// CreateDraftRequest opens a new quote draft for a customer.
type CreateDraftRequest struct {
	CustomerID string          `json:"customer_id"`
	Items      []DraftItem     `json:"items"`
	Shipping   decimal.Decimal `json:"shipping"`
	Handling   decimal.Decimal `json:"handling"`
	Discount   decimal.Decimal `json:"discount"`
	Actor      string          `json:"-"`
}

// UpdateDraftRequest replaces the items and order-level charges of a
// draft. Only quotes in DRAFT accept updates.
type UpdateDraftRequest struct {
	Items    []DraftItem      `json:"items"`
	Shipping *decimal.Decimal `json:"shipping,omitempty"`
	Handling *decimal.Decimal `json:"handling,omitempty"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
	Actor    string           `json:"-"`
}

// ListRequest filters quote listings. Pages are cursor-based and
// ordered newest first.
type ListRequest struct {
	pagination.Pagination
	CustomerID string `form:"customer_id"`
	Status     string `form:"status"`
}

// ListResponse is one page of quotes.
type ListResponse struct {
	Quotes   []Quote             `json:"quotes"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

// Detail is a quote with its items and, when computed, the decoded
// engine output.
type Detail struct {
	Quote    Quote                `json:"quote"`
	Items    []QuoteItem          `json:"items"`
	Computed *pricingdomain.Quote `json:"computed,omitempty"`
}

// Service manages the quote lifecycle.
type Service interface {
	CreateDraft(ctx context.Context, req CreateDraftRequest) (*Detail, error)
	UpdateDraft(ctx context.Context, id string, req UpdateDraftRequest) (*Detail, error)
	Compute(ctx context.Context, id, actor string) (*Detail, error)
	Submit(ctx context.Context, id, actor string) (*Detail, error)
	Approve(ctx context.Context, id, actor string) (*Detail, error)
	Reject(ctx context.Context, id, actor string) (*Detail, error)
	Get(ctx context.Context, id string) (*Detail, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
}
