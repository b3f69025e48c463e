// Package domain contains persistence models for quotes and their
// lifecycle. A quote starts as a draft, is computed by the pricing
// engine, and on approval becomes the invoice of record with its tax
// and pricing configuration frozen onto it.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Status represents quote lifecycle states.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
)

// Quote is a quote/invoice record. Computed, TaxSnapshot and
// SettingsSnapshot hold JSON-encoded engine output and frozen
// configuration; once Status is APPROVED they are never rewritten.
type Quote struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Number     string       `gorm:"type:text;not null;uniqueIndex" json:"number"`
	CustomerID snowflake.ID `gorm:"not null;index" json:"customer_id"`
	Status     Status       `gorm:"type:text;not null;default:'DRAFT';index" json:"status"`

	Currency string `gorm:"type:text;not null" json:"currency"`
	Incoterm string `gorm:"type:text" json:"incoterm,omitempty"`

	Shipping decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"shipping"`
	Handling decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"handling"`
	Discount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"discount"`

	GrandTotal decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"grand_total"`

	Computed         datatypes.JSON `gorm:"" json:"computed,omitempty"`
	TaxSnapshot      datatypes.JSON `gorm:"" json:"tax_snapshot,omitempty"`
	SettingsSnapshot datatypes.JSON `gorm:"" json:"settings_snapshot,omitempty"`
	TaxConfigVersion int64          `gorm:"not null;default:0" json:"tax_config_version"`

	EngineVersion string     `gorm:"type:text" json:"engine_version,omitempty"`
	Checksum      string     `gorm:"type:text" json:"checksum,omitempty"`
	ComputedAt    *time.Time `gorm:"" json:"computed_at,omitempty"`
	ComputedBy    string     `gorm:"type:text" json:"computed_by,omitempty"`

	InvoiceNumber *string    `gorm:"type:text;uniqueIndex" json:"invoice_number,omitempty"`
	ApprovedAt    *time.Time `gorm:"" json:"approved_at,omitempty"`
	ApprovedBy    string     `gorm:"type:text" json:"approved_by,omitempty"`
	RejectedAt    *time.Time `gorm:"" json:"rejected_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Quote) TableName() string { return "quotes" }

// QuoteItem is one authored line on a quote draft.
type QuoteItem struct {
	ID              snowflake.ID     `gorm:"primaryKey" json:"id"`
	QuoteID         snowflake.ID     `gorm:"not null;index" json:"quote_id"`
	SKU             string           `gorm:"type:text;not null" json:"sku"`
	Quantity        int64            `gorm:"not null" json:"quantity"`
	OverridePercent *decimal.Decimal `gorm:"type:decimal(8,4)" json:"override_percent,omitempty"`
	Position        int              `gorm:"not null;default:0" json:"position"`
	CreatedAt       time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (QuoteItem) TableName() string { return "quote_items" }
