package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid_quote_id")
	ErrNotFound          = errors.New("quote_not_found")
	ErrNoItems           = errors.New("quote_has_no_items")
	ErrDuplicateSKU      = errors.New("duplicate_sku_on_quote")
	ErrInvalidCharge     = errors.New("invalid_charge_amount")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrApprovalConflict  = errors.New("approval_conflict")
	ErrNotEditable       = errors.New("quote_not_editable")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
)
