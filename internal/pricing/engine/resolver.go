package engine

import (
	"github.com/stackbill/tradequote/internal/pricing/domain"
)

// ResolveLines merges draft lines with catalog data into fully resolved
// line items. The catalog map must come from a single consistent read;
// a SKU missing from it is a validation error identifying the line.
func (e *Engine) ResolveLines(drafts []domain.DraftLine, catalog map[string]domain.CatalogEntry) ([]domain.LineItem, error) {
	lines := make([]domain.LineItem, 0, len(drafts))
	for i, draft := range drafts {
		if draft.Quantity < 0 {
			return nil, domain.NewLineError(i, draft.SKU, domain.ErrInvalidQuantity)
		}

		entry, ok := catalog[draft.SKU]
		if !ok {
			return nil, domain.NewLineError(i, draft.SKU, domain.ErrUnknownSKU)
		}

		override := draft.OverridePercent
		if override == nil && entry.TierPercent != nil {
			// Pricing-tier percent from the catalog acts as a
			// per-item override when the draft carries none.
			override = entry.TierPercent
		}

		lines = append(lines, domain.LineItem{
			SKU:             draft.SKU,
			Description:     entry.Description,
			Quantity:        draft.Quantity,
			UnitCost:        entry.UnitCost,
			Components:      entry.Components,
			WeightKg:        entry.WeightKg,
			OverridePercent: override,
			TierTag:         entry.TierTag,
		})
	}
	return lines, nil
}
