package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	auditdomain "github.com/stackbill/tradequote/internal/audit/domain"
	catalogdomain "github.com/stackbill/tradequote/internal/catalog/domain"
	"github.com/stackbill/tradequote/internal/clock"
	"github.com/stackbill/tradequote/internal/config"
	customerdomain "github.com/stackbill/tradequote/internal/customer/domain"
	"github.com/stackbill/tradequote/internal/observability"
	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
	"github.com/stackbill/tradequote/internal/pricing/engine"
	"github.com/stackbill/tradequote/internal/quote/domain"
	taxdomain "github.com/stackbill/tradequote/internal/tax/domain"
	"github.com/stackbill/tradequote/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Engine    *engine.Engine
	Pricing   *config.PricingConfigHolder
	Catalog   catalogdomain.Service
	Taxes     taxdomain.Service
	Customers customerdomain.Service
	Audit     auditdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	engine    *engine.Engine
	pricing   *config.PricingConfigHolder
	catalog   catalogdomain.Service
	taxes     taxdomain.Service
	customers customerdomain.Service
	audit     auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("quote.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		engine:    p.Engine,
		pricing:   p.Pricing,
		catalog:   p.Catalog,
		taxes:     p.Taxes,
		customers: p.Customers,
		audit:     p.Audit,
	}
}

func (s *Service) CreateDraft(ctx context.Context, req domain.CreateDraftRequest) (*domain.Detail, error) {
	customer, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}
	if err := validateCharges(req.Shipping, req.Handling, req.Discount); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	id := s.genID.Generate()
	cfg := s.pricing.Settings()

	quote := domain.Quote{
		ID:         id,
		Number:     "Q-" + id.String(),
		CustomerID: customer.ID,
		Status:     domain.StatusDraft,
		Currency:   cfg.Currency,
		Incoterm:   cfg.Incoterm,
		Shipping:   req.Shipping,
		Handling:   req.Handling,
		Discount:   req.Discount,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	items := s.buildItems(id, req.Items, now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&quote).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	idStr := id.String()
	_ = s.audit.AuditLog(ctx, req.Actor, "quote.create", "quote", &idStr, map[string]any{
		"number":      quote.Number,
		"customer_id": customer.ID.String(),
		"item_count":  len(items),
	})

	return s.detail(quote, items)
}

func (s *Service) UpdateDraft(ctx context.Context, id string, req domain.UpdateDraftRequest) (*domain.Detail, error) {
	quote, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.StatusDraft {
		return nil, domain.ErrNotEditable
	}
	if err := validateItems(req.Items); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	updates := map[string]any{
		"updated_at":  now,
		// any edit invalidates a previous computation
		"computed":    nil,
		"checksum":    "",
		"grand_total": decimal.Zero,
	}
	if req.Shipping != nil {
		updates["shipping"] = *req.Shipping
	}
	if req.Handling != nil {
		updates["handling"] = *req.Handling
	}
	if req.Discount != nil {
		updates["discount"] = *req.Discount
	}
	if err := validateCharges(
		chargeOr(req.Shipping, quote.Shipping),
		chargeOr(req.Handling, quote.Handling),
		chargeOr(req.Discount, quote.Discount),
	); err != nil {
		return nil, err
	}

	items := s.buildItems(quote.ID, req.Items, now)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", quote.ID).Delete(&domain.QuoteItem{}).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return tx.Model(&domain.Quote{}).Where("id = ?", quote.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	idStr := quote.ID.String()
	_ = s.audit.AuditLog(ctx, req.Actor, "quote.update", "quote", &idStr, map[string]any{
		"item_count": len(items),
	})

	return s.Get(ctx, id)
}

// Compute prices the quote and persists the engine output. An approved
// quote is recomputed strictly from its frozen snapshots and the stored
// record is left untouched; this is the verification path for disputes.
func (s *Service) Compute(ctx context.Context, id, actor string) (*domain.Detail, error) {
	quote, items, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.ErrNoItems
	}

	computed, version, err := s.run(ctx, quote, items, actor)
	if err != nil {
		return nil, err
	}
	observability.QuoteComputations.Inc()

	if quote.Status == domain.StatusApproved {
		return &domain.Detail{Quote: *quote, Items: items, Computed: computed}, nil
	}

	if err := s.persistComputation(ctx, s.db, quote, computed, version); err != nil {
		return nil, err
	}

	idStr := quote.ID.String()
	_ = s.audit.AuditLog(ctx, actor, "quote.compute", "quote", &idStr, map[string]any{
		"grand_total": computed.Totals.GrandTotal.String(),
		"checksum":    computed.Checksum,
	})

	return s.Get(ctx, id)
}

// Submit recomputes the draft so the figures under review are current,
// then moves it to PENDING_APPROVAL.
func (s *Service) Submit(ctx context.Context, id, actor string) (*domain.Detail, error) {
	detail, err := s.Compute(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if detail.Quote.Status != domain.StatusDraft {
		return nil, domain.ErrInvalidTransition
	}

	now := s.clock.Now()
	res := s.db.WithContext(ctx).Model(&domain.Quote{}).
		Where("id = ? AND status = ?", detail.Quote.ID, domain.StatusDraft).
		Updates(map[string]any{"status": domain.StatusPendingApproval, "updated_at": now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrInvalidTransition
	}

	idStr := detail.Quote.ID.String()
	_ = s.audit.AuditLog(ctx, actor, "quote.submit", "quote", &idStr, nil)

	return s.Get(ctx, id)
}

// Approve finalizes a pending quote. Everything happens in one
// transaction: the status flip is guarded so two racing approvals
// cannot both win, stock is decremented with a non-negative guard, the
// tax rules and pricing settings in effect are frozen onto the record,
// an invoice number is assigned, and the audit entry is written. Any
// failure rolls the whole thing back.
func (s *Service) Approve(ctx context.Context, id, actor string) (*domain.Detail, error) {
	quote, items, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.StatusPendingApproval {
		return nil, domain.ErrInvalidTransition
	}
	if len(items) == 0 {
		return nil, domain.ErrNoItems
	}

	snapshot, err := s.taxes.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	settings := s.pricing.Settings()

	computed, err := s.compute(ctx, quote, items, settings, snapshot.Rules, actor)
	if err != nil {
		return nil, err
	}

	computedJSON, err := json.Marshal(computed)
	if err != nil {
		return nil, err
	}
	taxJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	invoiceNumber := "INV-" + ulid.Make().String()
	idStr := quote.ID.String()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := s.catalog.DecrementStockTx(ctx, tx, item.SKU, item.Quantity); err != nil {
				return err
			}
		}

		res := tx.Model(&domain.Quote{}).
			Where("id = ? AND status = ?", quote.ID, domain.StatusPendingApproval).
			Updates(map[string]any{
				"status":             domain.StatusApproved,
				"computed":           datatypes.JSON(computedJSON),
				"tax_snapshot":       datatypes.JSON(taxJSON),
				"settings_snapshot":  datatypes.JSON(settingsJSON),
				"tax_config_version": snapshot.Version,
				"grand_total":        computed.Totals.GrandTotal,
				"checksum":           computed.Checksum,
				"engine_version":     computed.Meta.EngineVersion,
				"computed_at":        now,
				"computed_by":        actor,
				"invoice_number":     invoiceNumber,
				"approved_at":        now,
				"approved_by":        actor,
				"updated_at":         now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrApprovalConflict
		}

		return s.audit.AuditLogTx(ctx, tx, actor, "quote.approve", "quote", &idStr, map[string]any{
			"invoice_number":     invoiceNumber,
			"grand_total":        computed.Totals.GrandTotal.String(),
			"tax_config_version": snapshot.Version,
			"checksum":           computed.Checksum,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrApprovalConflict) {
			observability.ApprovalConflicts.Inc()
		}
		return nil, err
	}
	observability.QuoteApprovals.Inc()

	s.log.Info("quote approved",
		zap.String("quote_id", idStr),
		zap.String("invoice_number", invoiceNumber),
		zap.Int64("tax_config_version", snapshot.Version),
	)

	return s.Get(ctx, id)
}

func (s *Service) Reject(ctx context.Context, id, actor string) (*domain.Detail, error) {
	quote, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Status != domain.StatusPendingApproval {
		return nil, domain.ErrInvalidTransition
	}

	now := s.clock.Now()
	res := s.db.WithContext(ctx).Model(&domain.Quote{}).
		Where("id = ? AND status = ?", quote.ID, domain.StatusPendingApproval).
		Updates(map[string]any{
			"status":      domain.StatusRejected,
			"rejected_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrInvalidTransition
	}

	idStr := quote.ID.String()
	_ = s.audit.AuditLog(ctx, actor, "quote.reject", "quote", &idStr, nil)

	return s.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Detail, error) {
	quote, items, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(*quote, items)
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	stmt := s.db.WithContext(ctx).Model(&domain.Quote{})
	if customerID := strings.TrimSpace(req.CustomerID); customerID != "" {
		parsed, err := snowflake.ParseString(customerID)
		if err != nil {
			return nil, customerdomain.ErrInvalidID
		}
		stmt = stmt.Where("customer_id = ?", parsed)
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		stmt = stmt.Where("status = ?", strings.ToUpper(status))
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 250 {
		pageSize = 250
	}

	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		stmt = stmt.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
	}

	var quotes []domain.Quote
	if err := stmt.Order("created_at DESC, id DESC").Limit(pageSize + 1).Find(&quotes).Error; err != nil {
		return nil, err
	}

	resp := &domain.ListResponse{Quotes: quotes}
	if len(quotes) > pageSize {
		resp.Quotes = quotes[:pageSize]
		last := resp.Quotes[len(resp.Quotes)-1]
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        last.ID.String(),
			CreatedAt: last.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return nil, err
		}
		resp.PageInfo = pagination.PageInfo{NextPageToken: token, HasMore: true}
	}
	return resp, nil
}

// run computes the quote with the inputs its status dictates: live
// configuration for anything editable, frozen snapshots for APPROVED.
func (s *Service) run(ctx context.Context, quote *domain.Quote, items []domain.QuoteItem, actor string) (*pricingdomain.Quote, int64, error) {
	if quote.Status == domain.StatusApproved {
		var snapshot pricingdomain.TaxSnapshot
		if err := json.Unmarshal(quote.TaxSnapshot, &snapshot); err != nil {
			return nil, 0, err
		}
		var settings pricingdomain.Settings
		if err := json.Unmarshal(quote.SettingsSnapshot, &settings); err != nil {
			return nil, 0, err
		}
		computed, err := s.compute(ctx, quote, items, settings, snapshot.Rules, actor)
		return computed, snapshot.Version, err
	}

	rules, version, err := s.taxes.ActiveRules(ctx)
	if err != nil {
		return nil, 0, err
	}
	computed, err := s.compute(ctx, quote, items, s.pricing.Settings(), rules, actor)
	return computed, version, err
}

func (s *Service) compute(ctx context.Context, quote *domain.Quote, items []domain.QuoteItem, settings pricingdomain.Settings, rules []pricingdomain.TaxRule, actor string) (*pricingdomain.Quote, error) {
	skus := make([]string, 0, len(items))
	lines := make([]pricingdomain.DraftLine, 0, len(items))
	for _, item := range items {
		skus = append(skus, item.SKU)
		lines = append(lines, pricingdomain.DraftLine{
			SKU:             item.SKU,
			Quantity:        item.Quantity,
			OverridePercent: item.OverridePercent,
		})
	}

	catalog, err := s.catalog.Lookup(ctx, skus)
	if err != nil {
		return nil, err
	}

	return s.engine.Compute(engine.Input{
		Lines:   lines,
		Catalog: catalog,
		Charges: pricingdomain.OrderCharges{
			Shipping: quote.Shipping,
			Handling: quote.Handling,
			Discount: quote.Discount,
		},
		Settings:   settings,
		TaxRules:   rules,
		ComputedBy: actor,
		ComputedAt: s.clock.Now(),
	})
}

func (s *Service) persistComputation(ctx context.Context, db *gorm.DB, quote *domain.Quote, computed *pricingdomain.Quote, version int64) error {
	computedJSON, err := json.Marshal(computed)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&domain.Quote{}).
		Where("id = ?", quote.ID).
		Updates(map[string]any{
			"computed":           datatypes.JSON(computedJSON),
			"tax_config_version": version,
			"grand_total":        computed.Totals.GrandTotal,
			"checksum":           computed.Checksum,
			"engine_version":     computed.Meta.EngineVersion,
			"computed_at":        computed.Meta.ComputedAt,
			"computed_by":        computed.Meta.ComputedBy,
			"currency":           computed.Currency,
			"incoterm":           computed.Incoterm,
			"updated_at":         s.clock.Now(),
		}).Error
}

func (s *Service) load(ctx context.Context, id string) (*domain.Quote, []domain.QuoteItem, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, nil, domain.ErrInvalidID
	}

	var quote domain.Quote
	if err := s.db.WithContext(ctx).Where("id = ?", parsed).First(&quote).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, domain.ErrNotFound
		}
		return nil, nil, err
	}

	var items []domain.QuoteItem
	if err := s.db.WithContext(ctx).
		Where("quote_id = ?", quote.ID).
		Order("position ASC").
		Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &quote, items, nil
}

func (s *Service) detail(quote domain.Quote, items []domain.QuoteItem) (*domain.Detail, error) {
	detail := &domain.Detail{Quote: quote, Items: items}
	if len(quote.Computed) > 0 {
		var computed pricingdomain.Quote
		if err := json.Unmarshal(quote.Computed, &computed); err != nil {
			return nil, err
		}
		detail.Computed = &computed
	}
	return detail, nil
}

func (s *Service) buildItems(quoteID snowflake.ID, drafts []domain.DraftItem, now time.Time) []domain.QuoteItem {
	items := make([]domain.QuoteItem, 0, len(drafts))
	for i, draft := range drafts {
		items = append(items, domain.QuoteItem{
			ID:              s.genID.Generate(),
			QuoteID:         quoteID,
			SKU:             strings.ToUpper(strings.TrimSpace(draft.SKU)),
			Quantity:        draft.Quantity,
			OverridePercent: draft.OverridePercent,
			Position:        i,
			CreatedAt:       now,
		})
	}
	return items
}

func validateItems(items []domain.DraftItem) error {
	if len(items) == 0 {
		return domain.ErrNoItems
	}
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		sku := strings.ToUpper(strings.TrimSpace(item.SKU))
		if _, ok := seen[sku]; ok {
			return domain.ErrDuplicateSKU
		}
		seen[sku] = struct{}{}
	}
	return nil
}

func validateCharges(amounts ...decimal.Decimal) error {
	for _, amount := range amounts {
		if amount.IsNegative() {
			return domain.ErrInvalidCharge
		}
	}
	return nil
}

func chargeOr(override *decimal.Decimal, current decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	return current
}
