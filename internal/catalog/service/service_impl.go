package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stackbill/tradequote/internal/catalog/domain"
	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
	"github.com/stackbill/tradequote/pkg/db"
	"github.com/stackbill/tradequote/pkg/db/option"
	"github.com/stackbill/tradequote/pkg/repository"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[domain.CatalogItem]
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[domain.CatalogItem](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateItemRequest) (*domain.CatalogItem, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.UnitCost.IsNegative() {
		return nil, domain.ErrInvalidUnitCost
	}
	for _, component := range []decimal.Decimal{req.FreightPerUnit, req.DutyPerUnit, req.InsurancePerUnit, req.PackagingPerUnit, req.OtherPerUnit} {
		if component.IsNegative() {
			return nil, domain.ErrInvalidComponent
		}
	}

	sku := normalizeSKU(req.SKU)
	if sku == "" {
		// Derive a stable SKU from the product name.
		sku = strings.ToUpper(slug.Make(name))
	}

	now := time.Now().UTC()
	item := domain.CatalogItem{
		ID:               s.genID.Generate(),
		SKU:              sku,
		Name:             name,
		Description:      strings.TrimSpace(req.Description),
		UnitCost:         req.UnitCost,
		WeightKg:         req.WeightKg,
		FreightPerUnit:   req.FreightPerUnit,
		DutyPerUnit:      req.DutyPerUnit,
		InsurancePerUnit: req.InsurancePerUnit,
		PackagingPerUnit: req.PackagingPerUnit,
		OtherPerUnit:     req.OtherPerUnit,
		TierTag:          strings.TrimSpace(req.TierTag),
		OverridePercent:  req.OverridePercent,
		StockOnHand:      req.StockOnHand,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, &item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateSKU
		}
		return nil, err
	}

	return &item, nil
}

func (s *Service) Update(ctx context.Context, sku string, req domain.UpdateItemRequest) (*domain.CatalogItem, error) {
	item, err := s.findBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.UnitCost != nil {
		if req.UnitCost.IsNegative() {
			return nil, domain.ErrInvalidUnitCost
		}
		updates["unit_cost"] = *req.UnitCost
	}
	if req.WeightKg != nil {
		updates["weight_kg"] = *req.WeightKg
	}
	for column, value := range map[string]*decimal.Decimal{
		"freight_per_unit":   req.FreightPerUnit,
		"duty_per_unit":      req.DutyPerUnit,
		"insurance_per_unit": req.InsurancePerUnit,
		"packaging_per_unit": req.PackagingPerUnit,
		"other_per_unit":     req.OtherPerUnit,
	} {
		if value == nil {
			continue
		}
		if value.IsNegative() {
			return nil, domain.ErrInvalidComponent
		}
		updates[column] = *value
	}
	if req.TierTag != nil {
		updates["tier_tag"] = strings.TrimSpace(*req.TierTag)
	}
	if req.OverridePercent != nil {
		updates["override_percent"] = *req.OverridePercent
	}
	if req.StockOnHand != nil {
		updates["stock_on_hand"] = *req.StockOnHand
	}

	if err := s.repo.Update(ctx, item.ID.String(), updates); err != nil {
		return nil, err
	}

	return s.findBySKU(ctx, sku)
}

func (s *Service) Get(ctx context.Context, sku string) (*domain.CatalogItem, error) {
	return s.findBySKU(ctx, sku)
}

func (s *Service) List(ctx context.Context) ([]*domain.CatalogItem, error) {
	return s.repo.Find(ctx, &domain.CatalogItem{}, option.WithOrder("sku ASC"))
}

func (s *Service) Delete(ctx context.Context, sku string) error {
	item, err := s.findBySKU(ctx, sku)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, item.ID.String())
}

func (s *Service) Lookup(ctx context.Context, skus []string) (map[string]pricingdomain.CatalogEntry, error) {
	if len(skus) == 0 {
		return map[string]pricingdomain.CatalogEntry{}, nil
	}

	normalized := make([]string, 0, len(skus))
	for _, sku := range skus {
		normalized = append(normalized, normalizeSKU(sku))
	}

	var items []domain.CatalogItem
	err := s.db.WithContext(ctx).
		Where("sku IN ?", normalized).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	entries := make(map[string]pricingdomain.CatalogEntry, len(items))
	for _, item := range items {
		entries[item.SKU] = item.Entry()
	}
	return entries, nil
}

func (s *Service) DecrementStockTx(ctx context.Context, tx *gorm.DB, sku string, quantity int64) error {
	if quantity == 0 {
		return nil
	}

	result := tx.WithContext(ctx).
		Model(&domain.CatalogItem{}).
		Where("sku = ? AND stock_on_hand >= ?", normalizeSKU(sku), quantity).
		Updates(map[string]any{
			"stock_on_hand": gorm.Expr("stock_on_hand - ?", quantity),
			"updated_at":    time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrInsufficientStock
	}
	return nil
}

// normalizeSKU is the canonical SKU form shared with quote drafting;
// every read and write goes through it so case never splits an item
// from its references.
func normalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

func (s *Service) findBySKU(ctx context.Context, sku string) (*domain.CatalogItem, error) {
	item, err := s.repo.FindOne(ctx, &domain.CatalogItem{SKU: normalizeSKU(sku)})
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}
