package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	taxdomain "github.com/stackbill/tradequote/internal/tax/domain"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) taxdomain.Repository {
	return &repository{db: db}
}

// WithTrx returns a repository bound to the given transaction. Rule
// mutations and the version bump must share one transaction.
func WithTrx(tx *gorm.DB) taxdomain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, rule *taxdomain.TaxRule) error {
	if err := r.db.WithContext(ctx).Create(rule).Error; err != nil {
		return err
	}
	return r.bumpVersion(ctx)
}

func (r *repository) FindByCode(ctx context.Context, code string) (*taxdomain.TaxRule, error) {
	var rule taxdomain.TaxRule
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *repository) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.TaxRule, error) {
	stmt := r.db.WithContext(ctx).Model(&taxdomain.TaxRule{})
	if req.Code != "" {
		stmt = stmt.Where("code = ?", req.Code)
	}
	if req.IsEnabled != nil {
		stmt = stmt.Where("is_enabled = ?", *req.IsEnabled)
	}

	var rules []taxdomain.TaxRule
	err := stmt.Order("position ASC, code ASC").Find(&rules).Error
	return rules, err
}

func (r *repository) Update(ctx context.Context, rule *taxdomain.TaxRule) error {
	if err := r.db.WithContext(ctx).Save(rule).Error; err != nil {
		return err
	}
	return r.bumpVersion(ctx)
}

func (r *repository) CurrentVersion(ctx context.Context) (int64, error) {
	var version taxdomain.ConfigVersion
	err := r.db.WithContext(ctx).
		Where("id = ?", 1).
		First(&version).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return version.Version, nil
}

func (r *repository) bumpVersion(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"version":    gorm.Expr("version + 1"),
				"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).
		Create(&taxdomain.ConfigVersion{ID: 1, Version: 1}).Error
}
