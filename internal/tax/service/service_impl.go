package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stackbill/tradequote/internal/clock"
	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
	taxdomain "github.com/stackbill/tradequote/internal/tax/domain"
	taxrepository "github.com/stackbill/tradequote/internal/tax/repository"
	"github.com/stackbill/tradequote/pkg/db"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  taxdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  taxdomain.Repository
}

func New(p Params) taxdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tax.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.Response, error) {
	now := s.clock.Now()
	rule := taxdomain.TaxRule{
		ID:          s.genID.Generate(),
		Code:        strings.TrimSpace(req.Code),
		Name:        strings.TrimSpace(req.Name),
		RatePercent: req.RatePercent,
		Tier:        req.Tier,
		Position:    req.Position,
		Description: req.Description,
		IsEnabled:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsEnabled != nil {
		rule.IsEnabled = *req.IsEnabled
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return taxrepository.WithTrx(tx).Create(ctx, &rule)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, taxdomain.ErrDuplicateCode
		}
		return nil, err
	}

	return toResponse(rule), nil
}

func (s *Service) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.Response, error) {
	rules, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make([]taxdomain.Response, 0, len(rules))
	for _, rule := range rules {
		out = append(out, *toResponse(rule))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, req taxdomain.UpdateRequest) (*taxdomain.Response, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, taxdomain.ErrInvalidTaxCode
	}

	rule, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, taxdomain.ErrNotFound
	}

	if req.Name != nil {
		rule.Name = strings.TrimSpace(*req.Name)
	}
	if req.RatePercent != nil {
		rule.RatePercent = *req.RatePercent
	}
	if req.Tier != nil {
		rule.Tier = *req.Tier
	}
	if req.Position != nil {
		rule.Position = *req.Position
	}
	if req.Description != nil {
		rule.Description = req.Description
	}
	if req.IsEnabled != nil {
		rule.IsEnabled = *req.IsEnabled
	}
	rule.UpdatedAt = s.clock.Now()

	if err := rule.Validate(); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return taxrepository.WithTrx(tx).Update(ctx, rule)
	})
	if err != nil {
		return nil, err
	}

	return toResponse(*rule), nil
}

func (s *Service) Disable(ctx context.Context, code string) (*taxdomain.Response, error) {
	disabled := false
	return s.Update(ctx, taxdomain.UpdateRequest{Code: code, IsEnabled: &disabled})
}

func (s *Service) ActiveRules(ctx context.Context) ([]pricingdomain.TaxRule, int64, error) {
	enabled := true

	// Rules and the version counter are read in one transaction so a
	// concurrent mutation cannot mislabel the snapshot.
	var rules []taxdomain.TaxRule
	var version int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := taxrepository.WithTrx(tx)

		var err error
		rules, err = repo.List(ctx, taxdomain.ListRequest{IsEnabled: &enabled})
		if err != nil {
			return err
		}
		version, err = repo.CurrentVersion(ctx)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	out := make([]pricingdomain.TaxRule, 0, len(rules))
	for _, rule := range rules {
		out = append(out, rule.Rule())
	}
	return out, version, nil
}

func (s *Service) Snapshot(ctx context.Context) (*pricingdomain.TaxSnapshot, error) {
	rules, version, err := s.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	return &pricingdomain.TaxSnapshot{
		Version:    version,
		CapturedAt: s.clock.Now(),
		Rules:      rules,
	}, nil
}

func toResponse(rule taxdomain.TaxRule) *taxdomain.Response {
	return &taxdomain.Response{
		ID:          rule.ID.String(),
		Code:        rule.Code,
		Name:        rule.Name,
		RatePercent: rule.RatePercent,
		Tier:        rule.Tier,
		Position:    rule.Position,
		Description: rule.Description,
		IsEnabled:   rule.IsEnabled,
		CreatedAt:   rule.CreatedAt,
		UpdatedAt:   rule.UpdatedAt,
	}
}
