package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stackbill/tradequote/internal/clock"
	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
	taxdomain "github.com/stackbill/tradequote/internal/tax/domain"
	taxrepository "github.com/stackbill/tradequote/internal/tax/repository"
)

func newTestService(t *testing.T) taxdomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbConn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&taxdomain.TaxRule{}, &taxdomain.ConfigVersion{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{
		DB:    dbConn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
		Repo:  taxrepository.New(dbConn),
	})
}

func createRule(t *testing.T, svc taxdomain.Service, code, rate string, tier pricingdomain.TaxTier, position int) {
	t.Helper()
	_, err := svc.Create(context.Background(), taxdomain.CreateRequest{
		Code:        code,
		Name:        code,
		RatePercent: decimal.RequireFromString(rate),
		Tier:        tier,
		Position:    position,
	})
	require.NoError(t, err)
}

func TestMutationsBumpConfigVersion(t *testing.T) {
	svc := newTestService(t)

	createRule(t, svc, "VAT", "12.5", pricingdomain.TaxTierLevyTotal, 2)
	_, version, err := svc.ActiveRules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	createRule(t, svc, "HEALTH_LEVY", "2.5", pricingdomain.TaxTierSubtotal, 1)
	_, version, err = svc.ActiveRules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	rate := decimal.RequireFromString("15")
	_, err = svc.Update(context.Background(), taxdomain.UpdateRequest{Code: "VAT", RatePercent: &rate})
	require.NoError(t, err)

	_, version, err = svc.ActiveRules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)
}

func TestActiveRulesOrderedByPosition(t *testing.T) {
	svc := newTestService(t)

	createRule(t, svc, "VAT", "12.5", pricingdomain.TaxTierLevyTotal, 3)
	createRule(t, svc, "HEALTH_LEVY", "2.5", pricingdomain.TaxTierSubtotal, 1)
	createRule(t, svc, "EDU_LEVY", "5", pricingdomain.TaxTierSubtotal, 2)

	rules, _, err := svc.ActiveRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "HEALTH_LEVY", rules[0].Code)
	assert.Equal(t, "EDU_LEVY", rules[1].Code)
	assert.Equal(t, "VAT", rules[2].Code)
}

func TestDisableRemovesFromActiveRules(t *testing.T) {
	svc := newTestService(t)

	createRule(t, svc, "VAT", "12.5", pricingdomain.TaxTierLevyTotal, 1)
	createRule(t, svc, "EDU_LEVY", "5", pricingdomain.TaxTierSubtotal, 2)

	resp, err := svc.Disable(context.Background(), "EDU_LEVY")
	require.NoError(t, err)
	assert.False(t, resp.IsEnabled)

	rules, version, err := svc.ActiveRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "VAT", rules[0].Code)
	// Disabling is a mutation and bumps the version too.
	assert.Equal(t, int64(3), version)
}

func TestSnapshotCapturesEnabledRules(t *testing.T) {
	svc := newTestService(t)

	createRule(t, svc, "HEALTH_LEVY", "2.5", pricingdomain.TaxTierSubtotal, 1)
	createRule(t, svc, "VAT", "12.5", pricingdomain.TaxTierLevyTotal, 2)

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), snapshot.Version)
	assert.False(t, snapshot.CapturedAt.IsZero())
	require.Len(t, snapshot.Rules, 2)
	assert.Equal(t, "HEALTH_LEVY", snapshot.Rules[0].Code)
}

func TestCreateDuplicateCodeFails(t *testing.T) {
	svc := newTestService(t)

	createRule(t, svc, "VAT", "12.5", pricingdomain.TaxTierLevyTotal, 1)
	_, err := svc.Create(context.Background(), taxdomain.CreateRequest{
		Code:        "VAT",
		Name:        "Value Added Tax",
		RatePercent: decimal.RequireFromString("10"),
		Tier:        pricingdomain.TaxTierLevyTotal,
	})
	assert.ErrorIs(t, err, taxdomain.ErrDuplicateCode)
}

func TestCreateRejectsInvalidRules(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(context.Background(), taxdomain.CreateRequest{
		Code:        "VAT",
		Name:        "Value Added Tax",
		RatePercent: decimal.RequireFromString("10"),
		Tier:        "retail_total",
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxTier)

	_, err = svc.Create(context.Background(), taxdomain.CreateRequest{
		Code:        "VAT",
		Name:        "Value Added Tax",
		RatePercent: decimal.RequireFromString("-1"),
		Tier:        pricingdomain.TaxTierSubtotal,
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxRate)

	_, err = svc.Create(context.Background(), taxdomain.CreateRequest{
		Name:        "Value Added Tax",
		RatePercent: decimal.RequireFromString("10"),
		Tier:        pricingdomain.TaxTierSubtotal,
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxCode)
}
