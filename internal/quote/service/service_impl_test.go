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

	auditdomain "github.com/stackbill/tradequote/internal/audit/domain"
	auditrepository "github.com/stackbill/tradequote/internal/audit/repository"
	auditservice "github.com/stackbill/tradequote/internal/audit/service"
	catalogdomain "github.com/stackbill/tradequote/internal/catalog/domain"
	catalogservice "github.com/stackbill/tradequote/internal/catalog/service"
	"github.com/stackbill/tradequote/internal/clock"
	"github.com/stackbill/tradequote/internal/config"
	customerdomain "github.com/stackbill/tradequote/internal/customer/domain"
	customerservice "github.com/stackbill/tradequote/internal/customer/service"
	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
	"github.com/stackbill/tradequote/internal/pricing/engine"
	"github.com/stackbill/tradequote/internal/quote/domain"
	taxdomain "github.com/stackbill/tradequote/internal/tax/domain"
	taxrepository "github.com/stackbill/tradequote/internal/tax/repository"
	taxservice "github.com/stackbill/tradequote/internal/tax/service"
)

type testEnv struct {
	db       *gorm.DB
	clk      *clock.FakeClock
	svc      domain.Service
	catalog  catalogdomain.Service
	taxes    taxdomain.Service
	customer customerdomain.Customer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	dbConn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, dbConn.AutoMigrate(
		&customerdomain.Customer{},
		&catalogdomain.CatalogItem{},
		&taxdomain.TaxRule{},
		&taxdomain.ConfigVersion{},
		&domain.Quote{},
		&domain.QuoteItem{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	clk := clock.NewFakeClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))

	catalogSvc := catalogservice.New(catalogservice.Params{DB: dbConn, Log: log, GenID: node})
	taxSvc := taxservice.New(taxservice.Params{
		DB: dbConn, Log: log, GenID: node, Clock: clk,
		Repo: taxrepository.New(dbConn),
	})
	auditSvc := auditservice.NewService(auditservice.Params{
		DB: dbConn, Log: log, GenID: node, Clock: clk,
		Repo: auditrepository.Provide(),
	})
	customerSvc := customerservice.New(customerservice.Params{DB: dbConn, Log: log, GenID: node, Clock: clk})

	holder := config.NewStaticPricingConfigHolder(config.PricingConfig{
		DefaultMarkupPercent: 32,
		Mode:                 "markup",
		Allocation:           "weight",
		RoundingDecimals:     2,
		Currency:             "USD",
	})

	svc := New(Params{
		DB:        dbConn,
		Log:       log,
		GenID:     node,
		Clock:     clk,
		Engine:    engine.New(log),
		Pricing:   holder,
		Catalog:   catalogSvc,
		Taxes:     taxSvc,
		Customers: customerSvc,
		Audit:     auditSvc,
	})

	customer, err := customerSvc.Create(context.Background(), customerdomain.CreateCustomerRequest{
		Name:  "Harbor Engineering",
		Email: "purchasing@harboreng.example",
	})
	require.NoError(t, err)

	return &testEnv{
		db:       dbConn,
		clk:      clk,
		svc:      svc,
		catalog:  catalogSvc,
		taxes:    taxSvc,
		customer: customer,
	}
}

func (e *testEnv) addItem(t *testing.T, sku string, unitCost string, stock int64) {
	t.Helper()
	_, err := e.catalog.Create(context.Background(), catalogdomain.CreateItemRequest{
		SKU:      sku,
		Name:     sku,
		UnitCost: decimal.RequireFromString(unitCost),
		WeightKg: decimal.RequireFromString("2"),

		StockOnHand: stock,
	})
	require.NoError(t, err)
}

func (e *testEnv) addTaxRule(t *testing.T, code, rate string, tier string, position int) {
	t.Helper()
	_, err := e.taxes.Create(context.Background(), taxdomain.CreateRequest{
		Code:        code,
		Name:        code,
		RatePercent: decimal.RequireFromString(rate),
		Tier:        pricingdomain.TaxTier(tier),
		Position:    position,
	})
	require.NoError(t, err)
}

func (e *testEnv) pendingQuote(t *testing.T, items []domain.DraftItem) *domain.Detail {
	t.Helper()
	detail, err := e.svc.CreateDraft(context.Background(), domain.CreateDraftRequest{
		CustomerID: e.customer.ID.String(),
		Items:      items,
		Actor:      "amara",
	})
	require.NoError(t, err)

	detail, err = e.svc.Submit(context.Background(), detail.Quote.ID.String(), "amara")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPendingApproval, detail.Quote.Status)
	return detail
}

func TestApproveAssignsInvoiceAndDecrementsStock(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 10)
	env.addTaxRule(t, "VAT", "12.5", "levy_total", 1)

	detail := env.pendingQuote(t, []domain.DraftItem{{SKU: "PUMP-100", Quantity: 3}})
	id := detail.Quote.ID.String()

	approved, err := env.svc.Approve(context.Background(), id, "kofi")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusApproved, approved.Quote.Status)
	require.NotNil(t, approved.Quote.InvoiceNumber)
	assert.Contains(t, *approved.Quote.InvoiceNumber, "INV-")
	assert.Equal(t, "kofi", approved.Quote.ApprovedBy)
	assert.NotEmpty(t, approved.Quote.Checksum)
	require.NotNil(t, approved.Computed)
	assert.True(t, approved.Quote.GrandTotal.Equal(approved.Computed.Totals.GrandTotal))

	item, err := env.catalog.Get(context.Background(), "PUMP-100")
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.StockOnHand)
}

func TestApproveFreezesTaxConfiguration(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 10)
	env.addTaxRule(t, "VAT", "12.5", "levy_total", 1)

	detail := env.pendingQuote(t, []domain.DraftItem{{SKU: "PUMP-100", Quantity: 2}})
	id := detail.Quote.ID.String()

	approved, err := env.svc.Approve(context.Background(), id, "kofi")
	require.NoError(t, err)
	frozenTotal := approved.Quote.GrandTotal
	frozenVersion := approved.Quote.TaxConfigVersion
	frozenChecksum := approved.Quote.Checksum

	// A later rate change must not leak into the approved record.
	newRate := decimal.RequireFromString("50")
	_, err = env.taxes.Update(context.Background(), taxdomain.UpdateRequest{
		Code:        "VAT",
		RatePercent: &newRate,
	})
	require.NoError(t, err)

	recomputed, err := env.svc.Compute(context.Background(), id, "auditor")
	require.NoError(t, err)
	require.NotNil(t, recomputed.Computed)

	assert.True(t, frozenTotal.Equal(recomputed.Computed.Totals.GrandTotal),
		"expected %s, got %s", frozenTotal, recomputed.Computed.Totals.GrandTotal)
	assert.Equal(t, frozenChecksum, recomputed.Computed.Checksum)
	assert.Equal(t, frozenVersion, recomputed.Quote.TaxConfigVersion)
}

func TestApproveTwiceFails(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 10)

	detail := env.pendingQuote(t, []domain.DraftItem{{SKU: "PUMP-100", Quantity: 1}})
	id := detail.Quote.ID.String()

	_, err := env.svc.Approve(context.Background(), id, "kofi")
	require.NoError(t, err)

	_, err = env.svc.Approve(context.Background(), id, "kofi")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApproveDraftFails(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 10)

	detail, err := env.svc.CreateDraft(context.Background(), domain.CreateDraftRequest{
		CustomerID: env.customer.ID.String(),
		Items:      []domain.DraftItem{{SKU: "PUMP-100", Quantity: 1}},
		Actor:      "amara",
	})
	require.NoError(t, err)

	_, err = env.svc.Approve(context.Background(), detail.Quote.ID.String(), "kofi")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApproveInsufficientStockRollsBack(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 2)

	detail := env.pendingQuote(t, []domain.DraftItem{{SKU: "PUMP-100", Quantity: 5}})
	id := detail.Quote.ID.String()

	_, err := env.svc.Approve(context.Background(), id, "kofi")
	assert.ErrorIs(t, err, catalogdomain.ErrInsufficientStock)

	// Nothing from the failed transaction may stick.
	current, err := env.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingApproval, current.Quote.Status)
	assert.Nil(t, current.Quote.InvoiceNumber)

	item, err := env.catalog.Get(context.Background(), "PUMP-100")
	require.NoError(t, err)
	assert.Equal(t, int64(2), item.StockOnHand)
}

func TestComputeIsDeterministic(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 10)
	env.addItem(t, "VALVE-20", "35.00", 100)
	env.addTaxRule(t, "HEALTH_LEVY", "2.5", "subtotal", 1)
	env.addTaxRule(t, "VAT", "12.5", "levy_total", 2)

	detail, err := env.svc.CreateDraft(context.Background(), domain.CreateDraftRequest{
		CustomerID: env.customer.ID.String(),
		Items: []domain.DraftItem{
			{SKU: "PUMP-100", Quantity: 2},
			{SKU: "VALVE-20", Quantity: 10},
		},
		Shipping: decimal.RequireFromString("50.00"),
		Actor:    "amara",
	})
	require.NoError(t, err)
	id := detail.Quote.ID.String()

	first, err := env.svc.Compute(context.Background(), id, "amara")
	require.NoError(t, err)
	second, err := env.svc.Compute(context.Background(), id, "amara")
	require.NoError(t, err)

	assert.Equal(t, first.Quote.Checksum, second.Quote.Checksum)
	assert.True(t, first.Computed.Totals.GrandTotal.Equal(second.Computed.Totals.GrandTotal))
}

func TestUpdateDraftInvalidatesComputation(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 10)

	detail, err := env.svc.CreateDraft(context.Background(), domain.CreateDraftRequest{
		CustomerID: env.customer.ID.String(),
		Items:      []domain.DraftItem{{SKU: "PUMP-100", Quantity: 2}},
		Actor:      "amara",
	})
	require.NoError(t, err)
	id := detail.Quote.ID.String()

	computed, err := env.svc.Compute(context.Background(), id, "amara")
	require.NoError(t, err)
	require.NotNil(t, computed.Computed)

	updated, err := env.svc.UpdateDraft(context.Background(), id, domain.UpdateDraftRequest{
		Items: []domain.DraftItem{{SKU: "PUMP-100", Quantity: 4}},
		Actor: "amara",
	})
	require.NoError(t, err)
	assert.Nil(t, updated.Computed)
	assert.Empty(t, updated.Quote.Checksum)
}

func TestUpdateAfterSubmitFails(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 10)

	detail := env.pendingQuote(t, []domain.DraftItem{{SKU: "PUMP-100", Quantity: 1}})

	_, err := env.svc.UpdateDraft(context.Background(), detail.Quote.ID.String(), domain.UpdateDraftRequest{
		Items: []domain.DraftItem{{SKU: "PUMP-100", Quantity: 2}},
		Actor: "amara",
	})
	assert.ErrorIs(t, err, domain.ErrNotEditable)
}

func TestRejectIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 10)

	detail := env.pendingQuote(t, []domain.DraftItem{{SKU: "PUMP-100", Quantity: 1}})
	id := detail.Quote.ID.String()

	rejected, err := env.svc.Reject(context.Background(), id, "kofi")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Quote.Status)
	require.NotNil(t, rejected.Quote.RejectedAt)

	_, err = env.svc.Approve(context.Background(), id, "kofi")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCreateDraftRejectsDuplicateSKUs(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 10)

	_, err := env.svc.CreateDraft(context.Background(), domain.CreateDraftRequest{
		CustomerID: env.customer.ID.String(),
		Items: []domain.DraftItem{
			{SKU: "PUMP-100", Quantity: 1},
			{SKU: "pump-100", Quantity: 2},
		},
		Actor: "amara",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateSKU)
}

func TestComputePricesItemCreatedWithLowercaseSKU(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "pump-100", "400.00", 10)

	detail, err := env.svc.CreateDraft(context.Background(), domain.CreateDraftRequest{
		CustomerID: env.customer.ID.String(),
		Items:      []domain.DraftItem{{SKU: "pump-100", Quantity: 1}},
		Actor:      "amara",
	})
	require.NoError(t, err)

	computed, err := env.svc.Compute(context.Background(), detail.Quote.ID.String(), "amara")
	require.NoError(t, err)
	require.NotNil(t, computed.Computed)
	require.Len(t, computed.Computed.Lines, 1)
	assert.Equal(t, "PUMP-100", computed.Computed.Lines[0].SKU)
}

func TestListPaginatesWithCursor(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 100)

	for i := 0; i < 5; i++ {
		_, err := env.svc.CreateDraft(context.Background(), domain.CreateDraftRequest{
			CustomerID: env.customer.ID.String(),
			Items:      []domain.DraftItem{{SKU: "PUMP-100", Quantity: int64(i + 1)}},
			Actor:      "amara",
		})
		require.NoError(t, err)
		env.clk.Advance(time.Minute)
	}

	req := domain.ListRequest{}
	req.PageSize = 2
	first, err := env.svc.List(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, first.Quotes, 2)
	require.True(t, first.PageInfo.HasMore)

	req.PageToken = first.PageInfo.NextPageToken
	second, err := env.svc.List(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, second.Quotes, 2)

	// No overlap across pages, newest first.
	assert.True(t, first.Quotes[1].CreatedAt.After(second.Quotes[0].CreatedAt) ||
		first.Quotes[1].ID > second.Quotes[0].ID)
	for _, q := range second.Quotes {
		assert.NotEqual(t, first.Quotes[0].ID, q.ID)
		assert.NotEqual(t, first.Quotes[1].ID, q.ID)
	}

	req.PageToken = second.PageInfo.NextPageToken
	third, err := env.svc.List(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, third.Quotes, 1)
	assert.False(t, third.PageInfo.HasMore)
}

func TestCreateDraftUnknownCustomerFails(t *testing.T) {
	env := newTestEnv(t)
	env.addItem(t, "PUMP-100", "400.00", 10)

	_, err := env.svc.CreateDraft(context.Background(), domain.CreateDraftRequest{
		CustomerID: "123456789",
		Items:      []domain.DraftItem{{SKU: "PUMP-100", Quantity: 1}},
		Actor:      "amara",
	})
	assert.ErrorIs(t, err, customerdomain.ErrNotFound)
}
