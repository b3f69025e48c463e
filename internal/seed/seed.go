// Package seed provisions baseline data so a fresh install can quote
// immediately: a default tax rule set, and optionally a small demo
// catalog for local development.
package seed

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	catalogdomain "github.com/stackbill/tradequote/internal/catalog/domain"
	customerdomain "github.com/stackbill/tradequote/internal/customer/domain"
	pricingdomain "github.com/stackbill/tradequote/internal/pricing/domain"
	taxdomain "github.com/stackbill/tradequote/internal/tax/domain"
)

// EnsureDefaultTaxRules inserts the standard levy-and-VAT rule set when
// the tax_rules table is empty. Existing configurations are never
// touched.
func EnsureDefaultTaxRules(db *gorm.DB) error {
	var count int64
	if err := db.Model(&taxdomain.TaxRule{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	rules := []taxdomain.TaxRule{
		{
			ID:          node.Generate(),
			Code:        "HEALTH_LEVY",
			Name:        "National Health Levy",
			RatePercent: decimal.RequireFromString("2.5"),
			Tier:        pricingdomain.TaxTierSubtotal,
			Position:    1,
			IsEnabled:   true,
		},
		{
			ID:          node.Generate(),
			Code:        "EDU_LEVY",
			Name:        "Education Trust Levy",
			RatePercent: decimal.RequireFromString("5"),
			Tier:        pricingdomain.TaxTierSubtotal,
			Position:    2,
			IsEnabled:   true,
		},
		{
			ID:          node.Generate(),
			Code:        "VAT",
			Name:        "Value Added Tax",
			RatePercent: decimal.RequireFromString("12.5"),
			Tier:        pricingdomain.TaxTierLevyTotal,
			Position:    3,
			IsEnabled:   true,
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rules).Error; err != nil {
			return err
		}
		return tx.Save(&taxdomain.ConfigVersion{ID: 1, Version: 1}).Error
	})
}

// EnsureDemoData inserts a demo customer and a small catalog when the
// catalog is empty. Gated behind SEED_DEMO_DATA.
func EnsureDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&catalogdomain.CatalogItem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	items := []catalogdomain.CatalogItem{
		{
			ID:               node.Generate(),
			SKU:              "PUMP-100",
			Name:             "Centrifugal Pump 100",
			Description:      "1.5kW centrifugal water pump",
			UnitCost:         decimal.RequireFromString("400.00"),
			WeightKg:         decimal.RequireFromString("18.5"),
			FreightPerUnit:   decimal.RequireFromString("20.00"),
			DutyPerUnit:      decimal.RequireFromString("10.00"),
			InsurancePerUnit: decimal.RequireFromString("1.50"),
			PackagingPerUnit: decimal.RequireFromString("3.00"),
			OtherPerUnit:     decimal.RequireFromString("21.00"),
			StockOnHand:      40,
		},
		{
			ID:             node.Generate(),
			SKU:            "VALVE-20",
			Name:           "Gate Valve 20mm",
			Description:    "Brass gate valve, 20mm bore",
			UnitCost:       decimal.RequireFromString("35.00"),
			WeightKg:       decimal.RequireFromString("0.6"),
			FreightPerUnit: decimal.RequireFromString("1.20"),
			DutyPerUnit:    decimal.RequireFromString("0.80"),
			StockOnHand:    500,
		},
		{
			ID:          node.Generate(),
			SKU:         "HOSE-25M",
			Name:        "Reinforced Hose 25m",
			Description: "25m reinforced delivery hose",
			UnitCost:    decimal.RequireFromString("62.00"),
			WeightKg:    decimal.RequireFromString("4.2"),
			StockOnHand: 120,
		},
	}
	if err := db.Create(&items).Error; err != nil {
		return err
	}

	customer := customerdomain.Customer{
		ID:       node.Generate(),
		Name:     "Harbor Engineering Ltd",
		Email:    "purchasing@harboreng.example",
		Currency: "USD",
	}
	return db.Create(&customer).Error
}
