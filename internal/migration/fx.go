package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	auditdomain "github.com/stackbill/tradequote/internal/audit/domain"
	catalogdomain "github.com/stackbill/tradequote/internal/catalog/domain"
	"github.com/stackbill/tradequote/internal/config"
	customerdomain "github.com/stackbill/tradequote/internal/customer/domain"
	quotedomain "github.com/stackbill/tradequote/internal/quote/domain"
	"github.com/stackbill/tradequote/internal/seed"
	taxdomain "github.com/stackbill/tradequote/internal/tax/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := conn.AutoMigrate(
				&customerdomain.Customer{},
				&catalogdomain.CatalogItem{},
				&taxdomain.TaxRule{},
				&taxdomain.ConfigVersion{},
				&quotedomain.Quote{},
				&quotedomain.QuoteItem{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		if err := seed.EnsureDefaultTaxRules(conn); err != nil {
			return err
		}
		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
