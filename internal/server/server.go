// Package server is the HTTP edge: route registration, request
// binding, and the error envelope. Handlers translate between JSON and
// the domain services and hold no business logic of their own.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/stackbill/tradequote/internal/audit"
	auditdomain "github.com/stackbill/tradequote/internal/audit/domain"
	"github.com/stackbill/tradequote/internal/catalog"
	catalogdomain "github.com/stackbill/tradequote/internal/catalog/domain"
	"github.com/stackbill/tradequote/internal/config"
	"github.com/stackbill/tradequote/internal/customer"
	customerdomain "github.com/stackbill/tradequote/internal/customer/domain"
	"github.com/stackbill/tradequote/internal/observability"
	"github.com/stackbill/tradequote/internal/quote"
	quotedomain "github.com/stackbill/tradequote/internal/quote/domain"
	"github.com/stackbill/tradequote/internal/tax"
	taxdomain "github.com/stackbill/tradequote/internal/tax/domain"
)

var Module = fx.Module("http.server",
	audit.Module,
	catalog.Module,
	customer.Module,
	tax.Module,
	quote.Module,
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.GinMiddleware(log.Named("http")))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	db          *gorm.DB
	quoteSvc    quotedomain.Service
	catalogSvc  catalogdomain.Service
	taxSvc      taxdomain.Service
	customerSvc customerdomain.Service
	auditSvc    auditdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	DB          *gorm.DB
	QuoteSvc    quotedomain.Service
	CatalogSvc  catalogdomain.Service
	TaxSvc      taxdomain.Service
	CustomerSvc customerdomain.Service
	AuditSvc    auditdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		db:          p.DB,
		quoteSvc:    p.QuoteSvc,
		catalogSvc:  p.CatalogSvc,
		taxSvc:      p.TaxSvc,
		customerSvc: p.CustomerSvc,
		auditSvc:    p.AuditSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers", s.ListCustomers)
	api.GET("/customers/:id", s.GetCustomerByID)

	api.POST("/catalog/items", s.CreateCatalogItem)
	api.GET("/catalog/items", s.ListCatalogItems)
	api.GET("/catalog/items/:sku", s.GetCatalogItem)
	api.PATCH("/catalog/items/:sku", s.UpdateCatalogItem)
	api.DELETE("/catalog/items/:sku", s.DeleteCatalogItem)

	api.POST("/tax-rules", s.CreateTaxRule)
	api.GET("/tax-rules", s.ListTaxRules)
	api.PATCH("/tax-rules/:code", s.UpdateTaxRule)
	api.POST("/tax-rules/:code/disable", s.DisableTaxRule)

	api.POST("/quotes", s.CreateQuote)
	api.GET("/quotes", s.ListQuotes)
	api.GET("/quotes/:id", s.GetQuote)
	api.PATCH("/quotes/:id", s.UpdateQuote)
	api.POST("/quotes/:id/compute", s.ComputeQuote)
	api.POST("/quotes/:id/submit", s.SubmitQuote)
	api.POST("/quotes/:id/approve", s.ApproveQuote)
	api.POST("/quotes/:id/reject", s.RejectQuote)

	api.GET("/audit-logs", s.ListAuditLogs)
}
