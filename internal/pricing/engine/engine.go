// Package engine implements the quote pricing computation: cost
// resolution, shipping allocation, markup/margin pricing, the two-tier
// tax cascade, and totals assembly. The engine is a pure function of
// its inputs and performs no I/O; every layer that needs to display or
// verify totals goes through this package so the numbers cannot drift.
package engine

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stackbill/tradequote/internal/pricing/domain"
)

// Version tags every computed quote so historical records can be tied
// back to the engine revision that produced them.
const Version = "pricing-engine/v1"

const defaultRoundingDecimals = 2

type Engine struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log.Named("pricing.engine")}
}

// round applies the configured precision. Monetary values are rounded
// stage-by-stage (landed cost, unit price, line total, each tax amount)
// rather than once at the end; callers that re-derive totals from the
// stored per-stage values must arrive at identical numbers.
func round(v decimal.Decimal, decimals int32) decimal.Decimal {
	return v.Round(decimals)
}

// roundingDecimals treats zero as a configured precision (whole-unit
// currencies); only a negative value means unset.
func roundingDecimals(s domain.Settings) int32 {
	if s.RoundingDecimals < 0 {
		return defaultRoundingDecimals
	}
	return s.RoundingDecimals
}
