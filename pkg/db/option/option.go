// Package option provides composable query refinements for the generic
// repository.
package option

import "gorm.io/gorm"

type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type orderBy struct {
	clause string
}

func (o orderBy) Apply(db *gorm.DB) *gorm.DB { return db.Order(o.clause) }

// WithOrder sorts results by the given SQL order clause.
func WithOrder(clause string) QueryOption { return orderBy{clause: clause} }

type limit struct {
	n int
}

func (l limit) Apply(db *gorm.DB) *gorm.DB { return db.Limit(l.n) }

// WithLimit caps the number of returned rows.
func WithLimit(n int) QueryOption { return limit{n: n} }

type where struct {
	query string
	args  []any
}

func (w where) Apply(db *gorm.DB) *gorm.DB { return db.Where(w.query, w.args...) }

// WithWhere adds a raw predicate for conditions a struct filter cannot
// express (ranges, IN lists).
func WithWhere(query string, args ...any) QueryOption { return where{query: query, args: args} }
