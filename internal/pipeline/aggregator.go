//-------------------------------------------------------------------------
//
// pgEdge Revenue Report
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one (category, month) result.
type Row struct {
	Category       string
	Month          time.Time
	GrossRevenue   decimal.Decimal
	ReturnedOrders int
}

type bucketKey struct {
	category string
	month    int // year*12 + month-1
}

func keyFor(category string, month time.Time) bucketKey {
	return bucketKey{category: category, month: month.Year()*12 + int(month.Month()) - 1}
}

type bucket struct {
	category string
	month    time.Time
	revenue  decimal.Decimal
	orders   map[int64]struct{}
}

// Aggregation groups projected lines by (category, month). It is not safe
// for concurrent use; parallel callers build one Aggregation each and
// Merge them.
type Aggregation struct {
	buckets map[bucketKey]*bucket
	limit   decimal.Decimal
	digits  int
}

// NewAggregation creates an empty aggregation whose bucket sums must stay
// within NUMERIC(maxPrecision,2).
func NewAggregation(maxPrecision int) *Aggregation {
	return &Aggregation{
		buckets: make(map[bucketKey]*bucket),
		limit:   precisionLimit(maxPrecision),
		digits:  maxPrecision,
	}
}

// Len returns the number of buckets.
func (a *Aggregation) Len() int {
	return len(a.buckets)
}

// Add accumulates one line into its bucket.
func (a *Aggregation) Add(line ProjectedLine) error {
	b := a.bucketFor(line.Category, line.Month)
	b.revenue = b.revenue.Add(line.LineTotal)
	b.orders[line.OrderID] = struct{}{}
	return a.checkOverflow(b)
}

// Merge folds other into a: sums are added and order id sets unioned.
func (a *Aggregation) Merge(other *Aggregation) error {
	for _, ob := range other.buckets {
		b := a.bucketFor(ob.category, ob.month)
		b.revenue = b.revenue.Add(ob.revenue)
		for id := range ob.orders {
			b.orders[id] = struct{}{}
		}
		if err := a.checkOverflow(b); err != nil {
			return err
		}
	}
	return nil
}

// Finalize emits one row per bucket. ReturnedOrders is the number of the
// bucket's distinct order ids present in idx. Rows are unordered.
func (a *Aggregation) Finalize(idx *ReturnIndex) []Row {
	rows := make([]Row, 0, len(a.buckets))
	for _, b := range a.buckets {
		returned := make(map[int64]struct{})
		for id := range b.orders {
			if idx.Contains(id) {
				returned[id] = struct{}{}
			}
		}
		rows = append(rows, Row{
			Category:       b.category,
			Month:          b.month,
			GrossRevenue:   b.revenue.Round(2),
			ReturnedOrders: len(returned),
		})
	}
	return rows
}

func (a *Aggregation) bucketFor(category string, month time.Time) *bucket {
	key := keyFor(category, month)
	b, ok := a.buckets[key]
	if !ok {
		b = &bucket{
			category: category,
			month:    month,
			revenue:  decimal.Zero,
			orders:   make(map[int64]struct{}),
		}
		a.buckets[key] = b
	}
	return b
}

func (a *Aggregation) checkOverflow(b *bucket) error {
	if b.revenue.Round(2).Abs().GreaterThanOrEqual(a.limit) {
		return fmt.Errorf("%w: gross revenue for %s %s exceeds NUMERIC(%d,2)",
			ErrArithmeticOverflow, b.category, b.month.Format("2006-01"), a.digits)
	}
	return nil
}
