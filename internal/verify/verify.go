//-------------------------------------------------------------------------
//
// pgEdge Revenue Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package verify cross-checks a pipeline result against the same report
// computed by PostgreSQL.
package verify

import (
	"cmp"
	"context"
	"fmt"
	"math/big"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-revreport/internal/db"
	"github.com/pgEdge/pgedge-revreport/internal/pipeline"
)

// Returns are reduced to distinct order ids before the join so that an
// order with several returns contributes its revenue once. The filters
// mirror the rows the pipeline skips as defects.
const referenceSQL = `
    WITH returned AS (
        SELECT DISTINCT order_id FROM returns WHERE order_id IS NOT NULL
    )
    SELECT p.category::text,
           DATE_TRUNC('month', o.order_date::timestamp)::date AS month,
           ROUND(SUM(oi.quantity::numeric * oi.unit_price::numeric), 2) AS gross_revenue,
           COUNT(DISTINCT r.order_id) AS returned_orders
    FROM order_items oi
    JOIN orders o ON o.order_id = oi.order_id
    JOIN products p ON p.product_id = oi.product_id
    LEFT JOIN returned r ON r.order_id = o.order_id
    WHERE o.order_date IS NOT NULL
      AND oi.quantity >= 0
      AND oi.unit_price >= 0
      AND oi.unit_price = ROUND(oi.unit_price, 2)
      AND p.category <> ''
    GROUP BY 1, 2`

// ReferenceRows computes the report in SQL. Rows are returned in report
// order.
func ReferenceRows(ctx context.Context, q db.Querier) ([]pipeline.Row, error) {
	rows, err := q.Query(ctx, referenceSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to run reference query: %w", err)
	}
	defer rows.Close()

	var result []pipeline.Row
	for rows.Next() {
		var category string
		var month pgtype.Date
		var revenue pgtype.Numeric
		var returned int64
		if err := rows.Scan(&category, &month, &revenue, &returned); err != nil {
			return nil, fmt.Errorf("failed to scan reference row: %w", err)
		}
		if revenue.NaN || revenue.InfinityModifier != pgtype.Finite {
			return nil, fmt.Errorf("reference revenue for %s %s is not finite",
				category, month.Time.Format(time.DateOnly))
		}
		if revenue.Int == nil {
			revenue.Int = new(big.Int)
		}
		result = append(result, pipeline.Row{
			Category:       category,
			Month:          time.Date(month.Time.Year(), month.Time.Month(), 1, 0, 0, 0, 0, time.UTC),
			GrossRevenue:   decimal.NewFromBigInt(revenue.Int, revenue.Exp),
			ReturnedOrders: int(returned),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read reference rows: %w", err)
	}

	pipeline.OrderRows(result)
	return result, nil
}

// Mismatch is a (category, month) bucket on which the two reports
// disagree. Got or Want is nil when the bucket is missing on that side.
type Mismatch struct {
	Category string
	Month    time.Time
	Got      *pipeline.Row
	Want     *pipeline.Row
}

func (m Mismatch) String() string {
	describe := func(r *pipeline.Row) string {
		if r == nil {
			return "missing"
		}
		return fmt.Sprintf("revenue=%s returned=%d", r.GrossRevenue.StringFixed(2), r.ReturnedOrders)
	}
	return fmt.Sprintf("%s %s: got %s, want %s",
		m.Category, m.Month.Format(time.DateOnly), describe(m.Got), describe(m.Want))
}

type key struct {
	category string
	month    string
}

func keyOf(r pipeline.Row) key {
	return key{r.Category, r.Month.Format("2006-01")}
}

// Compare returns the buckets on which got and want differ, in report
// order. Revenue is compared numerically, so 10.5 equals 10.50.
func Compare(got, want []pipeline.Row) []Mismatch {
	wantByKey := make(map[key]*pipeline.Row, len(want))
	for i := range want {
		wantByKey[keyOf(want[i])] = &want[i]
	}

	var mismatches []Mismatch
	seen := make(map[key]bool, len(got))
	for i := range got {
		g := &got[i]
		k := keyOf(*g)
		seen[k] = true

		w, ok := wantByKey[k]
		switch {
		case !ok:
			mismatches = append(mismatches, Mismatch{g.Category, g.Month, g, nil})
		case !g.GrossRevenue.Equal(w.GrossRevenue) || g.ReturnedOrders != w.ReturnedOrders:
			mismatches = append(mismatches, Mismatch{g.Category, g.Month, g, w})
		}
	}
	for i := range want {
		w := &want[i]
		if !seen[keyOf(*w)] {
			mismatches = append(mismatches, Mismatch{w.Category, w.Month, nil, w})
		}
	}

	sortMismatches(mismatches)
	return mismatches
}

func sortMismatches(ms []Mismatch) {
	slices.SortFunc(ms, func(a, b Mismatch) int {
		return cmp.Or(strings.Compare(a.Category, b.Category), a.Month.Compare(b.Month))
	})
}

// Verify runs the reference query and compares it with got.
func Verify(ctx context.Context, q db.Querier, got []pipeline.Row) ([]Mismatch, error) {
	want, err := ReferenceRows(ctx, q)
	if err != nil {
		return nil, err
	}
	return Compare(got, want), nil
}
