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

	"github.com/pgEdge/pgedge-revreport/internal/retail"
)

// ProjectedLine is an order line joined to its order and product.
type ProjectedLine struct {
	OrderID   int64
	OrderDate time.Time
	Month     time.Time
	Category  string
	Quantity  int64
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Projector joins order lines to orders and products. The lookup maps are
// built once and only read afterwards, so one Projector may be shared by
// concurrent Project calls.
type Projector struct {
	orders   map[int64]retail.Order
	products map[int64]retail.Product
	limit    decimal.Decimal
	digits   int
}

// NewProjector indexes orders and products by id. When an id appears more
// than once the first row wins and the duplicate is reported as malformed.
func NewProjector(orders []retail.Order, products []retail.Product,
	maxPrecision int, defects *DefectReport) *Projector {
	p := &Projector{
		orders:   make(map[int64]retail.Order, len(orders)),
		products: make(map[int64]retail.Product, len(products)),
		limit:    precisionLimit(maxPrecision),
		digits:   maxPrecision,
	}

	for _, o := range orders {
		if _, dup := p.orders[o.ID]; dup {
			defects.Add(Defect{MalformedValue, retail.RelationOrders, o.ID, "duplicate order id"})
			continue
		}
		p.orders[o.ID] = o
	}
	for _, pr := range products {
		if _, dup := p.products[pr.ID]; dup {
			defects.Add(Defect{MalformedValue, retail.RelationProducts, pr.ID, "duplicate product id"})
			continue
		}
		p.products[pr.ID] = pr
	}

	return p
}

// uniqueLines drops order lines whose id was already seen, keeping the
// first occurrence and reporting the rest as malformed.
func uniqueLines(lines []retail.OrderLine, defects *DefectReport) []retail.OrderLine {
	seen := make(map[int64]struct{}, len(lines))
	out := make([]retail.OrderLine, 0, len(lines))
	for _, l := range lines {
		if _, dup := seen[l.ID]; dup {
			defects.Add(Defect{MalformedValue, retail.RelationOrderItems, l.ID, "duplicate order_item id"})
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l)
	}
	return out
}

// HasOrder reports whether id resolves to a known order.
func (p *Projector) HasOrder(id int64) bool {
	_, ok := p.orders[id]
	return ok
}

// Project joins each line to its order and product and computes the line
// total. Lines that do not resolve or carry malformed values are skipped
// and recorded in defects. The only error is ErrArithmeticOverflow.
func (p *Projector) Project(lines []retail.OrderLine, defects *DefectReport) ([]ProjectedLine, error) {
	out := make([]ProjectedLine, 0, len(lines))

	for _, line := range lines {
		order, ok := p.orders[line.OrderID]
		if !ok {
			defects.Add(Defect{ReferentialDefect, retail.RelationOrderItems, line.ID,
				fmt.Sprintf("order %d not found", line.OrderID)})
			continue
		}
		product, ok := p.products[line.ProductID]
		if !ok {
			defects.Add(Defect{ReferentialDefect, retail.RelationOrderItems, line.ID,
				fmt.Sprintf("product %d not found", line.ProductID)})
			continue
		}

		if reason := validateLine(line, order, product); reason != "" {
			defects.Add(Defect{MalformedValue, retail.RelationOrderItems, line.ID, reason})
			continue
		}

		total, _ := line.Total()
		if total.GreaterThanOrEqual(p.limit) {
			return nil, fmt.Errorf("%w: order line %d total %s exceeds NUMERIC(%d,2)",
				ErrArithmeticOverflow, line.ID, total.String(), p.digits)
		}

		out = append(out, ProjectedLine{
			OrderID:   order.ID,
			OrderDate: order.OrderDate,
			Month:     retail.MonthStart(order.OrderDate),
			Category:  product.Category,
			Quantity:  *line.Quantity,
			UnitPrice: line.UnitPrice.Decimal,
			LineTotal: total,
		})
	}

	return out, nil
}

func validateLine(line retail.OrderLine, order retail.Order, product retail.Product) string {
	switch {
	case line.Quantity == nil:
		return "quantity is NULL"
	case *line.Quantity < 0:
		return fmt.Sprintf("negative quantity %d", *line.Quantity)
	case !line.UnitPrice.Valid:
		return "unit_price is NULL"
	case line.UnitPrice.Decimal.IsNegative():
		return fmt.Sprintf("negative unit_price %s", line.UnitPrice.Decimal.String())
	case !line.UnitPrice.Decimal.Equal(line.UnitPrice.Decimal.Round(2)):
		return fmt.Sprintf("unit_price %s has more than 2 fractional digits", line.UnitPrice.Decimal.String())
	case order.OrderDate.IsZero():
		return fmt.Sprintf("order %d has no order_date", order.ID)
	case product.Category == "":
		return fmt.Sprintf("product %d has no category", product.ID)
	}
	return ""
}

// precisionLimit returns the smallest value that no longer fits
// NUMERIC(digits,2).
func precisionLimit(digits int) decimal.Decimal {
	return decimal.New(1, int32(max(1, digits-2)))
}
