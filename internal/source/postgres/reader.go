//-------------------------------------------------------------------------
//
// pgEdge Revenue Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pgEdge/pgedge-revreport/internal/db"
	"github.com/pgEdge/pgedge-revreport/internal/retail"
)

// Columns are cast so that INTEGER/BIGINT ids, NUMERIC(p,s) prices and
// DATE/TIMESTAMP order dates all scan into the same pgtype values.
const (
	selectOrdersSQL = `
        SELECT order_id::bigint, customer_id::bigint, order_date::date, status::text
        FROM orders`

	selectOrderItemsSQL = `
        SELECT order_item_id::bigint, order_id::bigint, product_id::bigint,
               quantity::bigint, unit_price::numeric
        FROM order_items`

	selectProductsSQL = `
        SELECT product_id::bigint, name::text, category::text, price::numeric, brand::text
        FROM products`

	selectReturnsSQL = `
        SELECT return_id::bigint, order_id::bigint, return_date::date, reason::text
        FROM returns`
)

// Reader reads the retail relations row by row. NULLs are preserved so the
// pipeline can classify them; rows that cannot be represented at all are
// returned as rejections.
type Reader struct {
	q db.Querier
}

// NewReader creates a reader over a pool, connection or transaction.
func NewReader(q db.Querier) *Reader {
	return &Reader{q: q}
}

// ReadOrders reads the orders relation.
func (r *Reader) ReadOrders(ctx context.Context) ([]retail.Order, []retail.Rejection, error) {
	rows, err := r.q.Query(ctx, selectOrdersSQL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []retail.Order
	var rejected []retail.Rejection
	for rows.Next() {
		var id, customerID pgtype.Int8
		var orderDate pgtype.Date
		var status pgtype.Text
		if err := rows.Scan(&id, &customerID, &orderDate, &status); err != nil {
			return nil, nil, fmt.Errorf("failed to scan orders: %w", err)
		}
		if !id.Valid {
			rejected = append(rejected, retail.Rejection{
				Relation: retail.RelationOrders, Reason: "order_id is NULL"})
			continue
		}
		orders = append(orders, retail.Order{
			ID:         id.Int64,
			CustomerID: customerID.Int64,
			OrderDate:  dateToTime(orderDate),
			Status:     status.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read orders: %w", err)
	}

	return orders, rejected, nil
}

// ReadOrderLines reads the order_items relation.
func (r *Reader) ReadOrderLines(ctx context.Context) ([]retail.OrderLine, []retail.Rejection, error) {
	rows, err := r.q.Query(ctx, selectOrderItemsSQL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query order_items: %w", err)
	}
	defer rows.Close()

	var lines []retail.OrderLine
	var rejected []retail.Rejection
	for rows.Next() {
		var id, orderID, productID, quantity pgtype.Int8
		var unitPrice pgtype.Numeric
		if err := rows.Scan(&id, &orderID, &productID, &quantity, &unitPrice); err != nil {
			return nil, nil, fmt.Errorf("failed to scan order_items: %w", err)
		}

		reject := func(reason string) {
			rejected = append(rejected, retail.Rejection{
				Relation: retail.RelationOrderItems, RowID: id.Int64, Reason: reason})
		}
		switch {
		case !id.Valid:
			reject("order_item_id is NULL")
			continue
		case !orderID.Valid:
			reject("order_id is NULL")
			continue
		case !productID.Valid:
			reject("product_id is NULL")
			continue
		}
		price, ok := numericToDecimal(unitPrice)
		if !ok {
			reject("unit_price is not a finite number")
			continue
		}

		lines = append(lines, retail.OrderLine{
			ID:        id.Int64,
			OrderID:   orderID.Int64,
			ProductID: productID.Int64,
			Quantity:  int8Ptr(quantity),
			UnitPrice: price,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read order_items: %w", err)
	}

	return lines, rejected, nil
}

// ReadProducts reads the products relation.
func (r *Reader) ReadProducts(ctx context.Context) ([]retail.Product, []retail.Rejection, error) {
	rows, err := r.q.Query(ctx, selectProductsSQL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []retail.Product
	var rejected []retail.Rejection
	for rows.Next() {
		var id pgtype.Int8
		var name, category, brand pgtype.Text
		var price pgtype.Numeric
		if err := rows.Scan(&id, &name, &category, &price, &brand); err != nil {
			return nil, nil, fmt.Errorf("failed to scan products: %w", err)
		}
		if !id.Valid {
			rejected = append(rejected, retail.Rejection{
				Relation: retail.RelationProducts, Reason: "product_id is NULL"})
			continue
		}

		// list price is informational; a NULL or NaN price is kept as zero
		listPrice, _ := numericToDecimal(price)
		products = append(products, retail.Product{
			ID:       id.Int64,
			Name:     name.String,
			Category: category.String,
			Price:    listPrice.Decimal,
			Brand:    brand.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read products: %w", err)
	}

	return products, rejected, nil
}

// ReadReturns reads the returns relation.
func (r *Reader) ReadReturns(ctx context.Context) ([]retail.Return, []retail.Rejection, error) {
	rows, err := r.q.Query(ctx, selectReturnsSQL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query returns: %w", err)
	}
	defer rows.Close()

	var returns []retail.Return
	var rejected []retail.Rejection
	for rows.Next() {
		var id, orderID pgtype.Int8
		var returnDate pgtype.Date
		var reason pgtype.Text
		if err := rows.Scan(&id, &orderID, &returnDate, &reason); err != nil {
			return nil, nil, fmt.Errorf("failed to scan returns: %w", err)
		}
		if !id.Valid {
			rejected = append(rejected, retail.Rejection{
				Relation: retail.RelationReturns, Reason: "return_id is NULL"})
			continue
		}
		returns = append(returns, retail.Return{
			ID:         id.Int64,
			OrderID:    int8Ptr(orderID),
			ReturnDate: dateToTime(returnDate),
			Reason:     reason.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read returns: %w", err)
	}

	return returns, rejected, nil
}
