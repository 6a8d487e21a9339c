//-------------------------------------------------------------------------
//
// pgEdge Revenue Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package retail defines the retail relations read by the revenue report:
// customers, orders, order lines, products and returns.
package retail

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values.
const (
	StatusShipped   = "Shipped"
	StatusDelivered = "Delivered"
	StatusReturned  = "Returned"
)

// Relation names, used when reporting defects and when reading tables.
const (
	RelationCustomers  = "customers"
	RelationOrders     = "orders"
	RelationOrderItems = "order_items"
	RelationProducts   = "products"
	RelationReturns    = "returns"
)

// Customer is a customer of the store. It is not consumed by the revenue
// aggregation.
type Customer struct {
	ID         int64
	Name       string
	Gender     string
	Age        int
	SignupDate time.Time
}

// Order is a customer order. A zero OrderDate means the date was NULL or
// could not be read.
type Order struct {
	ID         int64
	CustomerID int64
	OrderDate  time.Time
	Status     string
}

// OrderLine is one line item of an order. Quantity and UnitPrice are
// nullable on input; a nil Quantity or an invalid UnitPrice is a malformed
// value.
type OrderLine struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  *int64
	UnitPrice decimal.NullDecimal
}

// Total returns quantity * unit price. ok is false when either operand is
// NULL.
func (l OrderLine) Total() (total decimal.Decimal, ok bool) {
	if l.Quantity == nil || !l.UnitPrice.Valid {
		return decimal.Zero, false
	}
	return l.UnitPrice.Decimal.Mul(decimal.NewFromInt(*l.Quantity)), true
}

// Product is a sellable product. Category is the revenue grouping key.
type Product struct {
	ID       int64
	Name     string
	Category string
	Price    decimal.Decimal
	Brand    string
}

// Return records a returned order. An order may have several returns.
// OrderID is nil when the column was NULL.
type Return struct {
	ID         int64
	OrderID    *int64
	ReturnDate time.Time
	Reason     string
}

// Rejection is a row a source read but could not represent, such as one
// with a NULL key column or a non-finite price.
type Rejection struct {
	Relation string
	RowID    int64
	Reason   string
}

// Dataset is an immutable snapshot of the relations for one report run.
type Dataset struct {
	Customers  []Customer
	Orders     []Order
	OrderLines []OrderLine
	Products   []Product
	Returns    []Return

	// Rejected rows are reported as malformed values by the pipeline.
	Rejected []Rejection
}

// Counts returns the number of rows per relation.
func (d *Dataset) Counts() map[string]int {
	return map[string]int{
		RelationCustomers:  len(d.Customers),
		RelationOrders:     len(d.Orders),
		RelationOrderItems: len(d.OrderLines),
		RelationProducts:   len(d.Products),
		RelationReturns:    len(d.Returns),
	}
}

// MonthStart truncates t to midnight UTC on the first day of its month.
// The civil year and month of t are kept as-is; no timezone conversion is
// applied.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}

// Price builds a valid nullable decimal from a string such as "19.99".
// It panics on malformed input and is intended for fixtures and constants.
func Price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}
