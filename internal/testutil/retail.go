package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-revreport/internal/retail"
)

// RetailSchemaSQL creates the retail relations. There are no foreign keys;
// fixtures may hold dangling references.
const RetailSchemaSQL = `
CREATE TABLE customers (
    customer_id  INTEGER PRIMARY KEY,
    name         TEXT,
    gender       VARCHAR(10),
    age          INTEGER,
    signup_date  DATE
);

CREATE TABLE products (
    product_id   INTEGER PRIMARY KEY,
    name         TEXT,
    category     VARCHAR(50),
    price        NUMERIC(10,2),
    brand        TEXT
);

CREATE TABLE orders (
    order_id     INTEGER PRIMARY KEY,
    customer_id  INTEGER,
    order_date   DATE,
    status       VARCHAR(20)
);

CREATE TABLE order_items (
    order_item_id INTEGER PRIMARY KEY,
    order_id      INTEGER,
    product_id    INTEGER,
    quantity      INTEGER,
    unit_price    NUMERIC(10,2)
);

CREATE TABLE returns (
    return_id    INTEGER PRIMARY KEY,
    order_id     INTEGER,
    return_date  DATE,
    reason       VARCHAR(100)
);
`

// InsertDataset bulk-loads ds with COPY. Zero dates and invalid decimals
// are written as NULL.
func InsertDataset(t *testing.T, pool *pgxpool.Pool, ds *retail.Dataset) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	copyRows := func(table string, columns []string, rows [][]any) {
		if len(rows) == 0 {
			return
		}
		if _, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
			t.Fatalf("Failed to copy %s: %v", table, err)
		}
	}

	var rows [][]any
	for _, c := range ds.Customers {
		rows = append(rows, []any{c.ID, c.Name, c.Gender, c.Age, date(c.SignupDate)})
	}
	copyRows(retail.RelationCustomers,
		[]string{"customer_id", "name", "gender", "age", "signup_date"}, rows)

	rows = nil
	for _, p := range ds.Products {
		rows = append(rows, []any{p.ID, p.Name, p.Category, numeric(decimal.NewNullDecimal(p.Price)), p.Brand})
	}
	copyRows(retail.RelationProducts,
		[]string{"product_id", "name", "category", "price", "brand"}, rows)

	rows = nil
	for _, o := range ds.Orders {
		rows = append(rows, []any{o.ID, o.CustomerID, date(o.OrderDate), o.Status})
	}
	copyRows(retail.RelationOrders,
		[]string{"order_id", "customer_id", "order_date", "status"}, rows)

	rows = nil
	for _, l := range ds.OrderLines {
		rows = append(rows, []any{l.ID, l.OrderID, l.ProductID, l.Quantity, numeric(l.UnitPrice)})
	}
	copyRows(retail.RelationOrderItems,
		[]string{"order_item_id", "order_id", "product_id", "quantity", "unit_price"}, rows)

	rows = nil
	for _, r := range ds.Returns {
		rows = append(rows, []any{r.ID, r.OrderID, date(r.ReturnDate), r.Reason})
	}
	copyRows(retail.RelationReturns,
		[]string{"return_id", "order_id", "return_date", "reason"}, rows)
}

func date(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}

func numeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: d.Decimal.Coefficient(), Exp: d.Decimal.Exponent(), Valid: true}
}
