package datagen

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newDecimal(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Customers = 10
	cfg.Products = 8
	cfg.Orders = 200
	return cfg
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := smallConfig()
	cfg.DefectRate = 0.1

	a, err := NewGenerator(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := NewGenerator(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if !reflect.DeepEqual(a.Orders, b.Orders) {
		t.Error("Same seed produced different orders")
	}
	if len(a.OrderLines) != len(b.OrderLines) || len(a.Returns) != len(b.Returns) {
		t.Fatal("Same seed produced different line or return counts")
	}
	for i := range a.OrderLines {
		la, lb := a.OrderLines[i], b.OrderLines[i]
		if la.OrderID != lb.OrderID || la.ProductID != lb.ProductID ||
			la.UnitPrice.Decimal.String() != lb.UnitPrice.Decimal.String() {
			t.Fatalf("Line %d differs between runs", i)
		}
	}
}

func TestGenerateClean(t *testing.T) {
	cfg := smallConfig()
	ds, err := NewGenerator(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(ds.Orders) != cfg.Orders {
		t.Errorf("Expected %d orders, got %d", cfg.Orders, len(ds.Orders))
	}
	if len(ds.Products) != cfg.Products {
		t.Errorf("Expected %d products, got %d", cfg.Products, len(ds.Products))
	}
	if len(ds.Customers) != cfg.Customers {
		t.Errorf("Expected %d customers, got %d", cfg.Customers, len(ds.Customers))
	}

	orders := make(map[int64]bool)
	for _, o := range ds.Orders {
		orders[o.ID] = true
		if o.OrderDate.Before(cfg.StartDate) || o.OrderDate.After(cfg.EndDate) {
			t.Errorf("Order %d date %s outside range", o.ID, o.OrderDate)
		}
	}
	products := make(map[int64]bool)
	for _, p := range ds.Products {
		products[p.ID] = true
		if p.Category == "" {
			t.Errorf("Product %d has no category", p.ID)
		}
	}

	for _, l := range ds.OrderLines {
		if !orders[l.OrderID] || !products[l.ProductID] {
			t.Errorf("Line %d has a dangling reference", l.ID)
		}
		if l.Quantity == nil || *l.Quantity < 1 {
			t.Errorf("Line %d has invalid quantity", l.ID)
		}
		if !l.UnitPrice.Valid || l.UnitPrice.Decimal.IsNegative() {
			t.Errorf("Line %d has invalid unit price", l.ID)
		}
	}
	for _, r := range ds.Returns {
		if r.OrderID == nil || !orders[*r.OrderID] {
			t.Errorf("Return %d has a dangling order", r.ID)
		}
	}
}

func TestGenerateNoReturns(t *testing.T) {
	cfg := smallConfig()
	cfg.ReturnRate = 0

	ds, err := NewGenerator(cfg).Generate(context.Background())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(ds.Returns) != 0 {
		t.Errorf("Expected no returns, got %d", len(ds.Returns))
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGenerator(smallConfig()).Generate(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero orders", func(c *Config) { c.Orders = 0 }, false},
		{"no products", func(c *Config) { c.Products = 0 }, true},
		{"no lines", func(c *Config) { c.MaxLinesPerOrder = 0 }, true},
		{"return rate above 1", func(c *Config) { c.ReturnRate = 1.5 }, true},
		{"negative defect rate", func(c *Config) { c.DefectRate = -0.1 }, true},
		{"reversed dates", func(c *Config) {
			c.EndDate = c.StartDate.Add(-24 * time.Hour)
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.wantError && err != nil {
				t.Errorf("Expected no error, got: %v", err)
			}
		})
	}
}

func TestProgressReporter(t *testing.T) {
	p := NewProgressReporter("orders", 100, 0)
	p.Update(40)
	p.Update(60)
	p.Done()

	if p.Rows() != 100 {
		t.Errorf("Expected 100 rows, got %d", p.Rows())
	}
}
