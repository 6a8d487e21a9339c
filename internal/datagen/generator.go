package datagen

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-revreport/internal/logging"
	"github.com/pgEdge/pgedge-revreport/internal/retail"
)

// Reference data
var categories = []string{"Electronics", "Accessories", "Clothing", "Home", "Garden", "Sports", "Toys", "Books"}
var statuses = []string{retail.StatusShipped, retail.StatusDelivered, retail.StatusReturned}
var returnReasons = []string{"Damaged", "Wrong item", "Not as described", "Changed mind", "Late delivery"}

// First order id; matches the numbering of the seed schema.
const firstOrderID = 1001

// Config controls synthetic dataset generation.
type Config struct {
	Seed             uint64
	Customers        int
	Products         int
	Orders           int
	MaxLinesPerOrder int

	// ReturnRate is the probability that an order has at least one return.
	ReturnRate float64

	// DefectRate is the probability that an order line or return is
	// corrupted (dangling reference, NULL or negative value).
	DefectRate float64

	StartDate time.Time
	EndDate   time.Time
}

// DefaultConfig returns default generation settings.
func DefaultConfig() Config {
	return Config{
		Seed:             1,
		Customers:        200,
		Products:         50,
		Orders:           1000,
		MaxLinesPerOrder: 4,
		ReturnRate:       0.1,
		StartDate:        time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:          time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

// Validate checks that the settings can produce a dataset.
func (c Config) Validate() error {
	if c.Customers < 1 || c.Products < 1 {
		return fmt.Errorf("customers and products must be at least 1")
	}
	if c.Orders < 0 {
		return fmt.Errorf("orders must be non-negative")
	}
	if c.MaxLinesPerOrder < 1 {
		return fmt.Errorf("max_lines_per_order must be at least 1")
	}
	if c.ReturnRate < 0 || c.ReturnRate > 1 {
		return fmt.Errorf("return_rate must be between 0 and 1")
	}
	if c.DefectRate < 0 || c.DefectRate > 1 {
		return fmt.Errorf("defect_rate must be between 0 and 1")
	}
	if c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("end_date must not be before start_date")
	}
	return nil
}

// Generator builds synthetic retail datasets. The same Config always
// yields the same dataset.
type Generator struct {
	faker *Faker
	cfg   Config
}

// NewGenerator creates a generator seeded from cfg.Seed.
func NewGenerator(cfg Config) *Generator {
	return &Generator{
		faker: NewFakerWithSeed(cfg.Seed),
		cfg:   cfg,
	}
}

// Generate produces a dataset.
func (g *Generator) Generate(ctx context.Context) (*retail.Dataset, error) {
	if err := g.cfg.Validate(); err != nil {
		return nil, err
	}

	logging.Info().
		Uint64("seed", g.cfg.Seed).
		Int("orders", g.cfg.Orders).
		Float64("defect_rate", g.cfg.DefectRate).
		Msg("Generating synthetic retail data")

	ds := &retail.Dataset{}
	ds.Customers = g.generateCustomers()
	ds.Products = g.generateProducts()

	progress := NewProgressReporter(retail.RelationOrders, int64(g.cfg.Orders), 10000)
	for i := range g.cfg.Orders {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		g.generateOrder(ds, int64(firstOrderID+i))
		progress.Update(1)
	}
	progress.Done()

	return ds, nil
}

func (g *Generator) generateCustomers() []retail.Customer {
	customers := make([]retail.Customer, 0, g.cfg.Customers)
	for i := range g.cfg.Customers {
		customers = append(customers, retail.Customer{
			ID:         int64(i + 1),
			Name:       g.faker.Name(),
			Gender:     g.faker.Gender(),
			Age:        g.faker.Int(18, 80),
			SignupDate: g.faker.Date(g.cfg.StartDate.AddDate(-3, 0, 0), g.cfg.StartDate),
		})
	}
	return customers
}

func (g *Generator) generateProducts() []retail.Product {
	products := make([]retail.Product, 0, g.cfg.Products)
	for i := range g.cfg.Products {
		products = append(products, retail.Product{
			ID:       int64(i + 1),
			Name:     g.faker.ProductName(),
			Category: Choose(g.faker, categories),
			Price:    g.faker.Price(5, 2000),
			Brand:    g.faker.Company(),
		})
	}
	return products
}

func (g *Generator) generateOrder(ds *retail.Dataset, orderID int64) {
	returned := g.faker.Chance(g.cfg.ReturnRate)
	status := ChooseWeighted(g.faker, statuses[:2], []int{40, 60})
	if returned {
		status = retail.StatusReturned
	}

	orderDate := g.faker.Date(g.cfg.StartDate, g.cfg.EndDate)
	ds.Orders = append(ds.Orders, retail.Order{
		ID:         orderID,
		CustomerID: int64(g.faker.Int(1, g.cfg.Customers)),
		OrderDate:  orderDate,
		Status:     status,
	})

	for range g.faker.Int(1, g.cfg.MaxLinesPerOrder) {
		product := Choose(g.faker, ds.Products)
		line := retail.OrderLine{
			ID:        int64(len(ds.OrderLines) + 1),
			OrderID:   orderID,
			ProductID: product.ID,
			Quantity:  retail.Int64Ptr(int64(g.faker.Int(1, 5))),
			UnitPrice: decimal.NewNullDecimal(product.Price),
		}
		if g.faker.Chance(g.cfg.DefectRate) {
			g.corruptLine(&line)
		}
		ds.OrderLines = append(ds.OrderLines, line)
	}

	if !returned {
		return
	}
	for range g.faker.Int(1, 2) {
		orderRef := orderID
		r := retail.Return{
			ID:         int64(len(ds.Returns) + 1),
			OrderID:    &orderRef,
			ReturnDate: orderDate.AddDate(0, 0, g.faker.Int(1, 30)),
			Reason:     Choose(g.faker, returnReasons),
		}
		if g.faker.Chance(g.cfg.DefectRate) {
			if g.faker.Chance(0.5) {
				r.OrderID = nil
			} else {
				dangling := orderID + int64(g.cfg.Orders)
				r.OrderID = &dangling
			}
		}
		ds.Returns = append(ds.Returns, r)
	}
}

func (g *Generator) corruptLine(line *retail.OrderLine) {
	switch g.faker.Int(0, 4) {
	case 0:
		line.ProductID = int64(g.cfg.Products + g.faker.Int(1, 100))
	case 1:
		line.OrderID = -line.OrderID
	case 2:
		line.Quantity = nil
	case 3:
		line.UnitPrice = decimal.NewNullDecimal(line.UnitPrice.Decimal.Neg())
	default:
		line.Quantity = retail.Int64Ptr(-*line.Quantity)
	}
}

// ProgressReporter tracks and reports generation progress.
type ProgressReporter struct {
	tableName        string
	totalRows        int64
	currentRow       int64
	progressInterval int64
}

// NewProgressReporter creates a new progress reporter.
func NewProgressReporter(tableName string, totalRows int64, interval int64) *ProgressReporter {
	return &ProgressReporter{
		tableName:        tableName,
		totalRows:        totalRows,
		progressInterval: max(1, interval),
	}
}

// Update updates the progress and logs if necessary.
func (p *ProgressReporter) Update(rows int64) {
	oldRow := p.currentRow
	p.currentRow += rows

	// Check if we crossed a progress interval
	if p.currentRow/p.progressInterval > oldRow/p.progressInterval {
		pct := float64(p.currentRow) / float64(max(1, p.totalRows)) * 100
		logging.Debug().
			Str("table", p.tableName).
			Int64("rows", p.currentRow).
			Int64("total", p.totalRows).
			Float64("percent", pct).
			Msg("Generating data")
	}
}

// Done logs completion.
func (p *ProgressReporter) Done() {
	logging.Info().
		Str("table", p.tableName).
		Int64("rows", p.currentRow).
		Msg("Table complete")
}

// Rows returns the number of rows reported so far.
func (p *ProgressReporter) Rows() int64 {
	return p.currentRow
}
