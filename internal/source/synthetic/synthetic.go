// Package synthetic provides a seeded, generated retail dataset as a
// report source.
package synthetic

import (
	"context"

	"github.com/pgEdge/pgedge-revreport/internal/config"
	"github.com/pgEdge/pgedge-revreport/internal/datagen"
	"github.com/pgEdge/pgedge-revreport/internal/retail"
	"github.com/pgEdge/pgedge-revreport/internal/source"
)

// Name is the registered source name.
const Name = "synthetic"

// Source generates its dataset on Load.
type Source struct {
	cfg datagen.Config
}

// New creates a synthetic source from generator settings.
func New(cfg datagen.Config) *Source {
	return &Source{cfg: cfg}
}

// FromConfig maps the synthetic config section onto generator settings.
func FromConfig(cfg *config.Config) (source.Source, error) {
	start, end, err := cfg.Synthetic.Dates()
	if err != nil {
		return nil, err
	}

	gen := datagen.Config{
		Seed:             cfg.Synthetic.Seed,
		Customers:        cfg.Synthetic.Customers,
		Products:         cfg.Synthetic.Products,
		Orders:           cfg.Synthetic.Orders,
		MaxLinesPerOrder: cfg.Synthetic.MaxLinesPerOrder,
		ReturnRate:       cfg.Synthetic.ReturnRate,
		DefectRate:       cfg.Synthetic.DefectRate,
		StartDate:        start,
		EndDate:          end,
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return New(gen), nil
}

// Name returns the source name.
func (s *Source) Name() string {
	return Name
}

// Load generates the dataset.
func (s *Source) Load(ctx context.Context) (*retail.Dataset, error) {
	return datagen.NewGenerator(s.cfg).Generate(ctx)
}

func init() {
	source.Register(source.Descriptor{
		Name:        Name,
		Description: "Seeded synthetic retail data (gofakeit), with optional defect injection",
		New:         FromConfig,
	})
}
