// Package postgres reads the retail relations from a PostgreSQL database.
package postgres

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-revreport/internal/config"
	"github.com/pgEdge/pgedge-revreport/internal/db"
	"github.com/pgEdge/pgedge-revreport/internal/logging"
	"github.com/pgEdge/pgedge-revreport/internal/retail"
	"github.com/pgEdge/pgedge-revreport/internal/source"
)

// Name is the registered source name.
const Name = "postgres"

// Source loads the dataset from PostgreSQL.
type Source struct {
	connString string
	maxConns   int32
}

// New creates a PostgreSQL source.
func New(connString string, maxConns int32) *Source {
	return &Source{connString: connString, maxConns: maxConns}
}

// FromConfig creates a PostgreSQL source from configuration.
func FromConfig(cfg *config.Config) (source.Source, error) {
	if cfg.Connection == "" {
		return nil, fmt.Errorf("connection string is required for the postgres source")
	}
	return New(cfg.Connection, int32(cfg.Report.MaxConns)), nil
}

// Name returns the source name.
func (s *Source) Name() string {
	return Name
}

// Load connects, reads the four relations concurrently and disconnects.
func (s *Source) Load(ctx context.Context) (*retail.Dataset, error) {
	pool, err := db.Connect(ctx, s.connString, s.maxConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	return Load(ctx, NewReader(pool))
}

// Load reads the dataset through r. Any relation that fails to read fails
// the whole load.
func Load(ctx context.Context, r *Reader) (*retail.Dataset, error) {
	ds := &retail.Dataset{}
	var orderRej, lineRej, productRej, returnRej []retail.Rejection

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds.Orders, orderRej, err = r.ReadOrders(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ds.OrderLines, lineRej, err = r.ReadOrderLines(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Products, productRej, err = r.ReadProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Returns, returnRej, err = r.ReadReturns(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, rej := range [][]retail.Rejection{orderRej, lineRej, productRej, returnRej} {
		ds.Rejected = append(ds.Rejected, rej...)
	}

	counts := ds.Counts()
	logging.Info().
		Int(retail.RelationOrders, counts[retail.RelationOrders]).
		Int(retail.RelationOrderItems, counts[retail.RelationOrderItems]).
		Int(retail.RelationProducts, counts[retail.RelationProducts]).
		Int(retail.RelationReturns, counts[retail.RelationReturns]).
		Int("rejected", len(ds.Rejected)).
		Msg("Loaded retail relations")

	return ds, nil
}

func init() {
	source.Register(source.Descriptor{
		Name:        Name,
		Description: "PostgreSQL tables orders, order_items, products and returns",
		New:         FromConfig,
	})
}
