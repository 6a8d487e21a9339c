//-------------------------------------------------------------------------
//
// pgEdge Revenue Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline computes monthly gross revenue and distinct returned
// order counts per product category.
//
// A run joins order lines to orders and products, indexes returned orders,
// groups the joined lines by (category, month) and sorts the result. Order
// lines and returns are split into contiguous partitions that are
// processed in parallel; partial aggregations are merged in partition
// order, so the output does not depend on the number of workers.
package pipeline

import (
	"context"
	"fmt"
	"iter"
	"runtime"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-revreport/internal/logging"
	"github.com/pgEdge/pgedge-revreport/internal/retail"
)

// Options controls a pipeline run.
type Options struct {
	// Workers is the number of parallel partitions (0 = GOMAXPROCS).
	Workers int

	// MaxPrecision is the total number of decimal digits, at scale 2,
	// that a line total or gross revenue may use.
	MaxPrecision int

	// DefectSampleSize caps the number of sampled defects.
	DefectSampleSize int
}

// DefaultOptions returns default pipeline options.
func DefaultOptions() Options {
	return Options{
		Workers:          0,
		MaxPrecision:     18,
		DefectSampleSize: 10,
	}
}

// Stats summarizes a run.
type Stats struct {
	Lines          int
	ProjectedLines int
	Buckets        int
	ReturnedOrders int
	Workers        int
	Duration       time.Duration
}

// Result is the outcome of a run.
type Result struct {
	Rows    []Row
	Defects *DefectReport
	Stats   Stats
}

// All yields the result rows in order.
func (r *Result) All() iter.Seq[Row] {
	return slices.Values(r.Rows)
}

type span struct{ lo, hi int }

// partition splits n items into at most workers contiguous spans.
func partition(n, workers int) []span {
	if n == 0 {
		return nil
	}
	workers = max(1, min(workers, n))
	size := (n + workers - 1) / workers

	spans := make([]span, 0, workers)
	for lo := 0; lo < n; lo += size {
		spans = append(spans, span{lo, min(lo+size, n)})
	}
	return spans
}

// Run computes the revenue report for ds. Per-row defects are skipped and
// reported in Result.Defects. ErrArithmeticOverflow and context errors
// abort the run without a result.
func Run(ctx context.Context, ds *retail.Dataset, opts Options) (*Result, error) {
	start := time.Now()

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if opts.MaxPrecision <= 2 {
		opts.MaxPrecision = DefaultOptions().MaxPrecision
	}

	defects := NewDefectReport(opts.DefectSampleSize)
	for _, r := range ds.Rejected {
		defects.Add(Defect{MalformedValue, r.Relation, r.RowID, r.Reason})
	}
	projector := NewProjector(ds.Orders, ds.Products, opts.MaxPrecision, defects)
	orderLines := uniqueLines(ds.OrderLines, defects)

	lineSpans := partition(len(orderLines), workers)
	returnSpans := partition(len(ds.Returns), workers)

	partialAggs := make([]*Aggregation, len(lineSpans))
	lineDefects := make([]*DefectReport, len(lineSpans))
	projected := make([]int, len(lineSpans))
	partialIdx := make([]*ReturnIndex, len(returnSpans))
	returnDefects := make([]*DefectReport, len(returnSpans))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, s := range lineSpans {
		lineDefects[i] = NewDefectReport(opts.DefectSampleSize)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lines, err := projector.Project(orderLines[s.lo:s.hi], lineDefects[i])
			if err != nil {
				return err
			}
			agg := NewAggregation(opts.MaxPrecision)
			for _, line := range lines {
				if err := agg.Add(line); err != nil {
					return err
				}
			}
			partialAggs[i] = agg
			projected[i] = len(lines)
			return nil
		})
	}

	for i, s := range returnSpans {
		returnDefects[i] = NewDefectReport(opts.DefectSampleSize)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partialIdx[i] = NewReturnIndex(ds.Returns[s.lo:s.hi], projector.HasOrder, returnDefects[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("revenue pipeline failed: %w", err)
	}

	agg := NewAggregation(opts.MaxPrecision)
	stats := Stats{Lines: len(ds.OrderLines), Workers: workers}
	for i, partial := range partialAggs {
		if err := agg.Merge(partial); err != nil {
			return nil, fmt.Errorf("revenue pipeline failed: %w", err)
		}
		defects.Merge(lineDefects[i])
		stats.ProjectedLines += projected[i]
	}

	idx := &ReturnIndex{orders: make(map[int64]struct{})}
	for i, partial := range partialIdx {
		idx.Union(partial)
		defects.Merge(returnDefects[i])
	}

	rows := agg.Finalize(idx)
	OrderRows(rows)

	stats.Buckets = agg.Len()
	stats.ReturnedOrders = idx.Len()
	stats.Duration = time.Since(start)

	logging.Info().
		Int("lines", stats.Lines).
		Int("projected", stats.ProjectedLines).
		Int("buckets", stats.Buckets).
		Int("returned_orders", stats.ReturnedOrders).
		Int("workers", stats.Workers).
		Dur("duration", stats.Duration).
		Msg("Revenue pipeline complete")

	if total := defects.Total(); total > 0 {
		logging.Warn().
			Int("referential", defects.Count(ReferentialDefect)).
			Int("malformed", defects.Count(MalformedValue)).
			Msg("Skipped defective rows")
		for _, d := range defects.Samples {
			logging.Debug().
				Str("kind", string(d.Kind)).
				Str("relation", d.Relation).
				Int64("row_id", d.RowID).
				Str("reason", d.Reason).
				Msg("Defect sample")
		}
	}

	return &Result{Rows: rows, Defects: defects, Stats: stats}, nil
}
