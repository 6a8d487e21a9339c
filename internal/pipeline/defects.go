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
	"errors"
	"fmt"
)

// ErrArithmeticOverflow is returned when a line total or a bucket's gross
// revenue no longer fits the configured decimal precision. The run is
// aborted and no partial result is returned.
var ErrArithmeticOverflow = errors.New("arithmetic overflow")

// DefectKind classifies a row that was skipped.
type DefectKind string

const (
	// ReferentialDefect is a dangling order or product reference.
	ReferentialDefect DefectKind = "referential"

	// MalformedValue is a NULL required field, a negative quantity or
	// price, or an unreadable date.
	MalformedValue DefectKind = "malformed"
)

// Defect describes one skipped row.
type Defect struct {
	Kind     DefectKind
	Relation string
	RowID    int64
	Reason   string
}

func (d Defect) String() string {
	return fmt.Sprintf("%s %s row %d: %s", d.Kind, d.Relation, d.RowID, d.Reason)
}

// DefectReport counts skipped rows per kind and keeps the first few as
// samples.
type DefectReport struct {
	Counts  map[DefectKind]int
	Samples []Defect

	sampleSize int
}

// NewDefectReport creates an empty report keeping at most sampleSize
// samples.
func NewDefectReport(sampleSize int) *DefectReport {
	return &DefectReport{
		Counts:     make(map[DefectKind]int),
		sampleSize: max(0, sampleSize),
	}
}

// Add records a defect.
func (r *DefectReport) Add(d Defect) {
	r.Counts[d.Kind]++
	if len(r.Samples) < r.sampleSize {
		r.Samples = append(r.Samples, d)
	}
}

// Merge folds other into r. Samples from other are appended after r's own
// until the sample cap is reached.
func (r *DefectReport) Merge(other *DefectReport) {
	if other == nil {
		return
	}
	for kind, n := range other.Counts {
		r.Counts[kind] += n
	}
	for _, d := range other.Samples {
		if len(r.Samples) >= r.sampleSize {
			break
		}
		r.Samples = append(r.Samples, d)
	}
}

// Count returns the number of defects of the given kind.
func (r *DefectReport) Count(kind DefectKind) int {
	return r.Counts[kind]
}

// Total returns the number of defects of all kinds.
func (r *DefectReport) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}
