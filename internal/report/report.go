//-------------------------------------------------------------------------
//
// pgEdge Revenue Report
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package report renders pipeline results.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pgEdge/pgedge-revreport/internal/pipeline"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatCSV   = "csv"
)

// Formats lists the supported output formats.
var Formats = []string{FormatTable, FormatJSON, FormatYAML, FormatCSV}

// Record is the serialized form of a result row. Revenue is a string so
// that it keeps exactly two fractional digits.
type Record struct {
	Category       string `json:"category" yaml:"category"`
	Month          string `json:"month" yaml:"month"`
	GrossRevenue   string `json:"gross_revenue" yaml:"gross_revenue"`
	ReturnedOrders int    `json:"returned_orders" yaml:"returned_orders"`
}

// DefectSummary is the serialized form of a defect report.
type DefectSummary struct {
	Referential int      `json:"referential" yaml:"referential"`
	Malformed   int      `json:"malformed" yaml:"malformed"`
	Samples     []string `json:"samples,omitempty" yaml:"samples,omitempty"`
}

// Document is what the structured formats emit.
type Document struct {
	Rows    []Record       `json:"rows" yaml:"rows"`
	Defects *DefectSummary `json:"defects,omitempty" yaml:"defects,omitempty"`
}

// NewRecord converts a result row.
func NewRecord(r pipeline.Row) Record {
	return Record{
		Category:       r.Category,
		Month:          r.Month.Format(time.DateOnly),
		GrossRevenue:   r.GrossRevenue.StringFixed(2),
		ReturnedOrders: r.ReturnedOrders,
	}
}

// NewDocument builds the structured form of a result. defects may be nil.
func NewDocument(rows []pipeline.Row, defects *pipeline.DefectReport) Document {
	doc := Document{Rows: make([]Record, 0, len(rows))}
	for _, r := range rows {
		doc.Rows = append(doc.Rows, NewRecord(r))
	}
	if defects != nil && defects.Total() > 0 {
		summary := &DefectSummary{
			Referential: defects.Count(pipeline.ReferentialDefect),
			Malformed:   defects.Count(pipeline.MalformedValue),
		}
		for _, d := range defects.Samples {
			summary.Samples = append(summary.Samples, d.String())
		}
		doc.Defects = summary
	}
	return doc
}

// Render writes the result to w in the given format. The table and CSV
// formats carry rows only; defects go to the log.
func Render(w io.Writer, format string, result *pipeline.Result) error {
	switch format {
	case FormatTable, "":
		return renderTable(w, result.Rows)
	case FormatCSV:
		return renderCSV(w, result.Rows)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(NewDocument(result.Rows, result.Defects)); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(result.Rows, result.Defects)); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format '%s' (supported: %v)", format, Formats)
	}
}

// ValidFormat reports whether format is supported.
func ValidFormat(format string) bool {
	return slices.Contains(Formats, format)
}

func renderTable(w io.Writer, rows []pipeline.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tMONTH\tGROSS REVENUE\tRETURNED ORDERS")
	for _, r := range rows {
		rec := NewRecord(r)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n",
			rec.Category, rec.Month, rec.GrossRevenue, rec.ReturnedOrders)
	}
	return tw.Flush()
}

func renderCSV(w io.Writer, rows []pipeline.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"category", "month", "gross_revenue", "returned_orders"}); err != nil {
		return err
	}
	for _, r := range rows {
		rec := NewRecord(r)
		if err := cw.Write([]string{
			rec.Category, rec.Month, rec.GrossRevenue, strconv.Itoa(rec.ReturnedOrders),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
