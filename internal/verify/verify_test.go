package verify

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-revreport/internal/pipeline"
)

func row(category string, month time.Month, revenue string, returned int) pipeline.Row {
	return pipeline.Row{
		Category:       category,
		Month:          time.Date(2023, month, 1, 0, 0, 0, 0, time.UTC),
		GrossRevenue:   decimal.RequireFromString(revenue),
		ReturnedOrders: returned,
	}
}

func TestCompareEqual(t *testing.T) {
	got := []pipeline.Row{
		row("Accessories", time.March, "240.00", 0),
		row("Electronics", time.February, "2000.00", 1),
	}
	want := []pipeline.Row{
		row("Electronics", time.February, "2000", 1),
		row("Accessories", time.March, "240.0", 0),
	}

	if ms := Compare(got, want); len(ms) != 0 {
		t.Errorf("Compare() = %v, want no mismatches", ms)
	}
}

func TestCompareDifferences(t *testing.T) {
	got := []pipeline.Row{
		row("Books", time.January, "10.00", 0),
		row("Electronics", time.February, "2000.00", 1),
		row("Toys", time.May, "5.00", 0),
	}
	want := []pipeline.Row{
		row("Books", time.January, "10.00", 1),
		row("Electronics", time.February, "1999.99", 1),
		row("Accessories", time.March, "240.00", 0),
	}

	ms := Compare(got, want)
	if len(ms) != 4 {
		t.Fatalf("Compare() returned %d mismatches, want 4: %v", len(ms), ms)
	}

	wantOrder := []string{"Accessories", "Books", "Electronics", "Toys"}
	for i, m := range ms {
		if m.Category != wantOrder[i] {
			t.Errorf("mismatch %d category = %s, want %s", i, m.Category, wantOrder[i])
		}
	}

	if ms[0].Got != nil || ms[0].Want == nil {
		t.Error("Accessories should be missing from got")
	}
	if ms[3].Got == nil || ms[3].Want != nil {
		t.Error("Toys should be missing from want")
	}
	if ms[1].Got.ReturnedOrders != 0 || ms[1].Want.ReturnedOrders != 1 {
		t.Errorf("Books mismatch = %v", ms[1])
	}
}

func TestCompareEmpty(t *testing.T) {
	if ms := Compare(nil, nil); len(ms) != 0 {
		t.Errorf("Compare(nil, nil) = %v, want none", ms)
	}
}

func TestMismatchString(t *testing.T) {
	got := row("Electronics", time.February, "2000", 1)
	m := Mismatch{Category: "Electronics", Month: got.Month, Got: &got}

	s := m.String()
	for _, want := range []string{"Electronics", "2023-02-01", "revenue=2000.00", "want missing"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
