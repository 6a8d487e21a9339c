package pipeline

import (
	"cmp"
	"slices"
	"strings"
)

// OrderRows sorts rows by category, then month, both ascending.
func OrderRows(rows []Row) {
	slices.SortFunc(rows, func(a, b Row) int {
		return cmp.Or(
			strings.Compare(a.Category, b.Category),
			a.Month.Compare(b.Month),
		)
	})
}
