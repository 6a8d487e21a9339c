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
	"fmt"

	"github.com/pgEdge/pgedge-revreport/internal/retail"
)

// ReturnIndex is the set of order ids with at least one return.
type ReturnIndex struct {
	orders map[int64]struct{}
}

// NewReturnIndex builds the set from returns. Returns with a NULL order id
// are malformed; returns whose order is unknown to knownOrder are
// referential defects. Neither is indexed. A nil knownOrder accepts every
// order id.
func NewReturnIndex(returns []retail.Return, knownOrder func(int64) bool,
	defects *DefectReport) *ReturnIndex {
	idx := &ReturnIndex{orders: make(map[int64]struct{})}

	for _, r := range returns {
		if r.OrderID == nil {
			defects.Add(Defect{MalformedValue, retail.RelationReturns, r.ID, "order_id is NULL"})
			continue
		}
		if knownOrder != nil && !knownOrder(*r.OrderID) {
			defects.Add(Defect{ReferentialDefect, retail.RelationReturns, r.ID,
				fmt.Sprintf("order %d not found", *r.OrderID)})
			continue
		}
		idx.orders[*r.OrderID] = struct{}{}
	}

	return idx
}

// Contains reports whether the order has been returned.
func (idx *ReturnIndex) Contains(orderID int64) bool {
	_, ok := idx.orders[orderID]
	return ok
}

// Len returns the number of distinct returned orders.
func (idx *ReturnIndex) Len() int {
	return len(idx.orders)
}

// Union adds every order id of other to idx.
func (idx *ReturnIndex) Union(other *ReturnIndex) {
	for id := range other.orders {
		idx.orders[id] = struct{}{}
	}
}
