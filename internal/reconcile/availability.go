// Package reconcile derives table availability and the waiter/kitchen
// views from raw table and order snapshots. Nothing here fails: empty or
// malformed inputs degrade to empty results.
package reconcile

import (
	"strings"

	"restaurant-console-go/internal/domain"
)

// AvailableTables returns the tables that can take a new order, in input
// order.
//
// Orders reference tables by display number, not id, so the join relies
// on numbers being unique within one snapshot. A table no active order
// points at is available unless its own status says occupied.
func AvailableTables(tables []domain.Table, orders []domain.Order) []domain.Table {
	occupied := map[int64]bool{}
	candidates := make([]domain.Table, 0, len(tables))
	for _, t := range tables {
		if t.State() == domain.TableOccupied {
			occupied[t.ID] = true
			continue
		}
		candidates = append(candidates, t)
	}

	busy := ActiveTableNumbers(orders)

	out := make([]domain.Table, 0, len(candidates))
	for _, t := range candidates {
		if occupied[t.ID] {
			continue
		}
		if busy[numberKey(t.Number)] {
			continue
		}
		out = append(out, t)
	}
	return out
}

// ActiveTableNumbers is the set of table numbers referenced by orders that
// are neither paid nor cancelled. Takeout orders add nothing.
func ActiveTableNumbers(orders []domain.Order) map[string]bool {
	set := make(map[string]bool, len(orders))
	for _, o := range orders {
		if !o.IsActive() {
			continue
		}
		n, ok := o.TableNumber()
		if !ok {
			continue
		}
		set[numberKey(domain.Label(n))] = true
	}
	return set
}

func numberKey(n domain.Label) string {
	return strings.TrimSpace(string(n))
}
