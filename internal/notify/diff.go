package notify

import (
	"fmt"
	"time"

	"restaurant-console-go/internal/domain"
)

// Item is the view of an entity the diff needs: its id, its status label
// and how to describe a creation.
type Item struct {
	ID      int64
	Status  string
	Created string
}

// Diff compares two snapshots by id. New ids become created events; ids
// whose status label changed become classified updates. Events follow the
// order of next. Items without an id are ignored; ids that disappeared
// produce nothing.
func Diff(kind Kind, prev, next []Item, now time.Time) []Change {
	before := make(map[int64]Item, len(prev))
	for _, it := range prev {
		if it.ID != 0 {
			before[it.ID] = it
		}
	}

	var out []Change
	for _, it := range next {
		if it.ID == 0 {
			continue
		}
		old, seen := before[it.ID]
		if !seen {
			out = append(out, Change{
				Kind:      kind,
				Action:    ActionCreated,
				ID:        it.ID,
				Message:   it.Created,
				To:        it.Status,
				Timestamp: now,
			})
			continue
		}
		if old.Status == it.Status {
			continue
		}
		action := Classify(it.Status)
		out = append(out, Change{
			Kind:      kind,
			Action:    action,
			ID:        it.ID,
			Message:   fmt.Sprintf("%s %d %s: status changed from %q to %q", kindTitle(kind), it.ID, action, old.Status, it.Status),
			From:      old.Status,
			To:        it.Status,
			Timestamp: now,
		})
	}
	return out
}

func kindTitle(k Kind) string {
	switch k {
	case KindReservation:
		return "Reservation"
	case KindOrder:
		return "Order"
	case KindTable:
		return "Table"
	}
	return string(k)
}

func ReservationItems(rs []domain.Reservation) []Item {
	out := make([]Item, 0, len(rs))
	for _, r := range rs {
		out = append(out, Item{
			ID:      r.ID,
			Status:  r.StatusLabel(),
			Created: fmt.Sprintf("New reservation created for %s", r.Date),
		})
	}
	return out
}

func OrderItems(orders []domain.Order) []Item {
	out := make([]Item, 0, len(orders))
	for _, o := range orders {
		msg := fmt.Sprintf("New order %d", o.ID)
		if n, ok := o.TableNumber(); ok {
			msg += " for table " + n
		}
		out = append(out, Item{ID: o.ID, Status: o.Status, Created: msg})
	}
	return out
}

func TableItems(ts []domain.Table) []Item {
	out := make([]Item, 0, len(ts))
	for _, t := range ts {
		out = append(out, Item{
			ID:      t.ID,
			Status:  t.Status,
			Created: fmt.Sprintf("New table %s", t.Number),
		})
	}
	return out
}

func DiffReservations(prev, next []domain.Reservation, now time.Time) []Change {
	return Diff(KindReservation, ReservationItems(prev), ReservationItems(next), now)
}

func DiffOrders(prev, next []domain.Order, now time.Time) []Change {
	return Diff(KindOrder, OrderItems(prev), OrderItems(next), now)
}

func DiffTables(prev, next []domain.Table, now time.Time) []Change {
	return Diff(KindTable, TableItems(prev), TableItems(next), now)
}
