package reconcile

import (
	"sort"

	"restaurant-console-go/internal/domain"
)

type KitchenFilter string

const (
	KitchenAll           KitchenFilter = "ALL"
	KitchenPending       KitchenFilter = "PENDING"
	KitchenInPreparation KitchenFilter = "IN_PREPARATION"
	KitchenReady         KitchenFilter = "READY"
)

// ParseKitchenFilter accepts the English names and the labels the kitchen
// screen used (TODOS, PENDIENTE, EN_PREPARACION, LISTO).
func ParseKitchenFilter(s string) KitchenFilter {
	switch domain.NormalizeLabel(s) {
	case "pending", "pendiente":
		return KitchenPending
	case "in preparation", "en preparacion":
		return KitchenInPreparation
	case "ready", "listo":
		return KitchenReady
	}
	return KitchenAll
}

// KitchenQueue keeps orders matching f, preserving input order.
func KitchenQueue(orders []domain.Order, f KitchenFilter) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if matchesKitchen(o.State(), f) {
			out = append(out, o)
		}
	}
	return out
}

func matchesKitchen(s domain.OrderStatus, f KitchenFilter) bool {
	switch f {
	case KitchenPending:
		return s == domain.OrderPending
	case KitchenInPreparation:
		return s == domain.OrderInPreparation
	case KitchenReady:
		return s == domain.OrderReady
	}
	return true
}

// KitchenCounts tallies the queue by status for the dashboard header.
func KitchenCounts(orders []domain.Order) map[string]int {
	out := map[string]int{}
	for _, o := range orders {
		out[o.State().String()]++
	}
	return out
}

// ChargeableOrders keeps the orders a cashier can collect: ready or
// delivered. Labels like PREPARADO parse as ready.
func ChargeableOrders(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		switch o.State() {
		case domain.OrderReady, domain.OrderDelivered:
			out = append(out, o)
		}
	}
	return out
}

type MonitorFilter string

const (
	MonitorAll        MonitorFilter = "ALL"
	MonitorInProgress MonitorFilter = "IN_PROGRESS"
	MonitorCompleted  MonitorFilter = "COMPLETED"
)

func ParseMonitorFilter(s string) MonitorFilter {
	switch domain.NormalizeLabel(s) {
	case "in progress", "en curso", "en proceso":
		return MonitorInProgress
	case "completed", "completados", "completado":
		return MonitorCompleted
	}
	return MonitorAll
}

// MonitorCounts is the admin order monitor header.
type MonitorCounts struct {
	Total      int `json:"total"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}

// stage sorts a status into the monitor's buckets. Unrecognised labels
// stay in progress.
func stage(s domain.OrderStatus) MonitorFilter {
	switch s {
	case domain.OrderDelivered, domain.OrderPaid:
		return MonitorCompleted
	case domain.OrderCancelled:
		return ""
	}
	return MonitorInProgress
}

// OrderMonitor filters orders for the admin monitor and counts every order,
// not just the filtered ones.
func OrderMonitor(orders []domain.Order, f MonitorFilter) ([]domain.Order, MonitorCounts) {
	c := MonitorCounts{Total: len(orders)}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		st := stage(o.State())
		switch st {
		case MonitorInProgress:
			c.InProgress++
		case MonitorCompleted:
			c.Completed++
		default:
			c.Cancelled++
		}
		if f == MonitorAll || f == st {
			out = append(out, o)
		}
	}
	return out, c
}

// TableCard is one cell of the waiter grid.
type TableCard struct {
	Table          domain.Table `json:"table"`
	Status         string       `json:"status"`
	ActiveOrderIDs []int64      `json:"activeOrderIds"`
	Available      bool         `json:"available"`
	CanCreateOrder bool         `json:"canCreateOrder"`
}

// WaiterGrid builds the waiter's table view. A waiter may start an order
// on a free table or add one to a table already marked occupied.
func WaiterGrid(tables []domain.Table, orders []domain.Order) []TableCard {
	byNumber := map[string][]int64{}
	for _, o := range orders {
		if !o.IsActive() {
			continue
		}
		if n, ok := o.TableNumber(); ok {
			k := numberKey(domain.Label(n))
			byNumber[k] = append(byNumber[k], o.ID)
		}
	}
	avail := map[int64]bool{}
	for _, t := range AvailableTables(tables, orders) {
		avail[t.ID] = true
	}

	cards := make([]TableCard, 0, len(tables))
	for _, t := range tables {
		ids := append([]int64{}, byNumber[numberKey(t.Number)]...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		st := t.State()
		cards = append(cards, TableCard{
			Table:          t,
			Status:         st.String(),
			ActiveOrderIDs: ids,
			Available:      avail[t.ID],
			CanCreateOrder: st == domain.TableFree || st == domain.TableOccupied,
		})
	}
	return cards
}
