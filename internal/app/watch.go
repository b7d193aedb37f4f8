package app

import (
	"context"
	"strconv"
	"strings"

	"restaurant-console-go/internal/api"
	"restaurant-console-go/internal/notify"
	"restaurant-console-go/internal/poller"
	"restaurant-console-go/internal/session"
)

const (
	ScopeAll     = "all"
	ScopeKitchen = "kitchen"

	employeeScopePrefix = "employee:"
)

func EmployeeScope(id int64) string { return employeeScopePrefix + strconv.FormatInt(id, 10) }

// StaffKeys lists the polling loops a staff member's stream follows.
func StaffKeys(c session.Claims) []poller.Key {
	switch c.Role {
	case RoleWaiter:
		orders := poller.Key{Kind: notify.KindOrder, Scope: ScopeAll}
		if c.EmployeeID > 0 {
			orders.Scope = EmployeeScope(c.EmployeeID)
		}
		return []poller.Key{orders, {Kind: notify.KindTable, Scope: ScopeAll}}
	case RoleCook:
		return []poller.Key{{Kind: notify.KindOrder, Scope: ScopeKitchen}}
	case RoleAdmin:
		return []poller.Key{
			{Kind: notify.KindOrder, Scope: ScopeAll},
			{Kind: notify.KindReservation, Scope: ScopeAll},
			{Kind: notify.KindTable, Scope: ScopeAll},
		}
	}
	return []poller.Key{{Kind: notify.KindOrder, Scope: ScopeAll}}
}

func CustomerKey(email string) poller.Key {
	return poller.Key{Kind: notify.KindReservation, Scope: CustomerScope(email)}
}

// Fetcher maps a key onto the API listing that feeds it.
func (a *App) Fetcher(key poller.Key) poller.FetchFunc {
	c := a.api
	switch key.Kind {
	case notify.KindReservation:
		if IsCustomerScope(key.Scope) {
			email := CustomerEmail(key.Scope)
			return func(ctx context.Context) ([]notify.Item, error) {
				return items(c.ListReservationsByEmail(ctx, email), notify.ReservationItems)
			}
		}
		return func(ctx context.Context) ([]notify.Item, error) {
			return items(c.ListReservations(ctx), notify.ReservationItems)
		}

	case notify.KindTable:
		return func(ctx context.Context) ([]notify.Item, error) {
			return items(c.ListTables(ctx), notify.TableItems)
		}

	case notify.KindOrder:
		switch {
		case key.Scope == ScopeKitchen:
			return func(ctx context.Context) ([]notify.Item, error) {
				return items(c.ListKitchenOrders(ctx), notify.OrderItems)
			}
		case strings.HasPrefix(key.Scope, employeeScopePrefix):
			id, _ := strconv.ParseInt(strings.TrimPrefix(key.Scope, employeeScopePrefix), 10, 64)
			return func(ctx context.Context) ([]notify.Item, error) {
				return items(c.ListOrdersByEmployee(ctx, id), notify.OrderItems)
			}
		}
		return func(ctx context.Context) ([]notify.Item, error) {
			return items(c.ListOrders(ctx), notify.OrderItems)
		}
	}
	return func(ctx context.Context) ([]notify.Item, error) { return nil, nil }
}

func items[T any](r api.Result[T], conv func(T) []notify.Item) ([]notify.Item, error) {
	if !r.OK() {
		return nil, r.Err
	}
	return conv(r.Value), nil
}
