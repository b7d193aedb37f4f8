package handlers

import (
	"context"
	"net/http"

	"restaurant-console-go/internal/api"
	"restaurant-console-go/internal/app"
	"restaurant-console-go/internal/domain"
	"restaurant-console-go/internal/reconcile"
	"restaurant-console-go/internal/session"
)

// boardData loads what the waiter views reconcile. Waiters who may not
// list every order fall back to their own.
func (s *Server) boardData(ctx context.Context, snap session.Snapshot) ([]domain.Table, []domain.Order, *api.ErrorInfo) {
	c := s.App.API()
	tables := c.ListTables(ctx)
	if !tables.OK() {
		return nil, nil, tables.Err
	}
	orders := c.ListOrders(ctx)
	if !orders.OK() && snap.Claims.EmployeeID > 0 {
		s.App.Logger().Debug("full order list unavailable, using own orders", "err", orders.Err)
		orders = c.ListOrdersByEmployee(ctx, snap.Claims.EmployeeID)
	}
	if !orders.OK() {
		return nil, nil, orders.Err
	}
	return tables.Value, orders.Value, nil
}

func (s *Server) WaiterTablesGet(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.App.CurrentSession(r)
	tables, orders, e := s.boardData(r.Context(), snap)
	if e != nil {
		s.fail(w, e, "Could not load tables.")
		return
	}
	app.WriteOK(w, reconcile.WaiterGrid(tables, orders))
}

func (s *Server) AvailableTablesGet(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.App.CurrentSession(r)
	tables, orders, e := s.boardData(r.Context(), snap)
	if e != nil {
		s.fail(w, e, "Could not load tables.")
		return
	}
	app.WriteOK(w, reconcile.AvailableTables(tables, orders))
}

func (s *Server) OccupyTablePost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		badRequest(w, "Invalid table.")
		return
	}
	snap, _ := s.App.CurrentSession(r)
	employeeID := snap.Claims.EmployeeID
	if v := r.URL.Query().Get("employeeId"); v != "" && snap.Claims.Role == app.RoleAdmin {
		employeeID, _ = parseInt64(v)
	}
	if employeeID <= 0 {
		badRequest(w, "No employee is linked to this session.")
		return
	}

	res := s.App.API().OccupyTable(r.Context(), id, employeeID)
	if !res.OK() {
		s.fail(w, res.Err, "Could not occupy the table.")
		return
	}
	app.WriteOK(w, map[string]any{"tableId": id, "message": res.Value})
}
