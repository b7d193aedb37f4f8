package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"restaurant-console-go/internal/api"
	"restaurant-console-go/internal/app"
	"restaurant-console-go/internal/domain"
	"restaurant-console-go/internal/reconcile"
)

type orderLineForm struct {
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
	Notes     string `json:"notes"`
}

type orderForm struct {
	TableID    int64           `json:"tableId"`
	CustomerID int64           `json:"customerId"`
	Notes      string          `json:"notes"`
	Lines      []orderLineForm `json:"lines"`
}

func (f orderLineForm) request() domain.OrderLineRequest {
	return domain.OrderLineRequest{ProductID: f.ProductID, Quantity: f.Quantity, Notes: strings.TrimSpace(f.Notes)}
}

func validLines(lines []orderLineForm) bool {
	if len(lines) == 0 {
		return false
	}
	for _, l := range lines {
		if l.ProductID <= 0 || l.Quantity <= 0 {
			return false
		}
	}
	return true
}

func (s *Server) WaiterOrdersGet(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.App.CurrentSession(r)
	if snap.Claims.EmployeeID <= 0 {
		respond(s, w, s.App.API().ListOrders(r.Context()), "Could not load orders.")
		return
	}
	respond(s, w, s.App.API().ListOrdersByEmployee(r.Context(), snap.Claims.EmployeeID), "Could not load orders.")
}

func (s *Server) OrderGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		badRequest(w, "Invalid order.")
		return
	}
	respond(s, w, s.App.API().GetOrder(r.Context(), id), "Could not load the order.")
}

func (s *Server) OrderCreatePost(w http.ResponseWriter, r *http.Request) {
	var f orderForm
	if err := decode(r, &f); err != nil {
		badRequest(w, err.Error())
		return
	}
	if f.TableID <= 0 || !validLines(f.Lines) {
		badRequest(w, "Pick a table and add at least one product.")
		return
	}
	snap, _ := s.App.CurrentSession(r)
	if snap.Claims.EmployeeID <= 0 {
		badRequest(w, "No employee is linked to this session.")
		return
	}

	req := domain.OrderRequest{
		CustomerID: f.CustomerID,
		TableID:    f.TableID,
		EmployeeID: snap.Claims.EmployeeID,
		Notes:      strings.TrimSpace(f.Notes),
	}
	for _, l := range f.Lines {
		req.Lines = append(req.Lines, l.request())
	}
	res := s.App.API().CreateOrder(r.Context(), req)
	if !res.OK() {
		s.fail(w, res.Err, "Could not create the order.")
		return
	}
	s.App.Notify(app.TopicRole(app.RoleCook), app.ToastInfo, fmt.Sprintf("New order %d", res.Value.ID))
	app.WriteOK(w, res.Value)
}

func (s *Server) OrderLinesPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		badRequest(w, "Invalid order.")
		return
	}
	var lines []orderLineForm
	if err := decode(r, &lines); err != nil || !validLines(lines) {
		badRequest(w, "Add at least one product.")
		return
	}
	req := make([]domain.OrderLineRequest, 0, len(lines))
	for _, l := range lines {
		req = append(req, l.request())
	}
	respond(s, w, s.App.API().AddOrderLines(r.Context(), id, req), "Could not add products to the order.")
}

// OrderDeliverPost lets a waiter mark an order as served.
func (s *Server) OrderDeliverPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		badRequest(w, "Invalid order.")
		return
	}
	s.changeStatus(w, r, id, domain.OrderDelivered)
}

func (s *Server) OrderStatesGet(w http.ResponseWriter, r *http.Request) {
	respond(s, w, s.App.API().ListOrderStates(r.Context()), "Could not load order states.")
}

/* ---------------- Kitchen ---------------- */

type kitchenView struct {
	Filter reconcile.KitchenFilter `json:"filter"`
	Orders []domain.Order          `json:"orders"`
	Counts map[string]int          `json:"counts"`
}

func (s *Server) KitchenOrdersGet(w http.ResponseWriter, r *http.Request) {
	res := s.App.API().ListKitchenOrders(r.Context())
	if !res.OK() {
		s.fail(w, res.Err, "Could not load the kitchen queue.")
		return
	}
	f := reconcile.ParseKitchenFilter(r.URL.Query().Get("filter"))
	app.WriteOK(w, kitchenView{
		Filter: f,
		Orders: reconcile.KitchenQueue(res.Value, f),
		Counts: reconcile.KitchenCounts(res.Value),
	})
}

type monitorView struct {
	Filter reconcile.MonitorFilter `json:"filter"`
	Orders []domain.Order          `json:"orders"`
	Counts reconcile.MonitorCounts `json:"counts"`
}

func (s *Server) OrderMonitorGet(w http.ResponseWriter, r *http.Request) {
	res := s.App.API().ListOrders(r.Context())
	if !res.OK() {
		s.fail(w, res.Err, "Could not load orders.")
		return
	}
	f := reconcile.ParseMonitorFilter(r.URL.Query().Get("filter"))
	orders, counts := reconcile.OrderMonitor(res.Value, f)
	app.WriteOK(w, monitorView{Filter: f, Orders: orders, Counts: counts})
}

func (s *Server) KitchenOrderStatusPost(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		badRequest(w, "Invalid order.")
		return
	}
	var f struct {
		Status string `json:"status"`
	}
	if err := decode(r, &f); err != nil || strings.TrimSpace(f.Status) == "" {
		badRequest(w, "Status is required.")
		return
	}
	want := domain.ParseOrderStatus(f.Status)
	if want == domain.OrderUnknown {
		badRequest(w, fmt.Sprintf("Unknown status %q.", f.Status))
		return
	}
	s.changeStatus(w, r, id, want)
}

// changeStatus resolves want against the server's state catalog and moves
// the order there.
func (s *Server) changeStatus(w http.ResponseWriter, r *http.Request, id int64, want domain.OrderStatus) {
	st, e := s.findState(r.Context(), want)
	if e != nil {
		app.WriteFail(w, http.StatusUnprocessableEntity, e.Message)
		return
	}
	res := s.App.API().ChangeOrderStatus(r.Context(), id, st.ID)
	if !res.OK() {
		s.fail(w, res.Err, "Could not change the order status.")
		return
	}
	app.WriteJSON(w, http.StatusOK, app.Envelope{
		OK:    true,
		Data:  res.Value,
		Toast: &app.Toast{Level: app.ToastSuccess, Message: fmt.Sprintf("Order %d marked as %q", id, st.Description), At: time.Now()},
	})
}

func (s *Server) findState(ctx context.Context, want domain.OrderStatus) (domain.State, *api.ErrorInfo) {
	states := s.App.API().ListOrderStates(ctx).Value
	if st, ok := api.FindOrderState(states, want); ok {
		return st, nil
	}
	names := make([]string, 0, len(states))
	for _, st := range states {
		names = append(names, st.Description)
	}
	return domain.State{}, &api.ErrorInfo{
		Message: fmt.Sprintf("Status %s not found. Available: %s", want, strings.Join(names, ", ")),
	}
}
