package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"restaurant-console-go/internal/app"
	"restaurant-console-go/internal/domain"
	"restaurant-console-go/internal/reconcile"
	"restaurant-console-go/internal/report"
)

var paymentMethods = map[string]bool{
	"EFECTIVO":      true,
	"TARJETA":       true,
	"TRANSFERENCIA": true,
}

type paymentForm struct {
	OrderID int64   `json:"orderId"`
	Amount  float64 `json:"amount"`
	Method  string  `json:"method"`
	Notes   string  `json:"notes"`
}

func (s *Server) PaymentCreatePost(w http.ResponseWriter, r *http.Request) {
	var f paymentForm
	if err := decode(r, &f); err != nil {
		badRequest(w, err.Error())
		return
	}
	method := strings.ToUpper(strings.TrimSpace(f.Method))
	if method == "" {
		method = "EFECTIVO"
	}
	switch {
	case f.OrderID <= 0:
		badRequest(w, "Pick an order to charge.")
		return
	case f.Amount <= 0:
		badRequest(w, "Amount must be greater than zero.")
		return
	case !paymentMethods[method]:
		badRequest(w, fmt.Sprintf("Unsupported payment method %q.", f.Method))
		return
	}

	res := s.App.API().CreatePayment(r.Context(), domain.PaymentRequest{
		OrderID: f.OrderID,
		Amount:  f.Amount,
		Method:  method,
		Notes:   strings.TrimSpace(f.Notes),
	})
	if !res.OK() {
		s.fail(w, res.Err, "Could not register the payment.")
		return
	}
	app.WriteJSON(w, http.StatusOK, app.Envelope{
		OK:    true,
		Data:  res.Value,
		Toast: &app.Toast{Level: app.ToastSuccess, Message: fmt.Sprintf("Payment registered for order %d", f.OrderID), At: time.Now()},
	})
}

// CashierOrdersGet lists the orders waiting to be charged.
func (s *Server) CashierOrdersGet(w http.ResponseWriter, r *http.Request) {
	res := s.App.API().ListOrders(r.Context())
	if !res.OK() {
		s.fail(w, res.Err, "Could not load orders.")
		return
	}
	app.WriteOK(w, reconcile.ChargeableOrders(res.Value))
}

func (s *Server) PaymentsGet(w http.ResponseWriter, r *http.Request) {
	respond(s, w, s.App.API().ListPayments(r.Context()), "Could not load payments.")
}

func (s *Server) InvoiceGet(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "orderId")
	if !ok {
		badRequest(w, "Invalid order.")
		return
	}
	respond(s, w, s.App.API().GetInvoice(r.Context(), id), "Could not load the invoice.")
}

// SalesReportGet aggregates payments and orders. Either list may be
// unavailable; the report degrades to whatever loaded.
func (s *Server) SalesReportGet(w http.ResponseWriter, r *http.Request) {
	c := s.App.API()
	payments := c.ListPayments(r.Context())
	orders := c.ListOrders(r.Context())
	if !payments.OK() && !orders.OK() {
		s.fail(w, orders.Err, "Could not load sales data.")
		return
	}
	if !payments.OK() {
		s.App.Logger().Warn("sales report without payments", "err", payments.Err)
	}
	if !orders.OK() {
		s.App.Logger().Warn("sales report without orders", "err", orders.Err)
	}
	app.WriteOK(w, report.Build(payments.Value, orders.Value, time.Now()))
}
