package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"restaurant-console-go/internal/app"
)

// Routes builds the console's HTTP surface. Streams sit outside the
// request timeout.
func Routes(a *app.App) http.Handler {
	h := &Server{App: a}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(a.MiddlewareNoStore)
	r.Use(a.MiddlewareLoadSession)

	r.Get("/health", h.Health)
	if a.Config().MetricsEnabled {
		r.Handle("/metrics", a.MetricsHandler())
	}

	// Streams
	r.Get("/public/reservations/watch", h.ReservationWatchGet)
	r.With(a.RequireAuth).Get("/sse", h.StaffSSEGet)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(60 * time.Second))

		// Public
		r.Post("/login", h.LoginPost)
		r.Post("/logout", h.LogoutPost)
		r.Get("/session", h.SessionGet)
		r.Post("/password/recover", h.PasswordRecoverPost)
		r.Post("/password/reset", h.PasswordResetPost)

		r.Route("/public/reservations", func(pr chi.Router) {
			pr.Post("/", h.PublicReservationCreatePost)
			pr.Get("/", h.PublicReservationsGet)
			pr.Get("/availability", h.AvailabilityGet)
			pr.Get("/{id}", h.PublicReservationGet)
			pr.Post("/{id}/cancel", h.PublicReservationCancelPost)
			pr.Post("/{id}/confirm", h.PublicReservationConfirmPost)
		})

		r.Get("/push/key", h.PushKeyGet)
		r.Post("/push/subscribe", h.PushSubscribePost)
		r.Post("/push/unsubscribe", h.PushUnsubscribePost)

		// Any staff member
		r.Group(func(sr chi.Router) {
			sr.Use(a.RequireAuth)
			sr.Post("/password/change", h.PasswordChangePost)
			sr.Get("/notifications", h.NotificationsGet)
			sr.Get("/orders/states", h.OrderStatesGet)
			sr.Get("/orders/{id}", h.OrderGet)
			sr.Get("/menu/products", h.MenuProductsGet)
			sr.Get("/menu/categories", h.MenuCategoriesGet)
			sr.Get("/customers", h.CustomersGet)
		})

		r.Route("/waiter", func(wr chi.Router) {
			wr.Use(a.RequireAnyRole(app.RoleWaiter, app.RoleAdmin))
			wr.Get("/tables", h.WaiterTablesGet)
			wr.Get("/tables/available", h.AvailableTablesGet)
			wr.Post("/tables/{id}/occupy", h.OccupyTablePost)
			wr.Get("/orders", h.WaiterOrdersGet)
			wr.Post("/orders/{id}/deliver", h.OrderDeliverPost)
		})

		r.Group(func(or chi.Router) {
			or.Use(a.RequireAnyRole(app.RoleWaiter, app.RoleAdmin))
			or.Post("/orders", h.OrderCreatePost)
			or.Post("/orders/{id}/lines", h.OrderLinesPost)
		})

		r.Route("/kitchen", func(kr chi.Router) {
			kr.Use(a.RequireAnyRole(app.RoleCook, app.RoleAdmin))
			kr.Get("/orders", h.KitchenOrdersGet)
			kr.Post("/orders/{id}/status", h.KitchenOrderStatusPost)
		})

		r.Route("/cashier", func(cr chi.Router) {
			cr.Use(a.RequireAnyRole(app.RoleCashier, app.RoleAdmin))
			cr.Post("/payments", h.PaymentCreatePost)
			cr.Get("/payments", h.PaymentsGet)
			cr.Get("/orders", h.CashierOrdersGet)
			cr.Get("/invoices/{orderId}", h.InvoiceGet)
		})

		r.With(a.RequireAnyRole(app.RoleCashier, app.RoleAdmin)).Get("/reports/sales", h.SalesReportGet)

		r.Route("/reservations", func(rr chi.Router) {
			rr.Use(a.RequireAnyRole(app.RoleWaiter, app.RoleAdmin))
			rr.Get("/", h.ReservationsGet)
			rr.Post("/{id}/cancel", h.ReservationCancelPost)
		})

		r.Route("/admin", func(ad chi.Router) {
			ad.Use(a.RequireRole(app.RoleAdmin))
			h.AdminRoutes(ad)
		})
	})

	return r
}
