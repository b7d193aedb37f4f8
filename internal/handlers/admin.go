package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"restaurant-console-go/internal/api"
	"restaurant-console-go/internal/app"
	"restaurant-console-go/internal/domain"
)

// mountResource wires list/get/create/update/delete for one catalog. Bodies
// are forwarded as-is; the API validates them.
func mountResource[T any](r chi.Router, s *Server, res func() api.Resource[T], noun string) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respond(s, w, res().List(r.Context()), "Could not load "+noun+".")
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		if err := decode(r, &body); err != nil {
			badRequest(w, err.Error())
			return
		}
		respond(s, w, res().Create(r.Context(), body), "Could not create "+noun+".")
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			badRequest(w, "Invalid id.")
			return
		}
		respond(s, w, res().Get(r.Context(), id), "Could not load "+noun+".")
	})
	r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			badRequest(w, "Invalid id.")
			return
		}
		var body json.RawMessage
		if err := decode(r, &body); err != nil {
			badRequest(w, err.Error())
			return
		}
		respond(s, w, res().Update(r.Context(), id, body), "Could not update "+noun+".")
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r, "id")
		if !ok {
			badRequest(w, "Invalid id.")
			return
		}
		respond(s, w, res().Delete(r.Context(), id), "Could not delete "+noun+".")
	})
}

/* ---------------- lookups ---------------- */

func (s *Server) MenuProductsGet(w http.ResponseWriter, r *http.Request) {
	respond(s, w, s.App.API().Products().List(r.Context()), "Could not load products.")
}

func (s *Server) MenuCategoriesGet(w http.ResponseWriter, r *http.Request) {
	respond(s, w, s.App.API().Categories().List(r.Context()), "Could not load categories.")
}

func (s *Server) CustomersGet(w http.ResponseWriter, r *http.Request) {
	respond(s, w, s.App.API().Customers().List(r.Context()), "Could not load customers.")
}

// AdminRoutes mounts the catalog maintenance endpoints and the order
// monitor under r.
func (s *Server) AdminRoutes(r chi.Router) {
	c := func() *api.Client { return s.App.API() }
	r.Route("/employees", func(r chi.Router) {
		mountResource(r, s, func() api.Resource[domain.Employee] { return c().Employees() }, "employees")
	})
	r.Route("/roles", func(r chi.Router) {
		mountResource(r, s, func() api.Resource[domain.Role] { return c().Roles() }, "roles")
	})
	r.Route("/customers", func(r chi.Router) {
		mountResource(r, s, func() api.Resource[domain.Customer] { return c().Customers() }, "customers")
	})
	r.Route("/products", func(r chi.Router) {
		mountResource(r, s, func() api.Resource[domain.Product] { return c().Products() }, "products")
	})
	r.Route("/categories", func(r chi.Router) {
		mountResource(r, s, func() api.Resource[domain.Category] { return c().Categories() }, "categories")
	})
	r.Route("/tables", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			respond(s, w, c().ListTables(r.Context()), "Could not load tables.")
		})
		r.Post("/", s.tableSave)
		r.Put("/{id}", s.tableSave)
		r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := idParam(r, "id")
			if !ok {
				badRequest(w, "Invalid table.")
				return
			}
			respond(s, w, c().DeleteTable(r.Context(), id), "Could not delete the table.")
		})
	})
	r.Get("/orders", s.OrderMonitorGet)
	r.Get("/states/{kind}", s.statesGet)
}

type tableForm struct {
	Number   int   `json:"number"`
	Capacity int   `json:"capacity"`
	StatusID int64 `json:"statusId"`
}

func (s *Server) tableSave(w http.ResponseWriter, r *http.Request) {
	var f tableForm
	if err := decode(r, &f); err != nil {
		badRequest(w, err.Error())
		return
	}
	if f.Number <= 0 || f.Capacity <= 0 {
		badRequest(w, "Number and capacity must be positive.")
		return
	}
	req := domain.TableRequest{Number: f.Number, Capacity: f.Capacity, StatusID: f.StatusID}
	if chi.URLParam(r, "id") == "" {
		respond(s, w, s.App.API().CreateTable(r.Context(), req), "Could not create the table.")
		return
	}
	id, ok := idParam(r, "id")
	if !ok {
		badRequest(w, "Invalid table.")
		return
	}
	req.ID = id
	respond(s, w, s.App.API().UpdateTable(r.Context(), id, req), "Could not update the table.")
}

func (s *Server) statesGet(w http.ResponseWriter, r *http.Request) {
	c := s.App.API()
	switch chi.URLParam(r, "kind") {
	case "orders":
		respond(s, w, c.ListOrderStates(r.Context()), "")
	case "tables":
		respond(s, w, c.ListTableStates(r.Context()), "")
	case "products":
		respond(s, w, c.ListProductStates(r.Context()), "")
	default:
		app.WriteFail(w, http.StatusNotFound, "Unknown state catalog.")
	}
}
