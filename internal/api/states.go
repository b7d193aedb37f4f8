package api

import (
	"context"
	"net/http"

	"restaurant-console-go/internal/domain"
)

// Static catalogs served when /estados/* cannot be reached after a retry.
var (
	DefaultOrderStates = []domain.State{
		{ID: 1, Description: "Pendiente"},
		{ID: 2, Description: "En preparación"},
		{ID: 3, Description: "Listo"},
		{ID: 4, Description: "Entregado"},
		{ID: 5, Description: "Pagado"},
		{ID: 6, Description: "Cancelado"},
	}
	DefaultTableStates = []domain.State{
		{ID: 1, Description: "Disponible"},
		{ID: 2, Description: "Ocupada"},
		{ID: 3, Description: "Reservada"},
		{ID: 4, Description: "Mantenimiento"},
	}
	DefaultProductStates = []domain.State{
		{ID: 1, Description: "Disponible"},
		{ID: 2, Description: "Agotado"},
	}
)

func (c *Client) ListOrderStates(ctx context.Context) Result[[]domain.State] {
	return c.listStates(ctx, "/estados/pedidos", DefaultOrderStates)
}

func (c *Client) ListTableStates(ctx context.Context) Result[[]domain.State] {
	return c.listStates(ctx, "/estados/mesas", DefaultTableStates)
}

func (c *Client) ListProductStates(ctx context.Context) Result[[]domain.State] {
	return c.listStates(ctx, "/estados/productos", DefaultProductStates)
}

func (c *Client) listStates(ctx context.Context, path string, defaults []domain.State) Result[[]domain.State] {
	r := withFallback(ctx, c, Request{Method: http.MethodGet, Path: path}, defaults)
	if len(r.Value) == 0 {
		return Ok(defaults)
	}
	return r
}

// FindOrderState resolves a target order status against the server's state
// catalog by parsing each description.
func FindOrderState(states []domain.State, want domain.OrderStatus) (domain.State, bool) {
	for _, s := range states {
		if domain.ParseOrderStatus(s.Description) == want {
			return s, true
		}
	}
	return domain.State{}, false
}
