package api

import (
	"context"
	"net/http"

	"restaurant-console-go/internal/domain"
)

func (c *Client) ListOrders(ctx context.Context) Result[[]domain.Order] {
	return call[[]domain.Order](ctx, c, Request{Method: http.MethodGet, Path: "/pedidos"})
}

// ListKitchenOrders uses the kitchen endpoint and falls back to the full
// order list when that endpoint is unavailable.
func (c *Client) ListKitchenOrders(ctx context.Context) Result[[]domain.Order] {
	r := call[[]domain.Order](ctx, c, Request{Method: http.MethodGet, Path: "/pedidos/cocina"})
	if r.OK() {
		return r
	}
	c.log.Info("kitchen endpoint failed, using full order list", "err", r.Err)
	return c.ListOrders(ctx)
}

func (c *Client) ListOrdersByEmployee(ctx context.Context, employeeID int64) Result[[]domain.Order] {
	return call[[]domain.Order](ctx, c, Request{Method: http.MethodGet, Path: pathf("/pedidos/empleado/%d", employeeID)})
}

func (c *Client) GetOrder(ctx context.Context, id int64) Result[domain.Order] {
	return call[domain.Order](ctx, c, Request{Method: http.MethodGet, Path: pathf("/pedidos/%d", id)})
}

func (c *Client) CreateOrder(ctx context.Context, in domain.OrderRequest) Result[domain.Order] {
	return call[domain.Order](ctx, c, Request{Method: http.MethodPost, Path: "/pedidos", Body: in})
}

func (c *Client) UpdateOrder(ctx context.Context, id int64, in domain.OrderRequest) Result[domain.Order] {
	return call[domain.Order](ctx, c, Request{Method: http.MethodPut, Path: pathf("/pedidos/%d", id), Body: in})
}

func (c *Client) ChangeOrderStatus(ctx context.Context, id, stateID int64) Result[domain.Order] {
	return call[domain.Order](ctx, c, Request{
		Method: http.MethodPut,
		Path:   pathf("/pedidos/%d/estado/%d", id, stateID),
		Body:   struct{}{},
	})
}

func (c *Client) DeleteOrder(ctx context.Context, id int64) Result[struct{}] {
	return Done(c.Do(ctx, Request{Method: http.MethodDelete, Path: pathf("/pedidos/%d", id)}))
}

func (c *Client) AddOrderLines(ctx context.Context, orderID int64, lines []domain.OrderLineRequest) Result[domain.Order] {
	return call[domain.Order](ctx, c, Request{
		Method: http.MethodPost,
		Path:   pathf("/detalles-pedido/%d/detalles", orderID),
		Body:   lines,
	})
}
