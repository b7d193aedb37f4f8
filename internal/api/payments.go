package api

import (
	"context"
	"net/http"

	"restaurant-console-go/internal/domain"
)

func (c *Client) CreatePayment(ctx context.Context, in domain.PaymentRequest) Result[domain.Payment] {
	return call[domain.Payment](ctx, c, Request{Method: http.MethodPost, Path: "/pagos", Body: in})
}

func (c *Client) ListPayments(ctx context.Context) Result[[]domain.Payment] {
	return call[[]domain.Payment](ctx, c, Request{Method: http.MethodGet, Path: "/pagos"})
}

func (c *Client) GetPayment(ctx context.Context, id int64) Result[domain.Payment] {
	return call[domain.Payment](ctx, c, Request{Method: http.MethodGet, Path: pathf("/pagos/%d", id)})
}

func (c *Client) GetInvoice(ctx context.Context, orderID int64) Result[domain.Invoice] {
	return call[domain.Invoice](ctx, c, Request{Method: http.MethodGet, Path: pathf("/facturas/%d", orderID)})
}
