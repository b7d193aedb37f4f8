package api

import (
	"context"
	"net/http"

	"restaurant-console-go/internal/domain"
)

// Resource is plain CRUD over one catalog collection (/empleados,
// /roles, /clientes, /productos, /categorias).
type Resource[T any] struct {
	c    *Client
	path string
}

func NewResource[T any](c *Client, path string) Resource[T] {
	return Resource[T]{c: c, path: path}
}

func (r Resource[T]) List(ctx context.Context) Result[[]T] {
	return call[[]T](ctx, r.c, Request{Method: http.MethodGet, Path: r.path})
}

func (r Resource[T]) Get(ctx context.Context, id int64) Result[T] {
	return call[T](ctx, r.c, Request{Method: http.MethodGet, Path: r.path + pathf("/%d", id)})
}

func (r Resource[T]) Create(ctx context.Context, in any) Result[T] {
	return call[T](ctx, r.c, Request{Method: http.MethodPost, Path: r.path, Body: in})
}

func (r Resource[T]) Update(ctx context.Context, id int64, in any) Result[T] {
	return call[T](ctx, r.c, Request{Method: http.MethodPut, Path: r.path + pathf("/%d", id), Body: in})
}

func (r Resource[T]) Delete(ctx context.Context, id int64) Result[struct{}] {
	return Done(r.c.Do(ctx, Request{Method: http.MethodDelete, Path: r.path + pathf("/%d", id)}))
}

func (c *Client) Employees() Resource[domain.Employee] {
	return NewResource[domain.Employee](c, "/empleados")
}

func (c *Client) Roles() Resource[domain.Role] {
	return NewResource[domain.Role](c, "/roles")
}

func (c *Client) Customers() Resource[domain.Customer] {
	return NewResource[domain.Customer](c, "/clientes")
}

func (c *Client) Products() Resource[domain.Product] {
	return NewResource[domain.Product](c, "/productos")
}

func (c *Client) Categories() Resource[domain.Category] {
	return NewResource[domain.Category](c, "/categorias")
}
