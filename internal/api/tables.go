package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"restaurant-console-go/internal/domain"
)

func (c *Client) ListTables(ctx context.Context) Result[[]domain.Table] {
	return call[[]domain.Table](ctx, c, Request{Method: http.MethodGet, Path: "/mesas"})
}

func (c *Client) GetTable(ctx context.Context, id int64) Result[domain.Table] {
	return call[domain.Table](ctx, c, Request{Method: http.MethodGet, Path: pathf("/mesas/%d", id)})
}

func (c *Client) CreateTable(ctx context.Context, in domain.TableRequest) Result[domain.Table] {
	return call[domain.Table](ctx, c, Request{Method: http.MethodPost, Path: "/mesas", Body: in})
}

func (c *Client) UpdateTable(ctx context.Context, id int64, in domain.TableRequest) Result[domain.Table] {
	return call[domain.Table](ctx, c, Request{Method: http.MethodPut, Path: pathf("/mesas/%d", id), Body: in})
}

func (c *Client) DeleteTable(ctx context.Context, id int64) Result[struct{}] {
	return Done(c.Do(ctx, Request{Method: http.MethodDelete, Path: pathf("/mesas/%d", id)}))
}

// OccupyTable marks a table as taken by a waiter. The server answers with
// a plain confirmation string, or nothing at all.
func (c *Client) OccupyTable(ctx context.Context, tableID, employeeID int64) Result[string] {
	r := c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   pathf("/empleados/mesas/%d/ocupar", tableID),
		Query:  url.Values{"empleadoId": {strconv.FormatInt(employeeID, 10)}},
		Body:   struct{}{},
	})
	if r.Err != nil {
		if r.Err.Empty() {
			return Ok("Mesa ocupada exitosamente")
		}
		if r.Err.Status == http.StatusForbidden {
			r.Err.Message = "not allowed to occupy tables; the server rejected the request"
		}
		return Fail[string](r.Err)
	}
	var s string
	if json.Unmarshal(r.Value, &s) == nil && s != "" {
		return Ok(s)
	}
	return Ok("Mesa ocupada exitosamente")
}
