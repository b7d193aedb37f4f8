package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"restaurant-console-go/internal/domain"
)

func (c *Client) CreateReservation(ctx context.Context, in domain.ReservationRequest) Result[domain.Reservation] {
	return call[domain.Reservation](ctx, c, Request{Method: http.MethodPost, Path: "/reservas", Body: in})
}

func (c *Client) ListReservations(ctx context.Context) Result[[]domain.Reservation] {
	return call[[]domain.Reservation](ctx, c, Request{Method: http.MethodGet, Path: "/reservas"})
}

func (c *Client) GetReservation(ctx context.Context, id int64) Result[domain.Reservation] {
	return call[domain.Reservation](ctx, c, Request{Method: http.MethodGet, Path: pathf("/reservas/%d", id)})
}

func (c *Client) UpdateReservation(ctx context.Context, id int64, in domain.ReservationRequest) Result[domain.Reservation] {
	return call[domain.Reservation](ctx, c, Request{Method: http.MethodPut, Path: pathf("/reservas/%d", id), Body: in})
}

func (c *Client) CancelReservation(ctx context.Context, id int64) Result[domain.Reservation] {
	return call[domain.Reservation](ctx, c, Request{Method: http.MethodPut, Path: pathf("/reservas/%d/cancelar", id), Body: struct{}{}})
}

func (c *Client) DeleteReservation(ctx context.Context, id int64) Result[struct{}] {
	return Done(c.Do(ctx, Request{Method: http.MethodDelete, Path: pathf("/reservas/%d", id)}))
}

// Public reservation endpoints are anonymous: the customer's email is the
// only scope.

func (c *Client) CreatePublicReservation(ctx context.Context, in domain.ReservationRequest) Result[domain.Reservation] {
	return call[domain.Reservation](ctx, c, Request{Method: http.MethodPost, Path: "/reservas/publica", Body: in, SkipAuth: true})
}

func (c *Client) ListReservationsByEmail(ctx context.Context, email string) Result[[]domain.Reservation] {
	return call[[]domain.Reservation](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     "/reservas/publica/cliente",
		Query:    url.Values{"correo": {email}},
		SkipAuth: true,
	})
}

func (c *Client) GetPublicReservation(ctx context.Context, id int64, email string) Result[domain.Reservation] {
	return call[domain.Reservation](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     pathf("/reservas/publica/%d", id),
		Query:    url.Values{"correo": {email}},
		SkipAuth: true,
	})
}

func (c *Client) CancelPublicReservation(ctx context.Context, id int64, email string) Result[domain.Reservation] {
	return c.publicReservationAction(ctx, id, email, "cancelar")
}

func (c *Client) ConfirmPublicReservation(ctx context.Context, id int64, email string) Result[domain.Reservation] {
	return c.publicReservationAction(ctx, id, email, "confirmar")
}

func (c *Client) publicReservationAction(ctx context.Context, id int64, email, action string) Result[domain.Reservation] {
	return call[domain.Reservation](ctx, c, Request{
		Method:   http.MethodPut,
		Path:     pathf("/reservas/publica/%d/%s", id, action),
		Query:    url.Values{"correo": {email}},
		Body:     struct{}{},
		SkipAuth: true,
	})
}

type AvailabilityQuery struct {
	Date      string
	Time      string
	PartySize int
	TableID   int64
}

func (c *Client) CheckAvailability(ctx context.Context, q AvailabilityQuery) Result[domain.Availability] {
	v := url.Values{
		"fecha":            {q.Date},
		"hora":             {q.Time},
		"cantidadPersonas": {strconv.Itoa(q.PartySize)},
	}
	if q.TableID > 0 {
		v.Set("mesaId", strconv.FormatInt(q.TableID, 10))
	}
	return call[domain.Availability](ctx, c, Request{
		Method:   http.MethodGet,
		Path:     "/reservas/publica/disponibilidad",
		Query:    v,
		SkipAuth: true,
	})
}
