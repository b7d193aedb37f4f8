package api

import (
	"context"
	"net/http"
	"strings"

	"restaurant-console-go/internal/domain"
)

// Login exchanges credentials for a bearer token. It is sent without the
// current token.
func (c *Client) Login(ctx context.Context, in domain.LoginRequest) Result[domain.LoginResponse] {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	r := call[domain.LoginResponse](ctx, c, Request{Method: http.MethodPost, Path: "/auth/login", Body: in, SkipAuth: true})
	if r.OK() && r.Value.Token == "" {
		return Fail[domain.LoginResponse](&ErrorInfo{Message: "login response carried no token"})
	}
	return r
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) Result[struct{}] {
	return Done(c.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "/auth/recuperar-contrasenia",
		Body:     map[string]string{"correo": strings.TrimSpace(email)},
		SkipAuth: true,
	}))
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) Result[struct{}] {
	return Done(c.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     "/auth/resetear-contrasenia",
		Body:     map[string]string{"token": token, "nuevaContrasenia": newPassword},
		SkipAuth: true,
	}))
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) Result[struct{}] {
	return Done(c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   "/auth/cambiar-contrasenia",
		Body:   map[string]string{"contraseniaActual": current, "nuevaContrasenia": next},
	}))
}
