package session

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the console reads out of the API token. The signature is
// not checked here; the remote API does that on every call.
type Claims struct {
	Subject    string
	Email      string
	Name       string
	Role       string
	EmployeeID int64
	ExpiresAt  time.Time
}

// ParseClaims decodes the payload of a JWT without verifying it.
func ParseClaims(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	c.Role = strings.ToUpper(strings.TrimPrefix(firstString(mc, "rol", "role", "roles", "authorities"), "ROLE_"))
	c.Name = firstString(mc, "nombre", "name")
	c.Email = firstString(mc, "correo", "email")
	if c.Email == "" && strings.Contains(c.Subject, "@") {
		c.Email = c.Subject
	}
	c.EmployeeID = firstInt(mc, "empleadoId", "id", "userId")
	return c, nil
}

func firstString(mc jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := mc[k].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		case []any:
			// role lists: take the first usable entry
			for _, it := range v {
				switch e := it.(type) {
				case string:
					if e != "" {
						return e
					}
				case map[string]any:
					if s, ok := e["authority"].(string); ok && s != "" {
						return s
					}
				}
			}
		}
	}
	return ""
}

func firstInt(mc jwt.MapClaims, keys ...string) int64 {
	for _, k := range keys {
		switch v := mc[k].(type) {
		case float64:
			return int64(v)
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n
			}
		}
	}
	return 0
}
