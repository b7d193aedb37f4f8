package app

import (
	"strings"
	"time"

	"restaurant-console-go/internal/notify"
)

type ToastLevel string

const (
	ToastInfo    ToastLevel = "info"
	ToastSuccess ToastLevel = "success"
	ToastWarning ToastLevel = "warning"
	ToastError   ToastLevel = "error"
)

type Toast struct {
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
	Kind    string     `json:"kind,omitempty"`
	Action  string     `json:"action,omitempty"`
	ID      int64      `json:"id,omitempty"`
	At      time.Time  `json:"at"`
}

func ToastFor(c notify.Change) Toast {
	lvl := ToastInfo
	switch c.Action {
	case notify.ActionCancelled:
		lvl = ToastWarning
	case notify.ActionConfirmed, notify.ActionCompleted:
		lvl = ToastSuccess
	}
	return Toast{
		Level:   lvl,
		Message: c.Message,
		Kind:    string(c.Kind),
		Action:  string(c.Action),
		ID:      c.ID,
		At:      c.Timestamp,
	}
}

// Notify sends a one-off toast to every stream on topic.
func (a *App) Notify(topic string, lvl ToastLevel, msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	a.sseHub.Broadcast(topic, SSEEvent{Type: "toast", Data: Toast{Level: lvl, Message: msg, At: time.Now()}})
}

const customerScopePrefix = "customer:"

func CustomerScope(email string) string { return customerScopePrefix + NormalizeEmail(email) }

func IsCustomerScope(scope string) bool { return strings.HasPrefix(scope, customerScopePrefix) }

func CustomerEmail(scope string) string { return strings.TrimPrefix(scope, customerScopePrefix) }
