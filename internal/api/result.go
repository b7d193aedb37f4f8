package api

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ErrEmptyResponse is the message carried when the server answered 2xx
// with no payload. Delete endpoints treat it as success.
const ErrEmptyResponse = "Empty response"

// ErrorInfo is the single failure shape the data access layer hands out:
// transport errors, non-2xx responses and domain errors reported by the
// server all end up here.
type ErrorInfo struct {
	Status     int             `json:"status"`
	StatusText string          `json:"statusText,omitempty"`
	Message    string          `json:"message"`
	URL        string          `json:"url,omitempty"`
	Body       json.RawMessage `json:"errorBody,omitempty"`
}

func (e *ErrorInfo) Error() string {
	if e == nil {
		return ""
	}
	if e.Status > 0 {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.URL, e.Message)
	}
	return "api: " + e.Message
}

func (e *ErrorInfo) Empty() bool { return e != nil && e.Message == ErrEmptyResponse }

// HumanMessage picks the best text for a toast: the server's own message,
// detail or title when the body carries one, then the transport message,
// then fallback.
func (e *ErrorInfo) HumanMessage(fallback string) string {
	if e == nil {
		return fallback
	}
	if len(e.Body) > 0 {
		var body map[string]any
		if json.Unmarshal(e.Body, &body) == nil {
			for _, k := range []string{"message", "mensaje", "detail", "title", "error"} {
				if s, ok := body[k].(string); ok && strings.TrimSpace(s) != "" {
					return s
				}
			}
		} else {
			var s string
			if json.Unmarshal(e.Body, &s) == nil && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}
	return fallback
}

// Result is either a decoded value or an ErrorInfo, never both.
type Result[T any] struct {
	Value T
	Err   *ErrorInfo
}

func (r Result[T]) OK() bool { return r.Err == nil }

func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

func Fail[T any](e *ErrorInfo) Result[T] { return Result[T]{Err: e} }

// Decode converts a raw normalized payload into T.
func Decode[T any](r Result[json.RawMessage]) Result[T] {
	if r.Err != nil {
		return Fail[T](r.Err)
	}
	var v T
	if len(r.Value) == 0 {
		return Ok(v)
	}
	if err := json.Unmarshal(r.Value, &v); err != nil {
		return Fail[T](&ErrorInfo{Message: "decode response: " + err.Error()})
	}
	return Ok(v)
}

// Done maps an empty-body failure onto success, for DELETE-style calls.
func Done(r Result[json.RawMessage]) Result[struct{}] {
	if r.Err != nil && !r.Err.Empty() {
		return Fail[struct{}](r.Err)
	}
	return Ok(struct{}{})
}
