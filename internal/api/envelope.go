package api

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errEmpty = errors.New(ErrEmptyResponse)

var (
	envelopeStatusKeys = []string{"estado", "status"}
	envelopeDataKeys   = []string{"datos", "data"}
)

// Normalize unwraps the {estado|status, datos|data} envelope some endpoints
// use; both a status key and a data key must be present. Bare arrays and
// objects (login tokens, error bodies, plain DTOs) pass through unchanged.
func Normalize(raw []byte) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errEmpty
	}
	if raw[0] != '{' {
		return json.RawMessage(raw), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return json.RawMessage(raw), nil
	}
	if !hasAny(obj, envelopeStatusKeys) {
		return json.RawMessage(raw), nil
	}
	for _, k := range envelopeDataKeys {
		if v, ok := obj[k]; ok {
			return v, nil
		}
	}
	return json.RawMessage(raw), nil
}

func hasAny(obj map[string]json.RawMessage, keys []string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; ok {
			return true
		}
	}
	return false
}
