package api

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/jmcleod/examflow/gateway"
)

// ErrorPayload is the raw body of a failed API call. It is kept untouched so
// callers can attribute field-level validation errors.
type ErrorPayload json.RawMessage

// PayloadOf returns the response body carried by err, or nil when err did
// not come from a non-2xx response.
func PayloadOf(err error) ErrorPayload {
	var se *gateway.StatusError
	if errors.As(err, &se) && len(se.Body) > 0 {
		return ErrorPayload(se.Body)
	}
	return nil
}

func (p ErrorPayload) object() map[string]json.RawMessage {
	var obj map[string]json.RawMessage
	if json.Unmarshal(p, &obj) != nil {
		return nil
	}
	return obj
}

func (p ErrorPayload) str(key string) string {
	raw, ok := p.object()[key]
	if !ok {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// Detail returns the top-level "detail" string, if any.
func (p ErrorPayload) Detail() string { return p.str("detail") }

// Message returns the top-level "message" string, if any.
func (p ErrorPayload) Message() string { return p.str("message") }

// Fields flattens per-field validation errors ({"field": ["msg", ...]}) into
// one string per field. Non-field keys ("detail", "message") are skipped.
func (p ErrorPayload) Fields() map[string]string {
	obj := p.object()
	out := make(map[string]string)
	for k, raw := range obj {
		if k == "detail" || k == "message" {
			continue
		}
		var list []string
		if json.Unmarshal(raw, &list) == nil {
			out[k] = strings.Join(list, " ")
			continue
		}
		var s string
		if json.Unmarshal(raw, &s) == nil {
			out[k] = s
		}
	}
	return out
}

// String renders the payload for terminal output: detail or message when
// present, otherwise "field: msg" pairs in key order.
func (p ErrorPayload) String() string {
	if s := p.Detail(); s != "" {
		return s
	}
	if s := p.Message(); s != "" {
		return s
	}
	fields := p.Fields()
	if len(fields) == 0 {
		return strings.TrimSpace(string(p))
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + fields[k]
	}
	return strings.Join(parts, "; ")
}

// MarshalJSON emits the payload verbatim.
func (p ErrorPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return []byte(p), nil
}

// ErrorMessage extracts a human-readable message from err: the payload's
// detail, else its message, else fallback.
func ErrorMessage(err error, fallback string) string {
	p := PayloadOf(err)
	if s := p.Detail(); s != "" {
		return s
	}
	if s := p.Message(); s != "" {
		return s
	}
	return fallback
}
