package model

import (
	"sort"
	"strings"
)

// FieldErrors maps a field name to the message displayed next to its input.
// Only one message is kept per field.
type FieldErrors map[string]string

// Set attaches msg to field, replacing any previous message. Blank messages
// clear the field instead.
func (e FieldErrors) Set(field, msg string) {
	if e == nil {
		return
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		delete(e, field)
		return
	}
	e[field] = msg
}

// Get returns the message attached to field.
func (e FieldErrors) Get(field string) string {
	return e[field]
}

// Has reports whether field currently carries a message.
func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Clear removes the messages for the supplied fields.
func (e FieldErrors) Clear(fields ...string) {
	for _, f := range fields {
		delete(e, f)
	}
}

// Merge copies every message from other, overwriting existing entries.
func (e FieldErrors) Merge(other FieldErrors) {
	if e == nil {
		return
	}
	for field, msg := range other {
		e.Set(field, msg)
	}
}

// Clone returns an independent copy. A nil receiver yields an empty map.
func (e FieldErrors) Clone() FieldErrors {
	out := make(FieldErrors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Fields lists the erroring fields in display order; unknown keys follow in
// lexical order.
func (e FieldErrors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := fieldIndex(out[i]), fieldIndex(out[j])
		switch {
		case a >= 0 && b >= 0:
			return a < b
		case a >= 0:
			return true
		case b >= 0:
			return false
		default:
			return out[i] < out[j]
		}
	})
	return out
}
