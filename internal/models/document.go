package models

import (
	"encoding/json"
	"math"
)

// Document is the raw field map of a stored document
type Document map[string]any

// Has reports whether the field is present
func (d Document) Has(field string) bool {
	_, ok := d[field]
	return ok
}

// String returns a string field, or "" when absent or not a string
func (d Document) String(field string) string {
	s, _ := d[field].(string)
	return s
}

// StringSet returns an array field as a set of strings in stored order.
// Missing or non-array fields are the empty set; non-string and repeated members are skipped.
func (d Document) StringSet(field string) []string {
	var raw []any
	switch v := d[field].(type) {
	case []any:
		raw = v
	case []string:
		raw = make([]any, len(v))
		for i, s := range v {
			raw[i] = s
		}
	default:
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	members := make([]string, 0, len(raw))
	for _, item := range raw {
		s, ok := item.(string)
		if !ok || s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		members = append(members, s)
	}
	return members
}

// Int returns an integral field. Store drivers and JSON decoding disagree on
// number types, so every numeric representation is accepted.
func (d Document) Int(field string) (int, bool) {
	switch v := d[field].(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}
