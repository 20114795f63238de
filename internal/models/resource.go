package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResourceRecord is one normalized server entity.
type ResourceRecord struct {
	ID        int                    `json:"id"`
	Fields    map[string]interface{} `json:"fields"`
	CreatedAt time.Time              `json:"createdAt,omitempty"`
	UpdatedAt time.Time              `json:"updatedAt,omitempty"`
}

// Value resolves a dot path ("payments.amount") inside the record fields.
func (r ResourceRecord) Value(path string) (interface{}, bool) {
	return Lookup(r.Fields, path)
}

func (r ResourceRecord) String(path string) string {
	v, ok := r.Value(path)
	if !ok {
		return ""
	}
	return ToString(v)
}

func (r ResourceRecord) Int(path string) (int, bool) {
	v, ok := r.Value(path)
	if !ok {
		return 0, false
	}
	return ToInt(v)
}

// DisplayRow is a record mapped to display columns, keyed by ID.
type DisplayRow struct {
	ID     int               `json:"id"`
	Cells  map[string]string `json:"cells"`
	Status string            `json:"status,omitempty"`
}

// Column is one displayed list column.
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// Lookup walks nested maps following a dot separated path.
func Lookup(m map[string]interface{}, path string) (interface{}, bool) {
	if m == nil || path == "" {
		return nil, false
	}
	var current interface{} = m
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ToString renders scalar values without float noise ("10" not "10.000000").
func ToString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// ToInt accepts JSON numbers and numeric strings.
func ToInt(v interface{}) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		i, err := t.Int64()
		return int(i), err == nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(t))
		return i, err == nil
	}
	return 0, false
}

// ToFloat accepts JSON numbers and numeric strings.
func ToFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// ParseTimestamp reads the timestamp formats the API emits.
func ParseTimestamp(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
