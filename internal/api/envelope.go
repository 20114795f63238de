package api

import (
	"fmt"

	"casting-admin/internal/common/errors"
	"casting-admin/internal/models"
)

// EnvelopeKind tags how a resource wraps its payload.
type EnvelopeKind string

const (
	// EnvelopeBare is a payload at the document root: an array or an object.
	EnvelopeBare EnvelopeKind = "bare"
	// EnvelopeNested is a payload under a dot path such as "result" or "data.data".
	EnvelopeNested EnvelopeKind = "nested"
)

// Envelope is one resource's response adapter.
type Envelope struct {
	Kind EnvelopeKind `json:"kind"`
	Path string       `json:"path,omitempty"`
	// SuccessFlag names a boolean field that must not be false ("status", "success").
	SuccessFlag string `json:"successFlag,omitempty"`
}

func Bare() Envelope {
	return Envelope{Kind: EnvelopeBare}
}

func Nested(path string) Envelope {
	return Envelope{Kind: EnvelopeNested, Path: path}
}

// WithFlag returns a copy that also checks a boolean success flag.
func (e Envelope) WithFlag(flag string) Envelope {
	e.SuccessFlag = flag
	return e
}

func (e Envelope) String() string {
	if e.Kind == EnvelopeBare {
		return "bare"
	}
	return e.Path
}

// payload extracts the wrapped value from a decoded document.
func (e Envelope) payload(resource string, doc interface{}) (interface{}, error) {
	if e.Kind == EnvelopeBare || e.Path == "" {
		return doc, nil
	}

	root, ok := doc.(map[string]interface{})
	if !ok {
		return nil, errors.NewShapeError(resource, fmt.Sprintf("expected an object wrapping %q, got %T", e.Path, doc))
	}
	if e.SuccessFlag != "" {
		if flag, present := root[e.SuccessFlag]; present {
			if b, isBool := flag.(bool); isBool && !b {
				return nil, errors.NewShapeError(resource, fmt.Sprintf("%s flag is false", e.SuccessFlag))
			}
		}
	}

	value, ok := models.Lookup(root, e.Path)
	if !ok {
		return nil, errors.NewShapeError(resource, fmt.Sprintf("missing %q in response", e.Path))
	}
	return value, nil
}

// Items unwraps a list response. A null payload is an empty list.
func (e Envelope) Items(resource string, doc interface{}) ([]map[string]interface{}, error) {
	value, err := e.payload(resource, doc)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return []map[string]interface{}{}, nil
	}

	list, ok := value.([]interface{})
	if !ok {
		return nil, errors.NewShapeError(resource, fmt.Sprintf("expected a list at %s, got %T", e, value))
	}

	items := make([]map[string]interface{}, 0, len(list))
	for i, raw := range list {
		item, ok := raw.(map[string]interface{})
		if !ok {
			return nil, errors.NewShapeError(resource, fmt.Sprintf("item %d is %T, not an object", i, raw))
		}
		items = append(items, item)
	}
	return items, nil
}

// Item unwraps a detail response. A single element array yields that element.
func (e Envelope) Item(resource string, doc interface{}) (map[string]interface{}, error) {
	value, err := e.payload(resource, doc)
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case map[string]interface{}:
		return v, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, nil
		}
		if item, ok := v[0].(map[string]interface{}); ok {
			return item, nil
		}
	case nil:
		return nil, nil
	}
	return nil, errors.NewShapeError(resource, fmt.Sprintf("expected an object at %s, got %T", e, value))
}
