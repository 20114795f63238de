// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// New returns an empty registry.
func New() *ResourceRegistry {
	return &ResourceRegistry{
		Version:     "1.0.0",
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
		Resources:   []ResourceEntry{},
	}
}

// Load reads and validates a registry file.
func Load(path string) (*ResourceRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var reg ResourceRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	return &reg, nil
}

// Validate checks a registry document against the schema and rejects
// duplicate resource names.
func Validate(data []byte) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("invalid registry document: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("registry validation failed: %s", strings.Join(msgs, "; "))
	}

	var reg ResourceRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return fmt.Errorf("failed to parse registry: %w", err)
	}
	seen := make(map[string]bool, len(reg.Resources))
	for _, r := range reg.Resources {
		if seen[r.Name] {
			return fmt.Errorf("duplicate resource: %s", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// Save writes the registry, creating the directory when needed.
func Save(reg *ResourceRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := Validate(data); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

// Entry returns the entry for name.
func (r *ResourceRegistry) Entry(name string) (*ResourceEntry, bool) {
	for i := range r.Resources {
		if r.Resources[i].Name == name {
			return &r.Resources[i], true
		}
	}
	return nil, false
}

// SetEndpoint adds or replaces one endpoint override.
func (r *ResourceRegistry) SetEndpoint(name, op, method, path string) error {
	if !validOperation(op) {
		return fmt.Errorf("unknown operation: %s", op)
	}
	entry, ok := r.Entry(name)
	if !ok {
		r.Resources = append(r.Resources, ResourceEntry{Name: name})
		entry = &r.Resources[len(r.Resources)-1]
	}
	if entry.Endpoints == nil {
		entry.Endpoints = make(map[string]Endpoint)
	}
	entry.Endpoints[op] = Endpoint{
		Method: strings.ToUpper(method),
		Path:   strings.TrimPrefix(path, "/"),
	}
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return nil
}

// SetHost points a resource at another configured host.
func (r *ResourceRegistry) SetHost(name, host string) {
	entry, ok := r.Entry(name)
	if !ok {
		r.Resources = append(r.Resources, ResourceEntry{Name: name})
		entry = &r.Resources[len(r.Resources)-1]
	}
	entry.Host = host
	r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
}

func validOperation(op string) bool {
	for _, o := range Operations {
		if o == op {
			return true
		}
	}
	return false
}
