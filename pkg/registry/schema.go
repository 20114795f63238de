// pkg/registry/schema.go
package registry

// ResourceRegistry is the on-disk list of endpoint overrides.
type ResourceRegistry struct {
	Version     string          `json:"version"`
	LastUpdated string          `json:"lastUpdated"`
	Resources   []ResourceEntry `json:"resources"`
}

// ResourceEntry overrides the host and endpoints of one resource. Unset values
// keep the built-in definition.
type ResourceEntry struct {
	Name      string              `json:"name"`
	Host      string              `json:"host,omitempty"`
	Endpoints map[string]Endpoint `json:"endpoints,omitempty"`
}

type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Operations that may appear as endpoint keys.
var Operations = []string{"list", "get", "create", "update", "delete", "status"}

// documentSchema is the JSON Schema every registry file must satisfy.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "resources"],
  "properties": {
    "version": {"type": "string", "minLength": 1},
    "lastUpdated": {"type": "string"},
    "resources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "host": {"type": "string", "enum": ["billing", "casting", "projects"]},
          "endpoints": {
            "type": "object",
            "propertyNames": {"enum": ["list", "get", "create", "update", "delete", "status"]},
            "additionalProperties": {
              "type": "object",
              "required": ["method", "path"],
              "additionalProperties": false,
              "properties": {
                "method": {"type": "string", "enum": ["GET", "POST", "PUT", "PATCH", "DELETE"]},
                "path": {"type": "string", "minLength": 1, "pattern": "^[^/]"}
              }
            }
          }
        }
      }
    }
  }
}`
