package resources

import (
	"fmt"

	"casting-admin/internal/api"
	"casting-admin/internal/common/errors"
	"casting-admin/pkg/registry"
)

// ApplyRegistry overrides hosts and endpoint paths of built-in resources.
// Envelopes and adapters are never overridden.
func (c *Catalog) ApplyRegistry(reg *registry.ResourceRegistry) error {
	if reg == nil {
		return nil
	}
	for _, entry := range reg.Resources {
		current, ok := c.resources[entry.Name]
		if !ok {
			return errors.NewConfigError(fmt.Sprintf("registry names unknown resource %q", entry.Name))
		}

		res := *current
		if entry.Host != "" {
			res.Host = entry.Host
		}
		for op, ep := range entry.Endpoints {
			endpoint := &api.Endpoint{Method: ep.Method, Path: ep.Path}
			switch op {
			case api.OpList:
				res.List = endpoint
			case api.OpGet:
				res.Get = endpoint
			case api.OpCreate:
				res.Create = endpoint
			case api.OpUpdate:
				res.Update = endpoint
			case api.OpDelete:
				res.Delete = endpoint
			case api.OpStatus:
				res.Status = endpoint
			default:
				return errors.NewConfigError(fmt.Sprintf("registry entry %s has unknown operation %q", entry.Name, op))
			}
		}
		c.resources[entry.Name] = &res
	}
	return nil
}

// ExportRegistry renders the current endpoints as a registry document.
func (c *Catalog) ExportRegistry() *registry.ResourceRegistry {
	reg := registry.New()
	for _, res := range c.Resources() {
		entry := registry.ResourceEntry{
			Name:      res.Name,
			Host:      res.Host,
			Endpoints: make(map[string]registry.Endpoint),
		}
		for _, op := range registry.Operations {
			if ep, err := res.Endpoint(op); err == nil {
				entry.Endpoints[op] = registry.Endpoint{Method: ep.Method, Path: ep.Path}
			}
		}
		reg.Resources = append(reg.Resources, entry)
	}
	return reg
}
