package api

import (
	"fmt"
	"strconv"
	"strings"

	"casting-admin/internal/common/errors"
	"casting-admin/internal/models"
)

// Operation names used for endpoints, metrics and spans.
const (
	OpList   = "list"
	OpGet    = "get"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpStatus = "status"
)

// Endpoint is a method plus a path relative to the resource host. "{id}" is
// replaced with the record id.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

func (e *Endpoint) resolve(id int) string {
	return strings.ReplaceAll(e.Path, "{id}", strconv.Itoa(id))
}

// ItemAdapter reshapes one raw item before it becomes a record.
type ItemAdapter func(item map[string]interface{}) map[string]interface{}

// Resource describes how one entity type is reached and unwrapped.
type Resource struct {
	Name string
	Host string

	List   *Endpoint
	Get    *Endpoint
	Create *Endpoint
	Update *Endpoint
	Delete *Endpoint
	Status *Endpoint

	ListEnvelope   Envelope
	DetailEnvelope Envelope
	Adapt          ItemAdapter

	// Singleton resources (site content) have no server id.
	Singleton bool
}

// Endpoint returns the endpoint for op or an error when the resource lacks it.
func (r *Resource) Endpoint(op string) (*Endpoint, error) {
	var ep *Endpoint
	switch op {
	case OpList:
		ep = r.List
	case OpGet:
		ep = r.Get
	case OpCreate:
		ep = r.Create
	case OpUpdate:
		ep = r.Update
	case OpDelete:
		ep = r.Delete
	case OpStatus:
		ep = r.Status
	}
	if ep == nil {
		return nil, errors.NewConfigError(fmt.Sprintf("resource %s does not support %s", r.Name, op))
	}
	return ep, nil
}

// Supports reports whether the resource has an endpoint for op.
func (r *Resource) Supports(op string) bool {
	_, err := r.Endpoint(op)
	return err == nil
}

// toRecord normalizes one item into a ResourceRecord.
func (r *Resource) toRecord(item map[string]interface{}) (models.ResourceRecord, error) {
	if r.Adapt != nil {
		item = r.Adapt(item)
	}

	rec := models.ResourceRecord{Fields: item}
	if id, ok := models.ToInt(item["id"]); ok {
		rec.ID = id
	} else if !r.Singleton {
		return rec, errors.NewShapeError(r.Name, fmt.Sprintf("record without a numeric id: %v", item["id"]))
	}

	if t, ok := models.ParseTimestamp(item["createdAt"]); ok {
		rec.CreatedAt = t
	}
	if t, ok := models.ParseTimestamp(item["updatedAt"]); ok {
		rec.UpdatedAt = t
	}
	return rec, nil
}
