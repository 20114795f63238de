// Package list implements the generic resource list screen: load, delete with
// confirmation, status toggle and navigation to view/edit/add.
package list

import (
	"context"
	"sync"
	"time"

	"casting-admin/internal/common/errors"
	"casting-admin/internal/common/metrics"
	"casting-admin/internal/controllers"
	"casting-admin/internal/display"
	"casting-admin/internal/models"
	"casting-admin/internal/resources"
)

// Client is the slice of the resource client a list needs.
type Client interface {
	List(ctx context.Context, resource string) ([]models.ResourceRecord, error)
	Delete(ctx context.Context, resource string, id int) error
	SetStatus(ctx context.Context, resource string, id int, body map[string]interface{}) (map[string]interface{}, error)
}

type Controller struct {
	spec   *resources.ListSpec
	client Client
	deps   controllers.Deps
	errors *errors.Handler

	mu      sync.Mutex
	records []models.ResourceRecord
	loaded  bool
}

func NewController(spec *resources.ListSpec, client Client, deps controllers.Deps) *Controller {
	deps = deps.WithDefaults()
	return &Controller{
		spec:   spec,
		client: client,
		deps:   deps,
		errors: deps.Errors(),
	}
}

func (c *Controller) Spec() *resources.ListSpec {
	return c.spec
}

// Load fetches the collection and replaces the local rows. An empty collection
// is a valid result. On failure the previous rows stay and the operator is told.
func (c *Controller) Load(ctx context.Context) ([]models.DisplayRow, error) {
	start := time.Now()
	records, err := c.client.List(ctx, c.spec.Resource)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		c.errors.Report(ctx, "list.load", "Failed to load "+c.spec.Noun+" list.", err)
		metrics.ActionsTotal.WithLabelValues(c.spec.Resource, "load", metrics.OutcomeFailure).Inc()
		return c.Rows(), err
	}

	c.spec.Sort.Apply(records)

	c.mu.Lock()
	c.records = records
	c.loaded = true
	c.mu.Unlock()

	c.deps.Logger.Debug("List loaded", map[string]interface{}{
		"resource": c.spec.Resource,
		"count":    len(records),
	})
	metrics.ActionsTotal.WithLabelValues(c.spec.Resource, "load", metrics.OutcomeSuccess).Inc()
	c.deps.Obs.RecordActionDuration(ctx, c.spec.Resource+".load", time.Since(start))
	return c.Rows(), nil
}

// Rows returns the current display rows in display order.
func (c *Controller) Rows() []models.DisplayRow {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := make([]models.DisplayRow, 0, len(c.records))
	for _, rec := range c.records {
		rows = append(rows, c.spec.Row(rec))
	}
	return rows
}

// Loaded reports whether a load has succeeded.
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// RequestDelete asks for confirmation, then deletes. It reports whether the
// record was deleted. A declined confirmation makes no call.
func (c *Controller) RequestDelete(ctx context.Context, id int) (bool, error) {
	start := time.Now()
	ok, err := c.deps.Confirmer.Confirm(ctx, "Are you sure?", c.spec.DeleteConfirmation())
	if err != nil {
		return false, err
	}
	if !ok {
		c.deps.Track(ctx, c.spec.Resource, "delete", metrics.OutcomeDeclined, start, id, "")
		return false, nil
	}

	err = c.client.Delete(ctx, c.spec.Resource, id)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		c.errors.Report(ctx, "list.delete", "Failed to delete "+c.spec.Noun+".", err)
		c.deps.Track(ctx, c.spec.Resource, "delete", metrics.OutcomeFailure, start, id, errors.UserMessage(err))
		return false, err
	}

	c.mu.Lock()
	for i, rec := range c.records {
		if rec.ID == id {
			c.records = append(c.records[:i:i], c.records[i+1:]...)
			break
		}
	}
	c.mu.Unlock()

	c.deps.Notifier.NotifySuccess(ctx, c.spec.DeletedMessage())
	c.deps.Track(ctx, c.spec.Resource, "delete", metrics.OutcomeSuccess, start, id, "")
	return true, nil
}

// SetStatus toggles the status column after confirmation. The row takes the
// value the server acknowledged; on failure it keeps the previous value.
func (c *Controller) SetStatus(ctx context.Context, id int, active bool) (bool, error) {
	toggle := c.spec.Status
	if toggle == nil {
		return false, errors.NewConfigError(c.spec.Resource + " has no status column")
	}

	start := time.Now()
	ok, err := c.deps.Confirmer.Confirm(ctx, "Are you sure?", toggle.Confirmation(active))
	if err != nil {
		return false, err
	}
	if !ok {
		c.deps.Track(ctx, c.spec.Resource, "status", metrics.OutcomeDeclined, start, id, "")
		return false, nil
	}

	resp, err := c.client.SetStatus(ctx, c.spec.Resource, id, toggle.Body(active))
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		c.errors.Report(ctx, "list.status", "Failed to update user status.", err)
		c.deps.Track(ctx, c.spec.Resource, "status", metrics.OutcomeFailure, start, id, errors.UserMessage(err))
		return false, err
	}

	acked := toggle.Acknowledged(resp, active)

	c.mu.Lock()
	for i := range c.records {
		if c.records[i].ID != id {
			continue
		}
		fields := make(map[string]interface{}, len(c.records[i].Fields)+1)
		for k, v := range c.records[i].Fields {
			fields[k] = v
		}
		fields[toggle.Field] = acked
		c.records[i].Fields = fields
		break
	}
	c.mu.Unlock()

	c.deps.Notifier.NotifySuccess(ctx, "User status updated successfully")
	c.deps.Track(ctx, c.spec.Resource, "status", metrics.OutcomeSuccess, start, id, display.ActiveLabel(acked))
	return acked, nil
}

// ==========================
// Navigation
// ==========================

func (c *Controller) View(ctx context.Context, id int) error {
	return c.navigate(ctx, "view", c.spec.ViewPath, id)
}

func (c *Controller) Edit(ctx context.Context, id int) error {
	return c.navigate(ctx, "edit", c.spec.EditPath, id)
}

func (c *Controller) Add(ctx context.Context) error {
	return c.navigate(ctx, "add", c.spec.AddPath, 0)
}

func (c *Controller) navigate(ctx context.Context, action, template string, id int) error {
	if template == "" {
		return errors.NewConfigError(c.spec.Resource + " has no " + action + " screen")
	}
	c.deps.Navigator.Navigate(ctx, resources.Path(template, id), 0)
	return nil
}
