// Package form implements the generic create/edit form: draft initialization,
// schema validation, file previews and submission.
package form

import (
	"context"
	"strconv"
	"sync"
	"time"

	"casting-admin/internal/api"
	"casting-admin/internal/common/errors"
	"casting-admin/internal/common/metrics"
	"casting-admin/internal/common/validation"
	"casting-admin/internal/controllers"
	"casting-admin/internal/models"
	"casting-admin/internal/resources"

	"github.com/gabriel-vasile/mimetype"
)

// Client is the slice of the resource client a form needs.
type Client interface {
	GetByID(ctx context.Context, resource string, id int) (models.ResourceRecord, error)
	Create(ctx context.Context, resource string, payload api.Payload) (models.ResourceRecord, error)
	Update(ctx context.Context, resource string, id int, payload api.Payload) (models.ResourceRecord, error)
}

// Session supplies the signed in admin for forms that act on the admin itself.
type Session interface {
	AdminID(ctx context.Context) (string, bool)
	Logout(ctx context.Context) error
}

type Controller struct {
	spec    *resources.FormSpec
	client  Client
	session Session
	deps    controllers.Deps
	errors  *errors.Handler

	mu    sync.Mutex
	mode  models.FormMode
	id    int
	draft *models.FormDraft
}

func NewController(spec *resources.FormSpec, client Client, session Session, deps controllers.Deps) *Controller {
	deps = deps.WithDefaults()
	return &Controller{
		spec:    spec,
		client:  client,
		session: session,
		deps:    deps,
		errors:  deps.Errors(),
	}
}

func (c *Controller) Spec() *resources.FormSpec {
	return c.spec
}

// Initialize prepares a draft. Create starts from the schema defaults; edit
// fetches the record and maps it into the draft.
func (c *Controller) Initialize(ctx context.Context, mode models.FormMode, id int) (*models.FormDraft, error) {
	if !c.spec.Supports(mode) {
		return nil, errors.NewConfigError(c.spec.Name + " does not support " + string(mode))
	}

	if c.spec.UsesAdminID {
		adminID, err := c.adminID(ctx)
		if err != nil {
			return nil, err
		}
		id = adminID
	}

	schema := c.spec.Schema(mode)
	values := schema.Defaults()

	if mode == models.FormEdit && !c.spec.Blank {
		rec, err := c.client.GetByID(ctx, c.spec.Resource, id)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			c.errors.Report(ctx, "form.initialize", "Failed to load "+c.spec.Name+".", err)
			return nil, err
		}
		for k, v := range c.spec.DraftValues(mode, rec) {
			values[k] = v
		}
	}

	draft := models.NewFormDraft(values)

	c.mu.Lock()
	c.mode = mode
	c.id = id
	c.draft = draft
	c.mu.Unlock()

	c.deps.Logger.Debug("Form initialized", map[string]interface{}{
		"form": c.spec.Name,
		"mode": string(mode),
		"id":   id,
	})
	return draft, nil
}

// Draft returns the current draft, nil before Initialize.
func (c *Controller) Draft() *models.FormDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// SetValue stores a field value and marks it touched.
func (c *Controller) SetValue(field string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return errNotInitialized(c.spec.Name)
	}
	if _, ok := c.spec.Schema(c.mode).Field(field); !ok {
		return errors.NewConfigError(c.spec.Name + " has no field " + field)
	}
	c.draft.Values[field] = value
	c.draft.Touched[field] = true
	delete(c.draft.Errors, field)
	return nil
}

// SetFile attaches a file to a file field and derives its preview. A nil file
// clears both the value and the preview.
func (c *Controller) SetFile(field string, file *models.FileUpload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return errNotInitialized(c.spec.Name)
	}
	f, ok := c.spec.Schema(c.mode).Field(field)
	if !ok || f.Kind != validation.KindFile {
		return errors.NewConfigError(c.spec.Name + " has no file field " + field)
	}

	c.draft.Touched[field] = true
	delete(c.draft.Errors, field)
	if file == nil {
		delete(c.draft.Values, field)
		delete(c.draft.Previews, field)
		return nil
	}

	if file.ContentType == "" {
		file.ContentType = mimetype.Detect(file.Data).String()
	}
	c.draft.Previews[field] = file.DataURL()
	c.draft.Values[field] = file
	return nil
}

// Validate checks the draft against the mode's schema and stores the result.
// An empty map means the draft is valid.
func (c *Controller) Validate() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.draft == nil {
		return map[string]string{}
	}
	return c.validateLocked()
}

func (c *Controller) validateLocked() map[string]string {
	result := c.spec.Schema(c.mode).Validate(c.draft.Values)
	fieldErrors := result.FieldErrors()
	c.draft.Errors = fieldErrors
	for field := range fieldErrors {
		c.draft.Touched[field] = true
	}
	return fieldErrors
}

// Submit validates the draft and sends it. Validation failures never reach
// the server. On success the operator is notified and navigation to the
// form's list screen is scheduled.
func (c *Controller) Submit(ctx context.Context) (models.ResourceRecord, error) {
	start := time.Now()

	c.mu.Lock()
	if c.draft == nil {
		c.mu.Unlock()
		return models.ResourceRecord{}, errNotInitialized(c.spec.Name)
	}
	mode, id := c.mode, c.id
	fieldErrors := c.validateLocked()
	var payload api.Payload
	if len(fieldErrors) == 0 {
		payload = c.spec.Payload(mode, c.draft.Values)
	}
	c.mu.Unlock()

	action := actionName(mode)
	if len(fieldErrors) > 0 {
		c.deps.Track(ctx, c.spec.Resource, action, metrics.OutcomeInvalid, start, id, "")
		return models.ResourceRecord{}, errors.NewValidationError(fieldErrors)
	}

	var (
		rec models.ResourceRecord
		err error
	)
	if mode == models.FormCreate {
		rec, err = c.client.Create(ctx, c.spec.Resource, payload)
	} else {
		rec, err = c.client.Update(ctx, c.spec.Resource, id, payload)
	}
	if ctx.Err() != nil {
		return models.ResourceRecord{}, ctx.Err()
	}
	if err != nil {
		err = c.overrideMessage(err)
		c.errors.Report(ctx, "form.submit", "", err)
		c.deps.Track(ctx, c.spec.Resource, action, controllers.Outcome(err), start, id, errors.UserMessage(err))
		return models.ResourceRecord{}, err
	}

	if msg := c.spec.SuccessMessage(mode); msg != "" {
		c.deps.Notifier.NotifySuccess(ctx, msg)
	}
	if c.spec.LogoutOnSuccess && c.session != nil {
		if err := c.session.Logout(ctx); err != nil {
			c.deps.Logger.Warn("Logout after submit failed", map[string]interface{}{
				"form":  c.spec.Name,
				"error": err.Error(),
			})
		}
	}
	if c.spec.NavigateTo != "" {
		c.deps.Navigator.Navigate(ctx, c.spec.NavigateTo, c.spec.Delay(mode))
	}

	if rec.ID > 0 {
		id = rec.ID
	}
	c.deps.Track(ctx, c.spec.Resource, action, metrics.OutcomeSuccess, start, id, "")
	return rec, nil
}

// overrideMessage replaces the server message for statuses the form words itself.
func (c *Controller) overrideMessage(err error) error {
	stdErr, ok := errors.AsStandard(err)
	if !ok || stdErr.Code != errors.ErrCodeAPI {
		return err
	}
	if msg, ok := c.spec.StatusMessage(stdErr.Status); ok {
		return errors.NewAPIError(stdErr.Status, msg)
	}
	return err
}

func (c *Controller) adminID(ctx context.Context) (int, error) {
	if c.session == nil {
		return 0, errors.NewAuthError("You are not signed in")
	}
	raw, ok := c.session.AdminID(ctx)
	if !ok {
		return 0, errors.NewAuthError("You are not signed in")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewAuthError("Invalid admin id in session")
	}
	return id, nil
}

func actionName(mode models.FormMode) string {
	if mode == models.FormCreate {
		return "create"
	}
	return "update"
}

func errNotInitialized(name string) error {
	return errors.NewConfigError(name + " form is not initialized")
}
