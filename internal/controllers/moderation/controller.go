// Package moderation drives the casting approval workflow: pending moves to
// approved or rejected, both terminal. Approve and reject share one in-flight
// guard so only one transition is ever sent at a time.
package moderation

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"casting-admin/internal/api"
	"casting-admin/internal/common/errors"
	"casting-admin/internal/common/metrics"
	"casting-admin/internal/controllers"
	"casting-admin/internal/models"
	"casting-admin/internal/resources"
)

const (
	ListPath      = "/pending"
	failurePrefix = "Failed to change status."
)

// Client is the slice of the resource client moderation needs.
type Client interface {
	GetByID(ctx context.Context, resource string, id int) (models.ResourceRecord, error)
	Call(ctx context.Context, name, host, method, path string, payload *api.Payload) (interface{}, error)
}

// Session gates transitions on a signed in admin.
type Session interface {
	IsAuthenticated(ctx context.Context) bool
}

type Controller struct {
	client  Client
	session Session
	delay   time.Duration
	deps    controllers.Deps
	errors  *errors.Handler

	inFlight atomic.Bool

	mu  sync.Mutex
	app *models.CastingApplication
}

// NewController builds a controller for one application screen. delay is the
// pause before returning to the pending list.
func NewController(client Client, session Session, delay time.Duration, deps controllers.Deps) *Controller {
	deps = deps.WithDefaults()
	return &Controller{
		client:  client,
		session: session,
		delay:   delay,
		deps:    deps,
		errors:  deps.Errors(),
	}
}

// LoadApplication fetches a casting application with its roles.
func (c *Controller) LoadApplication(ctx context.Context, id int) (*models.CastingApplication, error) {
	rec, err := c.client.GetByID(ctx, resources.PendingCastings, id)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		c.errors.Report(ctx, "moderation.load", "Error fetching data.", err)
		return nil, err
	}

	app := models.CastingApplicationFromRecord(rec)
	if app.ID == 0 {
		app.ID = id
	}

	c.mu.Lock()
	c.app = app
	c.mu.Unlock()

	c.deps.Logger.Debug("Casting application loaded", map[string]interface{}{
		"id":    app.ID,
		"state": string(app.ModerationState()),
		"roles": len(app.Roles),
	})
	return app, nil
}

// Application returns the last loaded application.
func (c *Controller) Application() *models.CastingApplication {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.app
}

// InFlight reports whether a transition is running. Both actions are disabled
// while it is true.
func (c *Controller) InFlight() bool {
	return c.inFlight.Load()
}

func (c *Controller) Approve(ctx context.Context, id int) error {
	return c.transition(ctx, id, models.ApprovalApproved)
}

func (c *Controller) Reject(ctx context.Context, id int) error {
	return c.transition(ctx, id, models.ApprovalRejected)
}

func (c *Controller) transition(ctx context.Context, id int, to models.ApprovalStatus) error {
	action := string(to)
	start := time.Now()

	if !c.inFlight.CompareAndSwap(false, true) {
		err := errors.NewInFlightError(action)
		c.deps.Track(ctx, resources.PendingCastings, action, metrics.OutcomeBlocked, start, id, "")
		return err
	}
	defer c.inFlight.Store(false)

	gauge := metrics.ActionsInFlight.WithLabelValues("moderation")
	gauge.Inc()
	defer gauge.Dec()

	if c.session != nil && !c.session.IsAuthenticated(ctx) {
		err := errors.NewAuthError("You are not signed in")
		c.errors.Report(ctx, "moderation."+action, failurePrefix, err)
		c.deps.Track(ctx, resources.PendingCastings, action, metrics.OutcomeFailure, start, id, errors.UserMessage(err))
		return err
	}

	if from := c.loadedState(id); from.IsTerminal() {
		err := errors.NewInvalidTransitionError(string(from), string(to))
		c.errors.Report(ctx, "moderation."+action, failurePrefix, err)
		c.deps.Track(ctx, resources.PendingCastings, action, metrics.OutcomeInvalid, start, id, "")
		return err
	}

	ok, err := c.deps.Confirmer.Confirm(ctx, "Are you sure?", "You are about to mark this casting as "+to.Label()+".")
	if err != nil {
		return err
	}
	if !ok {
		c.deps.Track(ctx, resources.PendingCastings, action, metrics.OutcomeDeclined, start, id, "")
		return nil
	}

	ep := resources.ModerationTransition
	path := strings.NewReplacer("{id}", strconv.Itoa(id), "{status}", string(to)).Replace(ep.Path)
	payload := api.JSONPayload(map[string]interface{}{})

	_, err = c.client.Call(ctx, "moderation", resources.ModerationHost, ep.Method, path, &payload)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		c.errors.Report(ctx, "moderation."+action, failurePrefix, err)
		c.deps.Track(ctx, resources.PendingCastings, action, metrics.OutcomeFailure, start, id, errors.UserMessage(err))
		return err
	}

	c.mu.Lock()
	if c.app != nil && c.app.ID == id {
		c.app.AdminStatus = to
	}
	c.mu.Unlock()

	c.deps.Notifier.NotifySuccess(ctx, "Status successfully changed to "+to.Label()+".")
	c.deps.Navigator.Navigate(ctx, ListPath, c.delay)
	c.deps.Track(ctx, resources.PendingCastings, action, metrics.OutcomeSuccess, start, id, "")
	return nil
}

// loadedState is the moderation state of the loaded application, pending when
// another or no application is loaded.
func (c *Controller) loadedState(id int) models.ApprovalStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.app == nil || c.app.ID != id {
		return models.ApprovalPending
	}
	return c.app.ModerationState()
}
