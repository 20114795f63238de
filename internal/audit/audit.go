// Package audit records operator actions (deletes, status changes, form
// submits, moderation transitions) to the configured sinks.
package audit

import (
	"context"
	goerrors "errors"
	"strconv"
	"time"

	"casting-admin/internal/common/logger"

	"github.com/google/uuid"
)

// Event is one recorded operator action.
type Event struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resourceId,omitempty"`
	AdminID    string    `json:"adminId,omitempty"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
}

// Recorder persists events.
type Recorder interface {
	Record(ctx context.Context, event Event) error
}

// AdminSource yields the signed in admin.
type AdminSource interface {
	AdminID(ctx context.Context) (string, bool)
}

// Noop drops every event.
type Noop struct{}

func (Noop) Record(ctx context.Context, event Event) error { return nil }

// Multi fans an event out to several recorders. Every recorder is tried.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, event Event) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return goerrors.Join(errs...)
}

// Trail stamps events and hands them to a recorder. Sink failures are logged
// and never reach the caller.
type Trail struct {
	recorder Recorder
	admins   AdminSource
	logger   logger.Logger
	now      func() time.Time
}

func NewTrail(recorder Recorder, admins AdminSource, log logger.Logger) *Trail {
	if recorder == nil {
		recorder = Noop{}
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Trail{
		recorder: recorder,
		admins:   admins,
		logger:   log,
		now:      time.Now,
	}
}

// Log records one action. A nil Trail is a no-op.
func (t *Trail) Log(ctx context.Context, action, resource string, id int, outcome, detail string) {
	if t == nil {
		return
	}
	event := Event{
		ID:        uuid.NewString(),
		Timestamp: t.now().UTC(),
		Action:    action,
		Resource:  resource,
		Outcome:   outcome,
		Detail:    detail,
	}
	if id > 0 {
		event.ResourceID = strconv.Itoa(id)
	}
	if t.admins != nil {
		if adminID, ok := t.admins.AdminID(ctx); ok {
			event.AdminID = adminID
		}
	}

	// the screen may already be gone; the record should still land
	if err := t.recorder.Record(context.WithoutCancel(ctx), event); err != nil {
		t.logger.Warn("Failed to record audit event", map[string]interface{}{
			"eventId":  event.ID,
			"action":   action,
			"resource": resource,
			"error":    err.Error(),
		})
	}
}
