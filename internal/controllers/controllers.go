// Package controllers holds what the list, form and moderation controllers
// share: their collaborators and action bookkeeping.
package controllers

import (
	"context"
	"time"

	"casting-admin/internal/audit"
	"casting-admin/internal/common/errors"
	"casting-admin/internal/common/logger"
	"casting-admin/internal/common/metrics"
	"casting-admin/internal/common/observability"
	"casting-admin/internal/console"
)

// Deps are the collaborators every controller talks to.
type Deps struct {
	Confirmer console.Confirmer
	Notifier  console.Notifier
	Navigator console.Navigator
	Trail     *audit.Trail
	Obs       *observability.Observability
	Logger    logger.Logger
}

// WithDefaults fills unset collaborators. A missing confirmer declines.
func (d Deps) WithDefaults() Deps {
	if d.Confirmer == nil {
		d.Confirmer = console.AutoConfirm(false)
	}
	if d.Notifier == nil {
		d.Notifier = console.Discard{}
	}
	if d.Navigator == nil {
		d.Navigator = console.Discard{}
	}
	if d.Logger == nil {
		d.Logger = logger.NewNoOpLogger()
	}
	return d
}

// Errors builds the handler that logs a failure and notifies the operator.
func (d Deps) Errors() *errors.Handler {
	return errors.NewHandler(d.Logger, d.Notifier)
}

// Track records the outcome of one operator action.
func (d Deps) Track(ctx context.Context, resource, action, outcome string, started time.Time, id int, detail string) {
	metrics.ActionsTotal.WithLabelValues(resource, action, outcome).Inc()
	d.Obs.RecordAction(ctx, resource+"."+action, outcome)
	d.Obs.RecordActionDuration(ctx, resource+"."+action, time.Since(started))

	switch outcome {
	case metrics.OutcomeDeclined, metrics.OutcomeInvalid:
		return
	}
	d.Trail.Log(ctx, action, resource, id, outcome, detail)
}

// Outcome maps an action error to its metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, errors.ErrCodeValidation), errors.Is(err, errors.ErrCodeInvalidTransition):
		return metrics.OutcomeInvalid
	case errors.Is(err, errors.ErrCodeTransitionInFlight):
		return metrics.OutcomeBlocked
	default:
		return metrics.OutcomeFailure
	}
}
