// internal/common/errors/handler.go
package errors

import (
	"context"
	"time"
)

// Handler turns failed user actions into a log entry and a user-visible notice.
type Handler struct {
	logger   Logger
	notifier Notifier
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// Notifier is the user-facing side of the handler.
type Notifier interface {
	NotifyError(ctx context.Context, message string)
}

func NewHandler(logger Logger, notifier Notifier) *Handler {
	return &Handler{logger: logger, notifier: notifier}
}

// Report normalizes err, logs it and surfaces it to the operator.
// prefix is prepended to the user message when set ("Failed to change status.").
func (h *Handler) Report(ctx context.Context, action, prefix string, err error) *StandardError {
	if err == nil {
		return nil
	}
	stdErr := h.normalizeError(err)
	h.logError(action, stdErr)

	if h.notifier != nil {
		msg := UserMessage(stdErr)
		if prefix != "" {
			msg = prefix + " " + msg
		}
		h.notifier.NotifyError(ctx, msg)
	}
	return stdErr
}

// normalizeError ensures we always have a StandardError
func (h *Handler) normalizeError(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

func (h *Handler) logError(action string, stdErr *StandardError) {
	if h.logger == nil {
		return
	}
	fields := map[string]interface{}{
		"action":        action,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if stdErr.Status > 0 {
		fields["status"] = stdErr.Status
	}
	h.logger.Error("Action failed", fields)
}
