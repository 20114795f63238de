package console

import (
	"context"
	"sync"
	"time"

	"casting-admin/internal/common/logger"
)

// Navigator receives "go to path after delay" intents. Intents are fire and
// forget; an intent issued with a cancelled context never fires.
type Navigator interface {
	Navigate(ctx context.Context, path string, delay time.Duration)
}

// DelayedNavigator schedules intents on timers and hands the path to a
// callback when they fire.
type DelayedNavigator struct {
	onNavigate func(path string)
	logger     logger.Logger

	mu      sync.Mutex
	pending map[*time.Timer]struct{}
	wg      sync.WaitGroup
}

func NewDelayedNavigator(onNavigate func(path string), log logger.Logger) *DelayedNavigator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &DelayedNavigator{
		onNavigate: onNavigate,
		logger:     log,
		pending:    make(map[*time.Timer]struct{}),
	}
}

func (n *DelayedNavigator) Navigate(ctx context.Context, path string, delay time.Duration) {
	if ctx.Err() != nil {
		return
	}
	n.logger.Debug("Navigation scheduled", map[string]interface{}{
		"path":    path,
		"delayMs": delay.Milliseconds(),
	})

	n.mu.Lock()
	defer n.mu.Unlock()

	n.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		defer n.wg.Done()

		n.mu.Lock()
		_, live := n.pending[timer]
		delete(n.pending, timer)
		n.mu.Unlock()

		if !live || ctx.Err() != nil {
			return
		}
		n.onNavigate(path)
	})
	n.pending[timer] = struct{}{}
}

// Pending is the number of intents not yet fired or cancelled.
func (n *DelayedNavigator) Pending() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.pending)
}

// Cancel drops every pending intent.
func (n *DelayedNavigator) Cancel() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for timer := range n.pending {
		if timer.Stop() {
			n.wg.Done()
		}
		delete(n.pending, timer)
	}
}

// Wait blocks until every scheduled intent has fired or been cancelled.
func (n *DelayedNavigator) Wait() {
	n.wg.Wait()
}
