package console

import (
	"context"
	"sync"
)

// Screen is the lifetime of one controller. Unmount cancels in-flight requests
// and pending navigation started from it.
type Screen struct {
	ctx    context.Context
	cancel context.CancelFunc
	nav    *DelayedNavigator

	once sync.Once
}

// Mount starts a screen. nav may be nil.
func Mount(parent context.Context, nav *DelayedNavigator) *Screen {
	ctx, cancel := context.WithCancel(parent)
	return &Screen{ctx: ctx, cancel: cancel, nav: nav}
}

func (s *Screen) Context() context.Context {
	return s.ctx
}

// Active reports whether the screen is still mounted.
func (s *Screen) Active() bool {
	return s.ctx.Err() == nil
}

func (s *Screen) Unmount() {
	s.once.Do(func() {
		s.cancel()
		if s.nav != nil {
			s.nav.Cancel()
		}
	})
}
