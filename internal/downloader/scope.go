package downloader

import "context"

// Scope is a cancellation signal shared by every operation started with its
// context. Cancel reaches all of them at once, not just the latest one.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScope(parent context.Context) *Scope {
	ctx, cancel := context.WithCancel(parent)
	return &Scope{ctx: ctx, cancel: cancel}
}

func (s *Scope) Context() context.Context { return s.ctx }

// Cancel is safe to call more than once and from any goroutine.
func (s *Scope) Cancel() { s.cancel() }

func (s *Scope) Cancelled() bool { return s.ctx.Err() != nil }
