package state

import "sync/atomic"

// CancelToken is a cooperative cancellation flag shared between the party
// doing the work and the party requesting the stop. Work checks the flag at
// its own checkpoints; nothing is interrupted preemptively.
type CancelToken struct {
	flag atomic.Bool
}

// NewCancelToken returns a token in the not-cancelled state.
func NewCancelToken() *CancelToken { return &CancelToken{} }

// Cancel sets the flag. Calling it more than once is harmless.
func (t *CancelToken) Cancel() { t.flag.Store(true) }

// Cancelled reports whether Cancel was called.
func (t *CancelToken) Cancelled() bool { return t.flag.Load() }
