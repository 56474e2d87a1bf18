package resolver

import (
	"context"
	"sync"
)

// Future is the single resolve point of one Resolve call. The first resolve
// wins; later attempts are ignored.
type Future struct {
	mu       sync.Mutex
	resolved bool
	reply    Reply
	then     []func(Reply)
	done     chan struct{}
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve settles the future and runs queued callbacks on the caller's
// goroutine. It reports whether this call won.
func (f *Future) resolve(r Reply) bool {
	f.mu.Lock()
	if f.resolved {
		f.mu.Unlock()
		return false
	}
	f.resolved = true
	f.reply = r
	callbacks := f.then
	f.then = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(r)
	}
	return true
}

// Then runs fn once the future settles. If it already has, fn runs now.
func (f *Future) Then(fn func(Reply)) {
	f.mu.Lock()
	if f.resolved {
		r := f.reply
		f.mu.Unlock()
		fn(r)
		return
	}
	f.then = append(f.then, fn)
	f.mu.Unlock()
}

// Done is closed when the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Reply returns the settled reply, if any.
func (f *Future) Reply() (Reply, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reply, f.resolved
}

// Wait blocks until the future settles or ctx ends.
func (f *Future) Wait(ctx context.Context) (Reply, error) {
	select {
	case <-f.done:
		r, _ := f.Reply()
		return r, nil
	case <-ctx.Done():
		return Reply{}, ctx.Err()
	}
}
