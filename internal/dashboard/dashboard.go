// Package dashboard keeps live per-user views of the marketplace.
//
// A context subscribes to the collections its user cares about, keeps the
// latest lists and recomputes aggregate stats whenever one of them
// changes. Stats are derived from the lists only, no I/O happens in the
// callbacks. Action methods delegate to the services with the context's
// actor. Close tears every subscription down and must be called when the
// consumer goes away.
package dashboard

import (
	"context"
	"sync"
)

type subscriptions struct {
	mu     sync.Mutex
	closed bool
	cancel []func()
}

// subscribe runs each step in order. When one fails, the subscriptions
// already made are undone and its error is returned.
func (s *subscriptions) subscribe(steps ...func() (func(), error)) error {
	for _, step := range steps {
		unsubscribe, err := step()
		if err != nil {
			s.close()
			return err
		}
		s.mu.Lock()
		s.cancel = append(s.cancel, unsubscribe)
		s.mu.Unlock()
	}

	return nil
}

func (s *subscriptions) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	for _, unsubscribe := range cancel {
		unsubscribe()
	}
}

// detach keeps the actor but drops the caller's cancellation; contexts outlive the call that opened them.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
