package service

import (
	"context"
	"log/slog"
	"sync"

	"service-marketplace-api/internal/realtime"
)

// subscribe delivers the current list to fn, then a fresh list after
// changes to collection that concern userId. Reloads run on a goroutine of
// the subscription, never on the publisher's, and changes arriving while
// one is pending collapse into it. The returned func stops delivery and
// waits for a running reload to finish.
func subscribe[T any](
	ctx context.Context,
	changes realtime.Subscriber,
	logger *slog.Logger,
	collection string,
	userId string,
	load func(ctx context.Context) ([]T, error),
	fn func([]T),
) (func(), error) {
	// reloads run long after the subscribing request returned
	ctx = context.WithoutCancel(ctx)

	dirty := make(chan struct{}, 1)
	unsubscribe := func() {}
	if changes != nil {
		unsubscribe = changes.Subscribe(collection, userId, func(realtime.Change) {
			select {
			case dirty <- struct{}{}:
			default:
			}
		})
	}

	// a change racing this load leaves dirty set, so the worker reloads after it
	initial, err := load(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	fn(initial)

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			case <-dirty:
			}

			items, err := load(ctx)
			if err != nil {
				logger.Warn("subscription reload failed", "collection", collection, "user", userId, "error", err)
				continue
			}
			select {
			case <-done:
				return
			default:
				fn(items)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			unsubscribe()
			close(done)
			<-stopped
		})
	}, nil
}
