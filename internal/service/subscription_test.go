package service

import (
	"sync"
	"testing"

	"service-marketplace-api/internal/entity"
)

type snapshots[T any] struct {
	mu   sync.Mutex
	seen [][]T
}

func (s *snapshots[T]) add(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, items)
}

func (s *snapshots[T]) last() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seen) == 0 {
		return nil
	}
	return s.seen[len(s.seen)-1]
}

func (s *snapshots[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

func TestSubscribeToUserNotifications(t *testing.T) {
	f := newFixture(t)
	got := &snapshots[entity.NotificationOutputModel]{}

	unsubscribe, err := f.svc.Notification.SubscribeToUserNotifications(as(f.client), got.add)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if got.count() != 1 || len(got.last()) != 0 {
		t.Fatalf("expected an empty initial snapshot, got %d deliveries", got.count())
	}

	if _, err := f.svc.Notification.SendNotification(asSystem(), f.client.Id.String(), KindNewMessage, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	eventually(t, "the new notification", func() bool { return len(got.last()) == 1 })

	// someone else's notification is not delivered, the next own one is
	if _, err := f.svc.Notification.SendNotification(asSystem(), f.provider.Id.String(), KindNewMessage, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := f.svc.Notification.SendNotification(asSystem(), f.client.Id.String(), KindNewMessage, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	eventually(t, "the second notification", func() bool { return len(got.last()) == 2 })
	for _, n := range got.last() {
		if n.UserId != f.client.Id.String() {
			t.Fatalf("delivered a notification of %s", n.UserId)
		}
	}

	unsubscribe()
	deliveries := got.count()
	if f.hub.Len() != 0 {
		t.Fatalf("%d subscriptions left after unsubscribe", f.hub.Len())
	}
	if _, err := f.svc.Notification.SendNotification(asSystem(), f.client.Id.String(), KindNewMessage, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.count() != deliveries {
		t.Fatalf("delivered after unsubscribe")
	}
}

func TestSubscribeToProjectsFollowsProgress(t *testing.T) {
	f := newFixture(t)
	_, projectId := f.inProgress(t, "", "60")
	got := &snapshots[entity.ProjectOutputModel]{}

	unsubscribe, err := f.svc.Project.SubscribeToUserProjects(as(f.client), got.add)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	if _, err := f.svc.Project.UpdateProjectProgress(as(f.provider), projectId, 40, nil); err != nil {
		t.Fatalf("progress: %v", err)
	}
	eventually(t, "progress 40", func() bool {
		last := got.last()
		return len(last) == 1 && last[0].Progress == 40
	})
}

func TestSubscriptionReloadsOffThePublisher(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	var calls sync.WaitGroup
	calls.Add(1)
	first := true
	got := &snapshots[entity.NotificationOutputModel]{}

	unsubscribe, err := f.svc.Notification.SubscribeToUserNotifications(as(f.client), func(items []entity.NotificationOutputModel) {
		got.add(items)
		if first {
			first = false
			return
		}
		if got.count() == 2 {
			calls.Done()
			<-release
		}
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsubscribe()

	// the first reload blocks in fn; further writes must not wait for it
	if _, err := f.svc.Notification.SendNotification(asSystem(), f.client.Id.String(), KindNewMessage, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	calls.Wait()
	for i := 0; i < 3; i++ {
		if _, err := f.svc.Notification.SendNotification(asSystem(), f.client.Id.String(), KindNewMessage, nil); err != nil {
			t.Fatalf("send: %v", err)
		}
	}
	close(release)

	eventually(t, "all four notifications", func() bool { return len(got.last()) == 4 })
	if got.count() > 3 {
		t.Errorf("expected the writes made during a reload to coalesce, got %d deliveries", got.count())
	}
}
