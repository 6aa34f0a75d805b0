package expiry

import (
	"context"
	"testing"
	"time"

	"github.com/akashmaji946/respkv/internal/logging"
	"github.com/akashmaji946/respkv/internal/store"
)

func newTestScheduler(t *testing.T) (*Scheduler, *store.Store, context.CancelFunc) {
	t.Helper()
	s := store.New()
	sched := New(s, logging.New())
	ctx, cancel := context.WithCancel(context.Background())
	go sched.Run(ctx)
	t.Cleanup(cancel)
	return sched, s, cancel
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestExpiryReapsKeyAfterDeadline(t *testing.T) {
	sched, s, _ := newTestScheduler(t)

	deadline := time.Now().Add(30 * time.Millisecond)
	s.Set("k", []byte("v"), deadline)
	if err := sched.Notify(context.Background(), Event{Key: "k", Deadline: deadline}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	waitUntil(t, time.Second, func() bool {
		_, ok := s.Get("k")
		return !ok
	})
}

func TestExpiryDoesNotReapBeforeDeadline(t *testing.T) {
	sched, s, _ := newTestScheduler(t)

	deadline := time.Now().Add(200 * time.Millisecond)
	s.Set("k", []byte("v"), deadline)
	if err := sched.Notify(context.Background(), Event{Key: "k", Deadline: deadline}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := s.Get("k"); !ok {
		t.Fatal("key was reaped well before its deadline")
	}
}

// TestExtendedTTLRace covers the exact scenario named in spec: SET k v
// EX10; SET k v' EX100 (a shorter TTL extended by a later, longer one).
// The stale event for the first deadline must not delete the key once the
// second SET has superseded it in both the store and the scheduler heap.
func TestExtendedTTLRace(t *testing.T) {
	sched, s, _ := newTestScheduler(t)

	firstDeadline := time.Now().Add(30 * time.Millisecond)
	s.Set("k", []byte("v1"), firstDeadline)
	if err := sched.Notify(context.Background(), Event{Key: "k", Deadline: firstDeadline}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	secondDeadline := time.Now().Add(300 * time.Millisecond)
	s.Set("k", []byte("v2"), secondDeadline)
	if err := sched.Notify(context.Background(), Event{Key: "k", Deadline: secondDeadline}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	// Wait past the first (now-stale) deadline; the key must survive.
	time.Sleep(80 * time.Millisecond)
	v, ok := s.Get("k")
	if !ok || string(v) != "v2" {
		t.Fatalf("key wrongly reaped by stale first-deadline event: got (%q, %v)", v, ok)
	}

	// Eventually the second, real deadline does reap it.
	waitUntil(t, time.Second, func() bool {
		_, ok := s.Get("k")
		return !ok
	})
}

func TestMultipleKeysExpireInDeadlineOrder(t *testing.T) {
	sched, s, _ := newTestScheduler(t)

	dA := time.Now().Add(20 * time.Millisecond)
	dB := time.Now().Add(60 * time.Millisecond)
	s.Set("a", []byte("1"), dA)
	s.Set("b", []byte("2"), dB)
	if err := sched.Notify(context.Background(), Event{Key: "a", Deadline: dA}); err != nil {
		t.Fatalf("Notify a: %v", err)
	}
	if err := sched.Notify(context.Background(), Event{Key: "b", Deadline: dB}); err != nil {
		t.Fatalf("Notify b: %v", err)
	}

	waitUntil(t, time.Second, func() bool {
		_, ok := s.Get("a")
		return !ok
	})
	if _, ok := s.Get("b"); !ok {
		t.Fatal("key b expired before its later deadline")
	}

	waitUntil(t, time.Second, func() bool {
		_, ok := s.Get("b")
		return !ok
	})
}
