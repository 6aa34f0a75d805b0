/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: respkv/internal/expiry/expiry.go
*/

// Package expiry implements the single-goroutine expiry scheduler: a
// min-heap of (deadline, key) pairs fed by a bounded event channel,
// reaping keys from the store once their deadline has passed.
package expiry

import (
	"container/heap"
	"context"
	"time"

	"github.com/akashmaji946/respkv/internal/logging"
	"github.com/akashmaji946/respkv/internal/store"
)

// channelCapacity bounds the expiry event channel; a writer blocks once it
// is full rather than the scheduler ever dropping an event silently.
const channelCapacity = 1024

// Event is emitted by a connection handler after a SET that carries a
// deadline, and consumed by the scheduler.
type Event struct {
	Key      string
	Deadline time.Time
}

// heapEntry is one scheduled (deadline, key) pair living in the queue.
// index is maintained by container/heap for fast removal-by-key.
type heapEntry struct {
	deadline time.Time
	key      string
	index    int
}

// queue is a container/heap.Interface ordered by ascending deadline, the
// idiomatic Go stand-in for the min-heap the spec describes (Rust's
// BinaryHeap is max-heap by default and needs a Reverse wrapper to get the
// same ordering container/heap gives directly).
type queue []*heapEntry

func (q queue) Len() int            { return len(q) }
func (q queue) Less(i, j int) bool  { return q[i].deadline.Before(q[j].deadline) }
func (q queue) Swap(i, j int)       { q[i], q[j] = q[j], q[i]; q[i].index = i; q[j].index = j }
func (q *queue) Push(x interface{}) {
	e := x.(*heapEntry)
	e.index = len(*q)
	*q = append(*q, e)
}
func (q *queue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

// Scheduler owns the expiry heap and runs for the process lifetime on its
// own goroutine. It is driven entirely by Events and a timer; it never
// polls the store.
type Scheduler struct {
	store  *store.Store
	log    *logging.Logger
	events chan Event

	queue queue
	byKey map[string]*heapEntry
}

// New returns a Scheduler wired to s. Call Run to start its goroutine.
func New(s *store.Store, log *logging.Logger) *Scheduler {
	return &Scheduler{
		store:  s,
		log:    log,
		events: make(chan Event, channelCapacity),
		byKey:  make(map[string]*heapEntry),
	}
}

// Notify delivers an expiry event to the scheduler, blocking if the
// channel is momentarily full (backpressure, per spec; never dropped).
// It respects ctx so a shutting-down connection isn't stuck forever.
func (s *Scheduler) Notify(ctx context.Context, evt Event) error {
	select {
	case s.events <- evt:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes the scheduler's main loop until ctx is cancelled. It is
// meant to be started once, on its own goroutine, for the life of the
// process.
func (s *Scheduler) Run(ctx context.Context) {
	heap.Init(&s.queue)

	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	timerActive := false

	for {
		s.resetTimer(timer, &timerActive)

		select {
		case <-ctx.Done():
			return

		case evt := <-s.events:
			s.onEvent(evt)

		case <-timerC(timer, timerActive):
			timerActive = false
			s.onTimerFired()
		}
	}
}

// timerC returns the timer's channel only when a deadline is actually
// pending; otherwise nil, so a select never wakes for an armed-but-stale
// timer (a nil channel blocks forever in a select, which is exactly the
// "never-completing wait" spec.md §4.5 step 2 calls for on an empty heap).
func timerC(t *time.Timer, active bool) <-chan time.Time {
	if !active {
		return nil
	}
	return t.C
}

// resetTimer arms t for the heap's earliest deadline, if any, stopping and
// draining any previous pending fire first.
func (s *Scheduler) resetTimer(t *time.Timer, active *bool) {
	if !t.Stop() && *active {
		select {
		case <-t.C:
		default:
		}
	}
	*active = false

	if len(s.queue) == 0 {
		return
	}
	d := time.Until(s.queue[0].deadline)
	if d < 0 {
		d = 0
	}
	t.Reset(d)
	*active = true
}

// onEvent implements spec.md §4.5 step 3: remove any existing heap entry
// for the key, then insert the new deadline. A re-SET's later deadline
// always supersedes an earlier pending one this way.
func (s *Scheduler) onEvent(evt Event) {
	if existing, ok := s.byKey[evt.Key]; ok {
		heap.Remove(&s.queue, existing.index)
		delete(s.byKey, evt.Key)
	}
	entry := &heapEntry{deadline: evt.Deadline, key: evt.Key}
	heap.Push(&s.queue, entry)
	s.byKey[evt.Key] = entry
}

// onTimerFired implements spec.md §4.5 step 4: pop every entry whose
// deadline has passed, and for each, only delete the key from the store
// if its currently stored deadline still equals the one being acted on
// (the second stale-event check, independent of the one in onEvent).
func (s *Scheduler) onTimerFired() {
	now := time.Now()
	for len(s.queue) > 0 && !s.queue[0].deadline.After(now) {
		entry := heap.Pop(&s.queue).(*heapEntry)
		delete(s.byKey, entry.key)

		if s.store.RemoveIfDeadline(entry.key, entry.deadline) {
			s.log.Debug("expired key=%q deadline=%v", entry.key, entry.deadline)
		}
	}
}
