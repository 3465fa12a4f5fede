// Package ev implements the event queues that decoded protocol
// messages are delivered through.
package ev

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"deedles.dev/xsync"
	"golang.org/x/sys/unix"
)

// Queue is a concurrent queue of pending events. Events are added from
// a connection's read loop and run, in order, by whichever goroutine
// calls Wait and then Flush.
//
// Every queue has an eventfd that becomes readable when events are
// pending so that it can be included in a poll loop.
type Queue struct {
	q    xsync.Queue[func() error]
	stop xsync.Stopper

	// sm keeps Stop from closing the underlying queue while an Add is
	// sending to it.
	sm      sync.RWMutex
	stopped bool

	efd     int
	pending atomic.Int64
}

// NewQueue creates a new, empty queue.
func NewQueue() (*Queue, error) {
	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	return &Queue{efd: efd}, nil
}

// Fd returns a descriptor that is readable while events are pending.
func (q *Queue) Fd() int {
	return q.efd
}

// Add adds an event to the queue. It returns false without adding the
// event if done is closed first or if the queue has been stopped.
func (q *Queue) Add(done <-chan struct{}, ev func() error) bool {
	q.sm.RLock()
	defer q.sm.RUnlock()
	if q.stopped {
		return false
	}

	select {
	case <-done:
		return false
	case <-q.stop.Done():
		return false
	case q.q.Push() <- ev:
	}

	q.pending.Add(1)
	q.signal()
	return true
}

// Wake makes the queue's descriptor readable without adding an event.
// It stays readable until the next call to Wait.
func (q *Queue) Wake() {
	q.sm.RLock()
	defer q.sm.RUnlock()
	if !q.stopped {
		q.signal()
	}
}

func (q *Queue) signal() {
	var one [8]byte
	one[0] = 1 // eventfd counters are host order; only non-zero matters.
	unix.Write(q.efd, one[:])
}

// Wait waits up to timeout for pending events. A timeout of zero or
// less polls without blocking. It returns nil if no events arrived.
func (q *Queue) Wait(timeout time.Duration) *Events {
	q.sm.RLock()
	defer q.sm.RUnlock()
	if q.stopped {
		return nil
	}

	// Clear the eventfd before taking events so that anything added
	// afterwards leaves it readable.
	var buf [8]byte
	unix.Read(q.efd, buf[:])

	events := q.wait(timeout)
	if q.pending.Add(-int64(events.Len())) > 0 {
		q.signal()
	}
	return events
}

func (q *Queue) wait(timeout time.Duration) *Events {
	first, ok := q.first(timeout)
	if !ok {
		return nil
	}

	// Everything counted in pending has already been pushed, so these
	// receives can't block for long.
	events := []func() error{first}
	for n := q.pending.Load() - 1; n > 0; n-- {
		ev, ok := <-q.q.Pop()
		if !ok {
			break
		}
		events = append(events, ev)
	}
	return &Events{events: events}
}

func (q *Queue) first(timeout time.Duration) (func() error, bool) {
	if timeout <= 0 {
		select {
		case ev, ok := <-q.q.Pop():
			return ev, ok
		default:
			return nil, false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev, ok := <-q.q.Pop():
		return ev, ok
	case <-q.stop.Done():
		return nil, false
	case <-timer.C:
		return nil, false
	}
}

// Stop stops the queue, discards any events still in it and closes
// its eventfd. Calling it more than once has no effect.
func (q *Queue) Stop() error {
	q.stop.Stop()

	q.sm.Lock()
	defer q.sm.Unlock()
	if q.stopped {
		return nil
	}
	q.stopped = true

	q.q.Stop()
	return unix.Close(q.efd)
}

// Events represents a series of events from a queue.
type Events struct {
	events []func() error
}

// Len returns the number of events that have not been flushed.
func (q *Events) Len() int {
	if q == nil {
		return 0
	}
	return len(q.events)
}

// Flush processess all of the events represented by q.
func (q *Events) Flush() error {
	return errors.Join(Flush(q)...)
}

func Flush(queue *Events) (errs []error) {
	if queue == nil {
		return nil
	}

	for _, ev := range queue.events {
		err := ev()
		if err != nil {
			errs = append(errs, err)
		}
	}
	queue.events = nil
	return errs
}
