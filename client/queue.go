package wl

import (
	"errors"
	"time"

	"deedles.dev/decor/internal/ev"
	"golang.org/x/exp/slices"
)

// ErrRoundTripTimeout is returned by RoundTrip if the compositor does
// not answer within RoundTripTimeout.
var ErrRoundTripTimeout = errors.New("round trip timed out")

// ErrQueueClosed is returned when dispatching a queue whose client has
// been closed.
var ErrQueueClosed = errors.New("queue closed")

// RoundTripTimeout bounds how long RoundTrip waits.
var RoundTripTimeout = 10 * time.Second

// Queue is an event queue. Every object belongs to exactly one queue
// and its events are only processed when that queue is dispatched.
type Queue struct {
	client *Client
	events *ev.Queue
}

func newQueue(client *Client) (*Queue, error) {
	events, err := ev.NewQueue()
	if err != nil {
		return nil, err
	}
	return &Queue{client: client, events: events}, nil
}

// Destroy stops q and closes its descriptor. Events still pending on
// it are discarded, and objects that belong to it are treated as
// destroyed so that later events for them are dropped. The default
// queue can't be destroyed.
func (q *Queue) Destroy() error {
	client := q.client
	if q == client.queue {
		panic("wl: destroy of default queue")
	}

	client.rm.Lock()
	for id, r := range client.routes {
		if r != q {
			continue
		}
		if obj, ok := client.store.Get(id).(Object); ok {
			obj.proxy().MarkDestroyed()
		}
		delete(client.routes, id)
	}
	client.queues = slices.DeleteFunc(client.queues, func(other *Queue) bool { return other == q })
	client.rm.Unlock()

	return q.events.Stop()
}

// Fd returns a descriptor that is readable while events are pending.
func (q *Queue) Fd() int {
	return q.events.Fd()
}

// Wake makes the queue's descriptor readable until the next Dispatch,
// for code layered on top of the queue that has work of its own
// pending.
func (q *Queue) Wake() {
	q.events.Wake()
}

// Dispatch flushes outgoing requests and then processes pending events,
// waiting up to timeout for some to arrive. A timeout of zero or less
// does not block. It returns the number of events processed.
//
// Once the connection has failed, such as because of a protocol error,
// every call returns the error that caused the failure.
func (q *Queue) Dispatch(timeout time.Duration) (int, error) {
	select {
	case <-q.client.done:
		return 0, ErrQueueClosed
	default:
	}

	if err := q.client.Err(); err != nil {
		return 0, err
	}

	err := q.client.Flush()
	if err != nil {
		return 0, err
	}

	events := q.events.Wait(timeout)
	n := events.Len()
	err = events.Flush()
	return n, errors.Join(err, q.client.Err())
}

// RoundTrip blocks until the compositor has processed every request
// sent so far, dispatching q in the meantime.
func (q *Queue) RoundTrip() error {
	var done bool
	q.client.Display().WithQueue(q).Sync(func(uint32) { done = true })

	deadline := time.Now().Add(RoundTripTimeout)
	var errs []error
	for !done {
		if time.Now().After(deadline) {
			return errors.Join(append(errs, ErrRoundTripTimeout)...)
		}

		_, err := q.Dispatch(50 * time.Millisecond)
		if err != nil {
			errs = append(errs, err)
			if q.client.Err() != nil {
				break
			}
		}
	}
	return errors.Join(errs...)
}
