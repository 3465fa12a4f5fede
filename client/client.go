// Package wl is a Wayland client for the core protocol.
//
// A Client reads from the connection on a background goroutine, but
// every listener method is called from whichever goroutine dispatches
// the queue that the object belongs to. Outgoing requests are buffered
// until the next Flush or Dispatch.
package wl

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"deedles.dev/decor/internal/debug"
	"deedles.dev/decor/internal/objstore"
	"deedles.dev/decor/wire"
)

// Client is a connection to a Wayland compositor.
type Client struct {
	conn  *wire.Conn
	store *objstore.Store
	done  chan struct{}
	close sync.Once

	rm     sync.RWMutex
	routes map[uint32]*Queue
	queues []*Queue

	om  sync.Mutex
	out []*wire.MessageBuilder

	err atomic.Pointer[error]

	queue   *Queue
	display *Display
}

// Dial connects to the compositor specified by the environment.
func Dial() (*Client, error) {
	c, err := wire.Dial()
	if err != nil {
		return nil, err
	}

	client, err := NewClient(c)
	if err != nil {
		c.Close()
		return nil, err
	}
	return client, nil
}

// NewClient creates a client that uses conn. The client takes
// ownership of conn.
func NewClient(conn *wire.Conn) (*Client, error) {
	client := Client{
		conn:   conn,
		store:  objstore.New(1),
		done:   make(chan struct{}),
		routes: make(map[uint32]*Queue),
	}

	queue, err := client.NewQueue()
	if err != nil {
		return nil, fmt.Errorf("create default queue: %w", err)
	}
	client.queue = queue

	client.display = &Display{}
	client.add(client.display, queue)

	go client.listen()

	return &client, nil
}

func (client *Client) listen() {
	for {
		msg, err := wire.ReadMessage(client.conn)
		if err != nil {
			select {
			case <-client.done:
				return
			default:
			}

			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				err = fmt.Errorf("connection closed: %w", err)
			}
			client.fail(err)
			return
		}

		obj := client.store.Get(msg.Sender())
		if obj == nil {
			err := wire.UnknownSenderIDError{Sender: msg.Sender(), Op: msg.Op()}
			if !client.queue.events.Add(client.done, func() error { return err }) {
				return
			}
			continue
		}

		if fr, ok := obj.(wire.FileReceiver); ok {
			err := msg.ClaimFiles(client.conn, fr.EventFiles(msg.Op()))
			if err != nil {
				client.fail(fmt.Errorf("claim files for %v: %w", wire.Name(obj), err))
				return
			}
		}

		queue := client.route(msg.Sender())
		if !queue.events.Add(client.done, func() error { return client.dispatch(msg) }) {
			select {
			case <-client.done:
				return
			default:
				// The queue was destroyed after the route was looked up.
				debug.Printf("discarded event for object %v on destroyed queue", msg.Sender())
			}
		}
	}
}

// fail marks the connection as unusable and wakes up every queue so
// that pollers notice.
func (client *Client) fail(err error) {
	client.err.CompareAndSwap(nil, &err)

	client.rm.RLock()
	defer client.rm.RUnlock()
	for _, q := range client.queues {
		q.events.Add(client.done, func() error { return nil })
	}
}

// Err returns the error that made the connection unusable, if any.
func (client *Client) Err() error {
	if err := client.err.Load(); err != nil {
		return *err
	}
	return nil
}

func (client *Client) dispatch(msg *wire.MessageBuffer) error {
	obj := client.store.Get(msg.Sender())
	if obj == nil {
		// The object was deleted after the message was read.
		return nil
	}
	if p, ok := obj.(Object); ok && p.proxy().destroyed {
		debug.Printf("discarded event %v.%v for destroyed object", wire.Name(obj), obj.MethodName(msg.Op()))
		return nil
	}

	err := obj.Dispatch(msg)
	debug.Printf("%v", msg.Debug(obj))
	return err
}

func (client *Client) route(id uint32) *Queue {
	client.rm.RLock()
	defer client.rm.RUnlock()

	if q, ok := client.routes[id]; ok {
		return q
	}
	return client.queue
}

func (client *Client) add(obj Object, queue *Queue) {
	p := obj.proxy()
	p.client = client
	p.queue = queue
	client.store.Add(obj)

	client.rm.Lock()
	defer client.rm.Unlock()
	client.routes[p.id] = queue
}

// Get returns the object with the given ID, or nil if there is none.
func (client *Client) Get(id uint32) wire.Object {
	return client.store.Get(id)
}

// release handles delete_id. Objects on other queues are deleted from
// those queues so that events queued for them before the delete_id are
// still delivered.
func (client *Client) release(id uint32) {
	queue := client.route(id)
	if queue == client.queue {
		client.Delete(id)
		return
	}
	queue.events.Add(client.done, func() error {
		client.Delete(id)
		return nil
	})
}

// Delete releases the object with the given ID.
func (client *Client) Delete(id uint32) {
	client.store.Delete(id)

	client.rm.Lock()
	defer client.rm.Unlock()
	delete(client.routes, id)
}

// Display returns the wl_display object of the connection.
func (client *Client) Display() *Display {
	return client.display
}

// Queue returns the default event queue.
func (client *Client) Queue() *Queue {
	return client.queue
}

// NewQueue creates a new event queue. Objects created from an object
// on the queue, such as by using a Display returned from WithQueue,
// have their events delivered to it instead of to the default queue.
func (client *Client) NewQueue() (*Queue, error) {
	q, err := newQueue(client)
	if err != nil {
		return nil, err
	}

	client.rm.Lock()
	defer client.rm.Unlock()
	client.queues = append(client.queues, q)

	return q, nil
}

// Enqueue adds a request to the outgoing buffer.
func (client *Client) Enqueue(msg *wire.MessageBuilder) {
	client.om.Lock()
	defer client.om.Unlock()

	client.out = append(client.out, msg)
}

// Flush sends all buffered requests.
func (client *Client) Flush() error {
	client.om.Lock()
	out := client.out
	client.out = nil
	client.om.Unlock()

	var errs []error
	for _, msg := range out {
		debug.Printf(" -> %v", msg)
		err := msg.Build(client.conn)
		if err != nil {
			errs = append(errs, fmt.Errorf("send %v: %w", msg, err))
		}
	}
	return errors.Join(errs...)
}

// Fd returns a descriptor that is readable while events are pending on
// the default queue.
func (client *Client) Fd() int {
	return client.queue.Fd()
}

// Dispatch dispatches the default queue. See Queue.Dispatch.
func (client *Client) Dispatch(timeout time.Duration) (int, error) {
	return client.queue.Dispatch(timeout)
}

// RoundTrip blocks until the compositor has processed every request
// sent so far, dispatching the default queue in the meantime.
func (client *Client) RoundTrip() error {
	return client.queue.RoundTrip()
}

// Close closes the connection and stops every queue.
func (client *Client) Close() error {
	var err error
	client.close.Do(func() {
		close(client.done)
		err = client.conn.Close()

		client.rm.RLock()
		defer client.rm.RUnlock()
		for _, q := range client.queues {
			err = errors.Join(err, q.events.Stop())
		}
	})
	return err
}
