// Package wltest provides a scripted compositor for testing code that
// talks to a Wayland compositor.
//
// The compositor decodes requests using the protocol XML descriptions
// from the protocol package. It answers wl_display.sync, advertises its
// globals, creates objects for new_id arguments and releases objects
// on destructor requests. Everything else is only recorded, so tests
// drive the conversation by waiting for requests with Expect and
// answering them with Send.
package wltest

import (
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"sync"
	"testing"
	"time"

	wl "deedles.dev/decor/client"
	"deedles.dev/decor/internal/bin"
	"deedles.dev/decor/internal/debug"
	"deedles.dev/decor/protocol"
	"deedles.dev/decor/wire"
	"github.com/stretchr/testify/require"
)

// Timeout bounds how long Expect and Pump wait.
var Timeout = 5 * time.Second

// Global is a global advertised through wl_registry.
type Global struct {
	Interface string
	Version   uint32
}

// Request is a decoded request that the compositor received.
type Request struct {
	Object *Resource
	Name   string
	Args   []any
}

func (r Request) String() string {
	return fmt.Sprintf("%v.%v%v", wire.Name(r.Object), r.Name, r.Args)
}

// Uint returns argument i as a uint.
func (r Request) Uint(i int) uint32 { return r.Args[i].(uint32) }

// Int returns argument i as an int.
func (r Request) Int(i int) int32 { return r.Args[i].(int32) }

// Str returns argument i as a string.
func (r Request) Str(i int) string { return r.Args[i].(string) }

// Resource returns argument i as an object. It returns nil for a null
// object.
func (r Request) Resource(i int) *Resource {
	res, _ := r.Args[i].(*Resource)
	return res
}

// Compositor is the server end of a connection.
type Compositor struct {
	conn       *wire.Conn
	interfaces map[string]protocol.Interface
	done       chan struct{}

	m        sync.Mutex
	cond     *sync.Cond
	globals  []Global
	objects  map[uint32]*Resource
	requests []Request
	consumed map[int]struct{}
	serial   uint32
	err      error
}

// New starts a compositor that advertises globals and returns it with
// a client connected to it. Both are closed when the test ends.
func New(t testing.TB, globals ...Global) (*Compositor, *wl.Client) {
	t.Helper()

	interfaces, err := protocol.Builtin()
	require.NoError(t, err)

	cc, sc, err := wire.Pair()
	require.NoError(t, err)

	c := Compositor{
		conn:       sc,
		interfaces: interfaces,
		done:       make(chan struct{}),
		globals:    globals,
		objects:    make(map[uint32]*Resource),
		consumed:   make(map[int]struct{}),
	}
	c.cond = sync.NewCond(&c.m)
	c.objects[1] = &Resource{c: &c, id: 1, iface: "wl_display", version: 1}
	go c.listen()

	client, err := wl.NewClient(cc)
	require.NoError(t, err)

	t.Cleanup(func() {
		client.Close()
		c.Close()
	})

	return &c, client
}

// Close disconnects the client.
func (c *Compositor) Close() error {
	select {
	case <-c.done:
		return nil
	default:
	}

	close(c.done)
	err := c.conn.Close()

	c.m.Lock()
	defer c.m.Unlock()
	c.cond.Broadcast()

	return err
}

// Err returns the error that stopped the compositor, if any.
func (c *Compositor) Err() error {
	c.m.Lock()
	defer c.m.Unlock()
	return c.err
}

func (c *Compositor) fail(err error) {
	c.m.Lock()
	defer c.m.Unlock()

	c.err = err
	c.cond.Broadcast()
}

func (c *Compositor) listen() {
	for {
		msg, err := wire.ReadMessage(c.conn)
		if err != nil {
			select {
			case <-c.done:
				return
			default:
			}
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				c.fail(io.EOF)
				return
			}
			c.fail(err)
			return
		}

		err = c.handle(msg)
		if err != nil {
			c.fail(err)
			return
		}
	}
}

func (c *Compositor) handle(msg *wire.MessageBuffer) error {
	obj := c.Object(msg.Sender())
	if obj == nil {
		return wire.UnknownSenderIDError{Sender: msg.Sender(), Op: msg.Op()}
	}

	iface := c.interfaces[obj.iface]
	if int(msg.Op()) >= len(iface.Requests) {
		return wire.UnknownOpError{Interface: obj.iface, Type: "request", Op: msg.Op()}
	}
	op := iface.Requests[msg.Op()]

	err := msg.ClaimFiles(c.conn, op.Files())
	if err != nil {
		return fmt.Errorf("%v.%v: %w", wire.Name(obj), op.Name, err)
	}

	req := Request{Object: obj, Name: obj.iface + "." + op.Name}
	var created []*Resource
	for _, arg := range op.Args {
		switch arg.Type {
		case "int":
			req.Args = append(req.Args, msg.ReadInt())
		case "uint":
			req.Args = append(req.Args, msg.ReadUint())
		case "fixed":
			req.Args = append(req.Args, msg.ReadFixed())
		case "string":
			req.Args = append(req.Args, msg.ReadString())
		case "array":
			req.Args = append(req.Args, msg.ReadArray())
		case "fd":
			req.Args = append(req.Args, msg.ReadFile())
		case "object":
			req.Args = append(req.Args, c.Object(msg.ReadUint()))
		case "new_id":
			res := Resource{c: c, iface: arg.Interface, version: obj.version}
			if arg.Interface == "" {
				id := msg.ReadNewID()
				res.iface, res.version, res.id = id.Interface, id.Version, id.ID
			} else {
				res.id = msg.ReadUint()
			}
			created = append(created, &res)
			req.Args = append(req.Args, &res)
		default:
			return fmt.Errorf("%v.%v: unsupported argument type %q", wire.Name(obj), op.Name, arg.Type)
		}
	}
	if err := msg.Err(); err != nil {
		return fmt.Errorf("decode %v.%v: %w", wire.Name(obj), op.Name, err)
	}
	debug.Printf("compositor: %v", req)

	c.m.Lock()
	for _, res := range created {
		c.objects[res.id] = res
	}
	if op.Destructor() {
		delete(c.objects, obj.id)
	}
	c.requests = append(c.requests, req)
	c.cond.Broadcast()
	c.m.Unlock()

	switch req.Name {
	case "wl_display.sync":
		callback := req.Args[0].(*Resource)
		c.release(callback, c.NextSerial())
	case "wl_display.get_registry":
		registry := req.Args[0].(*Resource)
		for i, g := range c.globals {
			c.Send(registry, "global", uint32(i+1), g.Interface, g.Version)
		}
	}
	if op.Destructor() {
		c.Send(c.Display(), "delete_id", obj.id)
	}

	return nil
}

// release sends the done event of a wl_callback and releases it.
func (c *Compositor) release(callback *Resource, data uint32) {
	c.Send(callback, "done", data)

	c.m.Lock()
	delete(c.objects, callback.id)
	c.m.Unlock()

	c.Send(c.Display(), "delete_id", callback.id)
}

// Display returns the wl_display.
func (c *Compositor) Display() *Resource {
	return c.Object(1)
}

// Object returns the live object with the given ID.
func (c *Compositor) Object(id uint32) *Resource {
	c.m.Lock()
	defer c.m.Unlock()
	return c.objects[id]
}

// Objects returns the live objects with the given interface, oldest
// first.
func (c *Compositor) Objects(iface string) []*Resource {
	c.m.Lock()
	defer c.m.Unlock()

	var objs []*Resource
	for _, obj := range c.objects {
		if obj.iface == iface {
			objs = append(objs, obj)
		}
	}
	slices.SortFunc(objs, func(o1, o2 *Resource) int { return int(o1.id) - int(o2.id) })
	return objs
}

// NextSerial returns a new event serial.
func (c *Compositor) NextSerial() uint32 {
	c.m.Lock()
	defer c.m.Unlock()

	c.serial++
	return c.serial
}

// Requests returns every request received so far.
func (c *Compositor) Requests() []Request {
	c.m.Lock()
	defer c.m.Unlock()
	return slices.Clone(c.requests)
}

// Names returns the names of every request received so far with the
// given prefix, in order.
func (c *Compositor) Names(prefix string) []string {
	var names []string
	for _, req := range c.Requests() {
		if len(req.Name) >= len(prefix) && req.Name[:len(prefix)] == prefix {
			names = append(names, req.Name)
		}
	}
	return names
}

// Find returns the first request named name that has not yet been
// returned by Find or Expect.
func (c *Compositor) Find(name string) (Request, bool) {
	c.m.Lock()
	defer c.m.Unlock()
	return c.find(name)
}

func (c *Compositor) find(name string) (Request, bool) {
	for i, req := range c.requests {
		if _, ok := c.consumed[i]; ok || (req.Name != name) {
			continue
		}
		c.consumed[i] = struct{}{}
		return req, true
	}
	return Request{}, false
}

// Expect waits for a request named name, as Find does, and fails the
// test if none arrives. Requests are only sent when the client
// flushes, so a test must flush before expecting anything.
func (c *Compositor) Expect(t testing.TB, name string) Request {
	t.Helper()

	timer := time.AfterFunc(Timeout, func() {
		c.m.Lock()
		defer c.m.Unlock()
		c.cond.Broadcast()
	})
	defer timer.Stop()
	deadline := time.Now().Add(Timeout)

	c.m.Lock()
	defer c.m.Unlock()

	for {
		req, ok := c.find(name)
		if ok {
			return req
		}

		if c.err != nil {
			require.FailNow(t, "compositor stopped", "waiting for %v: %v", name, c.err)
		}
		if time.Now().After(deadline) {
			require.FailNow(t, "timed out", "waiting for %v", name)
		}
		c.cond.Wait()
	}
}

// Send sends the named event from obj.
func (c *Compositor) Send(obj *Resource, event string, args ...any) error {
	op, ok := c.interfaces[obj.iface].Event(event)
	if !ok {
		return fmt.Errorf("%v has no event %q", obj.iface, event)
	}

	msg := wire.Request(obj, op, event, args...)
	debug.Printf("compositor: -> %v", msg)
	return msg.Build(c.conn)
}

// Error sends a protocol error about obj. The client's connection
// becomes unusable.
func (c *Compositor) Error(obj *Resource, code uint32, message string) error {
	return c.Send(c.Display(), "error", obj, code, message)
}

// Ping sends xdg_wm_base.ping and returns the serial used.
func (c *Compositor) Ping(wm *Resource) uint32 {
	serial := c.NextSerial()
	c.Send(wm, "ping", serial)
	return serial
}

// Configure sends a complete xdg_toplevel configure sequence to the
// toplevel and returns the serial of the xdg_surface.configure event.
// The xdg_surface is the one that the toplevel was created from.
func (c *Compositor) Configure(toplevel *Resource, width, height int32, states ...uint32) uint32 {
	var surface *Resource
	for _, req := range c.Requests() {
		if (req.Name == "xdg_surface.get_toplevel") && (req.Args[0] == toplevel) {
			surface = req.Object
		}
	}
	if surface == nil {
		panic(fmt.Errorf("no xdg_surface for %v", wire.Name(toplevel)))
	}

	c.Send(toplevel, "configure", width, height, Array(states...))

	serial := c.NextSerial()
	c.Send(surface, "configure", serial)
	return serial
}

// Array encodes values as a protocol array.
func Array(values ...uint32) []byte {
	buf := make([]byte, 0, 4*len(values))
	for _, v := range values {
		b := bin.Bytes(v)
		buf = append(buf, b[:]...)
	}
	return buf
}

// Pump calls dispatch until cond returns true, failing the test if it
// doesn't do so within Timeout.
func Pump(t testing.TB, dispatch func(), cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(Timeout)
	for !cond() {
		if time.Now().After(deadline) {
			require.FailNow(t, "timed out", "condition never became true")
		}
		dispatch()
	}
}

// Resource is an object on the compositor's side of the connection.
type Resource struct {
	c       *Compositor
	id      uint32
	iface   string
	version uint32
}

func (r *Resource) ID() uint32 {
	if r == nil {
		return 0
	}
	return r.id
}

func (r *Resource) SetID(id uint32) {
	r.id = id
}

func (r *Resource) Interface() string {
	return r.iface
}

func (r *Resource) Version() uint32 {
	return r.version
}

// Dispatch does nothing. Requests are handled by the compositor as a
// whole.
func (r *Resource) Dispatch(msg *wire.MessageBuffer) error {
	return nil
}

func (r *Resource) MethodName(op uint16) string {
	reqs := r.c.interfaces[r.iface].Requests
	if int(op) >= len(reqs) {
		return "unknown method"
	}
	return reqs[op].Name
}

func (r *Resource) Delete() {}

func (r *Resource) String() string {
	return wire.Name(r)
}
