package wl

import (
	"deedles.dev/decor/wire"
)

// Object is a protocol object that belongs to a Client. Protocol
// implementations outside of this package satisfy it by embedding
// Proxy.
type Object interface {
	wire.Object
	proxy() *Proxy
}

// Proxy holds the client-side state common to every protocol object.
// It is meant to be embedded.
type Proxy struct {
	id        uint32
	client    *Client
	queue     *Queue
	destroyed bool
}

func (p *Proxy) proxy() *Proxy {
	return p
}

func (p *Proxy) ID() uint32 {
	return p.id
}

func (p *Proxy) SetID(id uint32) {
	p.id = id
}

// Delete is called when the compositor releases the object's ID.
func (p *Proxy) Delete() {
	p.destroyed = true
}

// Client returns the client that the object belongs to.
func (p *Proxy) Client() *Client {
	return p.client
}

// Queue returns the queue that the object's events are delivered to.
func (p *Proxy) Queue() *Queue {
	return p.queue
}

// Adopt adds obj to p's client. obj's events will be delivered to the
// same queue as p's.
func (p *Proxy) Adopt(obj Object) {
	p.client.add(obj, p.queue)
}

// Enqueue queues a request to be sent with the next flush.
func (p *Proxy) Enqueue(msg *wire.MessageBuilder) {
	p.client.Enqueue(msg)
}

// MarkDestroyed marks the object as destroyed after its destructor
// request has been queued. Events that arrive for it afterwards are
// dropped.
func (p *Proxy) MarkDestroyed() {
	p.destroyed = true
}

// Destroyed reports whether the object has been destroyed.
func (p *Proxy) Destroyed() bool {
	return p.destroyed
}
