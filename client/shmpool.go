package wl

import "deedles.dev/decor/wire"

const shmPoolInterface = "wl_shm_pool"

type ShmPool struct {
	Proxy
}

func (pool *ShmPool) Interface() string {
	return shmPoolInterface
}

func (pool *ShmPool) MethodName(op uint16) string {
	return "unknown method"
}

func (pool *ShmPool) Dispatch(msg *wire.MessageBuffer) error {
	return wire.UnknownOpError{Interface: shmPoolInterface, Type: "event", Op: msg.Op()}
}

func (pool *ShmPool) CreateBuffer(offset, width, height, stride int32, format ShmFormat) *Buffer {
	var buf Buffer
	pool.Adopt(&buf)
	pool.Enqueue(wire.Request(pool, 0, "create_buffer", &buf, offset, width, height, stride, uint32(format)))
	return &buf
}

func (pool *ShmPool) Destroy() {
	pool.Enqueue(wire.Request(pool, 1, "destroy"))
	pool.MarkDestroyed()
}

func (pool *ShmPool) Resize(size int32) {
	pool.Enqueue(wire.Request(pool, 2, "resize", size))
}
