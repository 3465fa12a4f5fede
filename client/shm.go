package wl

import (
	"os"

	"deedles.dev/decor/wire"
)

const (
	shmInterface = "wl_shm"
	shmVersion   = 1
)

type ShmFormat uint32

const (
	ShmFormatArgb8888 ShmFormat = 0
	ShmFormatXrgb8888 ShmFormat = 1
)

type Shm struct {
	Proxy

	Format func(ShmFormat)
}

func IsShm(i Interface) bool {
	return i.Is(shmInterface, 1)
}

func BindShm(registry *Registry, name, version uint32) *Shm {
	var shm Shm
	registry.Bind(name, &shm, min(version, shmVersion))
	return &shm
}

func (shm *Shm) Interface() string {
	return shmInterface
}

func (shm *Shm) MethodName(op uint16) string {
	if op == 0 {
		return "format"
	}
	return "unknown method"
}

func (shm *Shm) Dispatch(msg *wire.MessageBuffer) error {
	if msg.Op() != 0 {
		return wire.UnknownOpError{Interface: shmInterface, Type: "event", Op: msg.Op()}
	}

	format := msg.ReadUint()
	if err := msg.Err(); err != nil {
		return err
	}
	if shm.Format != nil {
		shm.Format(ShmFormat(format))
	}
	return nil
}

func (shm *Shm) CreatePool(file *os.File, size int32) *ShmPool {
	var pool ShmPool
	shm.Adopt(&pool)
	shm.Enqueue(wire.Request(shm, 0, "create_pool", &pool, file, size))
	return &pool
}
