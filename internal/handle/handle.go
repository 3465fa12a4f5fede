// Package handle provides opaque integer tokens for Go values, in the
// manner of runtime/cgo.Handle, for use as user data in callbacks that
// cross an engine boundary. Unlike runtime/cgo, it does not require
// cgo to be enabled.
package handle

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Handle is a token for a value. The zero Handle is never valid.
type Handle uintptr

var (
	handles sync.Map
	next    atomic.Uintptr
)

// New returns a handle for v. The handle is valid until Delete is
// called on it.
func New(v any) Handle {
	h := Handle(next.Add(1))
	handles.Store(h, v)
	return h
}

// Value returns the value of h. It panics if h is not valid.
func (h Handle) Value() any {
	v, ok := handles.Load(h)
	if !ok {
		panic(fmt.Errorf("handle: invalid handle %v", uintptr(h)))
	}
	return v
}

// Lookup is like Value but reports invalid handles instead of
// panicking.
func (h Handle) Lookup() (any, bool) {
	return handles.Load(h)
}

// Delete invalidates h. It panics if h is already invalid.
func (h Handle) Delete() {
	_, ok := handles.LoadAndDelete(h)
	if !ok {
		panic(fmt.Errorf("handle: invalid handle %v", uintptr(h)))
	}
}
