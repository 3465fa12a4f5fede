// Package objstore tracks the live protocol objects of a connection.
package objstore

import (
	"sync"

	"deedles.dev/decor/wire"
)

// Store maps object IDs to objects. It is safe for concurrent use so
// that a connection's read loop can look up the destination of
// incoming messages while the dispatching goroutine creates and
// destroys objects.
type Store struct {
	m       sync.RWMutex
	objects map[uint32]wire.Object
	nextID  uint32
}

// New returns a store that allocates IDs starting from start.
func New(start uint32) *Store {
	return &Store{
		objects: make(map[uint32]wire.Object),
		nextID:  start,
	}
}

// Add adds obj to the store. If obj does not have an ID yet, a new one
// is allocated.
func (s *Store) Add(obj wire.Object) {
	s.m.Lock()
	defer s.m.Unlock()

	id := obj.ID()
	if id == 0 {
		id = s.nextID
		obj.SetID(id)
		s.nextID++
	}

	s.objects[id] = obj
}

func (s *Store) Get(id uint32) wire.Object {
	s.m.RLock()
	defer s.m.RUnlock()

	return s.objects[id]
}

// Delete removes the object with the given ID and calls its Delete
// method, if it exists.
func (s *Store) Delete(id uint32) {
	s.m.Lock()
	obj := s.objects[id]
	delete(s.objects, id)
	s.m.Unlock()

	if obj != nil {
		obj.Delete()
	}
}

// Len returns the number of live objects.
func (s *Store) Len() int {
	s.m.RLock()
	defer s.m.RUnlock()

	return len(s.objects)
}
