// Package set provides a minimal generic set.
package set

import (
	"golang.org/x/exp/slices"
)

type Set[T comparable] map[T]struct{}

func New[T comparable](vals ...T) Set[T] {
	s := make(Set[T], len(vals))
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

// Add adds v to the set, reporting whether it was absent before.
func (s Set[T]) Add(v T) bool {
	if s.Has(v) {
		return false
	}
	s[v] = struct{}{}
	return true
}

// Delete removes v from the set, reporting whether it was present.
func (s Set[T]) Delete(v T) bool {
	if !s.Has(v) {
		return false
	}
	delete(s, v)
	return true
}

func (s Set[T]) Has(v T) bool {
	_, ok := s[v]
	return ok
}

func (s Set[T]) Len() int {
	return len(s)
}

// Sorted returns the elements of s in ascending order.
func Sorted[T interface {
	comparable
	~string | ~int | ~uint32
}](s Set[T]) []T {
	keys := make([]T, 0, len(s))
	for v := range s {
		keys = append(keys, v)
	}
	slices.Sort(keys)
	return keys
}
