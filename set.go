package quickle

import "github.com/aristanetworks/gomap"

// Set is the mutable, unordered, duplicate-free container value family.
// Like Mapping, it is a pointer-like type; the zero value is an empty set
// whose table the first Add allocates.
type Set struct {
	m *gomap.Map[any, struct{}]
}

// NewSet returns a new, empty set.
func NewSet() *Set { return NewSetWithSizeHint(0) }

// NewSetWithSizeHint preallocates space for size elements.
func NewSetWithSizeHint(size int) *Set {
	return &Set{m: gomap.NewHint[any, struct{}](size, valueEqual, valueHash)}
}

func (s *Set) Add(v any) {
	if s.m == nil {
		*s = *NewSet()
	}
	s.m.Set(v, struct{}{})
}

func (s *Set) Has(v any) bool {
	if s.m == nil {
		return false
	}
	_, ok := s.m.Get(v)
	return ok
}

func (s *Set) Delete(v any) {
	if s.m == nil {
		return
	}
	s.m.Delete(v)
}

func (s *Set) Len() int {
	if s.m == nil {
		return 0
	}
	return s.m.Len()
}

// Iter visits elements in arbitrary (hash) order, stopping early if yield
// returns false.
func (s *Set) Iter(yield func(v any) bool) {
	if s.m == nil {
		return
	}
	it := s.m.Iter()
	for it.Next() {
		if !yield(it.Key()) {
			return
		}
	}
}

// Freeze returns an immutable snapshot of s.
func (s *Set) Freeze() FrozenSet {
	fs := newFrozenSet(s.Len())
	s.Iter(func(v any) bool {
		fs.m.Set(v, struct{}{})
		return true
	})
	return fs
}

// FrozenSet is the immutable counterpart to Set. Unlike Set it is a value
// type: once built via NewFrozenSet it exposes no mutators.
type FrozenSet struct {
	m *gomap.Map[any, struct{}]
}

func newFrozenSet(sizeHint int) FrozenSet {
	return FrozenSet{m: gomap.NewHint[any, struct{}](sizeHint, valueEqual, valueHash)}
}

// NewFrozenSet builds a frozen set from items, deduplicating by value
// equality.
func NewFrozenSet(items ...any) FrozenSet {
	fs := newFrozenSet(len(items))
	for _, v := range items {
		fs.m.Set(v, struct{}{})
	}
	return fs
}

func (fs FrozenSet) Has(v any) bool {
	if fs.m == nil {
		return false
	}
	_, ok := fs.m.Get(v)
	return ok
}

func (fs FrozenSet) Len() int {
	if fs.m == nil {
		return 0
	}
	return fs.m.Len()
}

func (fs FrozenSet) Iter(yield func(v any) bool) {
	if fs.m == nil {
		return
	}
	it := fs.m.Iter()
	for it.Next() {
		if !yield(it.Key()) {
			return
		}
	}
}
