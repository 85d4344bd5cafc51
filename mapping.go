package quickle

import "github.com/aristanetworks/gomap"

// Mapping is the mapping value family (§3 #12): a from-value-to-value table
// whose keys compare with the same cross-width equality as Tuple/Set
// elements, and whose iteration order matches insertion order (the way
// Python's dict has behaved since 3.7). gomap.Map gives cross-width
// equality/hashing for free (it is exactly what the teacher's Dict used it
// for); insertion order is layered on top with a plain key slice, since no
// library in the example pack offers an order-preserving hash map.
//
// Like a builtin map, Mapping is a pointer-like type: its zero value is an
// empty mapping, valid to read (Len()==0, Get always misses); the first Set
// allocates its table.
type Mapping struct {
	m     *gomap.Map[any, any]
	order []any
}

// NewMapping returns a new, empty mapping.
func NewMapping() *Mapping { return NewMappingWithSizeHint(0) }

// NewMappingWithSizeHint preallocates space for size entries.
func NewMappingWithSizeHint(size int) *Mapping {
	return &Mapping{m: gomap.NewHint[any, any](size, valueEqual, valueHash)}
}

// Get returns the value associated with a key equal to key.
func (d *Mapping) Get(key any) (any, bool) {
	if d.m == nil {
		return nil, false
	}
	return d.m.Get(key)
}

// Set associates key with value, appending key to the iteration order the
// first time it is seen.
func (d *Mapping) Set(key, value any) {
	if d.m == nil {
		*d = *NewMapping()
	}
	if _, exists := d.m.Get(key); !exists {
		d.order = append(d.order, key)
	}
	d.m.Set(key, value)
}

// Delete removes the entry for key, if any.
func (d *Mapping) Delete(key any) {
	if d.m == nil {
		return
	}
	if _, exists := d.m.Get(key); !exists {
		return
	}
	d.m.Delete(key)
	for i, k := range d.order {
		if valueEqual(k, key) {
			d.order = append(d.order[:i], d.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (d *Mapping) Len() int {
	if d.m == nil {
		return 0
	}
	return d.m.Len()
}

// Iter visits entries in insertion order, stopping early if yield returns
// false.
func (d *Mapping) Iter(yield func(key, value any) bool) {
	if d.m == nil {
		return
	}
	for _, k := range d.order {
		v, ok := d.m.Get(k)
		if !ok {
			continue
		}
		if !yield(k, v) {
			return
		}
	}
}
