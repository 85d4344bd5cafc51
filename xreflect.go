package quickle

// Utilities that complement the std reflect package, used by tests that
// need to compare decoded values structurally.

import "reflect"

// deepEqual is like reflect.DeepEqual but also supports *Mapping, *Set and
// FrozenSet, whose internal hash-table representation makes plain
// reflect.DeepEqual report two equal mappings/sets as different, and
// recurses into []any/Tuple elements using itself rather than
// reflect.DeepEqual so a Mapping/Set/FrozenSet nested inside a container
// still compares correctly.
func deepEqual(a, b any) bool {
	switch av := a.(type) {
	case *Mapping:
		bv, ok := b.(*Mapping)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		eq := true
		av.Iter(func(ka, va any) bool {
			vb, ok := bv.Get(ka)
			if !ok || !deepEqual(va, vb) {
				eq = false
				return false
			}
			return true
		})
		return eq
	case *Set:
		bv, ok := b.(*Set)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		eq := true
		av.Iter(func(k any) bool {
			if !bv.Has(k) {
				eq = false
				return false
			}
			return true
		})
		return eq
	case FrozenSet:
		bv, ok := b.(FrozenSet)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		eq := true
		av.Iter(func(k any) bool {
			if !bv.Has(k) {
				eq = false
				return false
			}
			return true
		})
		return eq
	case Tuple:
		bv, ok := b.(Tuple)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !deepEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}
