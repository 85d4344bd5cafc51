package quickle

import "math"

// encoderMemo is the encoder-side lookup table (component B): a specialized
// open-addressing hash map keyed by value handle (identity), using the
// classic perturb-reprobe collision scheme. Capacity is always a power of
// two so the mask-based probe sequence stays cheap.
//
// Not every memoized value has a stable Go identity (value-typed atoms, the
// date/time family, enum members): those call PutFresh, which reserves the
// next id without ever becoming reachable by Get/Put. That keeps id
// assignment monotonic and in lock-step with the sequence of MEMOIZE opcodes
// actually emitted, without forcing every memoizable value to fake an
// identity.
type encoderMemo struct {
	table     []memoSlot
	tableUsed int
	nextID    uint32
	buffered  int // capacity retained across Reset
}

type memoSlot struct {
	occupied bool
	handle   uintptr
	id       uint32
}

const memoMinCap = 8

func newEncoderMemo() *encoderMemo {
	return &encoderMemo{table: make([]memoSlot, memoMinCap)}
}

func (m *encoderMemo) find(handle uintptr) (idx int, found bool) {
	mask := uint64(len(m.table) - 1)
	i := (uint64(handle) >> 3) & mask
	perturb := uint64(handle)
	for {
		e := &m.table[i]
		if !e.occupied {
			return int(i), false
		}
		if e.handle == handle {
			return int(i), true
		}
		perturb >>= 5
		i = (5*i + perturb + 1) & mask
	}
}

// Get returns the memo id previously assigned to handle, if any.
func (m *encoderMemo) Get(handle uintptr) (uint32, bool) {
	i, found := m.find(handle)
	if !found {
		return 0, false
	}
	return m.table[i].id, true
}

// Put assigns and returns the memo id for handle, inserting it if new.
func (m *encoderMemo) Put(handle uintptr) (uint32, error) {
	if id, ok := m.Get(handle); ok {
		return id, nil
	}
	id, err := m.reserveID()
	if err != nil {
		return 0, err
	}
	i, _ := m.find(handle)
	m.table[i] = memoSlot{occupied: true, handle: handle, id: id}
	m.tableUsed++
	m.maybeGrow()
	return id, nil
}

// PutFresh reserves the next memo id without any findable handle.
func (m *encoderMemo) PutFresh() (uint32, error) {
	return m.reserveID()
}

func (m *encoderMemo) reserveID() (uint32, error) {
	if m.nextID == math.MaxUint32 {
		return 0, encErr(errEncodeOverflow, "memo table exceeds 2^32 entries")
	}
	id := m.nextID
	m.nextID++
	return id, nil
}

func (m *encoderMemo) maybeGrow() {
	if m.tableUsed*3 <= len(m.table)*2 {
		return
	}
	var newCap int
	if m.tableUsed > 50000 {
		newCap = nextPow2(m.tableUsed * 2)
	} else {
		newCap = nextPow2(m.tableUsed * 4)
	}
	if newCap < memoMinCap {
		newCap = memoMinCap
	}
	old := m.table
	m.table = make([]memoSlot, newCap)
	m.tableUsed = 0
	for _, e := range old {
		if !e.occupied {
			continue
		}
		i, _ := m.find(e.handle)
		m.table[i] = e
		m.tableUsed++
	}
}

// Reset drops all entries. A backing table no longer than buffered is
// cleared and kept; a longer one is replaced by a fresh minimum-capacity
// table. newEncoderMemo leaves buffered at zero and nothing else sets it, so
// every Reset allocates a new table.
func (m *encoderMemo) Reset() {
	if len(m.table) > m.buffered {
		m.table = make([]memoSlot, memoMinCap)
	} else {
		for i := range m.table {
			m.table[i] = memoSlot{}
		}
	}
	m.tableUsed = 0
	m.nextID = 0
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// decoderMemo is the decoder-side memo array (component F): a dynamic array
// indexed by memo id, append-only in practice (MEMOIZE always writes at the
// current length) but supporting arbitrary-index writes per the component
// contract.
type decoderMemo struct {
	slots  []any
	length int
}

func (m *decoderMemo) Put(i int, v any) error {
	if i < 0 {
		return decErr(errMalformed, "negative memo index %d", i)
	}
	if i >= cap(m.slots) {
		newCap := 2 * i
		if newCap < 8 {
			newCap = 8
		}
		ns := make([]any, m.length, newCap)
		copy(ns, m.slots)
		m.slots = ns
	}
	if i >= len(m.slots) {
		m.slots = m.slots[:i+1]
	}
	if i < m.length {
		m.slots[i] = nil // release prior value before overwrite
	} else {
		m.length = i + 1
	}
	m.slots[i] = v
	return nil
}

func (m *decoderMemo) Append(v any) {
	_ = m.Put(m.length, v)
}

func (m *decoderMemo) Get(i int) (any, bool) {
	if i < 0 || i >= m.length {
		return nil, false
	}
	return m.slots[i], true
}

func (m *decoderMemo) Len() int { return m.length }

func (m *decoderMemo) Reset(keepThreshold int) {
	if cap(m.slots) > keepThreshold {
		m.slots = nil
	} else {
		for i := 0; i < m.length; i++ {
			m.slots[i] = nil
		}
		m.slots = m.slots[:0]
	}
	m.length = 0
}
