package quickle

// valueStack is the decoder's value stack (component E). Growth uses the
// spec's explicit formula (old + old/8 + 6) rather than relying on append's
// default doubling, so capacity growth is deterministic.
type valueStack struct {
	items []any
}

func (s *valueStack) grow(extra int) {
	if len(s.items)+extra <= cap(s.items) {
		return
	}
	old := cap(s.items)
	newCap := old + old/8 + 6
	for newCap < len(s.items)+extra {
		newCap = newCap + newCap/8 + 6
	}
	ns := make([]any, len(s.items), newCap)
	copy(ns, s.items)
	s.items = ns
}

func (s *valueStack) push(v any) {
	s.grow(1)
	s.items = append(s.items, v)
}

// pop removes and returns the top value. fence is the current mark-stack
// fence (0 if no mark is active): popping below it is a stack underflow.
func (s *valueStack) pop(fence int) (any, error) {
	if len(s.items) <= fence {
		return nil, decErr(errStackUnderflow, "pop below fence at depth %d", len(s.items))
	}
	n := len(s.items) - 1
	v := s.items[n]
	s.items[n] = nil
	s.items = s.items[:n]
	return v, nil
}

func (s *valueStack) top(fence int) (any, error) {
	if len(s.items) <= fence {
		return nil, decErr(errStackUnderflow, "peek below fence at depth %d", len(s.items))
	}
	return s.items[len(s.items)-1], nil
}

func (s *valueStack) len() int { return len(s.items) }

// sliceFrom returns the live items above (and including) index k, in
// push order. The caller must not retain it past the next mutating call.
func (s *valueStack) sliceFrom(k int) []any { return s.items[k:] }

// truncate drops everything above index k, releasing references for GC.
func (s *valueStack) truncate(k int) {
	for i := k; i < len(s.items); i++ {
		s.items[i] = nil
	}
	s.items = s.items[:k]
}

func (s *valueStack) resetIfOversize(threshold int) {
	if cap(s.items) > threshold {
		s.items = nil
	} else {
		s.items = s.items[:0]
	}
}

// markStack is the decoder's mark stack (component E), recording value-stack
// fence positions pushed by MARK and consumed by the POP_MARK family of
// opcodes.
type markStack struct {
	marks []int
}

func (m *markStack) grow(extra int) {
	if len(m.marks)+extra <= cap(m.marks) {
		return
	}
	old := cap(m.marks)
	newCap := 2*old + 20
	for newCap < len(m.marks)+extra {
		newCap = 2*newCap + 20
	}
	nm := make([]int, len(m.marks), newCap)
	copy(nm, m.marks)
	m.marks = nm
}

func (m *markStack) push(pos int) {
	m.grow(1)
	m.marks = append(m.marks, pos)
}

func (m *markStack) pop() (int, error) {
	if len(m.marks) == 0 {
		return 0, decErr(errMissingMark, "no mark to pop")
	}
	n := len(m.marks) - 1
	v := m.marks[n]
	m.marks = m.marks[:n]
	return v, nil
}

// fence returns the value-stack position of the innermost live mark, or 0
// if none is active.
func (m *markStack) fence() int {
	if len(m.marks) == 0 {
		return 0
	}
	return m.marks[len(m.marks)-1]
}

func (m *markStack) resetIfOversize(threshold int) {
	if cap(m.marks) > threshold {
		m.marks = nil
	} else {
		m.marks = m.marks[:0]
	}
}
