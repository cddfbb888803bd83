package monitoring

// RingFloat is a fixed-capacity ring buffer for float64 values.
type RingFloat struct {
	data []float64
	pos  int
	full bool
	cap  int
}

// NewRingFloat creates a RingFloat with the given capacity.
func NewRingFloat(cap int) *RingFloat {
	if cap < 1 {
		cap = 1
	}
	return &RingFloat{
		data: make([]float64, cap),
		cap:  cap,
	}
}

// Push adds a value, evicting the oldest one when full.
func (r *RingFloat) Push(v float64) {
	r.data[r.pos] = v
	r.pos++
	if r.pos >= r.cap {
		r.pos = 0
		r.full = true
	}
}

// Len returns the number of elements in the buffer.
func (r *RingFloat) Len() int {
	if r.full {
		return r.cap
	}
	return r.pos
}

// Mean returns the arithmetic mean, 0 when empty.
func (r *RingFloat) Mean() float64 {
	n := r.Len()
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += r.data[i]
	}
	return sum / float64(n)
}

// Slice returns the buffer contents in insertion order.
func (r *RingFloat) Slice() []float64 {
	n := r.Len()
	out := make([]float64, n)
	if r.full {
		copy(out, r.data[r.pos:])
		copy(out[r.cap-r.pos:], r.data[:r.pos])
	} else {
		copy(out, r.data[:r.pos])
	}
	return out
}

// Reset empties the buffer.
func (r *RingFloat) Reset() {
	r.pos = 0
	r.full = false
}
