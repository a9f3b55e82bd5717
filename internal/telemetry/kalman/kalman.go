// Package kalman implements a 1-D constant-model Kalman smoother, one
// instance per sensor.
package kalman

// Filter is a scalar Kalman filter with a constant (identity) process
// model: the state is assumed to not evolve between measurements except for
// process noise Q.
type Filter struct {
	q, r        float64
	x0, p0      float64
	x, p        float64
	initialized bool
}

// New builds a Filter with process variance q, measurement variance r, and
// the initial state/covariance used after Reset.
func New(q, r, x0, p0 float64) *Filter {
	return &Filter{q: q, r: r, x0: x0, p0: p0}
}

// Update feeds one measurement through the filter and returns the smoothed
// estimate. The first call initializes the state to the measurement.
func (f *Filter) Update(z float64) float64 {
	if !f.initialized {
		f.x = z
		f.p = f.p0
		f.initialized = true
		return f.x
	}

	f.p += f.q
	k := f.p / (f.p + f.r)
	f.x += k * (z - f.x)
	f.p = (1 - k) * f.p
	return f.x
}

// Reset restores the configured initial state and covariance and clears the
// initialized flag, so the next Update behaves like the first one ever.
func (f *Filter) Reset() {
	f.x = f.x0
	f.p = f.p0
	f.initialized = false
}

// Initialized reports whether at least one measurement has been applied
// since construction or the last Reset.
func (f *Filter) Initialized() bool { return f.initialized }
