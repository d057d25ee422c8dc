package indicators

import (
	"fmt"
	"math"
)

// Indicator is a streaming indicator fed one close price at a time.
type Indicator interface {
	Name() string
	Warmup() int
	Reset()
	Update(v float64)
	Ready() bool
	Value() float64
}

var (
	_ Indicator = (*SimpleMA)(nil)
	_ Indicator = (*ExponentialMA)(nil)
)

// SimpleMA is a streaming Simple Moving Average.
type SimpleMA struct {
	period int
	win    *Window
}

// NewMA creates a new Simple Moving Average indicator with the given period.
func NewMA(period int) *SimpleMA {
	return &SimpleMA{
		period: period,
		win:    NewWindow(period),
	}
}

func (m *SimpleMA) Name() string {
	return fmt.Sprintf("MA(%d)", m.period)
}

func (m *SimpleMA) Warmup() int {
	return m.period
}

func (m *SimpleMA) Reset() {
	m.win.Reset()
}

func (m *SimpleMA) Update(v float64) {
	m.win.Push(v)
}

func (m *SimpleMA) Ready() bool {
	return m.period > 0 && m.win.Len() >= m.period
}

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.win.Mean()
}

// Window keeps the most recent size values in arrival order.
type Window struct {
	size int
	vals []float64
}

// NewWindow returns an empty window holding at most size values.
func NewWindow(size int) *Window {
	if size < 0 {
		size = 0
	}
	return &Window{size: size, vals: make([]float64, 0, size)}
}

func (w *Window) Push(v float64) {
	if w.size == 0 {
		return
	}
	if len(w.vals) == w.size {
		copy(w.vals, w.vals[1:])
		w.vals = w.vals[:len(w.vals)-1]
	}
	w.vals = append(w.vals, v)
}

func (w *Window) Reset() { w.vals = w.vals[:0] }

func (w *Window) Len() int { return len(w.vals) }

func (w *Window) Cap() int { return w.size }

// Last returns the newest n values, or all of them if fewer are held.
func (w *Window) Last(n int) []float64 {
	if n > len(w.vals) {
		n = len(w.vals)
	}
	if n < 0 {
		n = 0
	}
	out := make([]float64, n)
	copy(out, w.vals[len(w.vals)-n:])
	return out
}

func (w *Window) Mean() float64 {
	if len(w.vals) == 0 {
		return 0
	}
	return Mean(w.vals)
}

// Mean is the arithmetic mean of vals, 0 for an empty slice.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Min returns the smallest value, or NaN for an empty slice.
func Min(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest value, or NaN for an empty slice.
func Max(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
