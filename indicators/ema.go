package indicators

import "fmt"

// ExponentialMA is a streaming EMA seeded with the first value.
type ExponentialMA struct {
	period int
	alpha  float64
	seen   int
	value  float64
}

func NewEMA(period int) *ExponentialMA {
	alpha := 0.0
	if period > 0 {
		alpha = 2.0 / float64(period+1)
	}
	return &ExponentialMA{period: period, alpha: alpha}
}

func (e *ExponentialMA) Name() string { return fmt.Sprintf("EMA(%d)", e.period) }
func (e *ExponentialMA) Warmup() int  { return e.period }

func (e *ExponentialMA) Reset() {
	e.seen = 0
	e.value = 0
}

func (e *ExponentialMA) Update(v float64) {
	e.seen++
	if e.seen == 1 {
		e.value = v
		return
	}
	e.value = e.alpha*v + (1-e.alpha)*e.value
}

func (e *ExponentialMA) Ready() bool { return e.period > 0 && e.seen >= e.period }

func (e *ExponentialMA) Value() float64 {
	if !e.Ready() {
		return 0
	}
	return e.value
}
