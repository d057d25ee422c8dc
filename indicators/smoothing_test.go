package indicators

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEMA(t *testing.T) {
	e := NewEMA(3)
	assert.Equal(t, "EMA(3)", e.Name())
	assert.Equal(t, 3, e.Warmup())

	e.Update(10)
	e.Update(20)
	assert.False(t, e.Ready())
	assert.Equal(t, 0.0, e.Value())

	// alpha = 0.5, seeded with 10: 15, then 22.5
	e.Update(30)
	assert.True(t, e.Ready())
	assert.InDelta(t, 22.5, e.Value(), 1e-12)

	e.Reset()
	assert.False(t, e.Ready())
	e.Update(7)
	e.Update(7)
	e.Update(7)
	assert.InDelta(t, 7.0, e.Value(), 1e-12)
}

func TestEMAZeroPeriodNeverReady(t *testing.T) {
	e := NewEMA(0)
	e.Update(1)
	assert.False(t, e.Ready())
}

func TestTrueRange(t *testing.T) {
	assert.Equal(t, 2.0, TrueRange(11, 9, 10))
	assert.Equal(t, 3.0, TrueRange(12, 11, 9), "gap up")
	assert.Equal(t, 4.0, TrueRange(8, 6, 10), "gap down")
}

func TestATR(t *testing.T) {
	a := NewATR(2)
	assert.Equal(t, "ATR(2)", a.Name())
	assert.Equal(t, 3, a.Warmup())

	a.Update(10, 8, 9)
	a.Update(11, 9, 10) // TR 2
	assert.False(t, a.Ready())

	a.Update(12, 10, 11) // TR 2, seed ATR = 2
	assert.True(t, a.Ready())
	assert.InDelta(t, 2.0, a.Value(), 1e-12)

	a.Update(15, 11, 14) // TR 4, Wilder: (2*1+4)/2
	assert.InDelta(t, 3.0, a.Value(), 1e-12)

	a.Reset()
	assert.False(t, a.Ready())
	assert.Equal(t, 0.0, a.Value())
	assert.Equal(t, 3, a.Warmup())
}
