package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/cryptobot/market"
)

// feedRange feeds bars with a +/-1 range around each close and returns the
// signal of every bar.
func feedRange(t *testing.T, s Strategy, closes ...float64) []Signal {
	t.Helper()

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sigs := make([]Signal, 0, len(closes))
	for i, c := range closes {
		b := market.Bar{Time: ts.Add(time.Duration(i) * time.Hour), Open: c, High: c + 1, Low: c - 1, Close: c}
		require.NoError(t, s.Update(b))
		sigs = append(sigs, s.GenerateSignal(b))
	}
	return sigs
}

func flatCloses(n int, c float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = c
	}
	return out
}

func TestNewEMACross(t *testing.T) {
	t.Parallel()

	s, err := NewEMACross(0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultFastPeriod, s.FastPeriod)
	assert.Equal(t, DefaultSlowPeriod, s.SlowPeriod)

	_, err = NewEMACross(30, 10)
	assert.Error(t, err)
	_, err = NewEMACross(-1, 10)
	assert.Error(t, err)
}

func TestEMACross_HoldUntilATRReady(t *testing.T) {
	t.Parallel()

	s, err := NewEMACross(3, 7)
	require.NoError(t, err)

	// the cross on the last bar comes before the ATR has warmed up
	for _, sig := range feedRange(t, s, append(flatCloses(7, 100), 110)...) {
		assert.Equal(t, Hold, sig.Action)
	}
}

func TestEMACross_SignalsOnlyOnCross(t *testing.T) {
	t.Parallel()

	s, err := NewEMACross(3, 7)
	require.NoError(t, err)

	closes := append(flatCloses(20, 100), 110, 110, 90)
	sigs := feedRange(t, s, closes...)

	for i, sig := range sigs[:20] {
		assert.Equal(t, Hold, sig.Action, "bar %d", i)
	}

	buy := sigs[20]
	require.Equal(t, Buy, buy.Action)
	require.NoError(t, buy.Validate())
	assert.Equal(t, 110.0, buy.Entry)
	require.NotNil(t, buy.TakeProfit)
	assert.InDelta(t, 2*(buy.Entry-buy.StopLoss), *buy.TakeProfit-buy.Entry, 1e-9)
	assert.Contains(t, buy.Metadata, "atr")

	assert.Equal(t, Hold, sigs[21].Action, "no new cross")

	sell := sigs[22]
	require.Equal(t, Sell, sell.Action)
	require.NoError(t, sell.Validate())
	assert.Equal(t, 90.0, sell.Entry)
	assert.Greater(t, sell.StopLoss, 90.0)
	require.NotNil(t, sell.TakeProfit)
	assert.Less(t, *sell.TakeProfit, 90.0)
}

func TestEMACross_Reset(t *testing.T) {
	t.Parallel()

	s, err := NewEMACross(3, 7)
	require.NoError(t, err)

	feedRange(t, s, append(flatCloses(20, 100), 110)...)
	s.Reset()

	sigs := feedRange(t, s, append(flatCloses(7, 100), 110)...)
	assert.Equal(t, Hold, sigs[7].Action)
}

func TestByNameEMACross(t *testing.T) {
	t.Parallel()

	s, err := ByName("ema-cross", Params{ShortPeriod: 5, LongPeriod: 12})
	require.NoError(t, err)
	ec, ok := s.(*EMACross)
	require.True(t, ok)
	assert.Equal(t, 5, ec.FastPeriod)
	assert.Equal(t, 12, ec.SlowPeriod)
}
