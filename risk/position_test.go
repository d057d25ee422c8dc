package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate_RiskBudget(t *testing.T) {
	t.Parallel()

	got := Calculate(Inputs{
		Balance:    10000,
		RiskPct:    0.02,
		EntryPrice: 100,
		StopPrice:  95,
	})

	assert.InDelta(t, 200.0, got.RiskAmount, 1e-9)
	assert.InDelta(t, 40.0, got.Units, 1e-9)
	assert.InDelta(t, 4000.0, got.Notional, 1e-9)
	assert.False(t, got.Capped)
}

func TestCalculate_Capped(t *testing.T) {
	t.Parallel()

	got := Calculate(Inputs{
		Balance:        10000,
		RiskPct:        0.02,
		MaxPositionPct: 0.1,
		EntryPrice:     100,
		StopPrice:      95,
	})

	// 10% of 10000 at 100 a unit
	assert.InDelta(t, 10.0, got.Units, 1e-9)
	assert.InDelta(t, 1000.0, got.Notional, 1e-9)
	assert.InDelta(t, 50.0, got.RiskAmount, 1e-9)
	assert.True(t, got.Capped)
}

func TestCalculate_StopAboveEntry(t *testing.T) {
	t.Parallel()

	got := Calculate(Inputs{
		Balance:    2000,
		RiskPct:    0.005,
		EntryPrice: 50,
		StopPrice:  52,
	})

	assert.InDelta(t, 10.0, got.RiskAmount, 1e-9)
	assert.InDelta(t, 5.0, got.Units, 1e-9)
}

func TestCalculate_Degenerate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Calculate(Inputs{Balance: 1000, RiskPct: 0.01, EntryPrice: 10, StopPrice: 10}).Units)
	assert.Equal(t, 0.0, Calculate(Inputs{Balance: 0, RiskPct: 0.01, EntryPrice: 10, StopPrice: 9}).Units)
	assert.Equal(t, 0.0, Calculate(Inputs{Balance: 1000, RiskPct: 0.01, EntryPrice: 0, StopPrice: 9}).Units)
}

func TestNewManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		risk    float64
		max     float64
		wantErr bool
	}{
		{"defaults", 0.02, 0.1, false},
		{"no cap", 0.02, 0, false},
		{"zero risk", 0, 0.1, true},
		{"risk above one", 1.5, 0.1, true},
		{"negative cap", 0.02, -0.1, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewManager(tt.risk, tt.max)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestManager_Size(t *testing.T) {
	t.Parallel()

	m, err := NewManager(0.01, 0)
	require.NoError(t, err)

	var s Sizer = m
	got, err := s.Size(10000, 100, 90)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got.Units, 1e-9)
	assert.NoError(t, got.CheckUnits())

	got, err = s.Size(-5, 100, 90)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Units)
}

func TestFixed_Size(t *testing.T) {
	t.Parallel()

	got, err := Fixed{Units: 10}.Size(10000, 100, 95)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got.Units)
	assert.InDelta(t, 50.0, got.RiskAmount, 1e-9)

	_, err = Fixed{Units: -1}.Size(10000, 100, 95)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestCheckUnits(t *testing.T) {
	assert.NoError(t, Result{Units: 0}.CheckUnits())
	assert.ErrorIs(t, Result{Units: math.NaN()}.CheckUnits(), ErrInvalidSize)
	assert.ErrorIs(t, Result{Units: math.Inf(1)}.CheckUnits(), ErrInvalidSize)
	assert.ErrorIs(t, Result{Units: -2}.CheckUnits(), ErrInvalidSize)
}

func TestRRAndRiskPct(t *testing.T) {
	assert.InDelta(t, 2.0, RR(100, 95, 110), 1e-12)
	assert.Equal(t, 0.0, RR(100, 100, 110))
	assert.InDelta(t, 0.005, RiskPct(50, 10000), 1e-12)
	assert.True(t, math.IsInf(RiskPct(50, 0), 1))
	assert.InDelta(t, 50.0, PlannedRisk(-10, 100, 95), 1e-12)
}
