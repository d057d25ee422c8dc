package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSize is returned for negative or non-finite sizes.
var ErrInvalidSize = errors.New("invalid position size")

// Sizer turns a proposed entry/stop into a position size in instrument units.
// A zero size declines the trade.
type Sizer interface {
	Size(balance, entry, stop float64) (Result, error)
}

// Inputs is the full set of values used by Calculate.
type Inputs struct {
	Balance        float64
	RiskPct        float64 // 0.02 = 2% of balance lost if the stop is hit
	MaxPositionPct float64 // notional cap as a fraction of balance, 0 disables
	EntryPrice     float64
	StopPrice      float64
}

// Result is the outcome of a sizing decision.
type Result struct {
	Units      float64 `json:"units"`
	RiskAmount float64 `json:"risk_amount"`
	Notional   float64 `json:"notional"`
	Capped     bool    `json:"capped,omitempty"`
}

// CheckUnits validates a sizer's output.
func (r Result) CheckUnits() error {
	if math.IsNaN(r.Units) || math.IsInf(r.Units, 0) || r.Units < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSize, r.Units)
	}
	return nil
}

// Calculate sizes a position so that hitting the stop loses RiskPct of the
// balance, then caps the notional at MaxPositionPct of the balance.
func Calculate(in Inputs) Result {
	dist := math.Abs(in.EntryPrice - in.StopPrice)
	riskAmt := in.Balance * in.RiskPct
	if dist == 0 || riskAmt <= 0 || in.EntryPrice <= 0 {
		return Result{RiskAmount: math.Max(riskAmt, 0)}
	}

	units := riskAmt / dist
	res := Result{Units: units, RiskAmount: riskAmt}

	if in.MaxPositionPct > 0 {
		maxUnits := in.Balance * in.MaxPositionPct / in.EntryPrice
		if units > maxUnits {
			res.Units = maxUnits
			res.RiskAmount = maxUnits * dist
			res.Capped = true
		}
	}
	res.Notional = res.Units * in.EntryPrice
	return res
}

// Manager is the default risk-budget sizer.
type Manager struct {
	RiskPerTrade    float64
	MaxPositionSize float64
}

// NewManager validates the risk settings.
func NewManager(riskPerTrade, maxPositionSize float64) (*Manager, error) {
	if riskPerTrade <= 0 || riskPerTrade > 1 {
		return nil, fmt.Errorf("risk per trade must be in (0, 1], got %v", riskPerTrade)
	}
	if maxPositionSize < 0 {
		return nil, fmt.Errorf("max position size must not be negative, got %v", maxPositionSize)
	}
	return &Manager{RiskPerTrade: riskPerTrade, MaxPositionSize: maxPositionSize}, nil
}

func (m *Manager) Size(balance, entry, stop float64) (Result, error) {
	if balance <= 0 {
		return Result{}, nil
	}
	return Calculate(Inputs{
		Balance:        balance,
		RiskPct:        m.RiskPerTrade,
		MaxPositionPct: m.MaxPositionSize,
		EntryPrice:     entry,
		StopPrice:      stop,
	}), nil
}

// Fixed always trades the same number of units.
type Fixed struct {
	Units float64
}

func (f Fixed) Size(balance, entry, stop float64) (Result, error) {
	r := Result{Units: f.Units, Notional: f.Units * entry, RiskAmount: PlannedRisk(f.Units, entry, stop)}
	if err := r.CheckUnits(); err != nil {
		return Result{}, err
	}
	return r, nil
}
