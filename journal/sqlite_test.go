package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	return j, path
}

func sampleRun() BacktestRun {
	return BacktestRun{
		RunID:          "01HRUN0000000000000000TEST",
		Created:        time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
		Strategy:       "ma-cross",
		Instrument:     "BTC/USDT",
		Dataset:        "BTC_USDT_1h.csv",
		Config:         []byte(`{"short_period":10,"long_period":20}`),
		RiskPct:        0.02,
		MaxPositionPct: 0.1,
		Start:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:            time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Bars:           25,
		Records:        2,
		Trades:         1,
		Losses:         1,
		StartBalance:   decimal.RequireFromString("10000"),
		EndBalance:     decimal.RequireFromString("9950"),
		NetPL:          decimal.RequireFromString("-50"),
		UnrealizedPL:   decimal.Zero,
		ReturnPct:      -0.5,
		MaxDDPct:       -0.5,
		Notes:          []string{"stop hit on bar 2", "no target"},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.True(t, found["backtest_runs"])
	assert.True(t, found["trades"])
	assert.True(t, found["curves"])
}

func TestSQLiteRunRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	want := sampleRun()
	require.NoError(t, j.RecordRun(want))

	got, err := j.GetRun(context.Background(), want.RunID)
	require.NoError(t, err)

	assert.Equal(t, want.RunID, got.RunID)
	assert.True(t, want.Created.Equal(got.Created))
	assert.True(t, want.Start.Equal(got.Start))
	assert.True(t, want.End.Equal(got.End))
	assert.Equal(t, want.Strategy, got.Strategy)
	assert.Equal(t, want.Instrument, got.Instrument)
	assert.Equal(t, want.Dataset, got.Dataset)
	assert.Equal(t, string(want.Config), string(got.Config))
	assert.InDelta(t, want.RiskPct, got.RiskPct, 1e-12)
	assert.InDelta(t, want.MaxPositionPct, got.MaxPositionPct, 1e-12)
	assert.Equal(t, want.Bars, got.Bars)
	assert.Equal(t, want.Records, got.Records)
	assert.Equal(t, want.Trades, got.Trades)
	assert.Equal(t, want.Losses, got.Losses)
	assert.True(t, want.StartBalance.Equal(got.StartBalance))
	assert.True(t, want.EndBalance.Equal(got.EndBalance))
	assert.True(t, want.NetPL.Equal(got.NetPL))
	assert.InDelta(t, want.ReturnPct, got.ReturnPct, 1e-12)
	assert.Equal(t, want.Notes, got.Notes)
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	_, err := j.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteDuplicateRun(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	require.NoError(t, j.RecordRun(sampleRun()))
	assert.Error(t, j.RecordRun(sampleRun()))
}

func TestSQLiteTrades(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	open := TradeRecord{RunID: "R1", TradeID: "T1", Time: t0, Kind: "OPEN", Side: "LONG", Price: 100, Size: 10, PnL: decimal.Zero}
	closed := TradeRecord{RunID: "R1", TradeID: "T2", Time: t0.Add(time.Hour), Kind: "CLOSE", Side: "LONG", Price: 95, Size: 10, PnL: decimal.RequireFromString("-50"), Reason: "STOP"}
	other := TradeRecord{RunID: "R2", TradeID: "T3", Time: t0, Kind: "OPEN", Side: "SHORT", Price: 1, Size: 1, PnL: decimal.Zero}

	// out of order on purpose
	require.NoError(t, j.RecordTrade(closed))
	require.NoError(t, j.RecordTrade(open))
	require.NoError(t, j.RecordTrade(other))

	got, err := j.ListTrades(context.Background(), "R1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "T1", got[0].TradeID)
	assert.Equal(t, "T2", got[1].TradeID)
	assert.True(t, got[1].Time.Equal(closed.Time))
	assert.Equal(t, "CLOSE", got[1].Kind)
	assert.Equal(t, "LONG", got[1].Side)
	assert.InDelta(t, 95, got[1].Price, 1e-9)
	assert.InDelta(t, 10, got[1].Size, 1e-9)
	assert.Equal(t, "-50", got[1].PnL.String())
	assert.Equal(t, "STOP", got[1].Reason)
}

func TestSQLiteCurves(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	t.Cleanup(func() { _ = j.Close() })

	require.NoError(t, j.RecordCurve("R1", CurveEquity, []float64{10000, 9990.5, 9950}))
	require.NoError(t, j.RecordCurve("R1", CurveBalance, []float64{10000, 10000}))

	eq, err := j.ListCurve(context.Background(), "R1", CurveEquity)
	require.NoError(t, err)
	assert.Equal(t, []float64{10000, 9990.5, 9950}, eq)

	bal, err := j.ListCurve(context.Background(), "R1", CurveBalance)
	require.NoError(t, err)
	assert.Equal(t, []float64{10000, 10000}, bal)

	none, err := j.ListCurve(context.Background(), "R9", CurveEquity)
	require.NoError(t, err)
	assert.Empty(t, none)

	// a repeated index violates the primary key and rolls the batch back
	assert.Error(t, j.RecordCurve("R1", CurveBalance, []float64{1, 2, 3}))
	bal, err = j.ListCurve(context.Background(), "R1", CurveBalance)
	require.NoError(t, err)
	assert.Len(t, bal, 2)
}
