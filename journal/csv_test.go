package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	j, err := NewCSV(dir)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.Equal(t, [][]string{runsHeader}, readCSV(t, filepath.Join(dir, RunsFile)))
	assert.Equal(t, [][]string{tradesHeader}, readCSV(t, filepath.Join(dir, TradesFile)))
	assert.Equal(t, [][]string{curvesHeader}, readCSV(t, filepath.Join(dir, CurvesFile)))
}

func TestCSVJournalRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	j, err := NewCSV(dir)
	require.NoError(t, err)

	run := sampleRun()
	require.NoError(t, j.RecordRun(run))
	require.NoError(t, j.RecordTrade(TradeRecord{
		RunID:   run.RunID,
		TradeID: "T2",
		Time:    time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		Kind:    "CLOSE",
		Side:    "LONG",
		Price:   95,
		Size:    10,
		PnL:     decimal.RequireFromString("-50"),
		Reason:  "STOP",
	}))
	require.NoError(t, j.RecordCurve(run.RunID, CurveEquity, []float64{10000, 9950.25}))
	require.NoError(t, j.Close())

	runs := readCSV(t, filepath.Join(dir, RunsFile))
	require.Len(t, runs, 2)
	assert.Equal(t, run.RunID, runs[1][0])
	assert.Equal(t, "ma-cross", runs[1][2])
	assert.Equal(t, "9950", runs[1][13])
	assert.Equal(t, "-0.5", runs[1][16])

	trades := readCSV(t, filepath.Join(dir, TradesFile))
	require.Len(t, trades, 2)
	assert.Equal(t, []string{run.RunID, "T2", "2024-01-01T01:00:00Z", "CLOSE", "LONG", "95", "10", "-50", "STOP"}, trades[1])

	curves := readCSV(t, filepath.Join(dir, CurvesFile))
	require.Len(t, curves, 3)
	assert.Equal(t, []string{run.RunID, CurveEquity, "1", "9950.25"}, curves[2])
}

func TestNewCSVBadDir(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewCSV(filepath.Join(file, "sub"))
	assert.Error(t, err)
}
