package market

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	t.Parallel()

	in := `timestamp,open,high,low,close,volume
2024-01-01 00:00:00,100,105,99,102,1000
2024-01-01T01:00:00Z,102,107,101,105,1100

1704074400000,105,108,104,106,1200
`
	bars, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, bars, 3)

	assert.True(t, bars[0].Time.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, Bar{
		Time:   time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		Open:   102,
		High:   107,
		Low:    101,
		Close:  105,
		Volume: 1100,
	}, bars[1])
	assert.True(t, bars[2].Time.Equal(time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)))
	assert.NoError(t, ValidateSeries(bars))
}

func TestReadCSV_NoHeaderNoVolume(t *testing.T) {
	t.Parallel()

	bars, err := ReadCSV(strings.NewReader("1704067200,1,2,0.5,1.5\n"))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 0.0, bars[0].Volume)
	assert.Equal(t, 1.5, bars[0].Close)
}

func TestReadCSV_HeaderVariants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header string
	}{
		{"unnamed index", ",open,high,low,close,volume"},
		{"capitalized date", "Date,Open,High,Low,Close,Volume"},
		{"custom time name", "open_time,open,high,low,close,volume"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			in := tt.header + "\n2024-01-01 00:00:00,100,105,99,102,1000\n"
			bars, err := ReadCSV(strings.NewReader(in))
			require.NoError(t, err)
			require.Len(t, bars, 1)
			assert.Equal(t, 102.0, bars[0].Close)
		})
	}
}

func TestReadCSV_TimestampedFirstRowIsData(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV(strings.NewReader("2024-01-01,a,b,c,d\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad open")
}

func TestReadCSV_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		msg  string
	}{
		{"short row", "2024-01-01,1,2,3\n", "at least 5 columns"},
		{"bad time", "yesterday,1,2,3,4,5\n", "bad time"},
		{"bad price", "2024-01-01,1,x,3,4,5\n", "bad high"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadCSV(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestWriteAndLoadCSV(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := []Bar{
		{Time: ts, Open: 42000.5, High: 42100, Low: 41950.25, Close: 42050, Volume: 12.5},
		{Time: ts.Add(time.Hour), Open: 42050, High: 42300, Low: 42000, Close: 42250.75, Volume: 9},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, bars))
	assert.True(t, strings.HasPrefix(buf.String(), "timestamp,open,high,low,close,volume\n"))

	path := filepath.Join(t.TempDir(), FileName("BTC/USDT", "1h"))
	require.NoError(t, SaveCSV(path, bars))

	loaded, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, bars, loaded)
}

func TestLoadCSV_Missing(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "BTC_USDT_1h.csv", FileName("BTC/USDT", "1h"))
	assert.Equal(t, "ETHUSD_15m.csv", FileName("ETHUSD", "15m"))
}

func TestParseTime(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-01-01T00:00:00Z",
		"2024-01-01 00:00:00",
		"2024-01-01",
		"1704067200",
		"1704067200000",
	} {
		got, err := ParseTime(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
	}
}
