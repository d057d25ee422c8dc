package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVHeader is the column layout written by WriteCSV and accepted by ReadCSV.
var CSVHeader = []string{"timestamp", "open", "high", "low", "close", "volume"}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FileName returns the on-disk name of an OHLCV file, e.g. BTC_USDT_1h.csv.
func FileName(symbol, timeframe string) string {
	return fmt.Sprintf("%s_%s.csv", strings.ReplaceAll(symbol, "/", "_"), timeframe)
}

// LoadCSV reads bars from path. See ReadCSV for the accepted format.
func LoadCSV(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return bars, nil
}

// ReadCSV parses timestamp,open,high,low,close[,volume] rows. A header row is
// detected by its column names and skipped. Rows are returned in file order;
// ordering and price checks are left to ValidateSeries.
func ReadCSV(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars []Bar
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if line == 1 && isHeader(row) {
			continue
		}

		b, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
}

// isHeader reports whether the first row names its columns. Besides the usual
// time column names this covers files whose index column was left unnamed,
// where the first cell is empty and the price columns hold text.
func isHeader(row []string) bool {
	s := strings.ToLower(strings.TrimSpace(row[0]))
	switch s {
	case "timestamp", "time", "date", "datetime":
		return true
	}
	if len(row) < 5 {
		return false
	}
	if _, err := ParseTime(row[0]); err == nil {
		return false
	}
	for _, v := range row[1:5] {
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return false
		}
	}
	return true
}

func parseRow(row []string) (Bar, error) {
	if len(row) < 5 {
		return Bar{}, fmt.Errorf("need at least 5 columns (timestamp,open,high,low,close), got %d", len(row))
	}

	t, err := ParseTime(row[0])
	if err != nil {
		return Bar{}, err
	}

	var vals [5]float64
	n := 5
	if len(row) < 6 {
		n = 4
	}
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", CSVHeader[i+1], row[i+1], err)
		}
		vals[i] = v
	}

	return Bar{
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

// ParseTime accepts RFC3339, a few common date-time layouts (UTC), or
// integer unix timestamps in seconds or milliseconds.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// anything past year 5138 in seconds is assumed to be milliseconds
		if n > 1e11 || n < -1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

// WriteCSV writes bars with a header row.
func WriteCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, b := range bars {
		err := cw.Write([]string{
			b.Time.UTC().Format(time.RFC3339),
			f(b.Open),
			f(b.High),
			f(b.Low),
			f(b.Close),
			f(b.Volume),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes bars to path, replacing any existing file.
func SaveCSV(path string, bars []Bar) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(fh, bars); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

func f(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
