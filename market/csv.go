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

var csvHeader = []string{"time", "open", "high", "low", "close", "volume"}

// LoadCSV reads bars from a CSV file with columns
// time,open,high,low,close,volume. The header row is optional. Time is
// RFC3339 or unix milliseconds.
func LoadCSV(path, symbol, timeframe string) (BarSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return BarSet{}, err
	}
	defer f.Close()

	bs, err := ReadCSV(f, symbol, timeframe)
	if err != nil {
		return BarSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return bs, nil
}

// ReadCSV is LoadCSV over an io.Reader.
func ReadCSV(r io.Reader, symbol, timeframe string) (BarSet, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	bs := BarSet{Symbol: symbol, Timeframe: timeframe}
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return BarSet{}, err
		}
		line++
		if len(row) == 0 {
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "time") {
			continue
		}

		b, err := parseRow(row)
		if err != nil {
			return BarSet{}, fmt.Errorf("line %d: %w", line, err)
		}
		bs.Bars = append(bs.Bars, b)
	}

	if err := bs.Validate(); err != nil {
		return BarSet{}, err
	}
	return bs, nil
}

// WriteCSV writes bars in the format read by ReadCSV.
func WriteCSV(w io.Writer, bs BarSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, b := range bs.Bars {
		err := cw.Write([]string{
			b.Time.UTC().Format(time.RFC3339),
			ff(b.Open), ff(b.High), ff(b.Low), ff(b.Close), ff(b.Volume),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseRow(row []string) (Bar, error) {
	if len(row) < 6 {
		return Bar{}, fmt.Errorf("bad row (need time,open,high,low,close,volume): %v", row)
	}

	t, err := parseTime(strings.TrimSpace(row[0]))
	if err != nil {
		return Bar{}, err
	}

	var vals [5]float64
	for i := range vals {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", csvHeader[i+1], row[i+1], err)
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

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad time %q", s)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func ff(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
