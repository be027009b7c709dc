package market

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
)

// BarRecord is the Parquet schema for bar files.
type BarRecord struct {
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// LoadParquet reads bars from a Parquet file written by WriteParquet (or any
// file with the BarRecord schema). Rows must already be time ordered.
func LoadParquet(path, symbol, timeframe string) (BarSet, error) {
	rows, err := parquet.ReadFile[BarRecord](path)
	if err != nil {
		return BarSet{}, fmt.Errorf("read parquet %s: %w", path, err)
	}

	bs := BarSet{
		Symbol:    symbol,
		Timeframe: timeframe,
		Bars:      make([]Bar, 0, len(rows)),
	}
	for _, r := range rows {
		bs.Bars = append(bs.Bars, Bar{
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		})
	}

	if err := bs.Validate(); err != nil {
		return BarSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return bs, nil
}

// WriteParquet stores the bar set at path, creating parent directories.
func WriteParquet(path string, bs BarSet) error {
	records := make([]BarRecord, 0, len(bs.Bars))
	for _, b := range bs.Bars {
		records = append(records, BarRecord{
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

// Load picks the loader from the file extension.
func Load(path, symbol, timeframe string) (BarSet, error) {
	switch filepath.Ext(path) {
	case ".parquet", ".pq":
		return LoadParquet(path, symbol, timeframe)
	default:
		return LoadCSV(path, symbol, timeframe)
	}
}
