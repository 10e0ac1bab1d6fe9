package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// CSVSource is a file-backed DataSource reading daily bars from
// <Dir>/<symbol>.csv. Expected header: date,open,high,low,close,volume
// with dates formatted 2006-01-02.
type CSVSource struct {
	Dir string
}

func (s *CSVSource) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.Dir, symbol+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars for %q: %w", symbol, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read bars for %q: %w", symbol, err)
	}
	if len(rows) < 2 {
		return nil, ErrNoData
	}

	bars := make([]Bar, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 6 {
			continue
		}
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("bad date %q in %s: %w", row[0], path, err)
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			vals[i], err = strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("bad value %q in %s: %w", row[i+1], path, err)
			}
		}
		bars = append(bars, Bar{
			Symbol: symbol,
			Date:   date,
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
