package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"
)

// Feature files carry a date, a close, and 24 model features per row.
const (
	featureCols  = 24
	minFieldCols = 2 + featureCols
)

// LoadCSV reads a feature file into points sorted by date. The first
// row is treated as a header. Layout: date, close, then the feature
// columns; extra trailing columns are ignored.
func LoadCSV(path string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("feed %s: %w", path, ErrNoData)
	}

	points := make([]Point, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) < minFieldCols {
			return nil, fmt.Errorf("feed %s row %d: want at least %d columns, got %d",
				path, i+2, minFieldCols, len(row))
		}
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("feed %s row %d: %w", path, i+2, err)
		}
		closePx, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("feed %s row %d close: %w", path, i+2, err)
		}
		features := make([]float64, featureCols)
		for j := 0; j < featureCols; j++ {
			v, err := strconv.ParseFloat(row[2+j], 64)
			if err != nil {
				return nil, fmt.Errorf("feed %s row %d col %d: %w", path, i+2, 2+j, err)
			}
			features[j] = v
		}
		points = append(points, Point{Date: date, Close: closePx, Features: features})
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}
