package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newCSVJournal(t *testing.T) (*CSV, string, string) {
	t.Helper()
	dir := t.TempDir()
	stepsPath := filepath.Join(dir, "steps.csv")
	tradesPath := filepath.Join(dir, "trades.csv")
	j, err := NewCSV(stepsPath, tradesPath)
	assert.NoError(t, err)
	return j, stepsPath, tradesPath
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	assert.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	assert.NoError(t, err)
	return rows
}

func TestCSVHeaders(t *testing.T) {
	t.Parallel()
	j, stepsPath, tradesPath := newCSVJournal(t)
	assert.NoError(t, j.Close())

	steps := readCSV(t, stepsPath)
	assert.Equal(t, []string{"Date", "Price", "Predicted_Signal", "Actual_Action",
		"Confidence", "Shares", "Cash", "Total_Value", "Return"}, steps[0])

	trades := readCSV(t, tradesPath)
	assert.Equal(t, []string{"order_id", "symbol", "side", "quantity", "price",
		"amount", "time"}, trades[0])
}

func TestCSVStepFormatting(t *testing.T) {
	t.Parallel()
	j, stepsPath, _ := newCSVJournal(t)

	assert.NoError(t, j.RecordStep(StepRecord{
		Date:       "2024-01-02",
		Price:      10.456,
		Predicted:  "BUY",
		Action:     "BUY",
		Confidence: 0.73,
		Shares:     9900,
		Cash:       123.456,
		TotalValue: 103623.456,
		ReturnPct:  0.036234,
	}))
	assert.NoError(t, j.Close())

	rows := readCSV(t, stepsPath)
	assert.Len(t, rows, 2)
	assert.Equal(t, []string{
		"2024-01-02", "10.46", "BUY", "BUY", "0.7300",
		"9900", "123.46", "103623.46", "3.6234",
	}, rows[1])
}

func TestCSVTradeFormatting(t *testing.T) {
	t.Parallel()
	j, _, tradesPath := newCSVJournal(t)

	at := time.Date(2024, 1, 2, 9, 31, 0, 0, time.UTC)
	assert.NoError(t, j.RecordTrade(TradeRecord{
		OrderID:  "01HV5TEST",
		Symbol:   "600519",
		Side:     "BUY",
		Quantity: 9900,
		Price:    10.0005,
		Amount:   99103.95,
		Time:     at,
	}))
	assert.NoError(t, j.Close())

	rows := readCSV(t, tradesPath)
	assert.Len(t, rows, 2)
	assert.Equal(t, []string{
		"01HV5TEST", "600519", "BUY", "9900", "10.0005",
		"99103.95", "2024-01-02T09:31:00Z",
	}, rows[1])
}
