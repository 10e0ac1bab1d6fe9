package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSV writes trades and backtest steps to two CSV files.
//
// The step file's column order and formatting are consumed by downstream
// tooling and must not change:
// Date, Price, Predicted_Signal, Actual_Action, Confidence, Shares, Cash,
// Total_Value, Return (percent).
type CSV struct {
	steps  *csv.Writer
	trades *csv.Writer
	sf, tf *os.File
}

func NewCSV(stepsPath, tradesPath string) (*CSV, error) {
	sf, err := os.Create(stepsPath)
	if err != nil {
		return nil, fmt.Errorf("create steps file: %w", err)
	}
	tf, err := os.Create(tradesPath)
	if err != nil {
		sf.Close()
		return nil, fmt.Errorf("create trades file: %w", err)
	}

	sw := csv.NewWriter(sf)
	tw := csv.NewWriter(tf)

	if err := sw.Write([]string{"Date", "Price", "Predicted_Signal", "Actual_Action", "Confidence", "Shares", "Cash", "Total_Value", "Return"}); err != nil {
		return nil, err
	}
	if err := tw.Write([]string{"order_id", "symbol", "side", "quantity", "price", "amount", "time"}); err != nil {
		return nil, err
	}

	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, err
	}
	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}

	return &CSV{steps: sw, trades: tw, sf: sf, tf: tf}, nil
}

func (j *CSV) RecordStep(s StepRecord) error {
	err := j.steps.Write([]string{
		s.Date,
		fmt.Sprintf("%.2f", s.Price),
		s.Predicted,
		s.Action,
		fmt.Sprintf("%.4f", s.Confidence),
		strconv.FormatInt(s.Shares, 10),
		fmt.Sprintf("%.2f", s.Cash),
		fmt.Sprintf("%.2f", s.TotalValue),
		fmt.Sprintf("%.4f", s.ReturnPct*100),
	})
	if err != nil {
		return err
	}
	j.steps.Flush()
	return j.steps.Error()
}

func (j *CSV) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.OrderID,
		t.Symbol,
		t.Side,
		strconv.FormatInt(t.Quantity, 10),
		fmt.Sprintf("%.4f", t.Price),
		fmt.Sprintf("%.2f", t.Amount),
		t.Time.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) Close() error {
	j.steps.Flush()
	if err := j.steps.Error(); err != nil {
		return err
	}
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	if err := j.sf.Close(); err != nil {
		return err
	}
	return j.tf.Close()
}
