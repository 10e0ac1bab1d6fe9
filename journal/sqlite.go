package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(order_id, symbol, side, quantity, price, amount, time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.OrderID, t.Symbol, t.Side, t.Quantity, t.Price, t.Amount, t.Time,
	)
	return err
}

func (j *SQLite) RecordStep(s StepRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO steps
		(date, price, predicted, action, confidence, shares, cash, total_value, return_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Date, s.Price, s.Predicted, s.Action, s.Confidence,
		s.Shares, s.Cash, s.TotalValue, s.ReturnPct,
	)
	return err
}

// TradesBySymbol returns the recorded fills for one symbol in insertion
// order.
func (j *SQLite) TradesBySymbol(symbol string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT order_id, symbol, side, quantity, price, amount, time
		FROM trades WHERE symbol = ? ORDER BY id`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		if err := rows.Scan(&t.OrderID, &t.Symbol, &t.Side, &t.Quantity, &t.Price, &t.Amount, &t.Time); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
