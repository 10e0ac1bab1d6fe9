package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	order_id    TEXT NOT NULL,
	symbol      TEXT NOT NULL,
	side        TEXT NOT NULL,
	quantity    INTEGER NOT NULL,
	price       REAL NOT NULL,
	amount      REAL NOT NULL,
	time        TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
CREATE INDEX IF NOT EXISTS idx_trades_time ON trades(time);

CREATE TABLE IF NOT EXISTS steps (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	date        TEXT NOT NULL,
	price       REAL NOT NULL,
	predicted   TEXT NOT NULL,
	action      TEXT NOT NULL,
	confidence  REAL NOT NULL,
	shares      INTEGER NOT NULL,
	cash        REAL NOT NULL,
	total_value REAL NOT NULL,
	return_pct  REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_steps_date ON steps(date);
`
