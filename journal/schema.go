package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created TEXT NOT NULL,
	weights TEXT NOT NULL,
	frequency TEXT NOT NULL,
	start_date TEXT NOT NULL,
	end_date TEXT NOT NULL,
	initial_capital REAL NOT NULL,
	final_value REAL NOT NULL,
	return_pct REAL NOT NULL,
	max_drawdown_pct REAL NOT NULL,
	rebalances INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS run_values (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	date TEXT NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, date)
);
`
