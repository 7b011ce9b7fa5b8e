package store

const Schema = `
CREATE TABLE IF NOT EXISTS bars (
	asset TEXT NOT NULL,
	date TEXT NOT NULL,
	open REAL NOT NULL DEFAULT 0,
	high REAL NOT NULL DEFAULT 0,
	low REAL NOT NULL DEFAULT 0,
	close REAL NOT NULL,
	volume REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (asset, date)
);

CREATE INDEX IF NOT EXISTS idx_bars_asset_date ON bars(asset, date);
`
