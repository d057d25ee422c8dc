package journal

const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	strategy TEXT NOT NULL,
	instrument TEXT NOT NULL,
	dataset TEXT NOT NULL,
	config TEXT NOT NULL,
	risk_pct REAL NOT NULL,
	max_position_pct REAL NOT NULL,
	start_time DATETIME NOT NULL,
	end_time DATETIME NOT NULL,
	bars INTEGER NOT NULL,
	records INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	start_balance TEXT NOT NULL,
	end_balance TEXT NOT NULL,
	net_pl TEXT NOT NULL,
	unrealized_pl TEXT NOT NULL,
	return_pct REAL NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_dd_pct REAL NOT NULL,
	sharpe REAL NOT NULL,
	org_path TEXT NOT NULL,
	notes TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	kind TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	size REAL NOT NULL,
	pnl TEXT NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, time);

CREATE TABLE IF NOT EXISTS curves (
	run_id TEXT NOT NULL,
	curve TEXT NOT NULL,
	idx INTEGER NOT NULL,
	value REAL NOT NULL,
	PRIMARY KEY (run_id, curve, idx)
);
`

const PostgresSchema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id TEXT PRIMARY KEY,
	created TIMESTAMPTZ NOT NULL,
	strategy TEXT NOT NULL,
	instrument TEXT NOT NULL,
	dataset TEXT NOT NULL,
	config TEXT NOT NULL,
	risk_pct DOUBLE PRECISION NOT NULL,
	max_position_pct DOUBLE PRECISION NOT NULL,
	start_time TIMESTAMPTZ NOT NULL,
	end_time TIMESTAMPTZ NOT NULL,
	bars INTEGER NOT NULL,
	records INTEGER NOT NULL,
	trades INTEGER NOT NULL,
	wins INTEGER NOT NULL,
	losses INTEGER NOT NULL,
	start_balance NUMERIC NOT NULL,
	end_balance NUMERIC NOT NULL,
	net_pl NUMERIC NOT NULL,
	unrealized_pl NUMERIC NOT NULL,
	return_pct DOUBLE PRECISION NOT NULL,
	win_rate DOUBLE PRECISION NOT NULL,
	profit_factor DOUBLE PRECISION NOT NULL,
	max_dd_pct DOUBLE PRECISION NOT NULL,
	sharpe DOUBLE PRECISION NOT NULL,
	org_path TEXT NOT NULL,
	notes TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
	time TIMESTAMPTZ NOT NULL,
	kind TEXT NOT NULL,
	side TEXT NOT NULL,
	price DOUBLE PRECISION NOT NULL,
	size DOUBLE PRECISION NOT NULL,
	pnl NUMERIC NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id, time);

CREATE TABLE IF NOT EXISTS curves (
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
	curve TEXT NOT NULL,
	idx INTEGER NOT NULL,
	value DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (run_id, curve, idx)
);
`
