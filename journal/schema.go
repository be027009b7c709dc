package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
  run_id         TEXT PRIMARY KEY,
  created        INTEGER NOT NULL,
  symbol         TEXT,
  timeframe      TEXT,
  strategy       TEXT,
  start_time     INTEGER,
  end_time       INTEGER,
  bars           INTEGER,
  initial_equity REAL,
  metrics        TEXT
);

CREATE TABLE IF NOT EXISTS trades (
  trade_id    TEXT NOT NULL,
  run_id      TEXT NOT NULL,
  symbol      TEXT,
  size        REAL,
  entry_price REAL,
  exit_price  REAL,
  stop_loss   REAL,
  open_time   INTEGER,
  close_time  INTEGER,
  realized_pl REAL,
  reason      TEXT,
  PRIMARY KEY (run_id, trade_id)
);

CREATE TABLE IF NOT EXISTS exits (
  run_id   TEXT NOT NULL,
  trade_id TEXT NOT NULL,
  seq      INTEGER NOT NULL,
  time     INTEGER,
  price    REAL,
  size     REAL,
  fraction REAL,
  pnl      REAL,
  reason   TEXT,
  level    INTEGER,
  PRIMARY KEY (run_id, trade_id, seq)
);

CREATE TABLE IF NOT EXISTS equity (
  run_id  TEXT NOT NULL,
  time    INTEGER NOT NULL,
  balance REAL,
  equity  REAL
);

CREATE INDEX IF NOT EXISTS idx_equity_run ON equity(run_id, time);

CREATE TABLE IF NOT EXISTS optimization (
  study_id  TEXT NOT NULL,
  rank      INTEGER NOT NULL,
  params    TEXT,
  objective REAL,
  metrics   TEXT,
  error     TEXT,
  PRIMARY KEY (study_id, rank)
);
`
