package history

const schemaSQL = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	report_date     TEXT NOT NULL,
	fiscal_year     INTEGER NOT NULL,
	reporting_month TEXT NOT NULL,
	months_elapsed  INTEGER NOT NULL,
	total_fleets    INTEGER NOT NULL,
	failed          INTEGER NOT NULL,
	interrupted     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS fleet_results (
	run_id            TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	fleet_id          TEXT NOT NULL,
	position          INTEGER NOT NULL,
	fleet_name        TEXT,
	imr_goal          REAL,
	ytd_spend         REAL,
	monthly_burn_rate REAL,
	projected_eoy     REAL,
	variance          REAL,
	variance_percent  REAL,
	percent_complete  REAL,
	is_over_budget    INTEGER,
	extracted_at      TEXT,
	error_phase       TEXT,
	error_kind        TEXT,
	error_message     TEXT,
	PRIMARY KEY (run_id, fleet_id)
);

CREATE INDEX IF NOT EXISTS idx_fleet_results_fleet ON fleet_results(fleet_id);
`
