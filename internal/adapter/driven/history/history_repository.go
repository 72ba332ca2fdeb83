// Package history keeps every report run in a SQLite database so a fleet's
// figures can be compared month over month.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/diillson/fleetburn-go/internal/domain/entity"
	"github.com/diillson/fleetburn-go/internal/domain/repository"

	_ "modernc.org/sqlite" // register sqlite driver
)

// HistoryRepositoryImpl implementa o HistoryRepository sobre SQLite.
type HistoryRepositoryImpl struct {
	db *sql.DB
}

var _ repository.HistoryRepository = (*HistoryRepositoryImpl)(nil)

// Open opens or creates the history database at dbPath.
func Open(dbPath string) (*HistoryRepositoryImpl, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &HistoryRepositoryImpl{db: db}, nil
}

// Close closes the history database.
func (h *HistoryRepositoryImpl) Close() error {
	return h.db.Close()
}

// SaveRun stores a run with every fleet result. Saving the same run id again
// replaces it.
func (h *HistoryRepositoryImpl) SaveRun(report entity.BatchReport) error {
	tx, err := h.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM fleet_results WHERE run_id = ?", report.RunID); err != nil {
		return err
	}

	_, err = tx.Exec(`INSERT OR REPLACE INTO runs
		(run_id, report_date, fiscal_year, reporting_month, months_elapsed, total_fleets, failed, interrupted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.RunID, report.ReportDate.UTC().Format(time.RFC3339), report.FiscalYear,
		report.ReportingMonth, report.MonthsElapsed, len(report.Results), len(report.Failures()),
		boolInt(report.Interrupted),
	)
	if err != nil {
		return fmt.Errorf("saving run %s: %w", report.RunID, err)
	}

	for i, res := range report.Results {
		if res.Succeeded() {
			rec := res.Record
			_, err = tx.Exec(`INSERT INTO fleet_results
				(run_id, fleet_id, position, fleet_name, imr_goal, ytd_spend, monthly_burn_rate,
				 projected_eoy, variance, variance_percent, percent_complete, is_over_budget, extracted_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				report.RunID, rec.FleetID, i, rec.FleetName, rec.IMRGoal, rec.YTDSpend, rec.MonthlyBurnRate,
				rec.ProjectedEOY, rec.Variance, rec.VariancePercent, rec.PercentComplete,
				boolInt(rec.IsOverBudget), rec.ExtractedAt.UTC().Format(time.RFC3339),
			)
		} else {
			var phase, kind, msg string
			if res.Error != nil {
				phase, kind, msg = string(res.Error.Phase), string(res.Error.Kind), res.Error.Message
			}
			_, err = tx.Exec(`INSERT INTO fleet_results
				(run_id, fleet_id, position, error_phase, error_kind, error_message)
				VALUES (?, ?, ?, ?, ?, ?)`,
				report.RunID, res.FleetID, i, phase, kind, msg,
			)
		}
		if err != nil {
			return fmt.Errorf("saving fleet %s: %w", res.FleetID, err)
		}
	}

	return tx.Commit()
}

// FleetHistory returns the most recent successful records of a fleet,
// newest first.
func (h *HistoryRepositoryImpl) FleetHistory(fleetID string, limit int) ([]entity.ForecastRecord, error) {
	if limit <= 0 {
		limit = 12
	}

	rows, err := h.db.Query(`SELECT
			f.fleet_id, f.fleet_name, r.fiscal_year, r.reporting_month, r.months_elapsed,
			f.imr_goal, f.ytd_spend, f.monthly_burn_rate, f.projected_eoy, f.variance,
			f.variance_percent, f.percent_complete, f.is_over_budget, f.extracted_at
		FROM fleet_results f
		JOIN runs r ON r.run_id = f.run_id
		WHERE f.fleet_id = ? AND f.error_kind IS NULL
		ORDER BY r.report_date DESC, f.extracted_at DESC
		LIMIT ?`, fleetID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []entity.ForecastRecord
	for rows.Next() {
		var (
			rec         entity.ForecastRecord
			overBudget  int
			extractedAt string
		)
		if err := rows.Scan(
			&rec.FleetID, &rec.FleetName, &rec.FiscalYear, &rec.ReportingMonth, &rec.MonthsElapsed,
			&rec.IMRGoal, &rec.YTDSpend, &rec.MonthlyBurnRate, &rec.ProjectedEOY, &rec.Variance,
			&rec.VariancePercent, &rec.PercentComplete, &overBudget, &extractedAt,
		); err != nil {
			return nil, err
		}
		rec.IsOverBudget = overBudget != 0
		if t, err := time.Parse(time.RFC3339, extractedAt); err == nil {
			rec.ExtractedAt = t
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
