package repository

import (
	"github.com/diillson/fleetburn-go/internal/domain/entity"
)

// HistoryRepository keeps every run so fleets can be compared month over month.
type HistoryRepository interface {
	SaveRun(report entity.BatchReport) error
	FleetHistory(fleetID string, limit int) ([]entity.ForecastRecord, error)
	Close() error
}
