package repository

import (
	"github.com/diillson/fleetburn-go/internal/domain/entity"
)

// ExportRepository persists report artifacts. Every method returns the
// absolute path of the file it wrote.
type ExportRepository interface {
	WriteFleetRecord(record entity.ForecastRecord, outputDir string) (string, error)
	WriteFleetFailure(failure entity.ExtractionError, outputDir string) (string, error)

	WriteSummaryJSON(summary entity.BatchSummary, outputDir string) (string, error)
	WriteSummaryText(summary entity.BatchSummary, report entity.BatchReport, outputDir string) (string, error)
	ExportToCSV(report entity.BatchReport, outputDir string) (string, error)
	ExportToPDF(summary entity.BatchSummary, report entity.BatchReport, outputDir string) (string, error)
}
