package repository

import (
	"context"

	"github.com/diillson/fleetburn-go/internal/domain/entity"
)

// DashboardRepository extracts raw figures for a fleet from the remote dashboard.
// Failures are returned as *entity.ExtractionError.
type DashboardRepository interface {
	ExtractFleet(ctx context.Context, fleetID string, billingPeriod string) (entity.RawExtraction, error)
}
