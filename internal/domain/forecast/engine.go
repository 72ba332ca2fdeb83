package forecast

import "github.com/diillson/fleetburn-go/internal/domain/entity"

// Figures are the derived values of a forecast. Variance is projected minus
// budget, so a positive variance always means over budget.
type Figures struct {
	MonthlyBurnRate float64
	ProjectedEOY    float64
	Variance        float64
	VariancePercent float64
	PercentComplete float64
	IsOverBudget    bool
}

// Compute projects end-of-year spend from year-to-date spend.
//
// With no elapsed months there is no trend yet, so the projection is the
// spend itself. At twelve elapsed months the projection is exactly ytdSpend.
func Compute(imrGoal, ytdSpend float64, monthsElapsed int) Figures {
	var f Figures

	switch {
	case monthsElapsed <= 0:
		f.MonthlyBurnRate = 0
		f.ProjectedEOY = ytdSpend
	case monthsElapsed == FiscalMonths:
		f.MonthlyBurnRate = ytdSpend / float64(monthsElapsed)
		f.ProjectedEOY = ytdSpend
	default:
		f.MonthlyBurnRate = ytdSpend / float64(monthsElapsed)
		f.ProjectedEOY = f.MonthlyBurnRate * FiscalMonths
	}

	f.Variance = f.ProjectedEOY - imrGoal
	if imrGoal > 0 {
		f.VariancePercent = f.Variance / imrGoal * 100
		f.PercentComplete = ytdSpend / imrGoal * 100
	}
	f.IsOverBudget = f.Variance > 0

	return f
}

// NewRecord assembles a ForecastRecord from parsed amounts and the period.
func NewRecord(raw entity.RawExtraction, imrGoal, ytdSpend float64, period Period) entity.ForecastRecord {
	f := Compute(imrGoal, ytdSpend, period.MonthsElapsed)
	return entity.ForecastRecord{
		FleetID:         raw.FleetID,
		FleetName:       raw.FleetName,
		FiscalYear:      period.FiscalYear,
		ReportingMonth:  period.Label(),
		IMRGoal:         imrGoal,
		YTDSpend:        ytdSpend,
		MonthsElapsed:   period.MonthsElapsed,
		MonthlyBurnRate: f.MonthlyBurnRate,
		ProjectedEOY:    f.ProjectedEOY,
		Variance:        f.Variance,
		VariancePercent: f.VariancePercent,
		PercentComplete: f.PercentComplete,
		IsOverBudget:    f.IsOverBudget,
		ExtractedAt:     raw.ExtractedAt,
	}
}
