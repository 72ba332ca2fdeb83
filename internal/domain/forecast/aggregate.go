package forecast

import "github.com/diillson/fleetburn-go/internal/domain/entity"

// Aggregate rolls records up by summing budget and spend, then recomputing
// every derived figure from those sums. Per-record projections are never
// added together.
func Aggregate(records []entity.ForecastRecord, monthsElapsed int) entity.Totals {
	t := entity.Totals{
		FleetCount:    len(records),
		MonthsElapsed: monthsElapsed,
	}
	for _, r := range records {
		t.IMRGoal += r.IMRGoal
		t.YTDSpend += r.YTDSpend
	}

	f := Compute(t.IMRGoal, t.YTDSpend, monthsElapsed)
	t.MonthlyBurnRate = f.MonthlyBurnRate
	t.ProjectedEOY = f.ProjectedEOY
	t.Variance = f.Variance
	t.VariancePercent = f.VariancePercent
	t.PercentComplete = f.PercentComplete
	t.IsOverBudget = f.IsOverBudget
	return t
}
