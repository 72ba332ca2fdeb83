package usecase

import (
	"sort"

	"github.com/diillson/fleetburn-go/internal/domain/entity"
	"github.com/diillson/fleetburn-go/internal/domain/forecast"
)

// Summarize builds the aggregate view of a batch. Totals and group roll-ups
// cover successful fleets only and are recomputed from summed budget and
// spend. A group is listed when at least one of its fleets was part of the
// batch; members without a record are reported as missing.
func Summarize(report entity.BatchReport, groups map[string][]string, zeroSpendThreshold int) entity.BatchSummary {
	records := report.Records()
	failures := report.Failures()

	summary := entity.BatchSummary{
		RunID:          report.RunID,
		ReportDate:     report.ReportDate.Format("2006-01-02"),
		FiscalYear:     report.FiscalYear,
		ReportingMonth: report.ReportingMonth,
		MonthsElapsed:  report.MonthsElapsed,
		TotalFleets:    len(report.Results),
		Succeeded:      len(records),
		Failed:         len(failures),
		Totals:         forecast.Aggregate(records, report.MonthsElapsed),
		Interrupted:    report.Interrupted,
	}

	for _, f := range failures {
		entry := entity.FailureEntry{FleetID: f.FleetID}
		if f.Error != nil {
			entry.Phase = f.Error.Phase
			entry.Kind = f.Error.Kind
			entry.Reason = f.Error.Message
		}
		summary.Failures = append(summary.Failures, entry)
	}

	byID := make(map[string]entity.ForecastRecord, len(records))
	for _, r := range records {
		byID[r.FleetID] = r
		if r.YTDSpend == 0 {
			summary.ZeroSpendFleets = append(summary.ZeroSpendFleets, r.FleetID)
		}
	}
	summary.NeedsReview = zeroSpendThreshold > 0 && len(summary.ZeroSpendFleets) >= zeroSpendThreshold

	inBatch := make(map[string]bool, len(report.Results))
	for _, r := range report.Results {
		inBatch[r.FleetID] = true
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		members := groups[name]
		touched := false
		for _, id := range members {
			if inBatch[id] {
				touched = true
				break
			}
		}
		if !touched {
			continue
		}

		rollup := entity.GroupRollup{Name: name, Fleets: members}
		var found []entity.ForecastRecord
		for _, id := range members {
			if r, ok := byID[id]; ok {
				found = append(found, r)
			} else {
				rollup.Missing = append(rollup.Missing, id)
			}
		}
		rollup.Totals = forecast.Aggregate(found, report.MonthsElapsed)
		summary.Groups = append(summary.Groups, rollup)
	}

	return summary
}
