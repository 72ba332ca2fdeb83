package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"

	"github.com/diillson/fleetburn-go/internal/domain/currency"
	"github.com/diillson/fleetburn-go/internal/domain/entity"
	"github.com/diillson/fleetburn-go/internal/domain/forecast"
	"github.com/diillson/fleetburn-go/internal/domain/repository"
	"github.com/diillson/fleetburn-go/internal/shared/types"
)

// ReportOptions controls one monthly report run.
type ReportOptions struct {
	OutputDir          string
	ReportTypes        []string
	InterFleetDelay    time.Duration
	NetworkRetries     int
	Groups             map[string][]string
	ZeroSpendThreshold int
}

// ReportUseCase runs the monthly budget report across fleets.
type ReportUseCase struct {
	dashboardRepo repository.DashboardRepository
	exportRepo    repository.ExportRepository
	historyRepo   repository.HistoryRepository
	storageRepo   repository.StorageRepository
	console       types.ConsoleInterface
	calendar      forecast.Calendar
	opts          ReportOptions

	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	newRunID func() string
}

// NewReportUseCase creates a new report use case. historyRepo and
// storageRepo are optional and may be nil.
func NewReportUseCase(
	dashboardRepo repository.DashboardRepository,
	exportRepo repository.ExportRepository,
	historyRepo repository.HistoryRepository,
	storageRepo repository.StorageRepository,
	console types.ConsoleInterface,
	calendar forecast.Calendar,
	opts ReportOptions,
) *ReportUseCase {
	return &ReportUseCase{
		dashboardRepo: dashboardRepo,
		exportRepo:    exportRepo,
		historyRepo:   historyRepo,
		storageRepo:   storageRepo,
		console:       console,
		calendar:      calendar,
		opts:          opts,
		now:           time.Now,
		sleep:         sleepContext,
		newRunID:      uuid.NewString,
	}
}

// RunMonthlyReport extracts every fleet in order, one at a time, and writes
// the reports. A failed fleet never stops the batch; the returned error
// wraps types.ErrFleetFailures when at least one fleet failed, so callers
// can tell partial failure from a run that could not happen at all.
func (uc *ReportUseCase) RunMonthlyReport(ctx context.Context, fleetIDs []string) (entity.BatchReport, entity.BatchSummary, error) {
	if len(fleetIDs) == 0 {
		return entity.BatchReport{}, entity.BatchSummary{}, types.ErrNoFleetsConfigured
	}

	now := uc.now()
	period := uc.calendar.PeriodAt(now)
	report := entity.BatchReport{
		RunID:          uc.newRunID(),
		ReportDate:     now,
		FiscalYear:     period.FiscalYear,
		ReportingMonth: period.Label(),
		MonthsElapsed:  period.MonthsElapsed,
		Results:        make([]entity.FleetResult, 0, len(fleetIDs)),
	}
	outputDir := filepath.Join(uc.opts.OutputDir, now.Format("2006-01-02"))

	uc.console.LogInfo("Reporting %s (fiscal year %d, %d of %d months elapsed) for %d fleets",
		report.ReportingMonth, report.FiscalYear, report.MonthsElapsed, forecast.FiscalMonths, len(fleetIDs))

	var files []string
	progress := uc.console.ProgressWithTotal(len(fleetIDs))

	for i, fleetID := range fleetIDs {
		if i > 0 {
			if err := uc.sleep(ctx, uc.opts.InterFleetDelay); err != nil {
				report.Interrupted = true
				break
			}
		}
		if ctx.Err() != nil {
			report.Interrupted = true
			break
		}

		result := uc.processFleet(ctx, fleetID, period)
		report.Results = append(report.Results, result)
		if path := uc.persistResult(result, outputDir); path != "" {
			files = append(files, path)
		}
		progress.Increment()
	}
	progress.Stop()

	if report.Interrupted {
		uc.console.LogWarning("Run interrupted after %d of %d fleets", len(report.Results), len(fleetIDs))
	}

	summary := Summarize(report, uc.opts.Groups, uc.opts.ZeroSpendThreshold)
	files = append(files, uc.writeReports(summary, report, outputDir)...)

	if uc.historyRepo != nil {
		if err := uc.historyRepo.SaveRun(report); err != nil {
			uc.console.LogError("Failed to save run history: %s", err)
		}
	}

	if uc.storageRepo != nil && ctx.Err() == nil {
		uploaded, err := uc.storageRepo.Upload(ctx, now.Format("2006-01-02"), files)
		if err != nil {
			uc.console.LogError("Failed to upload reports: %s", err)
		} else {
			uc.console.LogSuccess("Uploaded %d report files", len(uploaded))
		}
	}

	uc.displayReport(summary, report)

	switch {
	case report.Interrupted:
		return report, summary, fmt.Errorf("run interrupted after %d of %d fleets: %w",
			len(report.Results), len(fleetIDs), context.Cause(ctx))
	case summary.Failed > 0:
		return report, summary, fmt.Errorf("%d of %d fleets failed: %w",
			summary.Failed, summary.TotalFleets, types.ErrFleetFailures)
	}
	return report, summary, nil
}

// processFleet extracts and computes one fleet, retrying network failures
// up to NetworkRetries times.
func (uc *ReportUseCase) processFleet(ctx context.Context, fleetID string, period forecast.Period) entity.FleetResult {
	result := entity.FleetResult{FleetID: fleetID}

	var raw entity.RawExtraction
	for attempt := 0; ; attempt++ {
		var err error
		raw, err = uc.dashboardRepo.ExtractFleet(ctx, fleetID, period.BillingPeriod())
		if err == nil {
			break
		}

		xerr := asExtractionError(fleetID, err)
		if xerr.Kind != entity.KindNetwork || attempt >= uc.opts.NetworkRetries || ctx.Err() != nil {
			uc.console.LogError("Fleet %s failed in %s: %s", fleetID, xerr.Phase, xerr.Message)
			result.Error = xerr
			return result
		}
		uc.console.LogWarning("Fleet %s: %s failed (%s), retrying (%d/%d)",
			fleetID, xerr.Phase, xerr.Message, attempt+1, uc.opts.NetworkRetries)
	}

	record, xerr := uc.computeRecord(raw, period)
	if xerr != nil {
		uc.console.LogError("Fleet %s failed in %s: %s", fleetID, xerr.Phase, xerr.Message)
		result.Error = xerr
		return result
	}
	result.Record = &record
	return result
}

// computeRecord parses the raw texts and runs the forecast.
func (uc *ReportUseCase) computeRecord(raw entity.RawExtraction, period forecast.Period) (entity.ForecastRecord, *entity.ExtractionError) {
	imrGoal, ok := currency.ParseChecked(raw.IMRGoalText)
	if !ok {
		uc.console.LogWarning("Fleet %s: could not read budget %q, using 0", raw.FleetID, raw.IMRGoalText)
	}
	ytdSpend, ok := currency.ParseChecked(raw.YTDSpendText)
	if !ok {
		uc.console.LogWarning("Fleet %s: could not read YTD spend %q, using 0", raw.FleetID, raw.YTDSpendText)
	}

	if imrGoal < 0 || ytdSpend < 0 {
		return entity.ForecastRecord{}, &entity.ExtractionError{
			FleetID: raw.FleetID,
			Phase:   entity.PhaseCompute,
			Kind:    entity.KindParse,
			Message: fmt.Sprintf("negative amount (budget %q, spend %q)", raw.IMRGoalText, raw.YTDSpendText),
		}
	}
	if ytdSpend == 0 {
		uc.console.LogWarning("Fleet %s reports zero YTD spend", raw.FleetID)
	}

	return forecast.NewRecord(raw, imrGoal, ytdSpend, period), nil
}

// persistResult writes the fleet's file as soon as it completes and returns
// its path, or "" when writing failed.
func (uc *ReportUseCase) persistResult(result entity.FleetResult, outputDir string) string {
	var (
		path string
		err  error
	)
	if result.Succeeded() {
		path, err = uc.exportRepo.WriteFleetRecord(*result.Record, outputDir)
	} else {
		path, err = uc.exportRepo.WriteFleetFailure(*result.Error, outputDir)
	}
	if err != nil {
		uc.console.LogError("Failed to write report for fleet %s: %s", result.FleetID, err)
		return ""
	}
	return path
}

// writeReports writes summary.json always, then the optional formats.
func (uc *ReportUseCase) writeReports(summary entity.BatchSummary, report entity.BatchReport, outputDir string) []string {
	var files []string

	path, err := uc.exportRepo.WriteSummaryJSON(summary, outputDir)
	if err != nil {
		uc.console.LogError("Failed to write summary JSON: %s", err)
	} else {
		files = append(files, path)
		uc.console.LogSuccess("Summary written to %s", path)
	}

	for _, reportType := range uc.opts.ReportTypes {
		switch reportType {
		case "json":
			continue
		case "txt":
			path, err = uc.exportRepo.WriteSummaryText(summary, report, outputDir)
		case "csv":
			path, err = uc.exportRepo.ExportToCSV(report, outputDir)
		case "pdf":
			path, err = uc.exportRepo.ExportToPDF(summary, report, outputDir)
		default:
			uc.console.LogWarning("Unknown report type %q ignored", reportType)
			continue
		}
		if err != nil {
			uc.console.LogError("Failed to export %s report: %s", reportType, err)
			continue
		}
		files = append(files, path)
		uc.console.LogSuccess("Successfully exported to %s: %s", reportType, path)
	}
	return files
}

func (uc *ReportUseCase) displayReport(summary entity.BatchSummary, report entity.BatchReport) {
	table := uc.console.CreateTable()
	table.AddColumn("Fleet")
	table.AddColumn("Name")
	table.AddColumn("IMR Goal")
	table.AddColumn("YTD Spend")
	table.AddColumn("Burn / Month")
	table.AddColumn("Projected EOY")
	table.AddColumn("Variance")
	table.AddColumn("Status")

	var bars []types.BudgetBar
	for _, r := range report.Results {
		if !r.Succeeded() {
			reason := "unknown failure"
			if r.Error != nil {
				reason = fmt.Sprintf("%s: %s", r.Error.Phase, r.Error.Message)
			}
			table.AddRow(r.FleetID, "", "", "", "", "", "", pterm.FgRed.Sprint("FAILED "+reason))
			continue
		}

		rec := r.Record
		table.AddRow(
			rec.FleetID,
			rec.FleetName,
			formatAmount(rec.IMRGoal),
			formatAmount(rec.YTDSpend),
			formatAmount(rec.MonthlyBurnRate),
			formatAmount(rec.ProjectedEOY),
			fmt.Sprintf("%s (%.1f%%)", formatAmount(rec.Variance), rec.VariancePercent),
			budgetStatus(rec.IsOverBudget),
		)

		bar := types.BudgetBar{
			Label:           rec.FleetName,
			PercentComplete: rec.PercentComplete,
			OverBudget:      rec.IsOverBudget,
		}
		if rec.IMRGoal > 0 {
			bar.ProjectedPct = rec.ProjectedEOY / rec.IMRGoal * 100
		}
		bars = append(bars, bar)
	}

	t := summary.Totals
	table.AddRow(
		pterm.Bold.Sprint("TOTAL"),
		fmt.Sprintf("%d fleets", t.FleetCount),
		formatAmount(t.IMRGoal),
		formatAmount(t.YTDSpend),
		formatAmount(t.MonthlyBurnRate),
		formatAmount(t.ProjectedEOY),
		fmt.Sprintf("%s (%.1f%%)", formatAmount(t.Variance), t.VariancePercent),
		budgetStatus(t.IsOverBudget),
	)

	uc.console.Print(table.Render())
	if len(bars) > 0 {
		uc.console.DisplayBudgetBars(bars)
	}

	for _, g := range summary.Groups {
		line := fmt.Sprintf("Group %s: projected %s of %s (%s)",
			g.Name, formatAmount(g.Totals.ProjectedEOY), formatAmount(g.Totals.IMRGoal), budgetStatus(g.Totals.IsOverBudget))
		if len(g.Missing) > 0 {
			line += fmt.Sprintf(", missing %v", g.Missing)
		}
		uc.console.Println(line)
	}

	if summary.NeedsReview {
		uc.console.LogWarning("%d fleets report zero spend %v; review the dashboard before trusting this run",
			len(summary.ZeroSpendFleets), summary.ZeroSpendFleets)
	}

	if summary.Failed > 0 {
		uc.console.LogWarning("%d of %d fleets succeeded", summary.Succeeded, summary.TotalFleets)
	} else {
		uc.console.LogSuccess("%d of %d fleets succeeded", summary.Succeeded, summary.TotalFleets)
	}
}

func budgetStatus(over bool) string {
	if over {
		return pterm.FgRed.Sprint("Over budget")
	}
	return pterm.FgGreen.Sprint("On track")
}

func formatAmount(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func asExtractionError(fleetID string, err error) *entity.ExtractionError {
	var xerr *entity.ExtractionError
	if errors.As(err, &xerr) {
		return xerr
	}
	return entity.NewExtractionError(fleetID, entity.PhaseInit, entity.KindNetwork, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
