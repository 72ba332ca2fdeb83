package cli

import (
	"context"

	"github.com/diillson/fleetburn-go/internal/adapter/driven/dashboard"
	"github.com/diillson/fleetburn-go/internal/adapter/driven/history"
	"github.com/diillson/fleetburn-go/internal/adapter/driven/session"
	"github.com/diillson/fleetburn-go/internal/adapter/driven/storage"
	"github.com/diillson/fleetburn-go/internal/application/usecase"
	"github.com/diillson/fleetburn-go/internal/domain/forecast"
	"github.com/diillson/fleetburn-go/internal/domain/repository"
	"github.com/diillson/fleetburn-go/internal/shared/types"
)

const loginMessage = "Log in to the dashboard in the browser window, then press Enter to continue"

// runReport wires one report run from cfg and executes it. The browser and
// the history database live only for the duration of the run.
func (app *CLIApp) runReport(ctx context.Context, cfg *types.Config) error {
	if cfg.Dashboard.BaseURL == "" {
		return types.ErrMissingBaseURL
	}
	if len(cfg.Fleets) == 0 {
		return types.ErrNoFleetsConfigured
	}

	calendar, err := forecast.NewCalendar(cfg.Fiscal.StartMonth)
	if err != nil {
		return err
	}

	status := app.console.Status("Starting browser...")
	browser, err := dashboard.NewChromeBrowser(ctx, dashboard.ChromeOptions{
		ProfileDir: cfg.Session.Dir,
		Headless:   cfg.Browser.Headless,
	})
	status.Stop()
	if err != nil {
		return err
	}
	defer func() {
		if err := browser.Close(); err != nil {
			app.console.LogWarning("Closing browser: %s", err)
		}
	}()

	// A headless browser cannot be logged into by hand.
	var prompt repository.LoginPrompt
	if !cfg.Browser.Headless {
		prompt = func(ctx context.Context) error {
			return app.console.WaitForEnter(ctx, loginMessage)
		}
	}

	sessionRepo := session.NewSessionRepository(cfg.Session.Dir, cfg.SessionValidity())
	dashboardRepo := dashboard.NewDashboardRepository(browser, sessionRepo, prompt, app.console, dashboard.Config{
		BaseURL:     cfg.Dashboard.BaseURL,
		Timeout:     cfg.RequestTimeout(),
		SettleDelay: cfg.SettleDelay(),
		Locators:    dashboard.DefaultLocators().WithOverrides(cfg.Selectors),
	})

	var historyRepo repository.HistoryRepository
	if cfg.History.Enabled {
		h, err := history.Open(cfg.History.Path)
		if err != nil {
			app.console.LogWarning("Run history disabled: %s", err)
		} else {
			defer h.Close()
			historyRepo = h
		}
	}

	var storageRepo repository.StorageRepository
	if cfg.S3.Bucket != "" {
		s, err := storage.NewS3Repository(ctx, cfg.S3, app.console)
		if err != nil {
			app.console.LogWarning("Report upload disabled: %s", err)
		} else {
			storageRepo = s
		}
	}

	reportUseCase := usecase.NewReportUseCase(
		dashboardRepo,
		app.exportRepo,
		historyRepo,
		storageRepo,
		app.console,
		calendar,
		usecase.ReportOptions{
			OutputDir:          cfg.Report.Dir,
			ReportTypes:        cfg.Report.Types,
			InterFleetDelay:    cfg.InterFleetDelay(),
			NetworkRetries:     cfg.Browser.NetworkRetries,
			Groups:             cfg.Groups,
			ZeroSpendThreshold: cfg.Report.ZeroSpendReviewThreshold,
		},
	)

	_, summary, err := reportUseCase.RunMonthlyReport(ctx, cfg.Fleets)
	if err != nil {
		return err
	}
	app.console.LogSuccess("Report for %s complete: %d fleets", summary.ReportingMonth, summary.Succeeded)
	return nil
}
