package cli

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diillson/fleetburn-go/internal/adapter/driven/history"
	"github.com/diillson/fleetburn-go/internal/adapter/driven/session"
	"github.com/diillson/fleetburn-go/internal/domain/entity"
	"github.com/diillson/fleetburn-go/internal/shared/types"
	"github.com/diillson/fleetburn-go/pkg/console/consoletest"
)

type fakeConfigRepo struct {
	cfg      *types.Config
	envCalls int
	envFile  string
}

func (f *fakeConfigRepo) LoadConfigFile(string) (*types.Config, error) {
	cfg := *f.cfg
	return &cfg, nil
}

func (f *fakeConfigRepo) ApplyEnvironment(cfg *types.Config, envFile string) error {
	f.envCalls++
	f.envFile = envFile
	return nil
}

func newTestApp(t *testing.T, cfg *types.Config) (*CLIApp, *consoletest.Recorder, *fakeConfigRepo) {
	t.Helper()
	rec := &consoletest.Recorder{}
	repo := &fakeConfigRepo{cfg: cfg}
	app := NewCLIApp("1.0.0")
	app.SetDependencies(rec, repo, nil)
	return app, rec, repo
}

func execute(t *testing.T, app *CLIApp, args ...string) error {
	t.Helper()
	app.rootCmd.SetArgs(args)
	return app.rootCmd.ExecuteContext(context.Background())
}

func TestApplyArgs_FlagsWin(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Fleets = []string{"from-file"}
	cfg.Dashboard.BaseURL = "https://file.example.com"

	applyArgs(cfg, &types.CLIArgs{
		Fleets:     []string{"a", "b"},
		BaseURL:    "https://flag.example.com",
		ReportType: []string{"csv"},
		Headed:     true,
		NoHistory:  true,
	})

	if strings.Join(cfg.Fleets, ",") != "a,b" {
		t.Errorf("Fleets = %v", cfg.Fleets)
	}
	if cfg.Dashboard.BaseURL != "https://flag.example.com" {
		t.Errorf("BaseURL = %s", cfg.Dashboard.BaseURL)
	}
	if cfg.Browser.Headless {
		t.Error("--headed should turn headless off")
	}
	if cfg.History.Enabled {
		t.Error("--no-history should disable history")
	}
	if cfg.Report.Types[0] != "csv" {
		t.Errorf("Types = %v", cfg.Report.Types)
	}
}

func TestApplyArgs_EmptyKeepsConfig(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Fleets = []string{"from-file"}
	applyArgs(cfg, &types.CLIArgs{})

	if cfg.Fleets[0] != "from-file" || !cfg.Browser.Headless || !cfg.History.Enabled {
		t.Errorf("config changed by empty args: %+v", cfg)
	}
}

func TestLoadConfig_RejectsBadStartMonth(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Fiscal.StartMonth = 13
	app, _, repo := newTestApp(t, cfg)

	_, err := app.loadConfig(&types.CLIArgs{ConfigFile: "fleetburn.toml", EnvFile: "custom.env"})
	if err == nil {
		t.Fatal("want error for start month 13")
	}
	if repo.envCalls != 1 || repo.envFile != "custom.env" {
		t.Errorf("environment layer: calls=%d file=%q", repo.envCalls, repo.envFile)
	}
}

func TestLoadConfig_SessionValidity(t *testing.T) {
	tests := []struct {
		hours   int
		wantErr bool
	}{
		{12, false},
		{0, false},
		{-1, true},
	}
	for _, tt := range tests {
		cfg := types.DefaultConfig()
		cfg.Session.ValidityHours = tt.hours
		app, _, _ := newTestApp(t, cfg)

		got, err := app.loadConfig(&types.CLIArgs{ConfigFile: "fleetburn.toml"})
		if (err != nil) != tt.wantErr {
			t.Errorf("validity_hours=%d: err = %v, wantErr %v", tt.hours, err, tt.wantErr)
			continue
		}
		if err == nil && got.SessionValidity() != time.Duration(tt.hours)*time.Hour {
			t.Errorf("validity_hours=%d: SessionValidity() = %s", tt.hours, got.SessionValidity())
		}
	}
}

func TestRunReport_RequiresBaseURLAndFleets(t *testing.T) {
	app, _, _ := newTestApp(t, types.DefaultConfig())

	cfg := types.DefaultConfig()
	cfg.Fleets = []string{"fleet-1"}
	if err := app.runReport(context.Background(), cfg); !errors.Is(err, types.ErrMissingBaseURL) {
		t.Errorf("err = %v, want ErrMissingBaseURL", err)
	}

	cfg = types.DefaultConfig()
	cfg.Dashboard.BaseURL = "https://dash.example.com"
	if err := app.runReport(context.Background(), cfg); !errors.Is(err, types.ErrNoFleetsConfigured) {
		t.Errorf("err = %v, want ErrNoFleetsConfigured", err)
	}
}

func TestSessionCommands(t *testing.T) {
	dir := t.TempDir()
	repo := session.NewSessionRepository(dir, time.Hour)
	if err := repo.EnsureAuthenticated(context.Background(), func(context.Context) (bool, error) { return true, nil }, nil); err != nil {
		t.Fatal(err)
	}

	app, rec, _ := newTestApp(t, types.DefaultConfig())
	if err := execute(t, app, "session", "status", "--session-dir", dir); err != nil {
		t.Fatalf("session status: %v", err)
	}
	if len(rec.Success) != 1 || !strings.Contains(rec.Success[0], "still trusted") {
		t.Errorf("status success = %v", rec.Success)
	}

	app, rec, _ = newTestApp(t, types.DefaultConfig())
	if err := execute(t, app, "session", "reset", "--session-dir", dir); err != nil {
		t.Fatalf("session reset: %v", err)
	}
	state, err := repo.State()
	if err != nil {
		t.Fatal(err)
	}
	if state.LastValidatedAt != nil {
		t.Errorf("LastValidatedAt = %v after reset", state.LastValidatedAt)
	}

	app, rec, _ = newTestApp(t, types.DefaultConfig())
	if err := execute(t, app, "session", "status", "--session-dir", dir); err != nil {
		t.Fatal(err)
	}
	if !rec.HasWarning("never validated") {
		t.Errorf("warnings = %v", rec.Warnings)
	}
}

func TestHistoryCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	h, err := history.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	date := time.Date(2026, 1, 6, 8, 0, 0, 0, time.UTC)
	rec := entity.ForecastRecord{
		FleetID:        "fleet-1",
		FleetName:      "Platform",
		FiscalYear:     2025,
		ReportingMonth: "2025-12",
		IMRGoal:        1200,
		YTDSpend:       1300,
		MonthsElapsed:  12,
		ProjectedEOY:   1300,
		Variance:       100,
		IsOverBudget:   true,
		ExtractedAt:    date,
	}
	err = h.SaveRun(entity.BatchReport{
		RunID:          "run-1",
		ReportDate:     date,
		FiscalYear:     2025,
		ReportingMonth: "2025-12",
		MonthsElapsed:  12,
		Results:        []entity.FleetResult{{FleetID: "fleet-1", Record: &rec}},
	})
	_ = h.Close()
	if err != nil {
		t.Fatal(err)
	}

	cfg := types.DefaultConfig()
	cfg.History.Path = dbPath
	app, out, _ := newTestApp(t, cfg)
	if err := execute(t, app, "history", "fleet-1", "--config-file", "fleetburn.toml"); err != nil {
		t.Fatalf("history: %v", err)
	}
	text := out.Output.String()
	for _, want := range []string{"2025-12", "Platform", "$1300.00", "Over budget"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}

	app, out, _ = newTestApp(t, cfg)
	if err := execute(t, app, "history", "unknown", "--config-file", "fleetburn.toml"); err != nil {
		t.Fatal(err)
	}
	if !out.HasWarning("No recorded runs") {
		t.Errorf("warnings = %v", out.Warnings)
	}
}

func TestHistoryCommand_RequiresFleetID(t *testing.T) {
	app, _, _ := newTestApp(t, types.DefaultConfig())
	if err := execute(t, app, "history"); err == nil {
		t.Fatal("want error without a fleet id")
	}
}
