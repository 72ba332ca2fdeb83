package types

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config represents the application configuration that can be loaded from a file.
type Config struct {
	Dashboard DashboardConfig     `json:"dashboard" yaml:"dashboard" toml:"dashboard"`
	Fleets    []string            `json:"fleets" yaml:"fleets" toml:"fleets"`
	Groups    map[string][]string `json:"groups" yaml:"groups" toml:"groups"`
	Session   SessionConfig       `json:"session" yaml:"session" toml:"session"`
	Fiscal    FiscalConfig        `json:"fiscal" yaml:"fiscal" toml:"fiscal"`
	Browser   BrowserConfig       `json:"browser" yaml:"browser" toml:"browser"`
	Report    ReportConfig        `json:"report" yaml:"report" toml:"report"`
	Selectors SelectorsConfig     `json:"selectors" yaml:"selectors" toml:"selectors"`
	History   HistoryConfig       `json:"history" yaml:"history" toml:"history"`
	S3        S3Config            `json:"s3" yaml:"s3" toml:"s3"`
}

// DashboardConfig points at the remote usage dashboard.
type DashboardConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url" toml:"base_url"`
}

// SessionConfig controls the persisted browser profile.
type SessionConfig struct {
	Dir           string `json:"dir" yaml:"dir" toml:"dir"`
	ValidityHours int    `json:"validity_hours" yaml:"validity_hours" toml:"validity_hours"`
}

// FiscalConfig holds the single fiscal-year convention every calculation reads.
type FiscalConfig struct {
	StartMonth int `json:"start_month" yaml:"start_month" toml:"start_month"`
}

// BrowserConfig controls the automated browser.
type BrowserConfig struct {
	Headless       bool `json:"headless" yaml:"headless" toml:"headless"`
	TimeoutSeconds int  `json:"timeout_seconds" yaml:"timeout_seconds" toml:"timeout_seconds"`
	SettleDelayMs  int  `json:"settle_delay_ms" yaml:"settle_delay_ms" toml:"settle_delay_ms"`
	NetworkRetries int  `json:"network_retries" yaml:"network_retries" toml:"network_retries"`
}

// ReportConfig controls what a run writes and how it paces itself.
type ReportConfig struct {
	Dir                      string   `json:"dir" yaml:"dir" toml:"dir"`
	Types                    []string `json:"types" yaml:"types" toml:"types"`
	InterFleetDelaySeconds   int      `json:"inter_fleet_delay_seconds" yaml:"inter_fleet_delay_seconds" toml:"inter_fleet_delay_seconds"`
	ZeroSpendReviewThreshold int      `json:"zero_spend_review_threshold" yaml:"zero_spend_review_threshold" toml:"zero_spend_review_threshold"`
}

// SelectorsConfig overrides the DOM locators of the dashboard. Empty values
// keep the built-in defaults.
type SelectorsConfig struct {
	FleetName       string `json:"fleet_name" yaml:"fleet_name" toml:"fleet_name"`
	FleetID         string `json:"fleet_id" yaml:"fleet_id" toml:"fleet_id"`
	KeyMetric       string `json:"key_metric" yaml:"key_metric" toml:"key_metric"`
	KeyMetricIndex  *int   `json:"key_metric_index" yaml:"key_metric_index" toml:"key_metric_index"`
	RightCell       string `json:"right_cell" yaml:"right_cell" toml:"right_cell"`
	RightCellIndex  *int   `json:"right_cell_index" yaml:"right_cell_index" toml:"right_cell_index"`
	PeriodSelector  string `json:"period_selector" yaml:"period_selector" toml:"period_selector"`
	PeriodOption    string `json:"period_option" yaml:"period_option" toml:"period_option"`
	DashboardMarker string `json:"dashboard_marker" yaml:"dashboard_marker" toml:"dashboard_marker"`
	LoginMarker     string `json:"login_marker" yaml:"login_marker" toml:"login_marker"`
}

// HistoryConfig controls the run history database.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" toml:"enabled"`
	Path    string `json:"path" yaml:"path" toml:"path"`
}

// S3Config enables uploading finished reports. An empty bucket disables it.
type S3Config struct {
	Bucket  string `json:"bucket" yaml:"bucket" toml:"bucket"`
	Prefix  string `json:"prefix" yaml:"prefix" toml:"prefix"`
	Profile string `json:"profile" yaml:"profile" toml:"profile"`
	Region  string `json:"region" yaml:"region" toml:"region"`
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Dir:           filepath.Join(AppDir(), "browser-session"),
			ValidityHours: 12,
		},
		Fiscal: FiscalConfig{StartMonth: 1},
		Browser: BrowserConfig{
			Headless:       true,
			TimeoutSeconds: 30,
			SettleDelayMs:  3000,
		},
		Report: ReportConfig{
			Dir:                      "reports",
			Types:                    []string{"json", "txt"},
			InterFleetDelaySeconds:   5,
			ZeroSpendReviewThreshold: 2,
		},
		History: HistoryConfig{
			Enabled: true,
			Path:    filepath.Join(AppDir(), "history.db"),
		},
	}
}

// AppDir is the per-user state directory.
func AppDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".fleetburn")
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// SessionValidity is the window during which a validated session is trusted.
func (c *Config) SessionValidity() time.Duration {
	return time.Duration(c.Session.ValidityHours) * time.Hour
}

// RequestTimeout bounds each browser action.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Browser.TimeoutSeconds) * time.Second
}

// SettleDelay is the fixed wait after switching dashboard period views.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Browser.SettleDelayMs) * time.Millisecond
}

// InterFleetDelay is the pause between two fleets of a batch.
func (c *Config) InterFleetDelay() time.Duration {
	return time.Duration(c.Report.InterFleetDelaySeconds) * time.Second
}
