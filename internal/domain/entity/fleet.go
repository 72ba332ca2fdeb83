package entity

import "time"

// RawExtraction holds the unprocessed text read from the dashboard for one fleet.
type RawExtraction struct {
	FleetID      string    `json:"fleetId"`
	FleetName    string    `json:"fleetName"`
	IMRGoalText  string    `json:"imrGoalText"`
	YTDSpendText string    `json:"ytdSpendText"`
	ExtractedAt  time.Time `json:"extractedAt"`
}

// ForecastRecord is the per-fleet result of a report run. Amounts are whole
// currency units; percentages are plain numbers (93.6 means 93.6%).
type ForecastRecord struct {
	FleetID         string    `json:"fleetId"`
	FleetName       string    `json:"fleetName"`
	FiscalYear      int       `json:"fiscalYear"`
	ReportingMonth  string    `json:"reportingMonth"`
	IMRGoal         float64   `json:"imrGoal"`
	YTDSpend        float64   `json:"ytdSpend"`
	MonthsElapsed   int       `json:"monthsElapsed"`
	MonthlyBurnRate float64   `json:"monthlyBurnRate"`
	ProjectedEOY    float64   `json:"projectedEOY"`
	Variance        float64   `json:"variance"`
	VariancePercent float64   `json:"variancePercent"`
	PercentComplete float64   `json:"percentComplete"`
	IsOverBudget    bool      `json:"isOverBudget"`
	ExtractedAt     time.Time `json:"extractedAt"`
}

// Totals is a roll-up of several fleets, recomputed from summed budget and spend.
type Totals struct {
	FleetCount      int     `json:"fleetCount"`
	IMRGoal         float64 `json:"imrGoal"`
	YTDSpend        float64 `json:"ytdSpend"`
	MonthsElapsed   int     `json:"monthsElapsed"`
	MonthlyBurnRate float64 `json:"monthlyBurnRate"`
	ProjectedEOY    float64 `json:"projectedEOY"`
	Variance        float64 `json:"variance"`
	VariancePercent float64 `json:"variancePercent"`
	PercentComplete float64 `json:"percentComplete"`
	IsOverBudget    bool    `json:"isOverBudget"`
}
