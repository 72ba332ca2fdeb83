package entity

import "time"

// FleetResult is one entry of a batch: either a record or a failure.
type FleetResult struct {
	FleetID string           `json:"fleetId"`
	Record  *ForecastRecord  `json:"record,omitempty"`
	Error   *ExtractionError `json:"error,omitempty"`
}

// Succeeded reports whether the fleet produced a record.
func (r FleetResult) Succeeded() bool {
	return r.Record != nil && r.Error == nil
}

// BatchReport is the outcome of one report run, in the order fleets were given.
type BatchReport struct {
	RunID          string        `json:"runId"`
	ReportDate     time.Time     `json:"reportDate"`
	FiscalYear     int           `json:"fiscalYear"`
	ReportingMonth string        `json:"reportingMonth"`
	MonthsElapsed  int           `json:"monthsElapsed"`
	Results        []FleetResult `json:"fleetResults"`
	Interrupted    bool          `json:"interrupted,omitempty"`
}

// Records returns the successful records in batch order.
func (b BatchReport) Records() []ForecastRecord {
	records := make([]ForecastRecord, 0, len(b.Results))
	for _, r := range b.Results {
		if r.Succeeded() {
			records = append(records, *r.Record)
		}
	}
	return records
}

// Failures returns the failed entries in batch order.
func (b BatchReport) Failures() []FleetResult {
	var failed []FleetResult
	for _, r := range b.Results {
		if !r.Succeeded() {
			failed = append(failed, r)
		}
	}
	return failed
}

// FailureEntry is a failed fleet as it appears in the summary.
type FailureEntry struct {
	FleetID string    `json:"fleetId"`
	Phase   Phase     `json:"phase"`
	Kind    ErrorKind `json:"kind"`
	Reason  string    `json:"reason"`
}

// GroupRollup aggregates a parent fleet together with its children.
type GroupRollup struct {
	Name    string   `json:"name"`
	Fleets  []string `json:"fleets"`
	Missing []string `json:"missing,omitempty"`
	Totals  Totals   `json:"totals"`
}

// BatchSummary is the aggregate view of a batch report.
type BatchSummary struct {
	RunID           string         `json:"runId"`
	ReportDate      string         `json:"reportDate"`
	FiscalYear      int            `json:"fiscalYear"`
	ReportingMonth  string         `json:"reportingMonth"`
	MonthsElapsed   int            `json:"monthsElapsed"`
	TotalFleets     int            `json:"totalFleets"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	Totals          Totals         `json:"totals"`
	Groups          []GroupRollup  `json:"groups,omitempty"`
	Failures        []FailureEntry `json:"failures,omitempty"`
	ZeroSpendFleets []string       `json:"zeroSpendFleets,omitempty"`
	NeedsReview     bool           `json:"needsReview"`
	Interrupted     bool           `json:"interrupted,omitempty"`
}
