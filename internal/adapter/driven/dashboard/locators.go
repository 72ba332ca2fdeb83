package dashboard

import (
	"github.com/diillson/fleetburn-go/internal/shared/types"
)

// Field names a value read from the dashboard.
type Field string

const (
	FieldFleetName Field = "fleet_name"
	FieldFleetID   Field = "fleet_id"
	FieldIMRGoal   Field = "imr_goal"
	FieldYTDSpend  Field = "ytd_spend"
)

// Period view labels, matched exactly against the selector options.
const (
	PeriodFullYear   = "Full Year"
	PeriodYearToDate = "Year to Date"
)

// Locator finds a field: the Index-th element matching Selector.
type Locator struct {
	Selector string
	Index    int
}

// Locators is the single mapping between named fields and the dashboard's
// rendering. Budget and spend are positional: the second key metric in the
// Full Year view and the second right-aligned cell in the Year to Date view.
type Locators struct {
	Fields          map[Field]Locator
	PeriodSelector  string
	PeriodOption    string
	DashboardMarker string
	LoginMarker     string
}

// DefaultLocators returns the locators matching the current dashboard markup.
func DefaultLocators() Locators {
	return Locators{
		Fields: map[Field]Locator{
			FieldFleetName: {Selector: ".fleet-name", Index: 0},
			FieldFleetID:   {Selector: ".fleet-id", Index: 0},
			FieldIMRGoal:   {Selector: ".key-metric-value", Index: 1},
			FieldYTDSpend:  {Selector: ".cell-align-right", Index: 1},
		},
		PeriodSelector:  ".period-selector",
		PeriodOption:    "[role='option']",
		DashboardMarker: ".usage-dashboard",
		LoginMarker:     "input[type='password']",
	}
}

// WithOverrides applies non-empty selector settings from the config.
func (l Locators) WithOverrides(cfg types.SelectorsConfig) Locators {
	fields := make(map[Field]Locator, len(l.Fields))
	for k, v := range l.Fields {
		fields[k] = v
	}
	l.Fields = fields

	override := func(f Field, selector string, index *int) {
		loc := l.Fields[f]
		if selector != "" {
			loc.Selector = selector
		}
		if index != nil && *index >= 0 {
			loc.Index = *index
		}
		l.Fields[f] = loc
	}
	override(FieldFleetName, cfg.FleetName, nil)
	override(FieldFleetID, cfg.FleetID, nil)
	override(FieldIMRGoal, cfg.KeyMetric, cfg.KeyMetricIndex)
	override(FieldYTDSpend, cfg.RightCell, cfg.RightCellIndex)

	if cfg.PeriodSelector != "" {
		l.PeriodSelector = cfg.PeriodSelector
	}
	if cfg.PeriodOption != "" {
		l.PeriodOption = cfg.PeriodOption
	}
	if cfg.DashboardMarker != "" {
		l.DashboardMarker = cfg.DashboardMarker
	}
	if cfg.LoginMarker != "" {
		l.LoginMarker = cfg.LoginMarker
	}
	return l
}
