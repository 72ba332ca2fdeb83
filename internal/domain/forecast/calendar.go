// Package forecast holds the fiscal calendar and burn-rate arithmetic used to
// project end-of-year spend. Nothing here reads the wall clock; callers pass
// "now" explicitly.
package forecast

import (
	"fmt"
	"time"
)

// FiscalMonths is the number of months in a fiscal year.
const FiscalMonths = 12

// Calendar describes the organisation's fiscal year. A fiscal year is named
// after the calendar year in which it starts, so with StartMonth=January the
// fiscal year equals the calendar year.
type Calendar struct {
	StartMonth time.Month
}

// NewCalendar validates the start month (1..12).
func NewCalendar(startMonth int) (Calendar, error) {
	if startMonth < 1 || startMonth > 12 {
		return Calendar{}, fmt.Errorf("fiscal start month must be between 1 and 12, got %d", startMonth)
	}
	return Calendar{StartMonth: time.Month(startMonth)}, nil
}

// DefaultCalendar is the calendar-year fiscal convention.
func DefaultCalendar() Calendar {
	return Calendar{StartMonth: time.January}
}

func (c Calendar) startMonth() time.Month {
	if c.StartMonth < time.January || c.StartMonth > time.December {
		return time.January
	}
	return c.StartMonth
}

// FiscalYearOf returns the fiscal year that contains now.
func (c Calendar) FiscalYearOf(now time.Time) int {
	if now.Month() < c.startMonth() {
		return now.Year() - 1
	}
	return now.Year()
}

// YearBounds returns the first instant of the fiscal year and the first
// instant of the next one, in loc.
func (c Calendar) YearBounds(fiscalYear int, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(fiscalYear, c.startMonth(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(1, 0, 0)
}

// DaysInFiscalYear is 365 or 366 depending on whether the span crosses a
// 29 February.
func (c Calendar) DaysInFiscalYear(fiscalYear int) int {
	start, end := c.YearBounds(fiscalYear, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// DaysElapsed counts whole days from the start of now's fiscal year.
func (c Calendar) DaysElapsed(now time.Time) int {
	start, _ := c.YearBounds(c.FiscalYearOf(now), now.Location())
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(day.Sub(start).Hours()/24 + 0.5)
}

// ReportingMonth is the first day of the calendar month being reported on:
// the month before now.
func (c Calendar) ReportingMonth(now time.Time) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, -1, 0)
}

// ReportingMonthElapsed is the number of fiscal months closed as of the
// reporting month, always in [1,12]. A run in the first month of a fiscal
// year reports on the last month of the previous one, so it returns 12.
func (c Calendar) ReportingMonthElapsed(now time.Time) int {
	reporting := c.ReportingMonth(now).Month()
	return (int(reporting)-int(c.startMonth())+FiscalMonths)%FiscalMonths + 1
}

// Period bundles what one report run needs from the calendar.
type Period struct {
	FiscalYear     int
	MonthsElapsed  int
	ReportingMonth time.Time
}

// BillingPeriod formats the reporting month the way the dashboard URL expects.
func (p Period) BillingPeriod() string {
	return p.ReportingMonth.Format("2006-01-02")
}

// Label is the reporting month as YYYY-MM.
func (p Period) Label() string {
	return p.ReportingMonth.Format("2006-01")
}

// PeriodAt resolves the reporting period for a run happening at now. The
// fiscal year is the one containing the reporting month, not now.
func (c Calendar) PeriodAt(now time.Time) Period {
	reporting := c.ReportingMonth(now)
	return Period{
		FiscalYear:     c.FiscalYearOf(reporting),
		MonthsElapsed:  c.ReportingMonthElapsed(now),
		ReportingMonth: reporting,
	}
}
