package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/diillson/fleetburn-go/internal/domain/entity"
)

func sampleReport() (entity.BatchSummary, entity.BatchReport) {
	rec := entity.ForecastRecord{
		FleetID:         "fleet-1",
		FleetName:       "Platform",
		FiscalYear:      2025,
		ReportingMonth:  "2025-12",
		IMRGoal:         2360000,
		YTDSpend:        150900,
		MonthsElapsed:   12,
		MonthlyBurnRate: 12575,
		ProjectedEOY:    150900,
		Variance:        -2209100,
		VariancePercent: -93.6,
		PercentComplete: 6.4,
		ExtractedAt:     time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC),
	}
	failed := entity.ProtocolError("fleet/2", entity.PhaseSelectFullYearView, "period option %q not found", "Full Year")

	report := entity.BatchReport{
		RunID:          "run-1",
		ReportDate:     time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC),
		FiscalYear:     2025,
		ReportingMonth: "2025-12",
		MonthsElapsed:  12,
		Results: []entity.FleetResult{
			{FleetID: rec.FleetID, Record: &rec},
			{FleetID: failed.FleetID, Error: failed},
		},
	}
	summary := entity.BatchSummary{
		RunID:          "run-1",
		ReportDate:     "2026-01-06",
		FiscalYear:     2025,
		ReportingMonth: "2025-12",
		MonthsElapsed:  12,
		TotalFleets:    2,
		Succeeded:      1,
		Failed:         1,
		Totals:         entity.Totals{FleetCount: 1, IMRGoal: 2360000, YTDSpend: 150900, ProjectedEOY: 150900, Variance: -2209100},
		Failures: []entity.FailureEntry{
			{FleetID: failed.FleetID, Phase: failed.Phase, Kind: failed.Kind, Reason: failed.Message},
		},
	}
	return summary, report
}

func TestWriteFleetRecord_AtomicJSON(t *testing.T) {
	dir := t.TempDir()
	_, report := sampleReport()
	repo := NewExportRepository()

	path, err := repo.WriteFleetRecord(*report.Results[0].Record, dir)
	if err != nil {
		t.Fatalf("WriteFleetRecord() error = %v", err)
	}
	if filepath.Base(path) != "fleet_fleet-1.json" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"fleetId", "imrGoal", "ytdSpend", "projectedEOY", "variancePercent", "isOverBudget"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if got["projectedEOY"].(float64) != 150900 {
		t.Errorf("projectedEOY = %v", got["projectedEOY"])
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestWriteFleetFailure_SanitizesName(t *testing.T) {
	dir := t.TempDir()
	_, report := sampleReport()

	path, err := NewExportRepository().WriteFleetFailure(*report.Results[1].Error, dir)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != fleetFilename("fleet/2") || !strings.HasPrefix(filepath.Base(path), "fleet_fleet_2_") {
		t.Errorf("path = %s, want fleet_fleet_2_<hash>.json", path)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"phase": "SelectFullYearView"`) || !strings.Contains(string(data), `"failed": true`) {
		t.Errorf("failure file = %s", data)
	}
}

func TestFleetFilename(t *testing.T) {
	if got := fleetFilename("fleet-1"); got != "fleet_fleet-1.json" {
		t.Errorf("safe id renamed: %s", got)
	}

	ids := []string{"a/b", "a:b", "a b", "a_b"}
	seen := map[string]string{}
	for _, id := range ids {
		name := fleetFilename(id)
		if prev, ok := seen[name]; ok {
			t.Errorf("%q and %q both map to %s", prev, id, name)
		}
		seen[name] = id
		if unsafeFilename.MatchString(strings.TrimSuffix(name, ".json")) {
			t.Errorf("%s still has unsafe characters", name)
		}
	}
}

func TestWriteFleetRecord_DistinctSanitizedIDs(t *testing.T) {
	dir := t.TempDir()
	repo := NewExportRepository()

	first, err := repo.WriteFleetRecord(entity.ForecastRecord{FleetID: "a/b", YTDSpend: 1}, dir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := repo.WriteFleetRecord(entity.ForecastRecord{FleetID: "a:b", YTDSpend: 2}, dir)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatalf("both fleets written to %s", first)
	}
	data, _ := os.ReadFile(first)
	if !strings.Contains(string(data), `"fleetId": "a/b"`) {
		t.Errorf("first file overwritten: %s", data)
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"Platform", 18, "Platform"},
		{"Frota São João Operações", 10, "Frota S..."},
		{"日本語のフリート名前です", 8, "日本語のフ..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.n)
		}
	}
}

func TestWriteSummaryText(t *testing.T) {
	dir := t.TempDir()
	summary, report := sampleReport()

	path, err := NewExportRepository().WriteSummaryText(summary, report, dir)
	if err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	text := string(data)

	for _, want := range []string{"1 of 2 fleets succeeded", "Platform", "-$2209100.00", "FAILED", "SelectFullYearView"} {
		if !strings.Contains(text, want) {
			t.Errorf("summary.txt missing %q:\n%s", want, text)
		}
	}
}

func TestExportToCSV(t *testing.T) {
	dir := t.TempDir()
	_, report := sampleReport()

	path, err := NewExportRepository().ExportToCSV(report, dir)
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[1][5] != "2360000.00" || rows[1][8] != "150900.00" {
		t.Errorf("record row = %v", rows[1])
	}
	if rows[2][13] == "" {
		t.Errorf("failure row has no error: %v", rows[2])
	}
}

func TestExportToPDF(t *testing.T) {
	dir := t.TempDir()
	summary, report := sampleReport()
	summary.Groups = []entity.GroupRollup{{Name: "platform", Fleets: []string{"fleet-1", "fleet/2"}, Missing: []string{"fleet/2"}}}

	path, err := NewExportRepository().ExportToPDF(summary, report, dir)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("report.pdf does not look like a PDF")
	}
}

func TestCleanRichTags(t *testing.T) {
	in := "\x1b[31m[red]boom[/red]\x1b[0m"
	if got := cleanRichTags(in); got != "boom" {
		t.Errorf("cleanRichTags() = %q", got)
	}
}
