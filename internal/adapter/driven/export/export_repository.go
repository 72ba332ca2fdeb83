package export

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/diillson/fleetburn-go/internal/domain/entity"
	"github.com/diillson/fleetburn-go/internal/domain/repository"
	"github.com/jung-kurt/gofpdf"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

// --- Arquivos por frota ---

// WriteFleetRecord writes fleet_{id}.json for a successful fleet.
func (r *ExportRepositoryImpl) WriteFleetRecord(record entity.ForecastRecord, outputDir string) (string, error) {
	return writeJSON(outputDir, fleetFilename(record.FleetID), record)
}

// WriteFleetFailure writes fleet_{id}.json for a failed fleet.
func (r *ExportRepositoryImpl) WriteFleetFailure(failure entity.ExtractionError, outputDir string) (string, error) {
	payload := struct {
		FleetID string                 `json:"fleetId"`
		Failed  bool                   `json:"failed"`
		Error   entity.ExtractionError `json:"error"`
	}{failure.FleetID, true, failure}
	return writeJSON(outputDir, fleetFilename(failure.FleetID), payload)
}

// --- Relatórios agregados ---

func (r *ExportRepositoryImpl) WriteSummaryJSON(summary entity.BatchSummary, outputDir string) (string, error) {
	return writeJSON(outputDir, "summary.json", summary)
}

func (r *ExportRepositoryImpl) WriteSummaryText(summary entity.BatchSummary, report entity.BatchReport, outputDir string) (string, error) {
	return writeAtomic(outputDir, "summary.txt", func(w io.Writer) error {
		fmt.Fprintf(w, "Fleet budget report %s\n", summary.ReportDate)
		fmt.Fprintf(w, "Reporting month %s, fiscal year %d, %d months elapsed\n",
			summary.ReportingMonth, summary.FiscalYear, summary.MonthsElapsed)
		fmt.Fprintf(w, "Run %s\n\n", summary.RunID)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FLEET\tNAME\tIMR GOAL\tYTD SPEND\tBURN/MONTH\tPROJECTED EOY\tVARIANCE\tSTATUS")
		for _, res := range report.Results {
			if !res.Succeeded() {
				fmt.Fprintf(tw, "%s\t\t\t\t\t\t\tFAILED (%s)\n", res.FleetID, failureReason(res))
				continue
			}
			rec := res.Record
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s (%.1f%%)\t%s\n",
				rec.FleetID, rec.FleetName,
				money(rec.IMRGoal), money(rec.YTDSpend), money(rec.MonthlyBurnRate),
				money(rec.ProjectedEOY), money(rec.Variance), rec.VariancePercent,
				statusText(rec.IsOverBudget))
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		t := summary.Totals
		fmt.Fprintf(w, "\n%d of %d fleets succeeded\n", summary.Succeeded, summary.TotalFleets)
		fmt.Fprintf(w, "Total IMR goal %s, YTD spend %s, projected EOY %s, variance %s (%.1f%%), %s\n",
			money(t.IMRGoal), money(t.YTDSpend), money(t.ProjectedEOY), money(t.Variance),
			t.VariancePercent, statusText(t.IsOverBudget))

		for _, g := range summary.Groups {
			fmt.Fprintf(w, "Group %s: IMR goal %s, projected EOY %s, %s",
				g.Name, money(g.Totals.IMRGoal), money(g.Totals.ProjectedEOY), statusText(g.Totals.IsOverBudget))
			if len(g.Missing) > 0 {
				fmt.Fprintf(w, " (missing %s)", strings.Join(g.Missing, ", "))
			}
			fmt.Fprintln(w)
		}

		if len(summary.Failures) > 0 {
			fmt.Fprintln(w, "\nFailures:")
			for _, f := range summary.Failures {
				fmt.Fprintf(w, "  %s: %s error in %s: %s\n", f.FleetID, f.Kind, f.Phase, cleanRichTags(f.Reason))
			}
		}
		if summary.NeedsReview {
			fmt.Fprintf(w, "\nREVIEW: %d fleets report zero spend: %s\n",
				len(summary.ZeroSpendFleets), strings.Join(summary.ZeroSpendFleets, ", "))
		}
		if summary.Interrupted {
			fmt.Fprintln(w, "\nRun was interrupted before every fleet was processed.")
		}
		return nil
	})
}

func (r *ExportRepositoryImpl) ExportToCSV(report entity.BatchReport, outputDir string) (string, error) {
	return writeAtomic(outputDir, "report.csv", func(w io.Writer) error {
		writer := csv.NewWriter(w)

		headers := []string{
			"Fleet ID", "Fleet Name", "Fiscal Year", "Reporting Month", "Months Elapsed",
			"IMR Goal", "YTD Spend", "Monthly Burn Rate", "Projected EOY",
			"Variance", "Variance %", "Percent Complete", "Over Budget", "Error",
		}
		if err := writer.Write(headers); err != nil {
			return err
		}

		for _, res := range report.Results {
			var row []string
			if res.Succeeded() {
				rec := res.Record
				row = []string{
					rec.FleetID, rec.FleetName,
					strconv.Itoa(rec.FiscalYear), rec.ReportingMonth, strconv.Itoa(rec.MonthsElapsed),
					amount(rec.IMRGoal), amount(rec.YTDSpend), amount(rec.MonthlyBurnRate),
					amount(rec.ProjectedEOY), amount(rec.Variance),
					amount(rec.VariancePercent), amount(rec.PercentComplete),
					strconv.FormatBool(rec.IsOverBudget), "",
				}
			} else {
				row = []string{
					res.FleetID, "",
					strconv.Itoa(report.FiscalYear), report.ReportingMonth, strconv.Itoa(report.MonthsElapsed),
					"", "", "", "", "", "", "", "",
					failureReason(res),
				}
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}

		writer.Flush()
		return writer.Error()
	})
}

func (r *ExportRepositoryImpl) ExportToPDF(summary entity.BatchSummary, report entity.BatchReport, outputDir string) (string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Generated by fleetburn | run %s | %s", summary.RunID, summary.ReportDate)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr(fmt.Sprintf("  Fleet Budget Report  %s", summary.ReportingMonth)), "", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Fiscal year %d, %d months elapsed, %d of %d fleets succeeded",
		summary.FiscalYear, summary.MonthsElapsed, summary.Succeeded, summary.TotalFleets)), "", 1, "L", true, 0, "")
	pdf.Ln(6)

	widths := []float64{30, 55, 28, 28, 28, 30, 30, 18, 30}
	headers := []string{"Fleet", "Name", "IMR Goal", "YTD Spend", "Burn / Month", "Projected EOY", "Variance", "Var %", "Status"}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, res := range report.Results {
		if !res.Succeeded() {
			pdf.SetTextColor(192, 0, 0)
			pdf.CellFormat(widths[0], 6, tr(truncate(res.FleetID, 18)), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, tr(truncate("FAILED: "+failureReason(res), 150)), "", 1, "L", false, 0, "")
			pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
			continue
		}
		rec := res.Record
		cells := []string{
			truncate(rec.FleetID, 18), truncate(rec.FleetName, 32),
			money(rec.IMRGoal), money(rec.YTDSpend), money(rec.MonthlyBurnRate),
			money(rec.ProjectedEOY), money(rec.Variance), fmt.Sprintf("%.1f%%", rec.VariancePercent),
			statusText(rec.IsOverBudget),
		}
		for i, c := range cells {
			if i == len(cells)-1 && rec.IsOverBudget {
				pdf.SetTextColor(192, 0, 0)
			}
			pdf.CellFormat(widths[i], 6, tr(c), "", 0, "L", false, 0, "")
		}
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.Ln(-1)
	}

	t := summary.Totals
	pdf.SetFont("Arial", "B", 9)
	totals := []string{
		"TOTAL", fmt.Sprintf("%d fleets", t.FleetCount),
		money(t.IMRGoal), money(t.YTDSpend), money(t.MonthlyBurnRate),
		money(t.ProjectedEOY), money(t.Variance), fmt.Sprintf("%.1f%%", t.VariancePercent),
		statusText(t.IsOverBudget),
	}
	for i, c := range totals {
		pdf.CellFormat(widths[i], 7, tr(c), "T", 0, "L", false, 0, "")
	}
	pdf.Ln(10)

	if len(summary.Groups) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(0, 8, "Groups")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 10)
		for _, g := range summary.Groups {
			line := fmt.Sprintf("%s: IMR goal %s, projected EOY %s, %s",
				g.Name, money(g.Totals.IMRGoal), money(g.Totals.ProjectedEOY), statusText(g.Totals.IsOverBudget))
			if len(g.Missing) > 0 {
				line += fmt.Sprintf(" (missing %s)", strings.Join(g.Missing, ", "))
			}
			pdf.MultiCell(0, 5, tr(line), "", "L", false)
		}
	}

	return writeAtomic(outputDir, "report.pdf", pdf.Output)
}

// --- Funções Auxiliares ---

// writeAtomic writes name inside dir through a temp file and a rename, so a
// reader never sees a partial file. It returns the absolute path.
func writeAtomic(dir, name string, write func(io.Writer) error) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("error creating %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("error writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("error writing %s: %w", name, err)
	}

	target := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("error moving %s into place: %w", name, err)
	}
	return filepath.Abs(target)
}

func writeJSON(dir, name string, v interface{}) (string, error) {
	return writeAtomic(dir, name, func(w io.Writer) error {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	})
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// fleetFilename maps a fleet id to its file name. Ids that had to be
// sanitized get a short hash of the original so "a/b" and "a:b" stay apart.
func fleetFilename(fleetID string) string {
	safe := unsafeFilename.ReplaceAllString(fleetID, "_")
	if safe != fleetID {
		sum := sha256.Sum256([]byte(fleetID))
		safe += "_" + hex.EncodeToString(sum[:4])
	}
	return "fleet_" + safe + ".json"
}

// Regex para limpar formatação pterm (rich tags) e sequências ANSI de cor/estilo.
var richTagRegex = regexp.MustCompile(`\[/?([a-zA-Z]+|#[0-9a-fA-F]{6})\]`)
var ansiRegex = regexp.MustCompile(`\x1B\[[0-9;]*[A-Za-z]`)

// cleanRichTags remove tags de formatação do pterm e sequências ANSI.
func cleanRichTags(text string) string {
	text = richTagRegex.ReplaceAllString(text, "")
	text = ansiRegex.ReplaceAllString(text, "")
	return text
}

func failureReason(res entity.FleetResult) string {
	if res.Error == nil {
		return "unknown failure"
	}
	return cleanRichTags(fmt.Sprintf("%s error in %s: %s", res.Error.Kind, res.Error.Phase, res.Error.Message))
}

func statusText(over bool) string {
	if over {
		return "Over budget"
	}
	return "On track"
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// truncate shortens s to n runes, ending in "..." when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
