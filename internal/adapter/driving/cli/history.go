package cli

import (
	"fmt"

	"github.com/diillson/fleetburn-go/internal/adapter/driven/history"
	"github.com/diillson/fleetburn-go/internal/domain/entity"
	"github.com/diillson/fleetburn-go/internal/shared/types"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

const defaultHistoryLimit = 12

func (app *CLIApp) newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history <fleetId>",
		Short: "Show the recorded month-over-month figures of one fleet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")

			cliArgs, err := app.parseArgs(cmd)
			if err != nil {
				return err
			}
			cfg, err := app.loadConfig(cliArgs)
			if err != nil {
				return err
			}

			h, err := history.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer h.Close()

			records, err := h.FleetHistory(args[0], limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				app.console.LogWarning("No recorded runs for fleet %s", args[0])
				return nil
			}

			app.console.Println(renderHistory(app.console, records))
			return nil
		},
	}
	cmd.Flags().Int("limit", defaultHistoryLimit, "Number of most recent runs to show")
	return cmd
}

func renderHistory(console types.ConsoleInterface, records []entity.ForecastRecord) string {
	table := console.CreateTable()
	table.AddColumn("Month")
	table.AddColumn("Fleet")
	table.AddColumn("IMR Goal")
	table.AddColumn("YTD Spend")
	table.AddColumn("Projected EOY")
	table.AddColumn("Variance")
	table.AddColumn("Status")

	for _, r := range records {
		status := pterm.FgGreen.Sprint("On track")
		if r.IsOverBudget {
			status = pterm.FgRed.Sprint("Over budget")
		}
		table.AddRow(
			r.ReportingMonth,
			r.FleetName,
			fmt.Sprintf("$%.2f", r.IMRGoal),
			fmt.Sprintf("$%.2f", r.YTDSpend),
			fmt.Sprintf("$%.2f", r.ProjectedEOY),
			fmt.Sprintf("%+.2f (%.1f%%)", r.Variance, r.VariancePercent),
			status,
		)
	}
	return table.Render()
}
