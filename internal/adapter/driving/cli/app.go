package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/diillson/fleetburn-go/pkg/version"

	"github.com/diillson/fleetburn-go/internal/domain/forecast"
	"github.com/diillson/fleetburn-go/internal/domain/repository"
	"github.com/diillson/fleetburn-go/internal/shared/types"
	"github.com/spf13/cobra"
)

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd    *cobra.Command
	version    string
	console    types.ConsoleInterface
	configRepo repository.ConfigRepository
	exportRepo repository.ExportRepository
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(versionStr string) *CLIApp {
	app := &CLIApp{
		version: versionStr,
	}

	// Obtem a versão formatada
	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:           "fleetburn",
		Short:         "Fleet budget burn-rate report from the usage dashboard",
		Long:          "Extracts IMR goal and year-to-date spend for each fleet from the usage dashboard and projects end-of-year spend.",
		Version:       formattedVersion,
		RunE:          app.runCommand,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Personaliza a template para incluir mais informações de versão
	rootCmd.SetVersionTemplate(`{{printf "fleetburn version: %s\n" .Version}}`)

	// Adiciona flags de linha de comando
	rootCmd.PersistentFlags().StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	rootCmd.PersistentFlags().StringP("env-file", "e", "", "Path to a .env file (default: ./.env when present)")
	rootCmd.PersistentFlags().StringSliceP("fleets", "f", nil, "Fleet ids to report on, in order (comma-separated)")
	rootCmd.PersistentFlags().StringP("base-url", "u", "", "Base URL of the usage dashboard")
	rootCmd.PersistentFlags().StringP("dir", "d", "", "Directory to save the report files (default: ./reports)")
	rootCmd.PersistentFlags().StringSliceP("report-type", "y", nil, "Report types: json, txt, csv, pdf (summary.json is always written)")
	rootCmd.PersistentFlags().String("session-dir", "", "Browser profile directory holding the dashboard login")
	rootCmd.PersistentFlags().Bool("headed", false, "Show the browser window (needed for manual login)")
	rootCmd.PersistentFlags().Bool("no-history", false, "Do not record this run in the history database")
	rootCmd.PersistentFlags().Bool("no-banner", false, "Do not print the welcome banner")

	app.rootCmd = rootCmd
	rootCmd.AddCommand(
		app.newSessionCmd(),
		app.newHistoryCmd(),
		app.newScheduleCmd(),
	)
	return app
}

// SetDependencies injects the adapters shared by every command.
func (app *CLIApp) SetDependencies(console types.ConsoleInterface, configRepo repository.ConfigRepository, exportRepo repository.ExportRepository) {
	app.console = console
	app.configRepo = configRepo
	app.exportRepo = exportRepo
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.rootCmd.ExecuteContext(ctx)
}

// parseArgs parses command-line arguments into a CLIArgs struct.
func (app *CLIApp) parseArgs(cmd *cobra.Command) (*types.CLIArgs, error) {
	flags := cmd.Flags()
	configFile, _ := flags.GetString("config-file")
	envFile, _ := flags.GetString("env-file")
	fleets, _ := flags.GetStringSlice("fleets")
	baseURL, _ := flags.GetString("base-url")
	reportType, _ := flags.GetStringSlice("report-type")
	dir, _ := flags.GetString("dir")
	sessionDir, _ := flags.GetString("session-dir")
	headed, _ := flags.GetBool("headed")
	noHistory, _ := flags.GetBool("no-history")
	noBanner, _ := flags.GetBool("no-banner")

	if dir != "" {
		// Convert to absolute path
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		dir = absDir
	}

	args := &types.CLIArgs{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Fleets:     fleets,
		BaseURL:    baseURL,
		Dir:        dir,
		ReportType: reportType,
		SessionDir: sessionDir,
		Headed:     headed,
		NoHistory:  noHistory,
		NoBanner:   noBanner,
	}

	return args, nil
}

// loadConfig layers defaults, the config file, the environment and the flags,
// later layers winning.
func (app *CLIApp) loadConfig(cliArgs *types.CLIArgs) (*types.Config, error) {
	cfg := types.DefaultConfig()

	// Lida com o arquivo de configuração, se especificado
	if cliArgs.ConfigFile != "" {
		loaded, err := app.configRepo.LoadConfigFile(cliArgs.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := app.configRepo.ApplyEnvironment(cfg, cliArgs.EnvFile); err != nil {
		return nil, err
	}

	applyArgs(cfg, cliArgs)

	cfg.Session.Dir = types.ExpandPath(cfg.Session.Dir)
	cfg.History.Path = types.ExpandPath(cfg.History.Path)
	cfg.Report.Dir = types.ExpandPath(cfg.Report.Dir)

	if _, err := forecast.NewCalendar(cfg.Fiscal.StartMonth); err != nil {
		return nil, err
	}
	// 0 means check the login on every run.
	if cfg.Session.ValidityHours < 0 {
		return nil, fmt.Errorf("session validity_hours must be 0 or more, got %d", cfg.Session.ValidityHours)
	}
	return cfg, nil
}

func applyArgs(cfg *types.Config, cliArgs *types.CLIArgs) {
	if len(cliArgs.Fleets) > 0 {
		cfg.Fleets = cliArgs.Fleets
	}
	if cliArgs.BaseURL != "" {
		cfg.Dashboard.BaseURL = cliArgs.BaseURL
	}
	if cliArgs.Dir != "" {
		cfg.Report.Dir = cliArgs.Dir
	}
	if len(cliArgs.ReportType) > 0 {
		cfg.Report.Types = cliArgs.ReportType
	}
	if cliArgs.SessionDir != "" {
		cfg.Session.Dir = cliArgs.SessionDir
	}
	if cliArgs.Headed {
		cfg.Browser.Headless = false
	}
	if cliArgs.NoHistory {
		cfg.History.Enabled = false
	}
}

// runCommand é o ponto de entrada principal para o comando CLI.
func (app *CLIApp) runCommand(cmd *cobra.Command, args []string) error {
	// Analisa os argumentos da linha de comando
	cliArgs, err := app.parseArgs(cmd)
	if err != nil {
		return err
	}

	if !cliArgs.NoBanner {
		// Exibe o banner de boas-vindas
		displayWelcomeBanner()

		// Verifica a versão mais recente disponível
		go version.CheckLatestVersion(app.version)
	}

	cfg, err := app.loadConfig(cliArgs)
	if err != nil {
		return err
	}

	return app.runReport(cmd.Context(), cfg)
}
