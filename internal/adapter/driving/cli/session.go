package cli

import (
	"time"

	"github.com/diillson/fleetburn-go/internal/adapter/driven/session"
	"github.com/diillson/fleetburn-go/internal/domain/repository"
	"github.com/spf13/cobra"
)

func (app *CLIApp) newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or reset the persisted dashboard login",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the session directory and when the login was last validated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, validity, err := app.sessionRepo(cmd)
			if err != nil {
				return err
			}
			state, err := repo.State()
			if err != nil {
				return err
			}

			app.console.LogInfo("Session directory: %s", state.Dir)
			if state.LastValidatedAt == nil {
				app.console.LogWarning("Login never validated; the next headed run will ask for it")
				return nil
			}
			app.console.LogInfo("Last validated: %s", state.LastValidatedAt.Local().Format(time.RFC1123))
			if age := time.Since(*state.LastValidatedAt); age >= 0 && age < validity {
				app.console.LogSuccess("Session is still trusted")
			} else {
				app.console.LogWarning("Session is stale; the next run re-checks the login")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Forget the last validation so the next run re-checks the login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, _, err := app.sessionRepo(cmd)
			if err != nil {
				return err
			}
			if err := repo.Invalidate(); err != nil {
				return err
			}
			app.console.LogSuccess("Session invalidated")
			return nil
		},
	})

	return cmd
}

func (app *CLIApp) sessionRepo(cmd *cobra.Command) (repository.SessionRepository, time.Duration, error) {
	cliArgs, err := app.parseArgs(cmd)
	if err != nil {
		return nil, 0, err
	}
	cfg, err := app.loadConfig(cliArgs)
	if err != nil {
		return nil, 0, err
	}
	validity := cfg.SessionValidity()
	return session.NewSessionRepository(cfg.Session.Dir, validity), validity, nil
}
