package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/diillson/fleetburn-go/internal/adapter/driven/config"
	"github.com/diillson/fleetburn-go/internal/adapter/driven/export"
	"github.com/diillson/fleetburn-go/internal/adapter/driving/cli"
	"github.com/diillson/fleetburn-go/internal/shared/types"
	"github.com/diillson/fleetburn-go/pkg/console"
	"github.com/diillson/fleetburn-go/pkg/version"
)

// Exit codes: 0 when every fleet succeeded, 2 when at least one fleet
// failed, 1 for anything that stopped the run.
const (
	exitError         = 1
	exitFleetFailures = 2
)

func main() {
	// Inicializa o aplicativo CLI
	app := cli.NewCLIApp(version.Version)

	// Inicializa os repositórios
	app.SetDependencies(
		console.NewConsole(),
		config.NewConfigRepository(),
		export.NewExportRepository(),
	)

	// Executa o aplicativo
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, types.ErrFleetFailures) {
			os.Exit(exitFleetFailures)
		}
		os.Exit(exitError)
	}
}
