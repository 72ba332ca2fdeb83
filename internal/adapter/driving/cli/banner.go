package cli

import (
	"fmt"

	"github.com/diillson/fleetburn-go/pkg/version"
	"github.com/fatih/color"
)

// displayWelcomeBanner exibe o banner de boas-vindas com informações de versão.
func displayWelcomeBanner() {
	banner := `
         /$$$$$$$$ /$$                       /$$     /$$$$$$$                                
        | $$_____/| $$                      | $$    | $$__  $$                               
        | $$      | $$  /$$$$$$   /$$$$$$  /$$$$$$  | $$  \ $$ /$$   /$$  /$$$$$$  /$$$$$$$  
        | $$$$$   | $$ /$$__  $$ /$$__  $$|_  $$_/  | $$$$$$$ | $$  | $$ /$$__  $$| $$__  $$ 
        | $$__/   | $$| $$$$$$$$| $$$$$$$$  | $$    | $$__  $$| $$  | $$| $$  \__/| $$  \ $$ 
        | $$      | $$| $$_____/| $$_____/  | $$ /$$| $$  \ $$| $$  | $$| $$      | $$  | $$ 
        | $$      | $$|  $$$$$$$|  $$$$$$$  |  $$$$/| $$$$$$$/|  $$$$$$/| $$      | $$  | $$ 
        |__/      |__/ \_______/ \_______/   \___/  |_______/  \______/ |__/      |__/  |__/ 
        `
	red := color.New(color.FgRed, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue, color.Bold).SprintFunc()

	fmt.Println(red(banner))

	// Obtem a string formatada da versão através do pacote version
	formattedVersion := version.FormatVersion()
	fmt.Println(blue(fmt.Sprintf("fleetburn: fleet budget burn-rate report (v%s)", formattedVersion)))
}
