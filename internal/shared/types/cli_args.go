package types

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile string
	EnvFile    string
	Fleets     []string
	BaseURL    string
	Dir        string
	ReportType []string
	SessionDir string
	Headed     bool
	NoHistory  bool
	NoBanner   bool
}
