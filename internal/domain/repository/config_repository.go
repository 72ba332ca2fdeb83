package repository

import (
	"github.com/diillson/fleetburn-go/internal/shared/types"
)

// ConfigRepository defines the interface for loading configuration.
type ConfigRepository interface {
	LoadConfigFile(filePath string) (*types.Config, error)
	ApplyEnvironment(cfg *types.Config, envFile string) error
}
