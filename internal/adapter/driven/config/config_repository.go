package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/diillson/fleetburn-go/internal/domain/repository"
	"github.com/diillson/fleetburn-go/internal/shared/types"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnvironment.
const (
	EnvBaseURL              = "FLEETBURN_BASE_URL"
	EnvFleets               = "FLEETBURN_FLEETS"
	EnvSessionDir           = "FLEETBURN_SESSION_DIR"
	EnvSessionValidityHours = "FLEETBURN_SESSION_VALIDITY_HOURS"
	EnvTimeoutSeconds       = "FLEETBURN_TIMEOUT_SECONDS"
	EnvHeadless             = "FLEETBURN_HEADLESS"
	EnvFiscalStartMonth     = "FLEETBURN_FISCAL_START_MONTH"
	EnvReportDir            = "FLEETBURN_REPORT_DIR"
)

// ConfigRepositoryImpl implementa o ConfigRepository.
type ConfigRepositoryImpl struct{}

// NewConfigRepository cria uma nova implementação do ConfigRepository.
func NewConfigRepository() repository.ConfigRepository {
	return &ConfigRepositoryImpl{}
}

// LoadConfigFile carrega um arquivo de configuração TOML, YAML ou JSON.
// Keys absent from the file keep the values of types.DefaultConfig.
func (r *ConfigRepositoryImpl) LoadConfigFile(filePath string) (*types.Config, error) {
	fileExtension := filepath.Ext(filePath)
	fileExtension = strings.ToLower(fileExtension)

	// Verifica se o arquivo existe
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}

	if fileInfo.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", filePath)
	}

	// Lê o arquivo
	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := types.DefaultConfig()

	switch fileExtension {
	case ".toml":
		// go-toml rebuilds whole structs on Unmarshal; going through a map
		// keeps the defaults for keys the file does not set.
		tree, err := toml.LoadBytes(fileData)
		if err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
		asJSON, err := json.Marshal(tree.ToMap())
		if err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
		if err := json.Unmarshal(asJSON, config); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(fileData, config); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(fileData, config); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", fileExtension)
	}

	return config, nil
}

// ApplyEnvironment loads envFile (or ./.env when empty) and overlays the
// FLEETBURN_* variables onto cfg. Variables already set in the process
// environment win over the file. A missing default .env is not an error.
func (r *ConfigRepositoryImpl) ApplyEnvironment(cfg *types.Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("error loading env file %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env: %w", err)
	}

	if v, ok := lookup(EnvBaseURL); ok {
		cfg.Dashboard.BaseURL = v
	}
	if v, ok := lookup(EnvFleets); ok {
		cfg.Fleets = splitList(v)
	}
	if v, ok := lookup(EnvSessionDir); ok {
		cfg.Session.Dir = v
	}
	if v, ok := lookup(EnvReportDir); ok {
		cfg.Report.Dir = v
	}

	var err error
	if cfg.Session.ValidityHours, err = intFromEnv(EnvSessionValidityHours, cfg.Session.ValidityHours); err != nil {
		return err
	}
	if cfg.Browser.TimeoutSeconds, err = intFromEnv(EnvTimeoutSeconds, cfg.Browser.TimeoutSeconds); err != nil {
		return err
	}
	if cfg.Fiscal.StartMonth, err = intFromEnv(EnvFiscalStartMonth, cfg.Fiscal.StartMonth); err != nil {
		return err
	}
	if v, ok := lookup(EnvHeadless); ok {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", EnvHeadless, v, err)
		}
		cfg.Browser.Headless = headless
	}

	return nil
}

func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func intFromEnv(key string, current int) (int, error) {
	v, ok := lookup(key)
	if !ok {
		return current, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return current, fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if s := strings.TrimSpace(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}
