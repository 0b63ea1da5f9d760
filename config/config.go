// Package config loads the dashboard settings from a .env file, an optional
// YAML file and environment variables, in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/ortelius/sbom-finder-dashboard/backend"
	"github.com/ortelius/sbom-finder-dashboard/util"
	"gopkg.in/yaml.v2"
)

// Environment variables read by Load
const (
	EnvAPIURL     = "SBOMFINDER_API_URL"
	EnvPort       = "MS_PORT"
	EnvConfigFile = "SBOMFINDER_CONFIG"
	EnvSessionTTL = "SBOMFINDER_SESSION_TTL"
	EnvSessionMax = "SBOMFINDER_SESSION_MAX"
)

// Config holds the settings shared by the dashboard server and the CLI
type Config struct {
	APIURL     string        `yaml:"apiUrl"`
	Port       string        `yaml:"port"`
	SessionTTL time.Duration `yaml:"sessionTTL"`
	SessionMax int           `yaml:"sessionMax"`
	// ReadyTimeout bounds the startup wait for the backend, 0 waits forever
	ReadyTimeout time.Duration `yaml:"readyTimeout"`
}

// Default returns the built-in settings
func Default() Config {
	return Config{
		APIURL:       backend.DefaultBaseURL,
		Port:         "3000",
		SessionTTL:   30 * time.Minute,
		SessionMax:   1024,
		ReadyTimeout: 2 * time.Minute,
	}
}

// Load builds the configuration. A missing .env is not an error. path may be
// empty, in which case SBOMFINDER_CONFIG is consulted; a YAML path given either
// way must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	// values already in the environment win over .env
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		if !util.FileExists(path) {
			return cfg, fmt.Errorf("config file %s not found", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.APIURL = util.GetEnvDefault(EnvAPIURL, cfg.APIURL)
	cfg.Port = util.GetEnvDefault(EnvPort, cfg.Port)

	if s := os.Getenv(EnvSessionTTL); s != "" {
		ttl, err := time.ParseDuration(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvSessionTTL, err)
		}
		cfg.SessionTTL = ttl
	}
	if s := os.Getenv(EnvSessionMax); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvSessionMax, err)
		}
		cfg.SessionMax = n
	}

	if cfg.SessionMax <= 0 {
		return cfg, fmt.Errorf("session limit must be positive, got %d", cfg.SessionMax)
	}
	return cfg, nil
}
