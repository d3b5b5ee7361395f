// Package config handles TOML configuration loading with environment
// variable substitution, plus the settings provider the orchestrator
// reads on each dispatch.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig    `toml:"server"`
	Database DatabaseConfig  `toml:"database"`
	Scripts  GlobalSettings  `toml:"scripts"`
	Settings []ScriptSetting `toml:"setting"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// GlobalSettings holds the process-wide script execution knobs.
type GlobalSettings struct {
	MaxConcurrent  int           `toml:"max_concurrent"`
	DefaultTimeout time.Duration `toml:"default_timeout"`
	Root           string        `toml:"root"`
	Verbose        bool          `toml:"verbose"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content := substituteEnvVars(string(data))

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8686
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/scriptarr.db"
	}
	if c.Scripts.MaxConcurrent == 0 {
		c.Scripts.MaxConcurrent = 4
	}
	if c.Scripts.DefaultTimeout == 0 {
		c.Scripts.DefaultTimeout = 2 * time.Minute
	}
	if c.Scripts.Root == "" {
		c.Scripts.Root = "./scripts"
	}
	for i := range c.Settings {
		s := &c.Settings[i]
		if s.Executor == "" {
			s.Executor = "python"
		}
		if s.Mode == "" {
			// JSON payload is the natural mode when no attributes are mapped.
			if len(s.Attributes) == 0 {
				s.Mode = ModeJSONPayload
			} else {
				s.Mode = ModeCompatibility
			}
		}
	}
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) string {
	return envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		return match // Leave unchanged if not found
	})
}

// UnresolvedEnvVars returns the ${VAR} references in the raw file that
// have no value in the environment.
func UnresolvedEnvVars(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var missing []string
	for _, m := range envVarPattern.FindAllStringSubmatch(string(data), -1) {
		if _, ok := os.LookupEnv(m[1]); !ok {
			missing = append(missing, m[1])
		}
	}
	return missing, nil
}
