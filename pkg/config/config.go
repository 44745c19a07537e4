// Package config loads the junctiond service configuration from a YAML
// file, a .env file and JUNCTION_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/anggasct/junction"
	"github.com/anggasct/junction/pkg/logging"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix starts every environment variable read by Load
const EnvPrefix = "JUNCTION_"

// Environment variables
const (
	EnvConfigFile      = EnvPrefix + "CONFIG"
	EnvAddr            = EnvPrefix + "ADDR"
	EnvCORSOrigins     = EnvPrefix + "CORS_ORIGINS"
	EnvShutdownTimeout = EnvPrefix + "SHUTDOWN_TIMEOUT"
	EnvLogLevel        = EnvPrefix + "LOG_LEVEL"
	EnvLogFormat       = EnvPrefix + "LOG_FORMAT"
	EnvHistoryDir      = EnvPrefix + "HISTORY_DIR"
	EnvHistoryKeepDays = EnvPrefix + "HISTORY_KEEP_DAYS"
	EnvMinGreen        = EnvPrefix + "MIN_GREEN"
	EnvMaxGreen        = EnvPrefix + "MAX_GREEN"
	EnvBaseGreen       = EnvPrefix + "BASE_GREEN"
	EnvCycleBudget     = EnvPrefix + "CYCLE_BUDGET"
	EnvTimeScale       = EnvPrefix + "TIME_SCALE"
)

// Server configures the HTTP host
type Server struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Log configures the process logger
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// History configures the snapshot store. An empty Dir disables it.
type History struct {
	Dir      string `yaml:"dir"`
	KeepDays int    `yaml:"keep_days"`
}

// Scheduler configures real-time phase timing
type Scheduler struct {
	TimeScale float64 `yaml:"time_scale"`
}

// Config is the complete service configuration
type Config struct {
	Server    Server          `yaml:"server"`
	Log       Log             `yaml:"log"`
	Junction  junction.Config `yaml:"junction"`
	History   History         `yaml:"history"`
	Scheduler Scheduler       `yaml:"scheduler"`
}

// Default returns the configuration used when nothing overrides it
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			CORSOrigins:     []string{"*"},
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{
			Level:  "info",
			Format: string(logging.FormatConsole),
		},
		Junction: junction.DefaultConfig(),
		History: History{
			KeepDays: 30,
		},
		Scheduler: Scheduler{
			TimeScale: 1,
		},
	}
}

// LoadEnvFile loads variables from .env style files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Load reads the YAML file at path, if any, applies environment overrides
// and validates the result. An empty path uses JUNCTION_CONFIG when set.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str(EnvAddr, &c.Server.Addr)
	str(EnvLogLevel, &c.Log.Level)
	str(EnvLogFormat, &c.Log.Format)
	str(EnvHistoryDir, &c.History.Dir)

	if v, ok := lookup(EnvCORSOrigins); ok && v != "" {
		c.Server.CORSOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				c.Server.CORSOrigins = append(c.Server.CORSOrigins, origin)
			}
		}
	}
	if v, ok := lookup(EnvShutdownTimeout); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvShutdownTimeout, err)
		}
		c.Server.ShutdownTimeout = d
	}
	if v, ok := lookup(EnvTimeScale); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeScale, err)
		}
		c.Scheduler.TimeScale = f
	}

	for _, field := range []struct {
		key string
		dst *int
	}{
		{EnvHistoryKeepDays, &c.History.KeepDays},
		{EnvMinGreen, &c.Junction.MinGreen},
		{EnvMaxGreen, &c.Junction.MaxGreen},
		{EnvBaseGreen, &c.Junction.BaseGreen},
		{EnvCycleBudget, &c.Junction.CycleBudget},
	} {
		if err := num(field.key, field.dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks every section
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return junction.NewConfigurationError("server", "addr must not be empty")
	}
	if c.Server.ShutdownTimeout < 0 {
		return junction.NewConfigurationError("server", "shutdown_timeout must not be negative")
	}
	switch logging.Format(strings.ToLower(c.Log.Format)) {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		return junction.NewConfigurationError("log", fmt.Sprintf("unknown format %q", c.Log.Format))
	}
	if c.History.KeepDays < 0 {
		return junction.NewConfigurationError("history", "keep_days must not be negative")
	}
	if c.Scheduler.TimeScale <= 0 {
		return junction.NewConfigurationError("scheduler", "time_scale must be positive")
	}
	return c.Junction.Validate()
}
