// Package config loads Pondr settings from built-in defaults, an optional YAML
// file, a .env file and the environment, in that order of precedence (later
// wins). Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/Pondr/internal/review"
	"github.com/BTreeMap/Pondr/internal/unlock"
	"github.com/BTreeMap/Pondr/internal/util"
)

// Default configuration constants
const (
	// DefaultStateDirName is created under the home directory.
	DefaultStateDirName = ".pondr"
	// DefaultDBFileName is the SQLite database inside the state directory.
	DefaultDBFileName = "pondr.db"
	// DefaultConfigFileName is looked up inside the state directory.
	DefaultConfigFileName = "config.yaml"
	// DefaultLogLevel applies when nothing else is set.
	DefaultLogLevel = "warn"
)

// Environment variables read by Load.
const (
	EnvStateDir          = "PONDR_STATE_DIR"
	EnvDatabaseURL       = "DATABASE_URL"
	EnvOpenAIKey         = "OPENAI_API_KEY"
	EnvOpenAIModel       = "PONDR_OPENAI_MODEL"
	EnvWeekStartDay      = "PONDR_WEEK_START_DAY"
	EnvUnlockPolicy      = "PONDR_UNLOCK_POLICY"
	EnvRollingDays       = "PONDR_ROLLING_DAYS"
	EnvReflectionEngine  = "PONDR_REFLECTION_ENGINE"
	EnvRemoteReflections = "PONDR_REMOTE_REFLECTIONS"
	EnvGenAIDebug        = "PONDR_GENAI_DEBUG"
	EnvLogLevel          = "PONDR_LOG_LEVEL"
)

// Config is the merged configuration.
type Config struct {
	StateDir    string `yaml:"state_dir"`
	DatabaseURL string `yaml:"database_url"`
	// OpenAIKey is only read from the environment.
	OpenAIKey   string `yaml:"-"`
	OpenAIModel string `yaml:"openai_model"`
	// WeekStartDay overrides the persisted setting when non-nil (0 = Sunday).
	WeekStartDay     *int   `yaml:"week_start_day"`
	UnlockPolicy     string `yaml:"unlock_policy"`
	RollingDays      int    `yaml:"rolling_days"`
	ReflectionEngine string `yaml:"reflection_engine"`
	// RemoteReflections gates the remote engine.
	RemoteReflections bool   `yaml:"remote_reflections"`
	GenAIDebug        bool   `yaml:"genai_debug"`
	LogLevel          string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StateDir:         defaultStateDir(),
		UnlockPolicy:     string(unlock.PolicyRolling),
		RollingDays:      unlock.DefaultDays,
		ReflectionEngine: string(review.EngineTemplate),
		LogLevel:         DefaultLogLevel,
	}
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return DefaultStateDirName
	}
	return filepath.Join(home, DefaultStateDirName)
}

// Load builds the configuration. path names a YAML file; when empty the
// state directory's config.yaml is used if present.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	cfg := Default()
	if dir := util.StringEnv(EnvStateDir, ""); dir != "" {
		cfg.StateDir = dir
	}

	explicit := path != ""
	if !explicit {
		path = filepath.Join(cfg.StateDir, DefaultConfigFileName)
	}
	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
		slog.Debug("no config file found", "path", path)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	slog.Debug("configuration loaded",
		"state_dir", cfg.StateDir,
		"database_url_set", cfg.DatabaseURL != "",
		"openai_api_key_set", cfg.OpenAIKey != "",
		"unlock_policy", cfg.UnlockPolicy,
		"reflection_engine", cfg.ReflectionEngine,
		"remote_reflections", cfg.RemoteReflections)
	return cfg, nil
}

// mergeFile overlays the YAML file at path onto c.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	slog.Debug("config file merged", "path", path)
	return nil
}

func (c *Config) applyEnv() {
	c.StateDir = util.StringEnv(EnvStateDir, c.StateDir)
	c.DatabaseURL = util.StringEnv(EnvDatabaseURL, c.DatabaseURL)
	c.OpenAIKey = util.StringEnv(EnvOpenAIKey, c.OpenAIKey)
	c.OpenAIModel = util.StringEnv(EnvOpenAIModel, c.OpenAIModel)
	c.UnlockPolicy = util.StringEnv(EnvUnlockPolicy, c.UnlockPolicy)
	c.ReflectionEngine = util.StringEnv(EnvReflectionEngine, c.ReflectionEngine)
	c.LogLevel = util.StringEnv(EnvLogLevel, c.LogLevel)
	if n, ok := util.ParseIntEnv(EnvWeekStartDay); ok {
		c.WeekStartDay = &n
	}
	if n, ok := util.ParseIntEnv(EnvRollingDays); ok {
		c.RollingDays = n
	}
	c.RemoteReflections = util.ParseBoolEnv(EnvRemoteReflections, c.RemoteReflections)
	c.GenAIDebug = util.ParseBoolEnv(EnvGenAIDebug, c.GenAIDebug)
}

// Validate rejects values no component can use.
func (c Config) Validate() error {
	if strings.TrimSpace(c.StateDir) == "" {
		return errors.New("state directory is required")
	}
	if c.WeekStartDay != nil && (*c.WeekStartDay < 0 || *c.WeekStartDay > 6) {
		return fmt.Errorf("week start day must be between 0 and 6, got %d", *c.WeekStartDay)
	}
	if c.RollingDays < 1 {
		return fmt.Errorf("rolling days must be at least 1, got %d", c.RollingDays)
	}
	if _, err := unlock.ParsePolicy(c.UnlockPolicy); err != nil {
		return err
	}
	if _, err := review.ParseEngine(c.ReflectionEngine); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// DSN returns the database URL, or the SQLite file in the state directory.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return filepath.Join(c.StateDir, DefaultDBFileName)
}

// Policy returns the parsed unlock policy.
func (c Config) Policy() unlock.Policy {
	p, _ := unlock.ParsePolicy(c.UnlockPolicy)
	return p
}

// Engine returns the reflection engine that can actually run. The remote
// engine needs both the capability gate and an API key; otherwise the
// composer serves as the free path.
func (c Config) Engine() review.Engine {
	e, _ := review.ParseEngine(c.ReflectionEngine)
	if e == review.EngineRemote && (!c.RemoteReflections || c.OpenAIKey == "") {
		slog.Warn("remote reflections unavailable, using composer",
			"remote_reflections", c.RemoteReflections, "openai_api_key_set", c.OpenAIKey != "")
		return review.EngineComposer
	}
	return e
}

// ParseLevel maps debug/info/warn/error onto slog levels. Empty means warn.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}
