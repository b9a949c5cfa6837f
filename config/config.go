package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"chatline/storage"
)

const (
	BackendFile   = storage.BackendFile
	BackendSQLite = storage.BackendSQLite
)

type ServerConfig struct {
	URL                   string `toml:"url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	ResetTimeoutSeconds   int    `toml:"reset_timeout_seconds"`
}

type StorageConfig struct {
	DataDirectory string `toml:"data_directory"`
	Backend       string `toml:"backend"`
}

type ChatConfig struct {
	Instance            string `toml:"instance"`
	TimeFormat          string `toml:"time_format"`
	ErrorText           string `toml:"error_text"`
	DiscardStaleReplies bool   `toml:"discard_stale_replies"`
}

// Settings mirrors settings.toml.
type Settings struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Chat    ChatConfig    `toml:"chat"`
}

// envOverrides is filled from CHATLINE_* variables. Pointers distinguish
// "unset" from zero values.
type envOverrides struct {
	ServerURL      *string `env:"CHATLINE_SERVER_URL"`
	DataDir        *string `env:"CHATLINE_DATA_DIR"`
	Instance       *string `env:"CHATLINE_INSTANCE"`
	StorageBackend *string `env:"CHATLINE_STORAGE_BACKEND"`
	RequestTimeout *int    `env:"CHATLINE_REQUEST_TIMEOUT"`
}

type Config struct {
	ServerURL           string
	RequestTimeout      time.Duration
	ResetTimeout        time.Duration
	DataDirectory       string
	StorageBackend      string
	Instance            string
	TimeFormat          string
	ErrorText           string
	DiscardStaleReplies bool
}

var Debug = false

// DebugLog is a no-op logger until InitDebugLog enables it.
var DebugLog = zerolog.Nop()

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applySettings(s *Settings) {
	c.ServerURL = s.Server.URL
	c.RequestTimeout = time.Duration(s.Server.RequestTimeoutSeconds) * time.Second
	c.ResetTimeout = time.Duration(s.Server.ResetTimeoutSeconds) * time.Second
	c.DataDirectory = s.Storage.DataDirectory
	c.StorageBackend = s.Storage.Backend
	c.Instance = s.Chat.Instance
	c.TimeFormat = s.Chat.TimeFormat
	c.ErrorText = s.Chat.ErrorText
	c.DiscardStaleReplies = s.Chat.DiscardStaleReplies
}

func (c *Config) applyEnvOverrides() error {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}

	if overrides.ServerURL != nil && *overrides.ServerURL != "" {
		c.ServerURL = *overrides.ServerURL
	}
	if overrides.DataDir != nil && *overrides.DataDir != "" {
		c.DataDirectory = *overrides.DataDir
	}
	if overrides.Instance != nil && *overrides.Instance != "" {
		c.Instance = *overrides.Instance
	}
	if overrides.StorageBackend != nil && *overrides.StorageBackend != "" {
		c.StorageBackend = *overrides.StorageBackend
	}
	if overrides.RequestTimeout != nil {
		c.RequestTimeout = time.Duration(*overrides.RequestTimeout) * time.Second
	}
	return nil
}

// Validate checks the fields that would otherwise fail late, at the first
// exchange or the first write.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server url %q", c.ServerURL)
	}

	switch c.StorageBackend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("unknown storage backend %q (want %q or %q)", c.StorageBackend, BackendFile, BackendSQLite)
	}

	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	// The remote reset call is always bounded.
	if c.ResetTimeout <= 0 {
		return fmt.Errorf("reset timeout must be positive")
	}

	if strings.TrimSpace(c.Instance) == "" {
		return fmt.Errorf("instance name cannot be empty")
	}
	if err := storage.ValidateNamespace(c.Instance); err != nil {
		return err
	}

	if c.DataDirectory == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	return nil
}

func CheckDebug() bool {
	debug := os.Getenv("CHATLINE_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: the log carries conversation metadata
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = zerolog.New(f).With().Timestamp().Caller().Logger()
	DebugLog.Info().
		Str("log_path", logPath).
		Str("chatline_debug", os.Getenv("CHATLINE_DEBUG")).
		Msg("debug logging started")
}

// Load reads settings.toml (creating it from the template when missing),
// layers .env and CHATLINE_* overrides on top, validates, and makes sure
// the data directory exists.
func Load() (*Config, error) {
	return LoadFrom(GetSettingsFilePath())
}

// LoadFrom is Load for an explicit settings file. Each override runs after
// the environment is applied and before validation, so command line flags
// take precedence over both.
func LoadFrom(settingsPath string, overrides ...func(*Config)) (*Config, error) {
	settings, err := LoadSettings(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := &Config{}
	cfg.applySettings(settings)

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir()
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to prepare data directory: %w", err)
	}

	return cfg, nil
}
