package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"eigend/internal/common/fsutil"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Defaults applied by WithDefaults when a field is unset.
const (
	DefaultAddr                  = "127.0.0.1:7878"
	DefaultDataDir               = "~/.local/share/eigend"
	DefaultLlamaBin              = "llama-server"
	DefaultLlamaPort             = 8080
	DefaultStartupTimeoutSeconds = 120
	DefaultLogLevel              = "info"
	DefaultMaxBodyBytes          = 64 << 20
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are replaced by WithDefaults.
type Config struct {
	Addr                  string   `json:"addr" yaml:"addr" toml:"addr"`
	DataDir               string   `json:"data_dir" yaml:"data_dir" toml:"data_dir"`
	ModelsDir             string   `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	LlamaBin              string   `json:"llama_bin" yaml:"llama_bin" toml:"llama_bin"`
	LlamaPort             int      `json:"llama_port" yaml:"llama_port" toml:"llama_port"`
	StartupTimeoutSeconds int      `json:"startup_timeout_seconds" yaml:"startup_timeout_seconds" toml:"startup_timeout_seconds"`
	LogLevel              string   `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSOrigins           []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	MaxBodyBytes          int64    `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	SettingsPath          string   `json:"settings_path" yaml:"settings_path" toml:"settings_path"`
	CatalogPath           string   `json:"catalog_path" yaml:"catalog_path" toml:"catalog_path"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if !fsutil.PathExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from EIGEND_* environment variables.
func (c Config) ApplyEnv(getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("EIGEND_ADDR", &c.Addr)
	str("EIGEND_DATA_DIR", &c.DataDir)
	str("EIGEND_MODELS_DIR", &c.ModelsDir)
	str("EIGEND_LLAMA_BIN", &c.LlamaBin)
	str("EIGEND_LOG_LEVEL", &c.LogLevel)
	str("EIGEND_SETTINGS_PATH", &c.SettingsPath)
	str("EIGEND_CATALOG_PATH", &c.CatalogPath)
	if v := strings.TrimSpace(getenv("EIGEND_CORS_ORIGINS")); v != "" {
		c.CORSOrigins = SplitCSV(v)
	}
	for key, dst := range map[string]*int{
		"EIGEND_LLAMA_PORT":              &c.LlamaPort,
		"EIGEND_STARTUP_TIMEOUT_SECONDS": &c.StartupTimeoutSeconds,
	} {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return c, fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	if v := strings.TrimSpace(getenv("EIGEND_MAX_BODY_BYTES")); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, fmt.Errorf("EIGEND_MAX_BODY_BYTES: %w", err)
		}
		c.MaxBodyBytes = n
	}
	return c, nil
}

// WithDefaults fills unset fields and expands '~' in paths. Paths that
// default to DataDir are derived after DataDir is resolved.
func (c Config) WithDefaults() (Config, error) {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.LlamaBin == "" {
		c.LlamaBin = DefaultLlamaBin
	}
	if c.LlamaPort <= 0 {
		c.LlamaPort = DefaultLlamaPort
	}
	if c.StartupTimeoutSeconds <= 0 {
		c.StartupTimeoutSeconds = DefaultStartupTimeoutSeconds
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	var err error
	if c.DataDir, err = fsutil.ExpandHome(c.DataDir); err != nil {
		return c, err
	}
	if c.ModelsDir == "" {
		c.ModelsDir = filepath.Join(c.DataDir, "models")
	}
	if c.SettingsPath == "" {
		c.SettingsPath = filepath.Join(c.DataDir, "settings.json")
	}
	if c.CatalogPath == "" {
		c.CatalogPath = filepath.Join(c.DataDir, "models.json")
	}
	for _, p := range []*string{&c.ModelsDir, &c.SettingsPath, &c.CatalogPath} {
		if *p, err = fsutil.ExpandHome(*p); err != nil {
			return c, err
		}
	}
	return c, nil
}

// DBDir is where the chat history database lives.
func (c Config) DBDir() string { return filepath.Join(c.DataDir, "db") }

// LlamaAddress is the base URL of the managed llama-server.
func (c Config) LlamaAddress() string { return fmt.Sprintf("http://127.0.0.1:%d", c.LlamaPort) }

// SplitCSV splits a comma separated list, trimming blanks and empty items.
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
