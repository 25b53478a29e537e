// Package config provides configuration management for skinshelf.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultWorkerPort is the default HTTP port.
	DefaultWorkerPort = 37880
	// DefaultWorkerHost is the default listen address.
	DefaultWorkerHost = "127.0.0.1"
	// DefaultModel is the default completion model.
	DefaultModel = "gemini-2.0-flash"
	// DefaultLLMBaseURL is Gemini's OpenAI-compatible endpoint.
	DefaultLLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	// DefaultDBDriver is the default database driver.
	DefaultDBDriver = "sqlite"
	// DefaultLogLevel is the default zerolog level.
	DefaultLogLevel = "info"

	dataDirName      = ".skinshelf"
	dbFileName       = "skinshelf.db"
	settingsFileName = "settings.json"
	collectionsName  = "collections.yml"
)

// Settings keys, also honoured as environment overrides.
const (
	KeyWorkerHost  = "SKINSHELF_WORKER_HOST"
	KeyWorkerPort  = "SKINSHELF_WORKER_PORT"
	KeyModel       = "SKINSHELF_MODEL"
	KeyLLMBaseURL  = "SKINSHELF_LLM_BASE_URL"
	KeyLLMAPIKey   = "SKINSHELF_LLM_API_KEY"
	KeyDBDriver    = "SKINSHELF_DB_DRIVER"
	KeyDBPath      = "SKINSHELF_DB_PATH"
	KeyDBDSN       = "SKINSHELF_DB_DSN"
	KeyMaxConns    = "SKINSHELF_DB_MAX_CONNS"
	KeyCollections = "SKINSHELF_COLLECTIONS_FILE"
	KeyDetailURL   = "SKINSHELF_DETAIL_URL"
	KeyLogLevel    = "SKINSHELF_LOG_LEVEL"

	// KeyDataDir relocates the data directory. It is read from the
	// environment only, since the settings file lives inside it.
	KeyDataDir = "SKINSHELF_DATA_DIR"

	// KeyGeminiAPIKey is accepted when KeyLLMAPIKey is unset.
	KeyGeminiAPIKey = "GEMINI_API_KEY"
)

// Config holds the runtime configuration.
type Config struct {
	WorkerHost      string `json:"SKINSHELF_WORKER_HOST"`
	Model           string `json:"SKINSHELF_MODEL"`
	LLMBaseURL      string `json:"SKINSHELF_LLM_BASE_URL"`
	LLMAPIKey       string `json:"-"`
	DBDriver        string `json:"SKINSHELF_DB_DRIVER"`
	DBPath          string `json:"SKINSHELF_DB_PATH"`
	DBDSN           string `json:"-"`
	CollectionsPath string `json:"SKINSHELF_COLLECTIONS_FILE"`
	DetailURL       string `json:"SKINSHELF_DETAIL_URL"`
	LogLevel        string `json:"SKINSHELF_LOG_LEVEL"`
	WorkerPort      int    `json:"SKINSHELF_WORKER_PORT"`
	MaxConns        int    `json:"SKINSHELF_DB_MAX_CONNS"`
}

var (
	global     *Config
	globalOnce sync.Once
)

// DataDir returns the skinshelf data directory.
func DataDir() string {
	if dir := strings.TrimSpace(os.Getenv(KeyDataDir)); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// DBPath returns the default SQLite database path.
func DBPath() string {
	return filepath.Join(DataDir(), dbFileName)
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFileName)
}

// CollectionsPath returns the default collections registry path.
func CollectionsPath() string {
	return filepath.Join(DataDir(), collectionsName)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		WorkerHost:      DefaultWorkerHost,
		WorkerPort:      DefaultWorkerPort,
		Model:           DefaultModel,
		LLMBaseURL:      DefaultLLMBaseURL,
		DBDriver:        DefaultDBDriver,
		DBPath:          DBPath(),
		MaxConns:        4,
		CollectionsPath: CollectionsPath(),
		LogLevel:        DefaultLogLevel,
	}
}

// Load reads settings.json over the defaults and applies environment
// overrides. An unreadable or invalid settings file leaves the defaults.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(SettingsPath())
	switch {
	case err == nil:
		settings := make(map[string]any)
		if err := json.Unmarshal(data, &settings); err != nil {
			log.Warn().Err(err).Str("path", SettingsPath()).Msg("Invalid settings file, using defaults")
		} else {
			cfg.apply(func(key string) (string, bool) {
				v, ok := settings[key]
				if !ok || v == nil {
					return "", false
				}
				return stringify(v), true
			})
		}
	case !errors.Is(err, os.ErrNotExist):
		log.Warn().Err(err).Str("path", SettingsPath()).Msg("Cannot read settings file, using defaults")
	}

	cfg.apply(func(key string) (string, bool) {
		v := strings.TrimSpace(os.Getenv(key))
		return v, v != ""
	})
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = strings.TrimSpace(os.Getenv(KeyGeminiAPIKey))
	}

	return cfg, nil
}

// apply overlays every key lookup resolves.
func (c *Config) apply(lookup func(key string) (string, bool)) {
	strs := map[string]*string{
		KeyWorkerHost:  &c.WorkerHost,
		KeyModel:       &c.Model,
		KeyLLMBaseURL:  &c.LLMBaseURL,
		KeyLLMAPIKey:   &c.LLMAPIKey,
		KeyDBDriver:    &c.DBDriver,
		KeyDBPath:      &c.DBPath,
		KeyDBDSN:       &c.DBDSN,
		KeyCollections: &c.CollectionsPath,
		KeyDetailURL:   &c.DetailURL,
		KeyLogLevel:    &c.LogLevel,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		KeyWorkerPort: &c.WorkerPort,
		KeyMaxConns:   &c.MaxConns,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Warn().Str("key", key).Str("value", v).Msg("Ignoring invalid integer setting")
			continue
		}
		*dst = n
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}

// Get returns the process-wide configuration, loading it on first use.
func Get() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		global = cfg
	})
	return global
}

// GetWorkerPort returns the worker port, preferring a valid environment value.
func GetWorkerPort() int {
	if v := os.Getenv(KeyWorkerPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			return port
		}
	}
	return Get().WorkerPort
}

// EnsureDataDir creates the data directory.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0750)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// EnsureAll creates the data directory and default settings.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}
