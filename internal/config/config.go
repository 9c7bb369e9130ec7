// Package config provides application configuration management with
// support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/streamvault/streamvault-server/internal/ingest"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Server ServerConfig
	Store  StoreConfig
	Ingest IngestConfig
	Fetch  FetchConfig
	Watch  WatchConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// StoreConfig selects and locates the persistence driver.
type StoreConfig struct {
	// Driver is "badger" or "sqlite".
	Driver string
	// BasePath is the directory holding the database files.
	BasePath string
}

// IngestConfig tunes the streaming batch processor.
type IngestConfig struct {
	// DeviceProfile is "standard" or "constrained"; constrained targets
	// run with the smaller batch size.
	DeviceProfile       string
	BatchSize           int
	EarlyReadyThreshold int
	ReclaimEvery        int
}

// FetchConfig tunes playlist retrieval.
type FetchConfig struct {
	Timeout    time.Duration
	MaxRetries int
	UserAgent  string
}

// WatchConfig configures the playlist-file watcher.
type WatchConfig struct {
	// Path is a directory of playlist files to watch; empty disables
	// the watcher.
	Path     string
	Debounce time.Duration
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	serverName := flag.String("server-name", "", "Name for the server")
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	storeDriver := flag.String("store-driver", "", "Persistence driver: badger or sqlite (default: badger)")
	storePath := flag.String("store-path", "", "Base path for database files")

	deviceProfile := flag.String("device-profile", "", "Device profile: standard or constrained (default: standard)")
	batchSize := flag.String("batch-size", "", "Ingestion batch size (default: by device profile)")
	earlyReady := flag.String("early-ready-threshold", "", "Items before early-ready fires (default: 1000)")
	reclaimEvery := flag.String("reclaim-every", "", "Batches between memory reclaim hints (default: 8)")

	fetchTimeout := flag.String("fetch-timeout", "", "Playlist fetch timeout (default: 5m)")
	fetchRetries := flag.String("fetch-retries", "", "Playlist fetch retry attempts (default: 3)")

	watchPath := flag.String("watch-path", "", "Directory of playlist files to watch (default: disabled)")
	watchDebounce := flag.String("watch-debounce", "", "Watcher debounce window (default: 2s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "StreamVault Server"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Store: StoreConfig{
			Driver:   getConfigValue(*storeDriver, "STORE_DRIVER", "badger"),
			BasePath: getConfigValue(*storePath, "STORE_PATH", ""),
		},
		Ingest: IngestConfig{
			DeviceProfile:       getConfigValue(*deviceProfile, "DEVICE_PROFILE", "standard"),
			BatchSize:           getIntConfigValue(*batchSize, "INGEST_BATCH_SIZE", 0),
			EarlyReadyThreshold: getIntConfigValue(*earlyReady, "INGEST_EARLY_READY_THRESHOLD", ingest.DefaultEarlyReadyThreshold),
			ReclaimEvery:        getIntConfigValue(*reclaimEvery, "INGEST_RECLAIM_EVERY", ingest.DefaultReclaimEvery),
		},
		Fetch: FetchConfig{
			MaxRetries: getIntConfigValue(*fetchRetries, "FETCH_RETRIES", 3),
			UserAgent:  getConfigValue("", "FETCH_USER_AGENT", "StreamVault/1.0"),
		},
		Watch: WatchConfig{
			Path: getConfigValue(*watchPath, "WATCH_PATH", ""),
		},
	}

	// The explicit batch size wins; otherwise the device profile decides.
	if cfg.Ingest.BatchSize == 0 {
		if cfg.Ingest.DeviceProfile == "constrained" {
			cfg.Ingest.BatchSize = ingest.ConstrainedBatchSize
		} else {
			cfg.Ingest.BatchSize = ingest.DefaultBatchSize
		}
	}

	var err error
	if cfg.Server.ReadTimeout, err = parseDuration(*readTimeout, "SERVER_READ_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	if cfg.Server.WriteTimeout, err = parseDuration(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s"); err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	if cfg.Server.IdleTimeout, err = parseDuration(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s"); err != nil {
		return nil, fmt.Errorf("invalid idle timeout: %w", err)
	}
	if cfg.Fetch.Timeout, err = parseDuration(*fetchTimeout, "FETCH_TIMEOUT", "5m"); err != nil {
		return nil, fmt.Errorf("invalid fetch timeout: %w", err)
	}
	if cfg.Watch.Debounce, err = parseDuration(*watchDebounce, "WATCH_DEBOUNCE", "2s"); err != nil {
		return nil, fmt.Errorf("invalid watch debounce: %w", err)
	}

	if err := cfg.expandStorePath(); err != nil {
		return nil, fmt.Errorf("invalid store path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Store.Driver != "badger" && c.Store.Driver != "sqlite" {
		return fmt.Errorf("invalid store driver: %s (must be badger or sqlite)", c.Store.Driver)
	}
	if c.Store.BasePath == "" {
		return errors.New("store base path cannot be empty after expansion")
	}

	if c.Ingest.DeviceProfile != "standard" && c.Ingest.DeviceProfile != "constrained" {
		return fmt.Errorf("invalid device profile: %s (must be standard or constrained)", c.Ingest.DeviceProfile)
	}
	if c.Ingest.BatchSize <= 0 {
		return errors.New("ingestion batch size must be positive")
	}

	return nil
}

// expandStorePath expands ~ and makes the path absolute.
// Defaults to ~/StreamVault/data.
func (c *Config) expandStorePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "StreamVault", "data")

	expanded, err := expandPath(c.Store.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Store.BasePath = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// parseDuration resolves a duration from flag, env var, or default.
func parseDuration(flagValue, envKey, defaultValue string) (time.Duration, error) {
	str := getConfigValue(flagValue, envKey, defaultValue)
	d, err := time.ParseDuration(str)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", str, err)
	}
	return d, nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)

		// Env vars take precedence over .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
