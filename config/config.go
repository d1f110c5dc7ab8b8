// Package config loads and resolves configuration for the sticker print engine.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/BurntSushi/toml"
)

// EngineConfig represents the full engine configuration
type EngineConfig struct {
	Printing  PrintingConfig  `toml:"printing"`
	Discovery DiscoveryConfig `toml:"discovery"`
	Feed      FeedConfig      `toml:"feed"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
}

// PrintingConfig holds label generation defaults
type PrintingConfig struct {
	// BarcodePattern is the default token pattern for linear barcode payloads
	BarcodePattern string `toml:"barcode_pattern"`
	// InitialSerial is the first serial number handed out for a product
	// that has no counter yet
	InitialSerial uint64 `toml:"initial_serial"`
	// DefaultDeviceUID pins a preferred printer; empty means ask the transport
	DefaultDeviceUID string `toml:"default_device_uid"`
}

// DiscoveryConfig controls which transports are scanned and how long to wait
type DiscoveryConfig struct {
	// Hosts lists network printer addresses (host or host:port) to probe
	Hosts []string `toml:"hosts"`
	// ProbeTimeoutMs bounds each TCP/SNMP probe
	ProbeTimeoutMs int `toml:"probe_timeout_ms"`
	// ReadyTimeoutMs bounds waiting for a transport to become ready
	ReadyTimeoutMs int `toml:"ready_timeout_ms"`
	// ReadyPollMs is the readiness polling interval
	ReadyPollMs   int    `toml:"ready_poll_ms"`
	SNMPCommunity string `toml:"snmp_community"`
	MDNSEnabled   bool   `toml:"mdns_enabled"`
	SerialEnabled bool   `toml:"serial_enabled"`
	// SerialBaudRate applies to serial label printers (most thermal units use 9600)
	SerialBaudRate int `toml:"serial_baud_rate"`
}

// FeedConfig selects the cross-writer ledger change feed
type FeedConfig struct {
	// Mode is "file", "ws" or "none"
	Mode string `toml:"mode"`
	// Path is the snapshot file for file mode
	Path string `toml:"path"`
	// HubURL is the websocket hub address for ws mode
	HubURL string `toml:"hub_url"`
}

// DatabaseConfig holds ledger database settings
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default returns engine configuration with sensible defaults
func Default() *EngineConfig {
	return &EngineConfig{
		Printing: PrintingConfig{
			BarcodePattern: "{date}-{sku}-{serialNumber}-{weight}",
			InitialSerial:  1,
		},
		Discovery: DiscoveryConfig{
			ProbeTimeoutMs: 2000,
			ReadyTimeoutMs: 10000,
			ReadyPollMs:    250,
			SNMPCommunity:  "public",
			MDNSEnabled:    true,
			SerialEnabled:  true,
			SerialBaudRate: 9600,
		},
		Feed: FeedConfig{
			Mode: "file",
		},
		Database: DatabaseConfig{
			Path: "", // empty means platform-specific default path
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a TOML file and applies environment overrides.
// Returns an error if the file does not exist or cannot be parsed.
func Load(configPath string) (*EngineConfig, error) {
	cfg := Default()

	if _, err := os.Stat(configPath); err != nil {
		return nil, err
	}
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *EngineConfig) {
	if val := os.Getenv("BARCODE_PATTERN"); val != "" {
		cfg.Printing.BarcodePattern = val
	}
	if val := os.Getenv("INITIAL_SERIAL"); val != "" {
		if n, err := strconv.ParseUint(val, 10, 64); err == nil {
			cfg.Printing.InitialSerial = n
		}
	}
	if val := os.Getenv("SNMP_COMMUNITY"); val != "" {
		cfg.Discovery.SNMPCommunity = val
	}
	if val := os.Getenv("DB_PATH"); val != "" {
		cfg.Database.Path = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("LEDGER_FEED_MODE"); val != "" {
		cfg.Feed.Mode = val
	}
	if val := os.Getenv("LEDGER_FEED_URL"); val != "" {
		cfg.Feed.HubURL = val
	}
}

// FindConfigFile searches platform-appropriate locations for the config file.
// Returns the first path that exists, or an error when none do.
func FindConfigFile(filename string) (string, []byte, error) {
	for _, path := range SearchPaths(filename) {
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}
	return "", nil, fmt.Errorf("%s not found in any search path", filename)
}

// SearchPaths returns the ordered list of candidate config file locations
func SearchPaths(filename string) []string {
	var paths []string

	switch runtime.GOOS {
	case "windows":
		paths = append(paths, filepath.Join(os.Getenv("ProgramData"), "StickerPrint", filename))
	case "darwin":
		paths = append(paths, filepath.Join("/Library/Application Support", "StickerPrint", filename))
	default:
		paths = append(paths, filepath.Join("/etc/sticker-print", filename))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		switch runtime.GOOS {
		case "windows":
			paths = append(paths, filepath.Join(homeDir, "AppData", "Local", "StickerPrint", filename))
		case "darwin":
			paths = append(paths, filepath.Join(homeDir, "Library", "Application Support", "StickerPrint", filename))
		default:
			paths = append(paths, filepath.Join(homeDir, ".config", "sticker-print", filename))
		}
	}

	if exePath, err := os.Executable(); err == nil {
		paths = append(paths, filepath.Join(filepath.Dir(exePath), filename))
	}

	paths = append(paths, filepath.Join(".", filename))
	return paths
}

// DataDirectory returns the directory for the ledger database and feed
// snapshot, creating it if needed.
func DataDirectory() (string, error) {
	var dataDir string

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		dataDir = filepath.Join(homeDir, "AppData", "Local", "StickerPrint")
	case "darwin":
		dataDir = filepath.Join(homeDir, "Library", "Application Support", "StickerPrint")
	default:
		dataDir = filepath.Join(homeDir, ".local", "share", "sticker-print")
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}

// WriteDefault writes a default TOML configuration file to configPath
func WriteDefault(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(Default()); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
