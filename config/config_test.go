package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Printing.BarcodePattern != "{date}-{sku}-{serialNumber}-{weight}" {
		t.Errorf("unexpected default barcode pattern: %q", cfg.Printing.BarcodePattern)
	}
	if cfg.Printing.InitialSerial != 1 {
		t.Errorf("unexpected default initial serial: %d", cfg.Printing.InitialSerial)
	}
	if cfg.Discovery.SNMPCommunity != "public" {
		t.Errorf("unexpected default SNMP community: %q", cfg.Discovery.SNMPCommunity)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("unexpected default log level: %q", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sticker.toml")
	content := `
[printing]
barcode_pattern = "{sku}/{serialNumber}"
initial_serial = 100
default_device_uid = "PRN-A"

[discovery]
hosts = ["10.0.0.5", "10.0.0.6:9100"]
snmp_community = "factory"
serial_enabled = false

[feed]
mode = "ws"
hub_url = "ws://hub.local:8090/feed"

[logging]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Printing.BarcodePattern != "{sku}/{serialNumber}" {
		t.Errorf("barcode pattern not loaded: %q", cfg.Printing.BarcodePattern)
	}
	if cfg.Printing.InitialSerial != 100 {
		t.Errorf("initial serial not loaded: %d", cfg.Printing.InitialSerial)
	}
	if len(cfg.Discovery.Hosts) != 2 || cfg.Discovery.Hosts[0] != "10.0.0.5" {
		t.Errorf("hosts not loaded: %v", cfg.Discovery.Hosts)
	}
	if cfg.Discovery.SerialEnabled {
		t.Error("serial_enabled=false not honored")
	}
	if cfg.Feed.Mode != "ws" || cfg.Feed.HubURL != "ws://hub.local:8090/feed" {
		t.Errorf("feed config not loaded: %+v", cfg.Feed)
	}
	// unset sections keep defaults
	if cfg.Discovery.ProbeTimeoutMs != 2000 {
		t.Errorf("unset probe timeout should keep default, got %d", cfg.Discovery.ProbeTimeoutMs)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sticker.toml")
	if err := os.WriteFile(path, []byte("[logging]\nlevel = \"info\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LOG_LEVEL", "trace")
	t.Setenv("SNMP_COMMUNITY", "internal")
	t.Setenv("INITIAL_SERIAL", "500")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Logging.Level != "trace" {
		t.Errorf("LOG_LEVEL override not applied: %q", cfg.Logging.Level)
	}
	if cfg.Discovery.SNMPCommunity != "internal" {
		t.Errorf("SNMP_COMMUNITY override not applied: %q", cfg.Discovery.SNMPCommunity)
	}
	if cfg.Printing.InitialSerial != 500 {
		t.Errorf("INITIAL_SERIAL override not applied: %d", cfg.Printing.InitialSerial)
	}
}

func TestSearchPathsIncludeWorkingDirectory(t *testing.T) {
	paths := SearchPaths("sticker.toml")
	if len(paths) < 2 {
		t.Fatalf("expected several search paths, got %v", paths)
	}
	last := paths[len(paths)-1]
	if last != filepath.Join(".", "sticker.toml") {
		t.Errorf("working directory should be the lowest priority, got %q", last)
	}
}
