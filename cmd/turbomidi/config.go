package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"elektron/turbomidi-go/pkg/turbomidi"
)

// SpeedEntry is one advertised speed in the config file
type SpeedEntry struct {
	Speed     string `toml:"speed"`
	Certified bool   `toml:"certified"`
}

// PortConfig selects and configures the transport
type PortConfig struct {
	Transport string `toml:"transport"` // "tcp", "quic" or "serial"
	Address   string `toml:"address"`   // network transports
	Listen    bool   `toml:"listen"`    // network transports: accept instead of dial
	Device    string `toml:"device"`    // serial transport
}

// FileConfig is the on-disk TOML layout
type FileConfig struct {
	Port   PortConfig   `toml:"port"`
	Speeds []SpeedEntry `toml:"speeds"`
}

// LoadConfig reads and validates a TOML config file
func LoadConfig(path string) (FileConfig, error) {
	var cfg FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse config: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}

// ValidateConfig rejects configs the transports cannot act on
func ValidateConfig(cfg FileConfig) error {
	switch cfg.Port.Transport {
	case "tcp", "quic":
		if cfg.Port.Address == "" {
			return fmt.Errorf("transport %q needs an address", cfg.Port.Transport)
		}
	case "serial":
		if cfg.Port.Device == "" {
			return fmt.Errorf("serial transport needs a device")
		}
	default:
		return fmt.Errorf("unknown transport %q", cfg.Port.Transport)
	}

	for _, entry := range cfg.Speeds {
		if _, err := turbomidi.ParseSpeed(entry.Speed); err != nil {
			return err
		}
	}
	return nil
}

// ApplySpeeds advertises the configured speeds on an engine
func ApplySpeeds(eng *turbomidi.Engine, speeds []SpeedEntry) error {
	for _, entry := range speeds {
		m, err := turbomidi.ParseSpeed(entry.Speed)
		if err != nil {
			return err
		}
		eng.SetSupportedSpeed(m, entry.Certified)
	}
	return nil
}
