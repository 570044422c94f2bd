// Package config holds the reusable configuration sections shared by the
// application config.
package config

import (
	"fmt"
	"time"
)

type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.Timeout.Read)
	}
	if c.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.Timeout.Write)
	}
	if c.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.Timeout.Idle)
	}
	if c.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.Timeout.ReadHeader)
	}
	return nil
}

type LogConfig struct {
	Level string `koanf:"level"`
}

func (c *LogConfig) Validate() error {
	return nil
}

type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

func (c *PProfConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("pprof is enabled but address is not configured")
	}
	return nil
}

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	return nil
}

// StorageConfig selects and configures the embedded key-value store that holds
// the shop collections.
type StorageConfig struct {
	// Driver is one of "file", "sqlite" or "memory".
	Driver string `koanf:"driver"`
	// Path is the location of the data file. Ignored by the memory driver.
	Path string `koanf:"path"`
	// ImportLegacy enables a one-shot import of data persisted under the old
	// prefixed key scheme into empty collections.
	ImportLegacy bool `koanf:"importLegacy"`
}

func (c *StorageConfig) Validate() error {
	switch c.Driver {
	case "file", "sqlite":
		if c.Path == "" {
			return fmt.Errorf("storage driver %q requires a path", c.Driver)
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Driver)
	}
	return nil
}

// CategoryConfig is one entry of the static product category table.
type CategoryConfig struct {
	ID   string `koanf:"id"`
	Name string `koanf:"name"`
}

// ShopConfig carries shop identity and inventory policy knobs.
type ShopConfig struct {
	Name              string           `koanf:"name"`
	Currency          string           `koanf:"currency"`
	LowStockThreshold int              `koanf:"lowStockThreshold"`
	Categories        []CategoryConfig `koanf:"categories"`
}

func (c *ShopConfig) Validate() error {
	if c.LowStockThreshold == 0 {
		c.LowStockThreshold = 5
	}
	if c.LowStockThreshold < 0 {
		return fmt.Errorf("invalid low stock threshold: %d", c.LowStockThreshold)
	}
	if len(c.Categories) == 0 {
		c.Categories = []CategoryConfig{
			{ID: "carpets", Name: "Carpets"},
			{ID: "cushions", Name: "Cushions"},
			{ID: "bedsheets", Name: "Bedsheets"},
			{ID: "curtains", Name: "Curtains"},
		}
	}
	return nil
}
