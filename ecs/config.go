package ecs

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Config tunes a World. The zero value of any field falls back to its default.
type Config struct {
	ComponentCapacity    int           `yaml:"componentCapacity"`    // number of component kinds (bits)
	InitialStoreCapacity int           `yaml:"initialStoreCapacity"` // first allocation of each store
	GrowthFactor         float64       `yaml:"growthFactor"`         // store growth multiplier, > 1
	MaxDispatchDepth     int           `yaml:"maxDispatchDepth"`     // nested hierarchy event dispatch limit
	TickInterval         time.Duration `yaml:"tickInterval"`         // Scheduler.Run interval used by tools
}

// DefaultConfig returns the configuration used by NewWorld without options.
func DefaultConfig() Config {
	return Config{
		ComponentCapacity:    DefaultComponentCapacity,
		InitialStoreCapacity: DefaultInitialCapacity,
		GrowthFactor:         DefaultGrowthFactor,
		MaxDispatchDepth:     DefaultMaxDispatchDepth,
		TickInterval:         time.Second / 60,
	}
}

// LoadConfig reads a YAML config file. Missing fields keep their defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, eris.Wrapf(err, "failed to read config file %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, eris.Wrapf(err, "config file %s", path)
	}
	return cfg, nil
}

// ParseConfig decodes YAML over DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, eris.Wrap(err, "failed to parse config YAML")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.ComponentCapacity < 1 || c.ComponentCapacity > MaxComponentCapacity {
		return eris.Wrapf(ErrInvalidConfig, "componentCapacity must be between 1 and %d, got %d", MaxComponentCapacity, c.ComponentCapacity)
	}
	if c.InitialStoreCapacity < 1 {
		return eris.Wrapf(ErrInvalidConfig, "initialStoreCapacity must be at least 1, got %d", c.InitialStoreCapacity)
	}
	if c.GrowthFactor <= 1 {
		return eris.Wrapf(ErrInvalidConfig, "growthFactor must be greater than 1, got %g", c.GrowthFactor)
	}
	if c.MaxDispatchDepth < 1 {
		return eris.Wrapf(ErrInvalidConfig, "maxDispatchDepth must be at least 1, got %d", c.MaxDispatchDepth)
	}
	if c.TickInterval < 0 {
		return eris.Wrapf(ErrInvalidConfig, "tickInterval cannot be negative, got %s", c.TickInterval)
	}
	return nil
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ComponentCapacity <= 0 {
		c.ComponentCapacity = def.ComponentCapacity
	}
	if c.InitialStoreCapacity <= 0 {
		c.InitialStoreCapacity = def.InitialStoreCapacity
	}
	if c.GrowthFactor <= 1 {
		c.GrowthFactor = def.GrowthFactor
	}
	if c.MaxDispatchDepth <= 0 {
		c.MaxDispatchDepth = def.MaxDispatchDepth
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	return c
}

func (c Config) storeOptions() storeOptions {
	return storeOptions{
		initialCapacity: c.InitialStoreCapacity,
		growthFactor:    c.GrowthFactor,
	}
}
