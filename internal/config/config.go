// Package config loads the simulator configuration from a file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ajwerner/avltable/internal/addrspace"
	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrInvalidSize       = errors.New("invalid size")
	ErrInvalidBounds     = errors.New("address space base must lie below its limit")
	ErrInvalidMaxRegions = errors.New("max regions must not be negative")
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidLogFormat  = errors.New("invalid log format")
	ErrInvalidNamespace  = errors.New("metrics namespace must not be empty")
)

// EnvPrefix prefixes environment variables which override the
// configuration, so that address_space.page_size is read from
// VADSIM_ADDRESS_SPACE_PAGE_SIZE.
const EnvPrefix = "VADSIM"

// Default configuration values.
const (
	defaultBase        = "64KiB"
	defaultLimit       = "128TiB"
	defaultPageSize    = "4KiB"
	defaultGranularity = "64KiB"
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultMetricsAddr = ":9464"
	defaultNamespace   = "vadsim"
)

// Config holds all configuration for the simulator.
type Config struct {
	AddressSpace AddressSpaceConfig `mapstructure:"address_space"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// AddressSpaceConfig describes the simulated address space. Sizes and
// addresses are either integers, which may be written in hex, or
// human-readable sizes such as "64KiB".
type AddressSpaceConfig struct {
	// Base is the first usable address.
	Base string `mapstructure:"base"`
	// Limit is the first address beyond the usable space.
	Limit       string `mapstructure:"limit"`
	PageSize    string `mapstructure:"page_size"`
	Granularity string `mapstructure:"granularity"`
	MaxRegions  int    `mapstructure:"max_regions"`
	Verify      bool   `mapstructure:"verify"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

// Load loads configuration from configPath, or from vadsim.yaml in the
// working directory when configPath is empty, and then from the
// environment. A missing default file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("vadsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("address_space.base", defaultBase)
	v.SetDefault("address_space.limit", defaultLimit)
	v.SetDefault("address_space.page_size", defaultPageSize)
	v.SetDefault("address_space.granularity", defaultGranularity)
	v.SetDefault("address_space.max_regions", 0)
	v.SetDefault("address_space.verify", false)

	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.format", defaultLogFormat)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.addr", defaultMetricsAddr)
	v.SetDefault("metrics.namespace", defaultNamespace)
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, err := c.AddressSpace.Limits(); err != nil {
		return err
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}
	if c.Metrics.Enabled && c.Metrics.Namespace == "" {
		return ErrInvalidNamespace
	}
	return nil
}

// Limits converts the configuration to address space limits. The page size
// and granularity are checked by addrspace.New.
func (c AddressSpaceConfig) Limits() (addrspace.Limits, error) {
	var l addrspace.Limits
	base, err := ParseSize(c.Base)
	if err != nil {
		return l, fmt.Errorf("address_space.base: %w", err)
	}
	limit, err := ParseSize(c.Limit)
	if err != nil {
		return l, fmt.Errorf("address_space.limit: %w", err)
	}
	if base >= limit {
		return l, fmt.Errorf("%w: %#x, %#x", ErrInvalidBounds, base, limit)
	}
	if l.PageSize, err = ParseSize(c.PageSize); err != nil {
		return l, fmt.Errorf("address_space.page_size: %w", err)
	}
	if l.Granularity, err = ParseSize(c.Granularity); err != nil {
		return l, fmt.Errorf("address_space.granularity: %w", err)
	}
	if c.MaxRegions < 0 {
		return l, fmt.Errorf("%w: %d", ErrInvalidMaxRegions, c.MaxRegions)
	}
	l.Low, l.High, l.MaxRegions = base, limit-1, c.MaxRegions
	return l, nil
}

// ParseSize parses an integer, in any base strconv accepts with a prefix,
// or a human-readable size.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseUint(s, 0, 64); err == nil {
		return n, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	return n, nil
}
