package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/loan-tracker/internal/config"
	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/validation"
	"gopkg.in/yaml.v3"
)

// Config defines runtime parameters for the loan API.
type Config struct {
	Address     string `yaml:"address"`
	MaxBodySize string `yaml:"maxBodySize"`
	// SchedulePeriods is the schedule length served when a request names none.
	// Zero defers to the preview length of the main configuration.
	SchedulePeriods int                  `yaml:"schedulePeriods"`
	ShutdownTimeout time.Duration        `yaml:"shutdownTimeout"`
	Logging         config.LoggingConfig `yaml:"logging"`
	bodySizeBytes   int64
}

const defaultShutdownTimeout = 10 * time.Second

// sizeUnits is ordered so two-letter suffixes are tried first.
var sizeUnits = []struct {
	suffix     string
	multiplier int64
}{
	{"KB", 1024},
	{"MB", 1024 * 1024},
	{"K", 1024},
	{"M", 1024 * 1024},
}

// LoadConfig reads the API configuration. A missing file yields defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Address:         constants.DefaultServerAddress,
		ShutdownTimeout: defaultShutdownTimeout,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BodySizeBytes returns the request body limit for loan setup and payments.
func (c *Config) BodySizeBytes() int64 {
	return c.bodySizeBytes
}

// PreviewPeriods returns the configured schedule length, or fallback when unset.
func (c *Config) PreviewPeriods(fallback int) int {
	if c.SchedulePeriods > 0 {
		return c.SchedulePeriods
	}
	return fallback
}

func (c *Config) applyDefaults() error {
	if c.Address == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.SchedulePeriods != 0 {
		if err := validation.ValidatePreviewPeriods(c.SchedulePeriods); err != nil {
			return fmt.Errorf("invalid schedulePeriods: %w", err)
		}
	}

	size, err := ParseSize(c.MaxBodySize)
	if err != nil {
		return err
	}
	c.bodySizeBytes = size
	return nil
}

// ParseSize converts a body limit such as "512", "64K" or "1MB" into bytes.
// An empty value selects the default limit.
func ParseSize(value string) (int64, error) {
	raw := strings.ToUpper(strings.TrimSpace(value))
	if raw == "" {
		return constants.DefaultMaxBodySizeBytes, nil
	}

	multiplier := int64(1)
	for _, unit := range sizeUnits {
		if trimmed, ok := strings.CutSuffix(raw, unit.suffix); ok {
			raw, multiplier = strings.TrimSpace(trimmed), unit.multiplier
			break
		}
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid body size %q", value)
	}
	// Body limits past a gigabyte make no sense for loan requests.
	if n <= 0 || n > (1<<30)/multiplier {
		return 0, fmt.Errorf("body size %q out of range", value)
	}
	return n * multiplier, nil
}
