package app

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/wifi-surveillance/internal/capture/tcpdump"
	"github.com/roman-kulish/wifi-surveillance/internal/capture/tshark"
)

const (
	DriverTshark  DriverType = "tshark"
	DriverTcpdump DriverType = "tcpdump"
)

type DriverType string

type TimeDuration time.Duration

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d *TimeDuration) MarshalYAML() (interface{}, error) {
	return time.Duration(*d).String(), nil
}

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	Capture  CaptureConfig `yaml:"capture"`
	Storage  StorageConfig `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`

	// MetricsListenAddr enables the Prometheus endpoint when set,
	// e.g. ":9090".
	MetricsListenAddr string `yaml:"metricsListenAddr"`
}

// Level parses the configured log level, defaulting to info.
func (s *Settings) Level() (slog.Level, error) {
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// CaptureConfig selects the capture driver. Exactly one of the driver
// sections matching Driver must be present.
type CaptureConfig struct {
	Driver  DriverType      `yaml:"driver"`
	Tshark  *tshark.Config  `yaml:"tshark"`
	Tcpdump *tcpdump.Config `yaml:"tcpdump"`
}

// Interface returns the capture interface of the selected driver.
func (c *CaptureConfig) Interface() string {
	switch c.Driver {
	case DriverTshark:
		if c.Tshark != nil {
			return c.Tshark.Interface
		}
	case DriverTcpdump:
		if c.Tcpdump != nil {
			return c.Tcpdump.Interface
		}
	}
	return ""
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string       `yaml:"dataDirectory"`
	MaxBatchSize  int          `yaml:"maxBatchSize"`
	FlushInterval TimeDuration `yaml:"flushInterval"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if _, err := c.Settings.Level(); err != nil {
		return err
	}

	switch c.Capture.Driver {
	case DriverTshark:
		if c.Capture.Tshark == nil {
			return fmt.Errorf("capture driver %q selected but no tshark section present", c.Capture.Driver)
		}
		if err := c.Capture.Tshark.Validate(); err != nil {
			return err
		}

	case DriverTcpdump:
		if c.Capture.Tcpdump == nil {
			return fmt.Errorf("capture driver %q selected but no tcpdump section present", c.Capture.Driver)
		}
		if err := c.Capture.Tcpdump.Validate(); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown capture driver %q", c.Capture.Driver)
	}

	if c.Storage.MaxBatchSize < 0 {
		return fmt.Errorf("storage batch size must not be negative: %d", c.Storage.MaxBatchSize)
	}
	if c.Storage.FlushInterval < 0 {
		return fmt.Errorf("storage flush interval must not be negative")
	}
	return nil
}
