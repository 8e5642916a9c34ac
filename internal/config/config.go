// Package config handles YAML run configuration parsing and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultRequestTimeout bounds a single request. Without it a hung
	// connection can stall a virtual user past the step deadline.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultSampleInterval is the datastore monitor's sampling cadence.
	DefaultSampleInterval = 5 * time.Second
)

// Config is the root run configuration. Durations are given in seconds in
// the YAML file. A validated Config is treated as immutable for the run.
type Config struct {
	URL             string            `yaml:"url"`
	Method          string            `yaml:"method"`
	Payload         string            `yaml:"payload"`
	Headers         map[string]string `yaml:"headers"`
	StartUsers      int               `yaml:"startUsers"`
	MaxUsers        int               `yaml:"maxUsers"`
	IncrementBy     int               `yaml:"incrementBy"`
	DurationPerStep int               `yaml:"durationPerStep"`
	RampUpTime      int               `yaml:"rampUpTime"`
	RequestTimeout  int               `yaml:"requestTimeout"`
	MaxRPS          int               `yaml:"maxRPS"`
	Monitor         *MonitorConfig    `yaml:"monitor,omitempty"`
	Log             LogConfig         `yaml:"log"`
}

// MonitorConfig configures the Redis metrics sampler.
type MonitorConfig struct {
	Addr           string `yaml:"addr"`
	Password       string `yaml:"password"`
	DB             int    `yaml:"db"`
	SampleInterval int    `yaml:"sampleInterval"`
}

// LogConfig configures the log sink. When File is empty the sink writes to
// the console only.
type LogConfig struct {
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
	Level   string `yaml:"level"`
}

// StepDuration returns how long each step sustains its load.
func (c *Config) StepDuration() time.Duration {
	return time.Duration(c.DurationPerStep) * time.Second
}

// RampUp returns the delay before each step's workers launch.
func (c *Config) RampUp() time.Duration {
	return time.Duration(c.RampUpTime) * time.Second
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}

// Interval returns the monitor's sampling interval.
func (m *MonitorConfig) Interval() time.Duration {
	if m.SampleInterval <= 0 {
		return DefaultSampleInterval
	}
	return time.Duration(m.SampleInterval) * time.Second
}

// Load reads, parses and validates a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Method == "" {
		c.Method = "GET"
	}
	c.Method = strings.ToUpper(c.Method)
	if c.RequestTimeout == 0 {
		c.RequestTimeout = int(DefaultRequestTimeout / time.Second)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

var allowedMethods = map[string]bool{
	"GET": true, "HEAD": true, "POST": true, "PUT": true,
	"PATCH": true, "DELETE": true, "OPTIONS": true,
}

// Validate checks every invariant the ramp engine relies on. A Config that
// passes Validate never needs re-checking downstream.
func (c *Config) Validate() error {
	u, err := url.ParseRequestURI(c.URL)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", c.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid url %q: scheme must be http or https", c.URL)
	}
	if !allowedMethods[c.Method] {
		return fmt.Errorf("unsupported method %q", c.Method)
	}
	if c.Payload != "" && !gjson.Valid(c.Payload) {
		return fmt.Errorf("payload is not valid JSON")
	}
	if c.StartUsers < 1 {
		return fmt.Errorf("startUsers must be >= 1, got %d", c.StartUsers)
	}
	if c.MaxUsers < c.StartUsers {
		return fmt.Errorf("maxUsers (%d) must be >= startUsers (%d)", c.MaxUsers, c.StartUsers)
	}
	if c.IncrementBy < 1 {
		return fmt.Errorf("incrementBy must be >= 1, got %d", c.IncrementBy)
	}
	if c.DurationPerStep <= 0 {
		return fmt.Errorf("durationPerStep must be > 0, got %d", c.DurationPerStep)
	}
	if c.RampUpTime < 0 {
		return fmt.Errorf("rampUpTime must be >= 0, got %d", c.RampUpTime)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("requestTimeout must be > 0, got %d", c.RequestTimeout)
	}
	if c.MaxRPS < 0 {
		return fmt.Errorf("maxRPS must be >= 0, got %d", c.MaxRPS)
	}
	if c.Monitor != nil {
		if c.Monitor.Addr == "" {
			return fmt.Errorf("monitor.addr is required when monitor is configured")
		}
		if c.Monitor.SampleInterval < 0 {
			return fmt.Errorf("monitor.sampleInterval must be >= 0, got %d", c.Monitor.SampleInterval)
		}
	}
	return nil
}
