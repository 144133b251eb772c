package robot

import (
	"encoding/json"
	"os"
	"time"
)

const DefaultConfigFile = "odrive.json"

// Config holds the configuration of a leader/follower drive pair
type Config struct {
	Leader   DriveConfig `json:"leader"`
	Follower DriveConfig `json:"follower"`
}

// DriveConfig holds configuration for a single ODrive
type DriveConfig struct {
	Port          string      `json:"port"`
	BaudRate      int         `json:"baud_rate,omitempty"`
	ReadTimeoutMS int         `json:"read_timeout_ms,omitempty"`
	Calibration   Calibration `json:"calibration,omitempty"`
}

// IsCalibrated returns true if the drive has calibration data
func (d *DriveConfig) IsCalibrated() bool {
	return len(d.Calibration) > 0
}

// ReadTimeout returns the configured serial read timeout, or zero for the default
func (d *DriveConfig) ReadTimeout() time.Duration {
	return time.Duration(d.ReadTimeoutMS) * time.Millisecond
}

// LoadConfig loads configuration from the default config file
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultConfigFile)
}

// LoadConfigFrom loads configuration from a specific file
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save saves configuration to the default config file
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigFile)
}

// SaveTo saves configuration to a specific file
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists returns true if the default config file exists
func ConfigExists() bool {
	_, err := os.Stat(DefaultConfigFile)
	return err == nil
}
