// Package config loads the daemon's YAML configuration file. Every
// field has a default, so a missing file or an empty document yields a
// usable configuration; command-line flags may override on top.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Sensor  SensorConfig  `yaml:"sensor"`
	Light   LightConfig   `yaml:"light"`
	Monitor MonitorConfig `yaml:"monitor"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
}

type SensorConfig struct {
	Port          string  `yaml:"port"`
	Baud          int     `yaml:"baud"`
	ReadTimeoutMs int     `yaml:"read_timeout_ms"`
	MinInches     float64 `yaml:"min_inches"`
	MaxInches     float64 `yaml:"max_inches"`
}

type LightConfig struct {
	// Driver selects the light backend: "serial", "gpio" or "off".
	Driver string `yaml:"driver"`

	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`

	GPIOChip string `yaml:"gpio_chip"`
	RedPin   int    `yaml:"red_pin"`
	GreenPin int    `yaml:"green_pin"`
}

type MonitorConfig struct {
	ScanIntervalMs        int     `yaml:"scan_interval_ms"`
	FullConfirmationCount int     `yaml:"full_confirmation_count"`
	FullRatioThreshold    float64 `yaml:"full_ratio_threshold"`
	CalibrationFile       string  `yaml:"calibration_file"`
	CalibrationTimeoutMs  int     `yaml:"calibration_timeout_ms"`
}

type MQTTConfig struct {
	Enabled bool   `yaml:"enabled"`
	Broker  string `yaml:"broker"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration the daemon runs with when no file
// is given.
func Default() Config {
	return Config{
		Sensor: SensorConfig{
			Port:          "/dev/ttyAMA0",
			Baud:          115200,
			ReadTimeoutMs: 1000,
			MinInches:     2,
			MaxInches:     800,
		},
		Light: LightConfig{
			Driver:   "serial",
			Port:     "/dev/ttyUSB0",
			Baud:     9600,
			GPIOChip: "gpiochip0",
			RedPin:   26,
			GreenPin: 16,
		},
		Monitor: MonitorConfig{
			ScanIntervalMs:        1000,
			FullConfirmationCount: 3,
			FullRatioThreshold:    0.8,
			CalibrationFile:       "chute_calibration.json",
			CalibrationTimeoutMs:  30000,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker:  "tcp://localhost:1883",
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
	}
}

// Load reads a YAML config file on top of the defaults. A missing file
// is not an error — defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := Validate(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
