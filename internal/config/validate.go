package config

import "fmt"

// Validate checks configuration correctness. It does not mutate the
// configuration.
func Validate(cfg *Config) error {
	if cfg.Sensor.Port == "" {
		return fmt.Errorf("sensor: port must be set")
	}
	if cfg.Sensor.Baud <= 0 {
		return fmt.Errorf("sensor: baud must be positive, got %d", cfg.Sensor.Baud)
	}
	if cfg.Sensor.ReadTimeoutMs <= 0 {
		return fmt.Errorf("sensor: read_timeout_ms must be positive, got %d", cfg.Sensor.ReadTimeoutMs)
	}
	if cfg.Sensor.MinInches < 0 || cfg.Sensor.MaxInches < 0 {
		return fmt.Errorf("sensor: range bounds must not be negative")
	}
	if cfg.Sensor.MinInches >= cfg.Sensor.MaxInches {
		return fmt.Errorf("sensor: min_inches %.1f must be below max_inches %.1f",
			cfg.Sensor.MinInches, cfg.Sensor.MaxInches)
	}

	switch cfg.Light.Driver {
	case "serial":
		if cfg.Light.Port == "" {
			return fmt.Errorf("light: serial driver requires a port")
		}
		if cfg.Light.Baud <= 0 {
			return fmt.Errorf("light: baud must be positive, got %d", cfg.Light.Baud)
		}
	case "gpio":
		if cfg.Light.GPIOChip == "" {
			return fmt.Errorf("light: gpio driver requires gpio_chip")
		}
		if cfg.Light.RedPin == cfg.Light.GreenPin {
			return fmt.Errorf("light: red_pin and green_pin must differ, both are %d", cfg.Light.RedPin)
		}
	case "off":
	default:
		return fmt.Errorf("light: unknown driver %q (want serial, gpio or off)", cfg.Light.Driver)
	}

	if cfg.Monitor.ScanIntervalMs <= 0 {
		return fmt.Errorf("monitor: scan_interval_ms must be positive, got %d", cfg.Monitor.ScanIntervalMs)
	}
	if cfg.Monitor.FullConfirmationCount < 1 {
		return fmt.Errorf("monitor: full_confirmation_count must be at least 1, got %d", cfg.Monitor.FullConfirmationCount)
	}
	if cfg.Monitor.FullRatioThreshold <= 0 || cfg.Monitor.FullRatioThreshold > 1 {
		return fmt.Errorf("monitor: full_ratio_threshold must be in (0,1], got %v", cfg.Monitor.FullRatioThreshold)
	}
	if cfg.Monitor.CalibrationFile == "" {
		return fmt.Errorf("monitor: calibration_file must be set")
	}
	if cfg.Monitor.CalibrationTimeoutMs <= 0 {
		return fmt.Errorf("monitor: calibration_timeout_ms must be positive, got %d", cfg.Monitor.CalibrationTimeoutMs)
	}

	if cfg.MQTT.Enabled && cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: enabled but no broker set")
	}

	if cfg.HTTP.Addr == "" {
		return fmt.Errorf("http: addr must be set")
	}

	return nil
}
