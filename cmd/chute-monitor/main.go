// Command chute-monitor reads a LiDAR distance sensor over serial,
// infers whether the trash chute is full and drives a status light.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/chute-monitor/internal/calibration"
	"github.com/sweeney/chute-monitor/internal/config"
	"github.com/sweeney/chute-monitor/internal/frame"
	"github.com/sweeney/chute-monitor/internal/light"
	"github.com/sweeney/chute-monitor/internal/logic"
	"github.com/sweeney/chute-monitor/internal/monitor"
	"github.com/sweeney/chute-monitor/internal/mqtt"
	"github.com/sweeney/chute-monitor/internal/serialport"
	"github.com/sweeney/chute-monitor/internal/status"
	"github.com/sweeney/chute-monitor/internal/web"
)

func main() {
	cfgPath := flag.String("config", "", "YAML config file (optional)")
	sensorPort := flag.String("sensor-port", "", "Sensor serial device (overrides config)")
	lightPort := flag.String("light-port", "", "Light serial device (overrides config)")
	broker := flag.String("broker", "", "MQTT broker address (overrides config, enables MQTT)")
	httpAddr := flag.String("http", "", "HTTP dashboard address (overrides config)")
	interval := flag.Duration("interval", 0, "Scan interval (overrides config)")
	calibrationFile := flag.String("calibration-file", "", "Calibration JSON file (overrides config)")
	scanOnce := flag.Bool("scan-once", false, "Perform a single scan, print the status JSON and exit")
	calibrate := flag.String("calibrate", "", `Calibrate "empty" or "full" and exit`)

	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	applyOverrides(&cfg, overrides{
		sensorPort:      *sensorPort,
		lightPort:       *lightPort,
		broker:          *broker,
		httpAddr:        *httpAddr,
		interval:        *interval,
		calibrationFile: *calibrationFile,
	})

	if err := run(cfg, *scanOnce, *calibrate); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// overrides carries flag values that take precedence over the config
// file. Zero values mean "not given".
type overrides struct {
	sensorPort      string
	lightPort       string
	broker          string
	httpAddr        string
	interval        time.Duration
	calibrationFile string
}

func applyOverrides(cfg *config.Config, o overrides) {
	if o.sensorPort != "" {
		cfg.Sensor.Port = o.sensorPort
	}
	if o.lightPort != "" {
		cfg.Light.Port = o.lightPort
	}
	if o.broker != "" {
		cfg.MQTT.Enabled = true
		cfg.MQTT.Broker = o.broker
	}
	if o.httpAddr != "" {
		cfg.HTTP.Addr = o.httpAddr
	}
	if o.interval > 0 {
		cfg.Monitor.ScanIntervalMs = int(o.interval.Milliseconds())
	}
	if o.calibrationFile != "" {
		cfg.Monitor.CalibrationFile = o.calibrationFile
	}
}

func run(cfg config.Config, scanOnce bool, calibrate string) error {
	oneShot := scanOnce || calibrate != ""

	// Sensor channel. Without it nothing works.
	port, err := serialport.Open(cfg.Sensor.Port, cfg.Sensor.Baud,
		time.Duration(cfg.Sensor.ReadTimeoutMs)*time.Millisecond)
	if err != nil {
		return fmt.Errorf("open sensor %s: %w", cfg.Sensor.Port, err)
	}
	defer port.Close()
	decoder := frame.NewDecoder(port, cfg.Sensor.MinInches, cfg.Sensor.MaxInches)

	// Light channel. A missing light degrades, it does not abort.
	lightDriver := openLight(cfg.Light, oneShot)
	defer lightDriver.Close()

	store := calibration.NewStore(cfg.Monitor.CalibrationFile)
	if err := store.Load(); err != nil {
		log.Printf("calibration load: %v", err)
	}

	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Enabled && !oneShot {
		rp := mqtt.NewRealPublisher(cfg.MQTT.Broker)
		defer rp.Close()
		publisher = rp
		mqttStatus = rp
	}

	tracker := status.NewTracker(time.Now(), status.Config{
		ScanIntervalMs:        int64(cfg.Monitor.ScanIntervalMs),
		FullConfirmationCount: cfg.Monitor.FullConfirmationCount,
		FullRatioThreshold:    cfg.Monitor.FullRatioThreshold,
		SensorPort:            cfg.Sensor.Port,
		LightDriver:           cfg.Light.Driver,
		Broker:                cfg.MQTT.Broker,
		HTTPAddr:              cfg.HTTP.Addr,
	})

	mon := monitor.New(decoder, lightDriver, store, tracker, publisher, logic.Config{
		ScanInterval:          time.Duration(cfg.Monitor.ScanIntervalMs) * time.Millisecond,
		FullConfirmationCount: cfg.Monitor.FullConfirmationCount,
		FullRatioThreshold:    cfg.Monitor.FullRatioThreshold,
	})
	mon.SetCalibrationTimeout(time.Duration(cfg.Monitor.CalibrationTimeoutMs) * time.Millisecond)

	// One-shot modes: no loop, no MQTT, no HTTP.
	if calibrate != "" {
		return runCalibrate(mon, calibrate)
	}
	if scanOnce {
		snap, err := mon.ScanOnce()
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", status.FormatJSON(snap))
		return nil
	}

	// Publish startup event with full status snapshot
	if publisher != nil {
		snap := tracker.Snapshot()
		startupEvent := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startupEvent); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, mon)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http dashboard listening on %s", cfg.HTTP.Addr)
	}

	mon.Start()
	log.Printf("started: sensor=%s light=%s interval=%dms", cfg.Sensor.Port, cfg.Light.Driver, cfg.Monitor.ScanIntervalMs)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	log.Printf("received %v, shutting down", s)

	mon.Stop()

	if publisher != nil {
		signalName := "UNKNOWN"
		if s == syscall.SIGINT {
			signalName = "SIGINT"
		} else if s == syscall.SIGTERM {
			signalName = "SIGTERM"
		}
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
		snap := tracker.Snapshot()
		event := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "SHUTDOWN",
			Reason:     signalName,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", signalName),
		}
		if err := publisher.PublishSystem(event); err != nil {
			log.Printf("failed to publish shutdown event: %v", err)
		} else {
			log.Printf("published shutdown event")
		}
	}
	return nil
}

func runCalibrate(mon *monitor.Monitor, kind string) error {
	var res monitor.CalibrationResult
	var err error
	switch kind {
	case "empty":
		res, err = mon.CalibrateEmpty()
	case "full":
		res, err = mon.CalibrateFull()
	default:
		return fmt.Errorf("unknown calibration target %q (want empty or full)", kind)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s calibration: %.2f inches (%d samples)\n", kind, res.Inches, res.Samples)
	return nil
}

// openLight builds the configured light driver. Failures are logged
// and replaced with a no-op driver so sensing can continue without a
// light; one-shot modes skip the hardware entirely.
func openLight(cfg config.LightConfig, oneShot bool) light.Driver {
	if oneShot || cfg.Driver == "off" {
		return light.NopDriver{}
	}

	switch cfg.Driver {
	case "serial":
		port, err := serialport.Open(cfg.Port, cfg.Baud, time.Second)
		if err != nil {
			log.Printf("open light %s: %v (continuing without light)", cfg.Port, err)
			return light.NopDriver{}
		}
		return light.NewSerialDriver(port)
	case "gpio":
		d, err := light.NewGPIODriver(cfg.GPIOChip, cfg.RedPin, cfg.GreenPin)
		if err != nil {
			log.Printf("open gpio light on %s: %v (continuing without light)", cfg.GPIOChip, err)
			return light.NopDriver{}
		}
		return d
	default:
		log.Printf("unknown light driver %q, continuing without light", cfg.Driver)
		return light.NopDriver{}
	}
}
