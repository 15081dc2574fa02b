package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"

	"github.com/smazurov/lightnode/cmd"
	"github.com/smazurov/lightnode/internal/api"
	"github.com/smazurov/lightnode/internal/artnet"
	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/display"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/gpio"
	"github.com/smazurov/lightnode/internal/input"
	"github.com/smazurov/lightnode/internal/led"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/metrics/collectors"
	"github.com/smazurov/lightnode/internal/metrics/exporters"
	"github.com/smazurov/lightnode/internal/netsup"
	"github.com/smazurov/lightnode/internal/node"
	"github.com/smazurov/lightnode/internal/pixel"
	"github.com/smazurov/lightnode/internal/settings"
	"github.com/smazurov/lightnode/internal/strip"
	"github.com/smazurov/lightnode/internal/systemd"
	"github.com/smazurov/lightnode/internal/updater"
	"github.com/smazurov/lightnode/internal/version"
	"github.com/smazurov/lightnode/internal/wifi"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"config.toml"`

	// Server settings
	Port       string `help:"Port to listen on" short:"p" default:":80" toml:"server.port" env:"SERVER_PORT"`
	CORSOrigin string `help:"Origin allowed to call the API from another host" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// Art-Net settings
	ArtNetListen string `help:"Art-Net UDP listen address" default:":6454" toml:"artnet.listen" env:"ARTNET_LISTEN"`

	// Strip settings
	StripLength  int    `help:"Number of LEDs on the strip" default:"120" toml:"strip.length" env:"STRIP_LENGTH"`
	StripDriver  string `help:"Strip driver (spi, log)" default:"spi" toml:"strip.driver" env:"STRIP_DRIVER"`
	StripSPIPort string `help:"SPI port for the strip, empty for the first one" default:"" toml:"strip.spi_port" env:"STRIP_SPI_PORT"`

	// Display settings
	DisplayDriver string `help:"Display driver (ssd1306, log, none)" default:"ssd1306" toml:"display.driver" env:"DISPLAY_DRIVER"`
	DisplayI2CBus string `help:"I2C bus of the display, empty for the first one" default:"" toml:"display.i2c_bus" env:"DISPLAY_I2C_BUS"`

	// Input settings
	InputDriver         string `help:"Local input driver (gpio, none)" default:"gpio" toml:"input.driver" env:"INPUT_DRIVER"`
	InputGPIOChip       string `help:"GPIO chip of the encoder and button" default:"gpiochip0" toml:"input.gpio_chip" env:"INPUT_GPIO_CHIP"`
	InputButtonLine     int    `help:"Button line offset" default:"17" toml:"input.button_line" env:"INPUT_BUTTON_LINE"`
	InputEncoderALine   int    `help:"Encoder A line offset" default:"27" toml:"input.encoder_a_line" env:"INPUT_ENCODER_A_LINE"`
	InputEncoderBLine   int    `help:"Encoder B line offset" default:"22" toml:"input.encoder_b_line" env:"INPUT_ENCODER_B_LINE"`
	InputStepsPerDetent int    `help:"Quadrature steps per encoder detent" default:"2" toml:"input.steps_per_detent" env:"INPUT_STEPS_PER_DETENT"`

	// Network settings
	NetworkRadio            string `help:"Wi-Fi radio (nmcli, sim)" default:"nmcli" toml:"network.radio" env:"NETWORK_RADIO"`
	NetworkInterface        string `help:"Wi-Fi interface" default:"wlan0" toml:"network.interface" env:"NETWORK_INTERFACE"`
	NetworkJoinTimeout      string `help:"Client join window before falling back to the access point, 0 waits forever" default:"10s" toml:"network.join_timeout" env:"NETWORK_JOIN_TIMEOUT"`
	NetworkJoinPollInterval string `help:"Check interval during the join window" default:"500ms" toml:"network.join_poll_interval" env:"NETWORK_JOIN_POLL_INTERVAL"`
	NetworkAPPassword       string `help:"Fallback access point password" default:"lightnode" toml:"network.ap_password" env:"NETWORK_AP_PASSWORD"`
	NetworkService          string `help:"systemd unit of the host network stack" default:"NetworkManager.service" toml:"network.service" env:"NETWORK_SERVICE"`

	// Settings store
	SettingsFile string `help:"Persistent settings file" default:"settings.toml" toml:"settings.file" env:"SETTINGS_FILE"`

	// Features settings
	FeaturesStatusLED bool `help:"Mirror connectivity on the board status LED" default:"false" toml:"features.status_led" env:"FEATURES_STATUS_LED"`

	// Observability settings
	ObsPrometheusEnabled bool   `help:"Enable Prometheus" default:"true" toml:"obs.prometheus_enabled" env:"OBS_PROMETHEUS_ENABLED"`
	ObsSSEEnabled        bool   `help:"Enable SSE metrics" default:"true" toml:"obs.sse_enabled" env:"OBS_SSE_ENABLED"`
	ObsThermalInterval   string `help:"Board temperature sampling interval, 0 disables" default:"10s" toml:"obs.thermal_interval" env:"OBS_THERMAL_INTERVAL"`

	// Update settings
	UpdateRepository string `help:"GitHub repository for self updates" default:"smazurov/lightnode" toml:"update.repository" env:"UPDATE_REPOSITORY"`
	UpdatePrerelease bool   `help:"Include prereleases in self updates" default:"false" toml:"update.prerelease" env:"UPDATE_PRERELEASE"`

	// Logging settings
	LoggingLevel    string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat   string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingIngest   string `help:"Art-Net ingest logging level" default:"info" toml:"logging.ingest" env:"LOGGING_INGEST"`
	LoggingInput    string `help:"Encoder and button logging level" default:"info" toml:"logging.input" env:"LOGGING_INPUT"`
	LoggingNetwork  string `help:"Network supervisor logging level" default:"info" toml:"logging.network" env:"LOGGING_NETWORK"`
	LoggingWifi     string `help:"Wi-Fi radio logging level" default:"info" toml:"logging.wifi" env:"LOGGING_WIFI"`
	LoggingStrip    string `help:"Strip driver logging level" default:"info" toml:"logging.strip" env:"LOGGING_STRIP"`
	LoggingDisplay  string `help:"Display logging level" default:"info" toml:"logging.display" env:"LOGGING_DISPLAY"`
	LoggingSettings string `help:"Settings store logging level" default:"info" toml:"logging.settings" env:"LOGGING_SETTINGS"`
	LoggingAPI      string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP     string `help:"HTTP access logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"ingest":   opts.LoggingIngest,
				"input":    opts.LoggingInput,
				"gpio":     opts.LoggingInput,
				"network":  opts.LoggingNetwork,
				"wifi":     opts.LoggingWifi,
				"strip":    opts.LoggingStrip,
				"display":  opts.LoggingDisplay,
				"settings": opts.LoggingSettings,
				"api":      opts.LoggingAPI,
				"http":     opts.LoggingHTTP,
			},
		})

		logger := logging.GetLogger("main")
		logger.Info("Starting LightNode", "version", version.String())

		fatal := func(msg string, err error) {
			logger.Error(msg, "error", err)
			os.Exit(1)
		}

		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Seq:        entry.Seq,
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		// Boot-fatal hardware and storage
		pixels, err := pixel.New(opts.StripLength)
		if err != nil {
			fatal("Failed to allocate pixel buffer", err)
		}
		stripDriver, err := strip.New(opts.StripDriver, opts.StripSPIPort, opts.StripLength, logging.GetLogger("strip"))
		if err != nil {
			fatal("Failed to open LED strip", err)
		}
		renderer, err := display.New(opts.DisplayDriver, opts.DisplayI2CBus, logging.GetLogger("display"))
		if err != nil {
			fatal("Failed to open display", err)
		}
		store := settings.NewTOML(opts.SettingsFile)
		if loadErr := store.Load(); loadErr != nil {
			fatal("Failed to load settings", loadErr)
		}
		radio, err := wifi.New(opts.NetworkRadio, opts.NetworkInterface, logging.GetLogger("wifi"))
		if err != nil {
			fatal("Failed to create Wi-Fi radio", err)
		}

		encoder := input.NewEncoder(opts.InputStepsPerDetent)
		button := input.NewButton()
		var gpioInputs *gpio.Inputs
		switch opts.InputDriver {
		case "gpio":
			gpioInputs, err = gpio.Open(gpio.Config{
				Chip:         opts.InputGPIOChip,
				ButtonLine:   opts.InputButtonLine,
				EncoderALine: opts.InputEncoderALine,
				EncoderBLine: opts.InputEncoderBLine,
			}, button, encoder, logging.GetLogger("gpio"))
			if err != nil {
				fatal("Failed to open GPIO input", err)
			}
		case "none":
			logger.Info("Local input disabled")
		default:
			fatal("Unknown input driver", errors.New(opts.InputDriver))
		}

		policy := netsup.JoinPolicy{
			Timeout:      parseDuration(logger, "network.join_timeout", opts.NetworkJoinTimeout, netsup.DefaultJoinPolicy.Timeout),
			PollInterval: parseDuration(logger, "network.join_poll_interval", opts.NetworkJoinPollInterval, netsup.DefaultJoinPolicy.PollInterval),
		}

		transport := artnet.NewTransport(opts.ArtNetListen, logging.GetLogger("ingest"))
		notifier := systemd.NewNotifier()

		loop := node.New(node.Options{
			Pixels:     pixels,
			Strip:      stripDriver,
			Store:      store,
			Radio:      radio,
			Policy:     policy,
			APPassword: opts.NetworkAPPassword,
			Renderer:   renderer,
			Frames:     transport,
			Encoder:    encoder,
			Button:     button,
			Bus:        eventBus,
			Notifier:   notifier,
			HTTPPort:   portNumber(opts.Port),
			Logger:     logging.GetLogger("node"),
		})

		// External edits of the settings file reach the loop like API writes.
		settingsWatcher := config.NewConfigWatcher(store.Path(),
			func(string) (settings.NetworkConfig, error) {
				if reloadErr := store.Reload(); reloadErr != nil {
					return settings.NetworkConfig{}, reloadErr
				}
				return settings.LoadNetworkConfig(store), nil
			},
			logging.GetLogger("settings"))
		settingsWatcher.OnReload(func(settings.NetworkConfig) {
			if reqErr := loop.RequestReload("file"); reqErr != nil {
				logger.Warn("Failed to queue settings reload", "error", reqErr)
			}
		})

		var ledManager *led.Manager
		if opts.FeaturesStatusLED {
			logger.Info("Status LED enabled, initializing")
			ledLogger := logging.GetLogger("led")
			ledManager = led.NewManager(led.New(ledLogger), eventBus, ledLogger)
		}

		var thermal *collectors.ThermalCollector
		if interval := parseDuration(logger, "obs.thermal_interval", opts.ObsThermalInterval, 0); interval > 0 {
			thermal = collectors.NewThermalCollector(collectors.DefaultThermalRoot, interval)
		}

		var sseExporter *exporters.SSEExporter
		if opts.ObsSSEEnabled {
			sseExporter = exporters.NewSSEExporter(eventBus)
		}

		updateService, err := updater.NewService(&updater.Options{
			Repository: opts.UpdateRepository,
			Prerelease: opts.UpdatePrerelease,
		})
		if err != nil {
			logger.Warn("Update service unavailable", "error", err)
			updateService = nil
		}

		apiOpts := &api.Options{
			Node:           loop,
			Store:          store,
			EventBus:       eventBus,
			Scanner:        radio,
			UpdateService:  updateService,
			NetworkService: opts.NetworkService,
			Notifier:       notifier,
			CORSOrigin:     opts.CORSOrigin,
		}
		if ledManager != nil {
			apiOpts.StatusLED = ledManager
		}
		if opts.ObsPrometheusEnabled {
			apiOpts.PrometheusHandler = exporters.HTTPHandler()
		}

		ctx, cancel := context.WithCancel(context.Background())

		systemdManager, err := systemd.NewManager(ctx)
		if err != nil {
			logger.Warn("systemd D-Bus unavailable, network service routes disabled", "error", err)
		} else {
			apiOpts.SystemdManager = systemdManager
		}

		server := api.NewServer(apiOpts)
		loopDone := make(chan struct{})

		hooks.OnStart(func() {
			if startErr := transport.Start(ctx); startErr != nil {
				fatal("Failed to start Art-Net listener", startErr)
			}

			// Blocks for the join window; the display shows progress.
			loop.Boot()
			notifier.Ready()

			go func() {
				defer close(loopDone)
				if runErr := loop.Run(ctx); runErr != nil {
					logger.Error("Main loop stopped", "error", runErr)
				}
			}()

			if watchErr := settingsWatcher.Start(); watchErr != nil {
				logger.Warn("Failed to watch settings file", "error", watchErr)
			}
			if ledManager != nil {
				ledManager.Start()
			}
			if thermal != nil {
				if startErr := thermal.Start(ctx); startErr != nil {
					logger.Warn("Failed to start thermal collector", "error", startErr)
				}
			}
			if sseExporter != nil {
				sseExporter.Start(ctx)
			}

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				fatal("Failed to start HTTP server", startErr)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()

			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			if stopErr := settingsWatcher.Stop(); stopErr != nil {
				logger.Warn("Error stopping settings watcher", "error", stopErr)
			}

			cancel()
			<-loopDone

			if stopErr := transport.Stop(); stopErr != nil {
				logger.Warn("Error stopping Art-Net listener", "error", stopErr)
			}
			if sseExporter != nil {
				sseExporter.Stop()
			}
			if thermal != nil {
				_ = thermal.Stop()
			}
			if ledManager != nil {
				ledManager.Stop()
			}
			if systemdManager != nil {
				systemdManager.Close()
			}
			handles := []hardware{{"strip", stripDriver}, {"display", renderer}}
			if gpioInputs != nil {
				handles = append([]hardware{{"gpio", gpioInputs}}, handles...)
			}
			releaseHardware(logger, handles...)
		})
	})

	cli.Root().Version = version.String()
	cli.Root().AddCommand(cmd.CreateSendCmd())
	cli.Root().AddCommand(cmd.CreateTestPatternCmd())
	cli.Root().AddCommand(cmd.CreateScanCmd())
	cli.Root().AddCommand(cmd.CreateUpdateCmd())

	cli.Run()
}

// hardware is a device handle released on shutdown.
type hardware struct {
	name   string
	closer io.Closer
}

// releaseHardware closes every handle, logging the ones that fail.
func releaseHardware(logger *slog.Logger, handles ...hardware) {
	for _, h := range handles {
		if h.closer == nil {
			continue
		}
		if err := h.closer.Close(); err != nil {
			logger.Warn("Error releasing hardware", "device", h.name, "error", err)
		}
	}
}

// parseDuration reads a duration option, logging and falling back on bad
// input.
func parseDuration(logger *slog.Logger, key, value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	if value == "0" {
		return 0
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		logger.Warn("Invalid duration, using default", "key", key, "value", value, "default", fallback)
		return fallback
	}
	return d
}

// portNumber extracts the port from a listen address such as ":80".
func portNumber(addr string) int {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		port = addr
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return n
}
