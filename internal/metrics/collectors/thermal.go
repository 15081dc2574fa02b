// Package collectors samples board state into the metrics registry.
package collectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/metrics"
)

// DefaultThermalRoot is where Linux exposes thermal zones.
const DefaultThermalRoot = "/sys/class/thermal"

// ThermalCollector samples /sys/class/thermal/thermal_zone*/temp.
type ThermalCollector struct {
	logger   logging.Logger
	root     string
	interval time.Duration
	zones    map[string]bool
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewThermalCollector creates a collector sampling every interval.
func NewThermalCollector(root string, interval time.Duration) *ThermalCollector {
	if root == "" {
		root = DefaultThermalRoot
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &ThermalCollector{
		logger:   logging.GetLogger("metrics"),
		root:     root,
		interval: interval,
		zones:    make(map[string]bool),
	}
}

// Start begins sampling.
func (c *ThermalCollector) Start(ctx context.Context) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	go c.run()
	return nil
}

// Stop stops sampling.
func (c *ThermalCollector) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

func (c *ThermalCollector) run() {
	c.logger.Info("Starting thermal sampling", "root", c.root, "interval", c.interval)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.collect()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.collect()
		}
	}
}

func (c *ThermalCollector) collect() {
	readings, err := readZones(c.root)
	if err != nil {
		c.logger.Debug("Failed to read thermal zones", "error", err)
		return
	}

	seen := make(map[string]bool, len(readings))
	for zone, celsius := range readings {
		metrics.SetTemperature(zone, celsius)
		seen[zone] = true
	}
	for zone := range c.zones {
		if !seen[zone] {
			metrics.DeleteTemperature(zone)
		}
	}
	c.zones = seen
}

// readZones returns the temperature of every readable zone keyed by its type.
func readZones(root string) (map[string]float64, error) {
	dirs, err := filepath.Glob(filepath.Join(root, "thermal_zone*"))
	if err != nil {
		return nil, err
	}

	readings := make(map[string]float64, len(dirs))
	for _, dir := range dirs {
		raw, err := os.ReadFile(filepath.Join(dir, "temp"))
		if err != nil {
			continue
		}
		celsius, err := parseMilliCelsius(string(raw))
		if err != nil {
			continue
		}
		name := filepath.Base(dir)
		if kind, err := os.ReadFile(filepath.Join(dir, "type")); err == nil {
			if k := strings.TrimSpace(string(kind)); k != "" {
				name = k
			}
		}
		readings[name] = celsius
	}
	return readings, nil
}

func parseMilliCelsius(s string) (float64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid temperature %q: %w", strings.TrimSpace(s), err)
	}
	return float64(v) / 1000, nil
}
