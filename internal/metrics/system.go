package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var temperature = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "lightnode",
	Subsystem: "system",
	Name:      "temperature_celsius",
	Help:      "Board thermal zone temperature",
}, []string{"zone"})

// SetTemperature records the temperature of a thermal zone.
func SetTemperature(zone string, celsius float64) {
	temperature.WithLabelValues(zone).Set(celsius)
}

// DeleteTemperature removes a zone that disappeared.
func DeleteTemperature(zone string) {
	temperature.DeleteLabelValues(zone)
}
