package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Mode is the persisted Wi-Fi mode.
type Mode string

// Persisted mode values. They match what the configuration page posts.
const (
	ModeClient      Mode = "client"
	ModeAccessPoint Mode = "ap"
)

// MaxSSIDLength is the longest client network name accepted for joining.
const MaxSSIDLength = 31

// ErrInvalidMode is returned when parsing an unknown mode.
var ErrInvalidMode = errors.New("settings: invalid network mode")

// ParseMode accepts the stored and posted spellings of a mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "client", "sta", "station":
		return ModeClient, nil
	case "ap", "accesspoint", "access_point":
		return ModeAccessPoint, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// NetworkConfig is the persisted network and protocol record.
type NetworkConfig struct {
	Mode           Mode   `json:"netmode"`
	ClientSSID     string `json:"ssid"`
	ClientPassword string `json:"-"`
	APSSID         string `json:"ap_ssid"`
	Universe       uint16 `json:"universe"`
}

// ClientUsable reports whether the client credentials can be used to join.
func (c NetworkConfig) ClientUsable() bool {
	n := len([]rune(c.ClientSSID))
	return n > 0 && n <= MaxSSIDLength
}

// LoadNetworkConfig reads the record from s. Unknown modes fall back to
// access point and out-of-range universes to 0.
func LoadNetworkConfig(s Store) NetworkConfig {
	mode, err := ParseMode(s.Get(KeyNetMode, string(ModeAccessPoint)))
	if err != nil {
		mode = ModeAccessPoint
	}

	universe := uint16(0)
	if v, convErr := strconv.Atoi(s.Get(KeyUniverse, "0")); convErr == nil && v >= 0 && v < 512 {
		universe = uint16(v)
	}

	return NetworkConfig{
		Mode:           mode,
		ClientSSID:     s.Get(KeySSID, ""),
		ClientPassword: s.Get(KeyPassword, ""),
		APSSID:         s.Get(KeyAPSSID, ""),
		Universe:       universe,
	}
}

// SaveNetworkConfig writes every field of c to s.
func SaveNetworkConfig(s Store, c NetworkConfig) error {
	pairs := [][2]string{
		{KeyNetMode, string(c.Mode)},
		{KeySSID, c.ClientSSID},
		{KeyPassword, c.ClientPassword},
		{KeyAPSSID, c.APSSID},
		{KeyUniverse, strconv.Itoa(int(c.Universe))},
	}
	for _, p := range pairs {
		if err := s.Put(p[0], p[1]); err != nil {
			return fmt.Errorf("failed to save %s: %w", p[0], err)
		}
	}
	return nil
}

// SaveUniverse persists only the universe.
func SaveUniverse(s Store, u uint16) error {
	return s.Put(KeyUniverse, strconv.Itoa(int(u)))
}
