// Package wifi provides netsup.Radio implementations.
package wifi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/smazurov/lightnode/internal/netsup"
)

const (
	joinTimeout    = 30 * time.Second
	commandTimeout = 5 * time.Second
	scanTimeout    = 20 * time.Second
	sampleInterval = time.Second

	// NetworkManager device state for an activated connection.
	nmStateActivated = 100
)

// runner executes nmcli with args and returns stdout.
type runner func(ctx context.Context, args ...string) ([]byte, error)

func execNmcli(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "nmcli", args...)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, fmt.Errorf("nmcli %s: %w: %s", args[0], err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("nmcli %s: %w", args[0], err)
	}
	return out, nil
}

// linkSample is one reading of the interface taken off the caller's goroutine.
type linkSample struct {
	up     bool
	ip     string
	rssi   int
	rssiOK bool
}

// NMCLI drives a Wi-Fi interface through NetworkManager. Joins, hotspot
// start-up and link sampling run in the background; JoinStatus,
// AccessPointReady, LocalIP and RSSI only read the latest outcome.
type NMCLI struct {
	iface    string
	run      runner
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	gen      int
	joining  bool
	joinOK   bool
	joinDone bool
	apReady  bool
	link     linkSample
}

// NewNMCLI creates a radio for the given interface, for example "wlan0".
func NewNMCLI(iface string, logger *slog.Logger) *NMCLI {
	if iface == "" {
		iface = "wlan0"
	}
	return &NMCLI{iface: iface, run: execNmcli, interval: sampleInterval, logger: logger}
}

// reset drops every background outcome and returns the new generation.
// Callers hold r.mu.
func (r *NMCLI) reset() int {
	r.gen++
	r.joining, r.joinDone, r.joinOK, r.apReady = false, false, false, false
	r.link = linkSample{}
	return r.gen
}

// BeginJoin starts a background connect to ssid. A newer call supersedes
// the outcome of an older one.
func (r *NMCLI) BeginJoin(ssid, password string) error {
	r.mu.Lock()
	gen := r.reset()
	r.joining = true
	r.mu.Unlock()

	args := []string{"device", "wifi", "connect", ssid}
	if password != "" {
		args = append(args, "password", password)
	}
	args = append(args, "ifname", r.iface)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
		defer cancel()
		_, err := r.run(ctx, args...)

		var first linkSample
		if err == nil {
			first = r.sample(true)
		}

		r.mu.Lock()
		if gen != r.gen {
			r.mu.Unlock()
			return
		}
		r.joining, r.joinDone, r.joinOK = false, true, err == nil
		r.link = first
		r.mu.Unlock()

		if err != nil {
			r.logger.Warn("Wi-Fi join failed", "ssid", ssid, "error", err)
			return
		}
		r.logger.Info("Wi-Fi joined", "ssid", ssid, "ip", first.ip)
		r.watch(gen, true)
	}()
	return nil
}

// JoinStatus reports the client link from the latest background sample, so a
// dropped link reads as LinkDown within one sample interval.
func (r *NMCLI) JoinStatus() netsup.LinkStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.joining:
		return netsup.LinkPending
	case r.joinDone && r.joinOK && r.link.up:
		return netsup.LinkUp
	}
	return netsup.LinkDown
}

// watch refreshes the link sample until the generation changes.
func (r *NMCLI) watch(gen int, client bool) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for range ticker.C {
		if !r.current(gen) {
			return
		}
		s := r.sample(client)
		r.mu.Lock()
		if gen != r.gen {
			r.mu.Unlock()
			return
		}
		r.link = s
		r.mu.Unlock()
	}
}

func (r *NMCLI) current(gen int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen == r.gen
}

// sample queries nmcli. It blocks for up to commandTimeout per query and must
// never run on the caller of the Radio methods.
func (r *NMCLI) sample(client bool) linkSample {
	var s linkSample
	s.ip = r.queryIP()
	if !client {
		return s
	}
	state, err := r.deviceState()
	s.up = err == nil && state == nmStateActivated
	if s.up {
		s.rssi, s.rssiOK = r.querySignal()
	}
	return s
}

func (r *NMCLI) deviceState() (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	out, err := r.run(ctx, "-g", "GENERAL.STATE", "device", "show", r.iface)
	if err != nil {
		return 0, err
	}
	// "100 (connected)"
	field := strings.Fields(strings.TrimSpace(string(out)))
	if len(field) == 0 {
		return 0, errors.New("empty device state")
	}
	return strconv.Atoi(field[0])
}

// StartAccessPoint brings up a hotspot in the background. NetworkManager
// picks a password when none is given.
func (r *NMCLI) StartAccessPoint(ssid, password string) error {
	r.mu.Lock()
	gen := r.reset()
	r.mu.Unlock()

	args := []string{"device", "wifi", "hotspot", "ifname", r.iface, "ssid", ssid}
	if password != "" {
		args = append(args, "password", password)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
		defer cancel()
		_, err := r.run(ctx, args...)

		var first linkSample
		if err == nil {
			first = r.sample(false)
		}

		r.mu.Lock()
		if gen != r.gen {
			r.mu.Unlock()
			return
		}
		if err != nil {
			r.mu.Unlock()
			r.logger.Error("Hotspot start failed", "ssid", ssid, "error", err)
			return
		}
		r.apReady = true
		r.link = first
		r.mu.Unlock()

		r.logger.Info("Hotspot active", "ssid", ssid, "ip", first.ip)
		r.watch(gen, false)
	}()
	return nil
}

// AccessPointReady reports whether the hotspot is up.
func (r *NMCLI) AccessPointReady() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apReady
}

// LocalIP returns the last sampled IPv4 address of the interface.
func (r *NMCLI) LocalIP() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.link.ip
}

// RSSI returns the last sampled signal of the active network in dBm.
func (r *NMCLI) RSSI() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.link.rssi, r.link.rssiOK
}

func (r *NMCLI) queryIP() string {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	out, err := r.run(ctx, "-g", "IP4.ADDRESS", "device", "show", r.iface)
	if err != nil {
		r.logger.Debug("IP lookup failed", "error", err)
		return ""
	}
	return parseIPv4(string(out))
}

func (r *NMCLI) querySignal() (int, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	out, err := r.run(ctx, "-t", "-f", "ACTIVE,SIGNAL", "device", "wifi", "list", "ifname", r.iface, "--rescan", "no")
	if err != nil {
		return 0, false
	}
	for _, line := range strings.Split(string(out), "\n") {
		fields := splitTerse(line)
		if len(fields) < 2 || fields[0] != "yes" {
			continue
		}
		pct, convErr := strconv.Atoi(fields[1])
		if convErr != nil {
			return 0, false
		}
		return percentToDBm(pct), true
	}
	return 0, false
}

// Shutdown disconnects the interface and drops any background outcome.
func (r *NMCLI) Shutdown() error {
	r.mu.Lock()
	r.reset()
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	_, err := r.run(ctx, "device", "disconnect", r.iface)
	return err
}

// Scan rescans and lists visible networks, strongest first per SSID.
func (r *NMCLI) Scan() ([]netsup.Network, error) {
	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()
	out, err := r.run(ctx, "-t", "-f", "SSID,SIGNAL,SECURITY", "device", "wifi", "list", "ifname", r.iface, "--rescan", "yes")
	if err != nil {
		return nil, err
	}
	return parseScan(string(out)), nil
}

func parseScan(out string) []netsup.Network {
	seen := make(map[string]int)
	var networks []netsup.Network
	for _, line := range strings.Split(out, "\n") {
		fields := splitTerse(line)
		if len(fields) < 3 || fields[0] == "" {
			continue
		}
		pct, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		n := netsup.Network{
			SSID:   fields[0],
			RSSI:   percentToDBm(pct),
			Secure: fields[2] != "" && fields[2] != "--",
		}
		if i, ok := seen[n.SSID]; ok {
			if n.RSSI > networks[i].RSSI {
				networks[i] = n
			}
			continue
		}
		seen[n.SSID] = len(networks)
		networks = append(networks, n)
	}
	return networks
}

// splitTerse splits one line of nmcli -t output. Literal colons inside a
// field are escaped as "\:".
func splitTerse(line string) []string {
	line = strings.TrimRight(line, "\r")
	if line == "" {
		return nil
	}
	var fields []string
	var cur strings.Builder
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '\\' && i+1 < len(line):
			i++
			cur.WriteByte(line[i])
		case c == ':':
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	return append(fields, cur.String())
}

func parseIPv4(out string) string {
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		// -g separates multiple addresses with " | "
		for _, addr := range strings.Split(line, "|") {
			addr = strings.TrimSpace(addr)
			if addr == "" {
				continue
			}
			if i := strings.IndexByte(addr, '/'); i >= 0 {
				addr = addr[:i]
			}
			return addr
		}
	}
	return ""
}

// percentToDBm converts NetworkManager signal quality to dBm.
func percentToDBm(pct int) int {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct/2 - 100
}
