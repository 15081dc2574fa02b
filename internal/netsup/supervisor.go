// Package netsup supervises Wi-Fi connectivity: client join, fallback to a
// local access point, link re-checks and reconnection.
package netsup

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/metrics"
	"github.com/smazurov/lightnode/internal/settings"
)

// Intervals for the periodic checks while connected.
const (
	LinkCheckInterval = 500 * time.Millisecond
	RSSIInterval      = 30 * time.Second
)

// APSSIDPrefix prefixes generated access point names.
const APSSIDPrefix = "LightNode-"

// Publisher receives connection events.
type Publisher interface {
	Publish(ev events.Event)
}

// Status is the externally visible connectivity snapshot.
type Status struct {
	Mode      settings.Mode `json:"mode" example:"client" doc:"Effective network mode"`
	State     string        `json:"state" example:"client_connected" doc:"Connection state"`
	IP        string        `json:"ip" example:"192.168.1.42" doc:"Local IP address"`
	SSID      string        `json:"ssid" example:"studio" doc:"Joined or hosted network name"`
	RSSI      int           `json:"rssi" example:"-61" doc:"Signal strength in dBm"`
	RSSIValid bool          `json:"rssi_valid" example:"true" doc:"Whether RSSI holds a sample"`
}

// Options configures a Supervisor.
type Options struct {
	Radio      Radio
	Store      settings.Store
	Policy     JoinPolicy
	APPassword string
	Publisher  Publisher
	Logger     *slog.Logger
}

// Supervisor owns the connection state machine. It is driven from the main
// loop and is not safe for concurrent use.
type Supervisor struct {
	radio      Radio
	store      settings.Store
	policy     JoinPolicy
	apPassword string
	publisher  Publisher
	logger     *slog.Logger

	cfg            settings.NetworkConfig
	mode           settings.Mode
	state          State
	joinStarted    time.Time
	lastLinkCheck  time.Time
	lastRSSI       time.Time
	ip             string
	ssid           string
	rssi           int
	rssiValid      bool
	restartPending bool
}

// New creates an idle supervisor.
func New(opts Options) *Supervisor {
	if opts.Policy.PollInterval <= 0 {
		opts.Policy.PollInterval = DefaultJoinPolicy.PollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Supervisor{
		radio:      opts.Radio,
		store:      opts.Store,
		policy:     opts.Policy,
		apPassword: opts.APPassword,
		publisher:  opts.Publisher,
		logger:     opts.Logger,
		state:      Idle,
	}
}

// State returns the current connection state.
func (s *Supervisor) State() State {
	return s.state
}

// Config returns the network record the supervisor is working from.
func (s *Supervisor) Config() settings.NetworkConfig {
	return s.cfg
}

// Policy returns the join policy.
func (s *Supervisor) Policy() JoinPolicy {
	return s.policy
}

// Boot starts connectivity from cfg. A client SSID that is empty or too long
// forces access point mode without rewriting the stored mode.
func (s *Supervisor) Boot(cfg settings.NetworkConfig, now time.Time) {
	s.cfg = cfg
	s.ensureAPSSID()
	s.ip, s.ssid, s.rssi, s.rssiValid = "", "", 0, false

	s.mode = cfg.Mode
	if s.mode == settings.ModeClient && !cfg.ClientUsable() {
		s.logger.Warn("Client SSID unusable, forcing access point mode",
			"ssid_length", len([]rune(cfg.ClientSSID)))
		s.mode = settings.ModeAccessPoint
	}
	if s.mode != settings.ModeClient {
		s.mode = settings.ModeAccessPoint
	}

	s.logger.Info("Network boot", "mode", s.mode, "ssid", cfg.ClientSSID)
	if s.mode == settings.ModeClient {
		s.beginJoin(now)
		return
	}
	s.startAccessPoint()
}

// Poll advances the state machine. It returns true when the visible status
// changed.
func (s *Supervisor) Poll(now time.Time) bool {
	switch s.state {
	case Idle, AccessPointActive:
		return false

	case JoiningClient:
		return s.pollJoin(now)

	case StartingAccessPoint:
		if !s.radio.AccessPointReady() {
			return false
		}
		s.ip = s.radio.LocalIP()
		s.ssid = s.cfg.APSSID
		s.transition(AccessPointActive)
		return true

	case ClientConnected:
		return s.pollConnected(now)

	case Reconnecting:
		s.beginJoin(now)
		return true
	}
	return false
}

func (s *Supervisor) pollJoin(now time.Time) bool {
	switch s.radio.JoinStatus() {
	case LinkUp:
		s.ip = s.radio.LocalIP()
		s.ssid = s.cfg.ClientSSID
		s.lastLinkCheck = now
		s.sampleRSSI(now)
		s.transition(ClientConnected)
		return true

	case LinkDown:
		if s.policy.expired(s.joinStarted, now) {
			return s.fallback(now)
		}
		s.logger.Debug("Join attempt failed, retrying", "ssid", s.cfg.ClientSSID)
		s.issueJoin()
		return false

	case LinkPending:
		if s.policy.expired(s.joinStarted, now) {
			return s.fallback(now)
		}
	}
	return false
}

func (s *Supervisor) pollConnected(now time.Time) bool {
	changed := false
	if now.Sub(s.lastLinkCheck) >= LinkCheckInterval {
		s.lastLinkCheck = now
		if s.radio.JoinStatus() != LinkUp {
			s.logger.Warn("Client link lost", "ssid", s.cfg.ClientSSID)
			s.ip = ""
			s.rssiValid = false
			s.transition(Reconnecting)
			s.beginJoin(now)
			return true
		}
	}
	if now.Sub(s.lastRSSI) >= RSSIInterval {
		before := s.rssi
		s.sampleRSSI(now)
		changed = s.rssi != before
	}
	return changed
}

func (s *Supervisor) fallback(now time.Time) bool {
	s.logger.Warn("Join timed out, falling back to access point",
		"ssid", s.cfg.ClientSSID,
		"waited", now.Sub(s.joinStarted).Round(time.Millisecond))
	if err := s.radio.Shutdown(); err != nil {
		s.logger.Debug("Radio shutdown before access point failed", "error", err)
	}
	s.startAccessPoint()
	return true
}

// OnCredentialsChanged adopts a re-read network record. Any change to the
// mode or the client credentials schedules a restart. It returns whether a
// restart is now pending.
func (s *Supervisor) OnCredentialsChanged(cfg settings.NetworkConfig) bool {
	if cfg.APSSID == "" {
		cfg.APSSID = s.cfg.APSSID
	}
	changed := cfg.Mode != s.cfg.Mode ||
		cfg.ClientSSID != s.cfg.ClientSSID ||
		cfg.ClientPassword != s.cfg.ClientPassword
	s.cfg = cfg

	if changed {
		s.logger.Info("Network settings changed, restart scheduled", "mode", cfg.Mode, "ssid", cfg.ClientSSID)
		s.restartPending = true
	}
	return s.restartPending
}

// RestartPending reports whether Restart should be called.
func (s *Supervisor) RestartPending() bool {
	return s.restartPending
}

// Restart shuts the radio down and boots again from the current record.
func (s *Supervisor) Restart(now time.Time) {
	s.restartPending = false
	if err := s.radio.Shutdown(); err != nil {
		s.logger.Warn("Radio shutdown failed", "error", err)
	}
	s.transition(Idle)
	s.Boot(s.cfg, now)
}

// WaitForJoin blocks while a client join is in progress, polling every
// policy interval and calling onTick after each poll. It returns when the
// join succeeded, when the supervisor fell back to access point mode or
// when it was not joining in the first place.
func (s *Supervisor) WaitForJoin(clock Clock, onTick func(Status)) State {
	for s.state == JoiningClient {
		clock.Sleep(s.policy.PollInterval)
		s.Poll(clock.Now())
		if onTick != nil {
			onTick(s.CurrentStatus())
		}
	}
	// Pick up an access point that came up immediately.
	if s.state == StartingAccessPoint {
		s.Poll(clock.Now())
	}
	return s.state
}

// CurrentStatus returns the connectivity snapshot.
func (s *Supervisor) CurrentStatus() Status {
	return Status{
		Mode:      s.mode,
		State:     s.state.String(),
		IP:        s.ip,
		SSID:      s.ssid,
		RSSI:      s.rssi,
		RSSIValid: s.rssiValid,
	}
}

// Scan lists visible networks.
func (s *Supervisor) Scan() ([]Network, error) {
	return s.radio.Scan()
}

func (s *Supervisor) beginJoin(now time.Time) {
	s.joinStarted = now
	s.ip = ""
	s.transition(JoiningClient)
	s.issueJoin()
}

func (s *Supervisor) issueJoin() {
	metrics.IncJoinAttempts()
	if err := s.radio.BeginJoin(s.cfg.ClientSSID, s.cfg.ClientPassword); err != nil {
		s.logger.Warn("Join request failed", "ssid", s.cfg.ClientSSID, "error", err)
	}
}

func (s *Supervisor) startAccessPoint() {
	s.mode = settings.ModeAccessPoint
	s.ip = ""
	s.ssid = s.cfg.APSSID
	s.rssiValid = false
	s.transition(StartingAccessPoint)
	if err := s.radio.StartAccessPoint(s.cfg.APSSID, s.apPassword); err != nil {
		s.logger.Error("Failed to start access point", "ssid", s.cfg.APSSID, "error", err)
	}
}

func (s *Supervisor) sampleRSSI(now time.Time) {
	s.lastRSSI = now
	rssi, ok := s.radio.RSSI()
	s.rssi, s.rssiValid = rssi, ok
	if ok {
		metrics.SetRSSI(rssi)
	}
}

// ensureAPSSID generates the access point name once and persists it.
func (s *Supervisor) ensureAPSSID() {
	if s.cfg.APSSID != "" {
		return
	}
	s.cfg.APSSID = GenerateAPSSID()
	if s.store == nil {
		return
	}
	if err := s.store.Put(settings.KeyAPSSID, s.cfg.APSSID); err != nil {
		s.logger.Warn("Failed to persist access point name", "error", err)
	}
}

func (s *Supervisor) transition(to State) {
	from := s.state
	s.state = to
	if from == to {
		return
	}

	s.logger.Info("Connection state changed", "from", from.String(), "to", to.String())
	metrics.SetConnectionState(to.String(), StateNames())
	if s.publisher != nil {
		s.publisher.Publish(events.ConnectionChangedEvent{
			State:     to.String(),
			Mode:      string(s.mode),
			IP:        s.ip,
			SSID:      s.ssid,
			RSSI:      s.rssi,
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}

// GenerateAPSSID returns a fresh access point name with a random suffix.
func GenerateAPSSID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s%s", APSSIDPrefix, strings.ToUpper(id[:4]))
}
