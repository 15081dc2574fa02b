package node

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/smazurov/lightnode/internal/artnet"
	"github.com/smazurov/lightnode/internal/display"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/ingest"
	"github.com/smazurov/lightnode/internal/input"
	"github.com/smazurov/lightnode/internal/metrics"
	"github.com/smazurov/lightnode/internal/netsup"
	"github.com/smazurov/lightnode/internal/pixel"
	"github.com/smazurov/lightnode/internal/settings"
)

// IdleSleep is how long Run sleeps after a step that found no work.
const IdleSleep = time.Millisecond

// CommandQueueSize bounds the number of pending external commands.
const CommandQueueSize = 16

// ErrQueueFull is returned by Submit when the loop is not keeping up.
var ErrQueueFull = errors.New("node: command queue full")

// Command runs on the loop goroutine with exclusive access to the context.
type Command func(c *Context)

// FrameSource yields received lighting frames without blocking.
type FrameSource interface {
	Poll() (artnet.Frame, bool)
}

// Notifier pings the service manager's watchdog.
type Notifier interface {
	Watchdog()
	WatchdogInterval() time.Duration
}

// Options configures a Loop.
type Options struct {
	Pixels     *pixel.Buffer
	Strip      ingest.Presenter
	Store      settings.Store
	Radio      netsup.Radio
	Policy     netsup.JoinPolicy
	APPassword string
	Renderer   display.Renderer
	Frames     FrameSource
	Encoder    *input.Encoder
	Button     *input.Button
	Bus        *events.Bus
	Clock      netsup.Clock
	Notifier   Notifier
	HTTPPort   int
	Logger     *slog.Logger
}

// Loop is the single cooperative polling loop of the node.
type Loop struct {
	*Context

	frames   FrameSource
	encoder  *input.Encoder
	button   *input.Button
	bus      *events.Bus
	clock    netsup.Clock
	notifier Notifier
	httpPort int
	logger   *slog.Logger

	commands chan Command
	snapshot atomic.Pointer[Snapshot]

	started      time.Time
	blink        bool
	lastBlink    time.Time
	lastWatchdog time.Time
	dirty        bool
}

// New assembles the node context and its loop. Nothing touches hardware or
// the radio until Boot.
func New(opts Options) *Loop {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = netsup.RealClock{}
	}
	if opts.Bus == nil {
		opts.Bus = events.New()
	}
	if opts.Encoder == nil {
		opts.Encoder = input.NewEncoder(input.DefaultStepsPerDetent)
	}
	if opts.Button == nil {
		opts.Button = input.NewButton()
	}

	l := &Loop{
		frames:   opts.Frames,
		encoder:  opts.Encoder,
		button:   opts.Button,
		bus:      opts.Bus,
		clock:    opts.Clock,
		notifier: opts.Notifier,
		httpPort: opts.HTTPPort,
		logger:   opts.Logger,
		commands: make(chan Command, CommandQueueSize),
		started:  opts.Clock.Now(),
	}

	cfg := settings.LoadNetworkConfig(opts.Store)
	l.Context = &Context{
		Pixels:   opts.Pixels,
		Ingest:   ingest.New(opts.Pixels, opts.Strip, cfg.Universe, opts.Logger),
		Input:    input.NewController(cfg.Universe, l, opts.Logger),
		Store:    opts.Store,
		Renderer: opts.Renderer,
		Network: netsup.New(netsup.Options{
			Radio:      opts.Radio,
			Store:      opts.Store,
			Policy:     opts.Policy,
			APPassword: opts.APPassword,
			Publisher:  opts.Bus,
			Logger:     opts.Logger,
		}),
	}
	l.publishSnapshot(l.started)
	return l
}

// Bus returns the event bus the loop publishes to.
func (l *Loop) Bus() *events.Bus {
	return l.bus
}

// Boot loads the persisted record, brings up connectivity and blocks through
// the join window, keeping the display current while it waits.
func (l *Loop) Boot() {
	now := l.clock.Now()
	cfg := settings.LoadNetworkConfig(l.Store)
	l.Ingest.SetUniverse(cfg.Universe)
	l.Input.SetUniverse(cfg.Universe)

	l.logger.Info("Booting node", "universe", cfg.Universe, "mode", cfg.Mode, "pixels", l.Pixels.Len())
	l.Network.Boot(cfg, now)
	l.render(now)
	l.waitForJoin()
	l.publishSnapshot(l.clock.Now())
}

// Step runs one loop iteration and reports whether it found any work.
func (l *Loop) Step(now time.Time) bool {
	worked := false

	// Frames.
	if l.frames != nil {
		if f, ok := l.frames.Poll(); ok {
			l.Ingest.OnFrame(f.Universe, f.Sequence, f.Payload)
			worked = true
		}
	}

	// Local input: rotation before the button.
	if delta := l.encoder.Delta(); delta != 0 {
		worked = true
		if l.Input.ConsumeEncoderDelta(delta) {
			l.inputChanged(now)
		}
	}
	if l.button.Consume() {
		worked = true
		if l.Input.ConsumeButtonEdge() {
			l.inputChanged(now)
		}
	}

	// Timers and external commands.
	if l.Network.Poll(now) {
		worked = true
		l.dirty = true
	}
	if l.drainCommands() {
		worked = true
		l.dirty = true
	}
	if l.Network.RestartPending() {
		worked = true
		l.restartNetwork(now)
	}
	l.pingWatchdog(now)

	// Display.
	if now.Sub(l.lastBlink) >= display.BlinkInterval {
		l.blink = !l.blink
		l.lastBlink = now
		l.dirty = true
	}
	if l.dirty {
		l.render(now)
	}
	if worked || l.dirty {
		l.publishSnapshot(now)
	}
	l.dirty = false
	return worked
}

// Run steps the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("Node loop started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Node loop stopped")
			return nil
		default:
		}
		if !l.Step(l.clock.Now()) {
			l.clock.Sleep(IdleSleep)
		}
	}
}

// Submit queues cmd for the loop goroutine.
func (l *Loop) Submit(cmd Command) error {
	select {
	case l.commands <- cmd:
		return nil
	default:
		return ErrQueueFull
	}
}

// RequestReload makes the loop re-read the persisted network record. source
// names the writer for events and metrics (api, file).
func (l *Loop) RequestReload(source string) error {
	return l.Submit(func(*Context) { l.reload(source) })
}

// UpdateSettings loads the persisted network record, applies mutate, saves it
// and activates it, all on the loop goroutine so it cannot interleave with a
// universe committed on the device. It waits for the loop or ctx; a command
// already queued still runs after ctx is done.
func (l *Loop) UpdateSettings(ctx context.Context, source string, mutate func(*settings.NetworkConfig)) (settings.NetworkConfig, error) {
	type result struct {
		cfg settings.NetworkConfig
		err error
	}
	done := make(chan result, 1)
	err := l.Submit(func(*Context) {
		cfg := settings.LoadNetworkConfig(l.Store)
		mutate(&cfg)
		if err := settings.SaveNetworkConfig(l.Store, cfg); err != nil {
			l.logger.Error("Failed to persist settings", "source", source, "error", err)
			done <- result{err: err}
			return
		}
		l.reload(source)
		done <- result{cfg: cfg}
	})
	if err != nil {
		return settings.NetworkConfig{}, err
	}
	select {
	case r := <-done:
		return r.cfg, r.err
	case <-ctx.Done():
		return settings.NetworkConfig{}, ctx.Err()
	}
}

// RequestTestPattern fills the strip with color on the loop goroutine.
func (l *Loop) RequestTestPattern(color pixel.RGB, name string) error {
	return l.Submit(func(c *Context) {
		c.Ingest.Fill(color)
		l.logger.Info("Test pattern shown", "color", name)
		l.publish(events.StripTestEvent{Color: name, Timestamp: timestamp(l.clock.Now())})
	})
}

// Snapshot returns the most recently published loop state. Safe for any
// goroutine.
func (l *Loop) Snapshot() Snapshot {
	return *l.snapshot.Load()
}

// CommitUniverse persists and activates a universe confirmed on the device.
func (l *Loop) CommitUniverse(u uint16) {
	if err := settings.SaveUniverse(l.Store, u); err != nil {
		l.logger.Error("Failed to persist universe", "universe", u, "error", err)
	}
	l.Ingest.SetUniverse(u)
	metrics.IncUniverseCommits("encoder")
	l.logger.Info("Universe committed", "universe", u)
	l.publish(events.UniverseCommittedEvent{Universe: u, Source: "encoder", Timestamp: timestamp(l.clock.Now())})
}

func (l *Loop) reload(source string) {
	cfg := settings.LoadNetworkConfig(l.Store)

	changed := false
	if cfg.Universe != l.Ingest.Universe() {
		changed = true
		l.Ingest.SetUniverse(cfg.Universe)
		l.Input.SetUniverse(cfg.Universe)
		metrics.IncUniverseCommits(source)
		l.logger.Info("Universe changed", "universe", cfg.Universe, "source", source)
		l.publish(events.UniverseCommittedEvent{Universe: cfg.Universe, Source: source, Timestamp: timestamp(l.clock.Now())})
	}

	wasPending := l.Network.RestartPending()
	restart := l.Network.OnCredentialsChanged(cfg)
	if restart && !wasPending {
		changed = true
	}
	if changed {
		l.publish(events.SettingsChangedEvent{Source: source, RestartPending: restart, Timestamp: timestamp(l.clock.Now())})
	}
}

func (l *Loop) restartNetwork(now time.Time) {
	l.logger.Info("Restarting network")
	l.Network.Restart(now)
	l.render(now)
	l.waitForJoin()
	l.dirty = true
}

func (l *Loop) waitForJoin() {
	l.Network.WaitForJoin(l.clock, func(netsup.Status) {
		now := l.clock.Now()
		l.render(now)
		l.pingWatchdog(now)
	})
}

func (l *Loop) drainCommands() bool {
	ran := false
	for {
		select {
		case cmd := <-l.commands:
			cmd(l.Context)
			ran = true
		default:
			return ran
		}
	}
}

func (l *Loop) inputChanged(now time.Time) {
	l.dirty = true
	st := l.Input.State()
	l.publish(events.InputChangedEvent{
		Page:      st.Page.String(),
		Editing:   st.Editing,
		Universe:  st.Universe,
		Timestamp: timestamp(now),
	})
}

func (l *Loop) pingWatchdog(now time.Time) {
	if l.notifier == nil {
		return
	}
	interval := l.notifier.WatchdogInterval()
	if interval <= 0 || now.Sub(l.lastWatchdog) < interval {
		return
	}
	l.lastWatchdog = now
	l.notifier.Watchdog()
}

func (l *Loop) render(now time.Time) {
	if l.Renderer == nil {
		return
	}
	screen := display.Compose(l.model(now))
	if err := l.Renderer.Render(screen); err != nil {
		l.logger.Debug("Render failed", "error", err)
	}
}

func (l *Loop) model(now time.Time) display.Model {
	return display.Model{
		Input:         l.Input.State(),
		Network:       l.Network.CurrentStatus(),
		Blink:         l.blink,
		PixelCount:    l.Pixels.Len(),
		FramesApplied: metrics.FramesApplied(),
		LastSequence:  l.Ingest.LastSequence(),
		Uptime:        now.Sub(l.started),
		HTTPPort:      l.httpPort,
	}
}

func (l *Loop) publishSnapshot(now time.Time) {
	l.snapshot.Store(&Snapshot{
		Input:         l.Input.State(),
		Network:       l.Network.CurrentStatus(),
		PixelCount:    l.Pixels.Len(),
		FramesApplied: metrics.FramesApplied(),
		LastSequence:  l.Ingest.LastSequence(),
		UptimeSeconds: int64(now.Sub(l.started) / time.Second),
	})
}

func (l *Loop) publish(ev events.Event) {
	l.bus.Publish(ev)
}

func timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
