package node

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/smazurov/lightnode/internal/artnet"
	"github.com/smazurov/lightnode/internal/display"
	"github.com/smazurov/lightnode/internal/events"
	"github.com/smazurov/lightnode/internal/input"
	"github.com/smazurov/lightnode/internal/netsup"
	"github.com/smazurov/lightnode/internal/pixel"
	"github.com/smazurov/lightnode/internal/settings"
)

type mockRadio struct {
	link      netsup.LinkStatus
	apReady   bool
	joinCalls []string
	apCalls   []string
	shutdowns int
}

func (m *mockRadio) BeginJoin(ssid, _ string) error {
	m.joinCalls = append(m.joinCalls, ssid)
	return nil
}
func (m *mockRadio) JoinStatus() netsup.LinkStatus { return m.link }
func (m *mockRadio) StartAccessPoint(ssid, _ string) error {
	m.apCalls = append(m.apCalls, ssid)
	return nil
}
func (m *mockRadio) AccessPointReady() bool           { return m.apReady }
func (m *mockRadio) LocalIP() string                  { return "10.0.0.2" }
func (m *mockRadio) RSSI() (int, bool)                { return -55, true }
func (m *mockRadio) Shutdown() error                  { m.shutdowns++; return nil }
func (m *mockRadio) Scan() ([]netsup.Network, error) { return nil, nil }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time        { return c.now }
func (c *fakeClock) Sleep(d time.Duration) { c.now = c.now.Add(d) }

type queueSource struct {
	frames []artnet.Frame
}

func (q *queueSource) Poll() (artnet.Frame, bool) {
	if len(q.frames) == 0 {
		return artnet.Frame{}, false
	}
	f := q.frames[0]
	q.frames = q.frames[1:]
	return f, true
}

type recordingStrip struct {
	calls int
	last  []pixel.RGB
}

func (s *recordingStrip) Present(pixels []pixel.RGB) error {
	s.calls++
	s.last = append(s.last[:0], pixels...)
	return nil
}

type recordingRenderer struct {
	screens []display.Screen
}

func (r *recordingRenderer) Render(s display.Screen) error {
	r.screens = append(r.screens, s)
	return nil
}
func (r *recordingRenderer) Close() error { return nil }

func (r *recordingRenderer) last() display.Screen {
	if len(r.screens) == 0 {
		return display.Screen{}
	}
	return r.screens[len(r.screens)-1]
}

type countingNotifier struct {
	interval time.Duration
	pings    int
}

func (n *countingNotifier) Watchdog()                       { n.pings++ }
func (n *countingNotifier) WatchdogInterval() time.Duration { return n.interval }

type harness struct {
	loop     *Loop
	radio    *mockRadio
	store    *settings.MemoryStore
	clock    *fakeClock
	frames   *queueSource
	strip    *recordingStrip
	renderer *recordingRenderer
	encoder  *input.Encoder
	button   *input.Button
	bus      *events.Bus
}

func newHarness(t *testing.T, n int, seed map[string]string) *harness {
	t.Helper()
	buf, err := pixel.New(n)
	if err != nil {
		t.Fatal(err)
	}
	store := settings.NewMemory()
	for k, v := range seed {
		if putErr := store.Put(k, v); putErr != nil {
			t.Fatal(putErr)
		}
	}

	h := &harness{
		radio:    &mockRadio{apReady: true},
		store:    store,
		clock:    &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		frames:   &queueSource{},
		strip:    &recordingStrip{},
		renderer: &recordingRenderer{},
		encoder:  input.NewEncoder(input.DefaultStepsPerDetent),
		button:   input.NewButton(),
		bus:      events.New(),
	}
	h.loop = New(Options{
		Pixels:   buf,
		Strip:    h.strip,
		Store:    store,
		Radio:    h.radio,
		Policy:   netsup.JoinPolicy{Timeout: 10 * time.Second, PollInterval: 500 * time.Millisecond},
		Renderer: h.renderer,
		Frames:   h.frames,
		Encoder:  h.encoder,
		Button:   h.button,
		Bus:      h.bus,
		Clock:    h.clock,
		HTTPPort: 8090,
		Logger:   slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})),
	})
	return h
}

// step advances the fake clock by d and runs one iteration.
func (h *harness) step(d time.Duration) bool {
	h.clock.now = h.clock.now.Add(d)
	return h.loop.Step(h.clock.now)
}

func expectEvent[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		var zero T
		t.Fatalf("no %T published", zero)
		return zero
	}
}

func TestBoot_NoCredentialsStartsAccessPoint(t *testing.T) {
	h := newHarness(t, 10, nil)

	h.loop.Boot()

	if got := h.loop.Network.State(); got != netsup.AccessPointActive {
		t.Fatalf("state = %v, want access_point_active", got)
	}
	if len(h.radio.joinCalls) != 0 {
		t.Errorf("join attempted without credentials: %v", h.radio.joinCalls)
	}
	if len(h.radio.apCalls) != 1 {
		t.Errorf("access point started %d times", len(h.radio.apCalls))
	}
	if len(h.renderer.screens) == 0 {
		t.Error("boot should render")
	}
	snap := h.loop.Snapshot()
	if snap.Network.State != "access_point_active" || snap.PixelCount != 10 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestBoot_JoinTimeoutFallsBackAndKeepsDisplayCurrent(t *testing.T) {
	h := newHarness(t, 10, map[string]string{
		settings.KeyNetMode: "client",
		settings.KeySSID:    "studio",
	})

	h.loop.Boot()

	if got := h.loop.Network.State(); got != netsup.AccessPointActive {
		t.Fatalf("state = %v, want access_point_active", got)
	}
	// One render before the window plus one per 500 ms poll over 10 s.
	if len(h.renderer.screens) < 20 {
		t.Errorf("rendered %d times during the join window", len(h.renderer.screens))
	}
	if got := h.store.Get(settings.KeyNetMode, ""); got != "client" {
		t.Errorf("stored mode rewritten to %q", got)
	}
}

func TestBoot_JoinSucceeds(t *testing.T) {
	h := newHarness(t, 10, map[string]string{
		settings.KeyNetMode:  "client",
		settings.KeySSID:     "studio",
		settings.KeyUniverse: "7",
	})
	h.radio.link = netsup.LinkUp

	h.loop.Boot()

	if got := h.loop.Network.State(); got != netsup.ClientConnected {
		t.Fatalf("state = %v", got)
	}
	if h.loop.Ingest.Universe() != 7 || h.loop.Input.State().Universe != 7 {
		t.Errorf("universe not loaded: ingest %d input %d", h.loop.Ingest.Universe(), h.loop.Input.State().Universe)
	}
}

func TestStep_AppliesOneFramePerIteration(t *testing.T) {
	h := newHarness(t, 120, map[string]string{settings.KeyUniverse: "1"})
	h.loop.Boot()

	payload := make([]byte, 360)
	for i := range payload {
		payload[i] = 0xff
	}
	h.frames.frames = []artnet.Frame{
		{Universe: 0, Sequence: 1, Payload: payload},
		{Universe: 1, Sequence: 2, Payload: payload},
	}

	if !h.step(time.Millisecond) {
		t.Fatal("first step should report work")
	}
	if h.strip.calls != 0 {
		t.Fatal("frame for universe 0 must not reach the strip")
	}

	h.step(time.Millisecond)
	if h.strip.calls != 1 {
		t.Fatalf("Present called %d times", h.strip.calls)
	}
	if h.loop.Pixels.At(119) != (pixel.RGB{R: 255, G: 255, B: 255}) {
		t.Errorf("last pixel = %v", h.loop.Pixels.At(119))
	}
	if h.loop.Ingest.LastSequence() != 2 {
		t.Errorf("last sequence = %d", h.loop.Ingest.LastSequence())
	}
}

func TestStep_EditAndCommitUniverse(t *testing.T) {
	h := newHarness(t, 10, map[string]string{settings.KeyUniverse: "10"})
	h.loop.Boot()

	committed := make(chan events.UniverseCommittedEvent, 1)
	unsub := h.bus.Subscribe(func(e events.UniverseCommittedEvent) { committed <- e })
	defer unsub()

	// One page per detent: Home -> NetworkInfo -> ProtocolSettings.
	for range 2 {
		h.encoder.Add(input.DefaultStepsPerDetent)
		h.step(time.Millisecond)
	}
	if got := h.loop.Input.State().Page; got != input.ProtocolSettings {
		t.Fatalf("page = %v", got)
	}

	h.button.Edge(time.Second)
	h.step(time.Millisecond)
	if !h.loop.Input.State().Editing {
		t.Fatal("button on protocol page should enter edit mode")
	}

	h.encoder.Add(515 * input.DefaultStepsPerDetent)
	h.step(time.Millisecond)
	if got := h.loop.Input.State().Universe; got != 13 {
		t.Fatalf("edited universe = %d, want 13", got)
	}
	if h.loop.Ingest.Universe() != 10 {
		t.Error("uncommitted edit must not change the active universe")
	}

	h.button.Edge(2 * time.Second)
	h.step(time.Millisecond)

	if h.loop.Input.State().Editing {
		t.Error("commit should leave edit mode")
	}
	if h.loop.Ingest.Universe() != 13 {
		t.Errorf("active universe = %d", h.loop.Ingest.Universe())
	}
	if got := h.store.Get(settings.KeyUniverse, ""); got != "13" {
		t.Errorf("stored universe = %q", got)
	}
	if ev := expectEvent(t, committed); ev.Universe != 13 || ev.Source != "encoder" {
		t.Errorf("event = %+v", ev)
	}
	if !containsLine(h.renderer.last(), "Universe: 13") {
		t.Errorf("screen after commit = %+v", h.renderer.last())
	}
}

func TestRequestReload_UniverseFromAPI(t *testing.T) {
	h := newHarness(t, 10, nil)
	h.loop.Boot()

	settingsCh := make(chan events.SettingsChangedEvent, 1)
	unsub := h.bus.Subscribe(func(e events.SettingsChangedEvent) { settingsCh <- e })
	defer unsub()

	if err := settings.SaveUniverse(h.store, 42); err != nil {
		t.Fatal(err)
	}
	if err := h.loop.RequestReload("api"); err != nil {
		t.Fatal(err)
	}
	h.step(time.Millisecond)

	if h.loop.Ingest.Universe() != 42 || h.loop.Input.State().Universe != 42 {
		t.Errorf("universe not applied")
	}
	ev := expectEvent(t, settingsCh)
	if ev.Source != "api" || ev.RestartPending {
		t.Errorf("event = %+v", ev)
	}
	if h.radio.shutdowns != 0 {
		t.Error("universe change must not restart the network")
	}
}

func TestRequestReload_CredentialsRestartNetwork(t *testing.T) {
	h := newHarness(t, 10, nil)
	h.loop.Boot()
	h.radio.link = netsup.LinkUp

	cfg := settings.LoadNetworkConfig(h.store)
	cfg.Mode = settings.ModeClient
	cfg.ClientSSID = "studio"
	cfg.ClientPassword = "secret"
	if err := settings.SaveNetworkConfig(h.store, cfg); err != nil {
		t.Fatal(err)
	}
	if err := h.loop.RequestReload("api"); err != nil {
		t.Fatal(err)
	}
	h.step(time.Millisecond)

	if h.radio.shutdowns != 1 {
		t.Errorf("shutdowns = %d, want 1", h.radio.shutdowns)
	}
	if len(h.radio.joinCalls) != 1 || h.radio.joinCalls[0] != "studio" {
		t.Errorf("join calls = %v", h.radio.joinCalls)
	}
	if got := h.loop.Network.State(); got != netsup.ClientConnected {
		t.Errorf("state = %v", got)
	}
	if h.loop.Network.RestartPending() {
		t.Error("restart should have been consumed")
	}
}

func TestUpdateSettings_KeepsUniverseCommittedOnDevice(t *testing.T) {
	h := newHarness(t, 10, nil)
	h.loop.Boot()

	type result struct {
		cfg settings.NetworkConfig
		err error
	}
	done := make(chan result, 1)
	go func() {
		cfg, err := h.loop.UpdateSettings(context.Background(), "api", func(cfg *settings.NetworkConfig) {
			cfg.APSSID = "LightNode-stage"
		})
		done <- result{cfg, err}
	}()

	deadline := time.Now().Add(time.Second)
	for len(h.loop.commands) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("update never queued")
		}
		time.Sleep(time.Millisecond)
	}
	h.loop.CommitUniverse(13)
	h.step(time.Millisecond)

	var r result
	select {
	case r = <-done:
	case <-time.After(time.Second):
		t.Fatal("update did not complete")
	}
	if r.err != nil {
		t.Fatal(r.err)
	}
	if r.cfg.Universe != 13 || r.cfg.APSSID != "LightNode-stage" {
		t.Errorf("cfg = %+v", r.cfg)
	}
	if got := h.store.Get(settings.KeyUniverse, ""); got != "13" {
		t.Errorf("stored universe = %q, want 13", got)
	}
	if h.loop.Ingest.Universe() != 13 {
		t.Errorf("active universe = %d", h.loop.Ingest.Universe())
	}
}

func TestUpdateSettings_ContextDone(t *testing.T) {
	h := newHarness(t, 10, nil)
	h.loop.Boot()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.loop.UpdateSettings(ctx, "api", func(*settings.NetworkConfig) {}); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRequestReload_UnchangedIsQuiet(t *testing.T) {
	h := newHarness(t, 10, nil)
	h.loop.Boot()

	settingsCh := make(chan events.SettingsChangedEvent, 1)
	unsub := h.bus.Subscribe(func(e events.SettingsChangedEvent) { settingsCh <- e })
	defer unsub()

	if err := h.loop.RequestReload("file"); err != nil {
		t.Fatal(err)
	}
	h.step(time.Millisecond)

	select {
	case ev := <-settingsCh:
		t.Errorf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
	if h.radio.shutdowns != 0 {
		t.Error("no restart expected")
	}
}

func TestRequestTestPattern(t *testing.T) {
	h := newHarness(t, 4, nil)
	h.loop.Boot()

	red := pixel.RGB{R: 255}
	if err := h.loop.RequestTestPattern(red, "r"); err != nil {
		t.Fatal(err)
	}
	if h.strip.calls != 0 {
		t.Fatal("pattern must wait for the loop")
	}
	h.step(time.Millisecond)

	if h.strip.calls != 1 {
		t.Fatalf("Present called %d times", h.strip.calls)
	}
	for i, c := range h.strip.last {
		if c != red {
			t.Errorf("pixel %d = %v", i, c)
		}
	}
}

func TestSubmit_QueueFull(t *testing.T) {
	h := newHarness(t, 1, nil)
	for range CommandQueueSize {
		if err := h.loop.Submit(func(*Context) {}); err != nil {
			t.Fatal(err)
		}
	}
	if err := h.loop.Submit(func(*Context) {}); err != ErrQueueFull {
		t.Errorf("err = %v, want ErrQueueFull", err)
	}

	h.step(time.Millisecond)
	if err := h.loop.Submit(func(*Context) {}); err != nil {
		t.Errorf("queue should drain: %v", err)
	}
}

func TestStep_BlinkRendersOnCadence(t *testing.T) {
	h := newHarness(t, 1, nil)
	h.loop.Boot()
	h.step(display.BlinkInterval)
	base := len(h.renderer.screens)

	h.step(100 * time.Millisecond)
	if len(h.renderer.screens) != base {
		t.Error("idle step before the blink tick should not render")
	}

	h.step(400 * time.Millisecond)
	if len(h.renderer.screens) != base+1 {
		t.Errorf("renders = %d, want %d", len(h.renderer.screens), base+1)
	}
}

func TestStep_WatchdogPing(t *testing.T) {
	h := newHarness(t, 1, nil)
	n := &countingNotifier{interval: time.Second}
	h.loop.notifier = n
	h.loop.Boot()
	start := n.pings

	for range 30 {
		h.step(100 * time.Millisecond)
	}
	if got := n.pings - start; got < 2 || got > 3 {
		t.Errorf("pings over 3s = %d", got)
	}
}

func TestStep_IdleReportsNoWork(t *testing.T) {
	h := newHarness(t, 1, nil)
	h.loop.Boot()
	h.step(time.Millisecond)

	if h.step(time.Millisecond) {
		t.Error("idle step reported work")
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	h := newHarness(t, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.loop.Run(ctx); err != nil {
		t.Errorf("Run() = %v", err)
	}
}

func containsLine(s display.Screen, want string) bool {
	for _, l := range s.Lines {
		if l == want {
			return true
		}
	}
	return false
}
