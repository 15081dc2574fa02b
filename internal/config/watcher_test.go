package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type testSettings struct {
	Values map[string]string `toml:"lightnode"`
}

func loadTestSettings(path string) (testSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return testSettings{}, err
	}
	var s testSettings
	err = toml.Unmarshal(data, &s)
	return s, err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func settingsFile(universe int) []byte {
	return fmt.Appendf(nil, "[lightnode]\nuniverse = \"%d\"\n", universe)
}

func newWatchedFile(t *testing.T, debounce time.Duration, opts ...WatcherOption[testSettings]) (string, *Watcher[testSettings]) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.toml")
	if err := os.WriteFile(path, settingsFile(0), 0o600); err != nil {
		t.Fatal(err)
	}
	opts = append([]WatcherOption[testSettings]{WithDebounce[testSettings](debounce)}, opts...)
	w := NewConfigWatcher(path, loadTestSettings, newTestLogger(), opts...)
	return path, w
}

func startWatcher(t *testing.T, w *Watcher[testSettings]) {
	t.Helper()
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := w.Stop(); err != nil {
			t.Errorf("Stop failed: %v", err)
		}
	})
	// Let the watcher settle before the first write.
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_InPlaceWrite(t *testing.T) {
	path, w := newWatchedFile(t, 50*time.Millisecond)
	received := make(chan testSettings, 1)
	w.OnReload(func(s testSettings) { received <- s })
	startWatcher(t, w)

	if err := os.WriteFile(path, settingsFile(42), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case s := <-received:
		if s.Values["universe"] != "42" {
			t.Errorf("got %+v", s)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcher_AtomicReplace(t *testing.T) {
	path, w := newWatchedFile(t, 50*time.Millisecond)
	received := make(chan testSettings, 4)
	w.OnReload(func(s testSettings) { received <- s })
	startWatcher(t, w)

	for _, u := range []int{7, 9} {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, settingsFile(u), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := os.Rename(tmp, path); err != nil {
			t.Fatal(err)
		}

		select {
		case s := <-received:
			if s.Values["universe"] != fmt.Sprint(u) {
				t.Errorf("got %+v, want universe %d", s, u)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout waiting for reload of %d", u)
		}
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	path, w := newWatchedFile(t, 50*time.Millisecond)
	var count atomic.Int32
	w.OnReload(func(testSettings) { count.Add(1) })
	startWatcher(t, w)

	sibling := filepath.Join(filepath.Dir(path), "other.toml")
	if err := os.WriteFile(sibling, settingsFile(1), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("sibling write triggered %d reloads", got)
	}
}

func TestWatcher_Debounce(t *testing.T) {
	path, w := newWatchedFile(t, 200*time.Millisecond)
	var count atomic.Int32
	var last atomic.Value
	w.OnReload(func(s testSettings) {
		count.Add(1)
		last.Store(s.Values["universe"])
	})
	startWatcher(t, w)

	for i := 1; i <= 5; i++ {
		if err := os.WriteFile(path, settingsFile(i), 0o600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	time.Sleep(500 * time.Millisecond)

	if got := count.Load(); got != 1 {
		t.Errorf("expected 1 debounced call, got %d", got)
	}
	if got, _ := last.Load().(string); got != "5" {
		t.Errorf("final universe = %q, want 5", got)
	}
}

func TestWatcher_MultipleHandlersAndUnsubscribe(t *testing.T) {
	path, w := newWatchedFile(t, 50*time.Millisecond)
	var count1, count2 atomic.Int32
	w.OnReload(func(testSettings) { count1.Add(1) })
	unsub := w.OnReload(func(testSettings) { count2.Add(1) })
	startWatcher(t, w)

	if err := os.WriteFile(path, settingsFile(1), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(250 * time.Millisecond)
	unsub()

	if err := os.WriteFile(path, settingsFile(2), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(250 * time.Millisecond)

	if got := count1.Load(); got != 2 {
		t.Errorf("handler1 calls = %d, want 2", got)
	}
	if got := count2.Load(); got != 1 {
		t.Errorf("handler2 calls = %d, want 1", got)
	}
}

func TestWatcher_ErrorHandler(t *testing.T) {
	errs := make(chan error, 1)
	path, w := newWatchedFile(t, 50*time.Millisecond, WithErrorHandler[testSettings](func(err error) {
		errs <- err
	}))
	received := make(chan testSettings, 1)
	w.OnReload(func(s testSettings) { received <- s })
	startWatcher(t, w)

	if err := os.WriteFile(path, []byte("invalid toml [[["), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-errs:
	case <-received:
		t.Fatal("handler must not run for a broken file")
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for error handler")
	}
}

func TestWatcher_ConcurrentSubscribe(t *testing.T) {
	path, w := newWatchedFile(t, 10*time.Millisecond)
	startWatcher(t, w)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := w.OnReload(func(testSettings) {})
			time.Sleep(time.Millisecond)
			unsub()
		}()
	}
	for i := range 10 {
		if err := os.WriteFile(path, settingsFile(i), 0o600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	wg.Wait()
}

func TestWatcher_Stop(t *testing.T) {
	path, w := newWatchedFile(t, 50*time.Millisecond)
	var count atomic.Int32
	w.OnReload(func(testSettings) { count.Add(1) })
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, settingsFile(99), 0o600); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got := count.Load(); got != 0 {
		t.Errorf("expected 0 calls after stop, got %d", got)
	}
}
