package led

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestNoopController(t *testing.T) {
	ctrl := newNoop(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := ctrl.Set(StatusLED, true, PatternSolid); err != nil {
		t.Errorf("Set() returned error: %v", err)
	}
	if types := ctrl.Available(); len(types) != 0 {
		t.Errorf("Available() = %v, want empty slice", types)
	}
	if patterns := ctrl.Patterns(); len(patterns) != 0 {
		t.Errorf("Patterns() = %v, want empty slice", patterns)
	}
}

func setupSysfs(t *testing.T) (*sysfs, string) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "ACT")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	return newSysfs(root, map[string]string{StatusLED: "ACT"}), dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestSysfs_Patterns(t *testing.T) {
	tests := []struct {
		pattern        string
		enabled        bool
		wantTrigger    string
		wantBrightness string
	}{
		{PatternSolid, true, "none", "1"},
		{PatternBlink, true, "timer", ""},
		{PatternHeartbeat, true, "heartbeat", ""},
		{"", false, "none", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			s, dir := setupSysfs(t)
			if err := s.Set(StatusLED, tt.enabled, tt.pattern); err != nil {
				t.Fatal(err)
			}
			if got := readFile(t, filepath.Join(dir, "trigger")); got != tt.wantTrigger {
				t.Errorf("trigger = %q, want %q", got, tt.wantTrigger)
			}
			if tt.wantBrightness == "" {
				return
			}
			if got := readFile(t, filepath.Join(dir, "brightness")); got != tt.wantBrightness {
				t.Errorf("brightness = %q, want %q", got, tt.wantBrightness)
			}
		})
	}
}

func TestSysfs_UnknownLED(t *testing.T) {
	s, _ := setupSysfs(t)
	if err := s.Set("power", true, PatternSolid); err == nil {
		t.Error("expected error for unmapped LED")
	}

	missing := newSysfs(t.TempDir(), map[string]string{StatusLED: "nope"})
	if err := missing.Set(StatusLED, true, PatternSolid); err == nil {
		t.Error("expected error for missing sysfs entry")
	}
}

func TestSysfs_Available(t *testing.T) {
	s := newSysfs("", map[string]string{"status": "a", "power": "b"})
	got := s.Available()
	if len(got) != 2 || got[0] != "power" || got[1] != "status" {
		t.Errorf("Available() = %v", got)
	}
}
