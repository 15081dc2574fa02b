package display

import (
	"log/slog"
	"strings"
)

// logRenderer writes screens to the log instead of a panel. Identical
// consecutive screens are not repeated.
type logRenderer struct {
	logger *slog.Logger
	last   string
}

func newLog(logger *slog.Logger) *logRenderer {
	return &logRenderer{logger: logger}
}

func (r *logRenderer) Render(s Screen) error {
	text := s.Title + " | " + strings.Join(s.Lines, " | ")
	if text == r.last {
		return nil
	}
	r.last = text
	r.logger.Debug("Screen", "text", text)
	return nil
}

func (r *logRenderer) Close() error {
	return nil
}

type nopRenderer struct{}

func (nopRenderer) Render(Screen) error { return nil }
func (nopRenderer) Close() error        { return nil }
