package mocklogger

import (
	"context"
	"log/slog"
	"sync"
)

// MockHandler is an slog.Handler that records messages for assertions.
type MockHandler struct {
	mu             sync.Mutex
	LoggedMessages []string
	LoggedLevels   []slog.Level
}

// Enabled implements slog.Handler.
func (h *MockHandler) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// Handle implements slog.Handler.
func (h *MockHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LoggedMessages = append(h.LoggedMessages, r.Message)
	h.LoggedLevels = append(h.LoggedLevels, r.Level)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *MockHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

// WithGroup implements slog.Handler.
func (h *MockHandler) WithGroup(name string) slog.Handler {
	return h
}

// Messages returns a copy of everything logged so far.
func (h *MockHandler) Messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.LoggedMessages))
	copy(out, h.LoggedMessages)
	return out
}

// NewMockLogger creates a new logger with the mock handler.
func NewMockLogger() *slog.Logger {
	return slog.New(&MockHandler{})
}
