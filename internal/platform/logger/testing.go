package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
)

// Buffer is a goroutine-safe io.Writer that captures JSON log lines.
type Buffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// NewBufferLogger returns a debug-level JSON logger writing into a new Buffer.
func NewBufferLogger() (*slog.Logger, *Buffer) {
	b := &Buffer{}
	return slog.New(slog.NewJSONHandler(b, &slog.HandlerOptions{Level: slog.LevelDebug})), b
}

func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *Buffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Entries parses every captured line. Lines that are not JSON are skipped.
func (b *Buffer) Entries() []map[string]any {
	var out []map[string]any
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// Find returns the captured entries whose msg equals msg.
func (b *Buffer) Find(msg string) []map[string]any {
	var out []map[string]any
	for _, e := range b.Entries() {
		if e["msg"] == msg {
			out = append(out, e)
		}
	}
	return out
}
