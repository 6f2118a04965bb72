package writer

import (
	"context"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// SystemClipboard is the operating system clipboard. It needs xclip, xsel
// or wl-clipboard on Linux.
type SystemClipboard struct{}

func (SystemClipboard) WriteText(_ context.Context, text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("writer: system clipboard unsupported on this host")
	}
	return clipboard.WriteAll(text)
}

// ReadText returns the current clipboard content.
func (SystemClipboard) ReadText(_ context.Context) (string, error) {
	return clipboard.ReadAll()
}

// MemoryClipboard is a process-local clipboard. It records every write.
type MemoryClipboard struct {
	mu     sync.Mutex
	text   string
	writes []string
}

func (m *MemoryClipboard) WriteText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.writes = append(m.writes, text)
	return nil
}

func (m *MemoryClipboard) ReadText(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

// Writes returns the history of writes, oldest first.
func (m *MemoryClipboard) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}
