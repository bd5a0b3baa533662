package logsink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// lazyFile is an append-only zapcore.WriteSyncer that opens its file on first use.
type lazyFile struct {
	mu   sync.Mutex
	path string
	file *os.File
}

func (f *lazyFile) open() error {
	if f.file != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	f.file = file

	return nil
}

// Write appends p, opening the file if needed.
func (f *lazyFile) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.open(); err != nil {
		return 0, err
	}

	return f.file.Write(p)
}

// Sync flushes the file if it was ever opened.
func (f *lazyFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	return f.file.Sync()
}

// Close closes the file if it was ever opened.
func (f *lazyFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	err := f.file.Close()
	f.file = nil

	return err
}
