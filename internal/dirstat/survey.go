package dirstat

import (
	"context"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
)

// Totals are the result of a survey.
type Totals struct {
	// Dirs is the number of directories, including the root.
	Dirs int64 `json:"dirs"`
	// Files is the number of regular files.
	Files int64 `json:"files"`
	// Bytes is the cumulative size of all regular files.
	Bytes int64 `json:"bytes"`
	// Images is the number of files with a recognized image extension.
	Images int64 `json:"images"`
	// ImageBytes is the cumulative size of those files.
	ImageBytes int64 `json:"image_bytes"`
	// ErrorCount is the number of entries that could not be read.
	ErrorCount int64 `json:"error_count"`
	// Elapsed is the time the survey took.
	Elapsed time.Duration `json:"elapsed"`
}

// collector aggregates totals from concurrent fastwalk callbacks using a mutex.
type collector struct {
	mu     sync.Mutex // Protect concurrent access
	totals Totals
}

func (c *collector) addDir() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totals.Dirs++
}

func (c *collector) addError() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totals.ErrorCount++
}

func (c *collector) addFile(path string, size int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totals.Files++
	c.totals.Bytes += size

	if IsImage(path) {
		c.totals.Images++
		c.totals.ImageBytes += size
	}
}

// Survey counts the files under root with a parallel, unordered walk. It only
// reads directory entries and never opens files; unreadable entries are
// counted and skipped. Symlinks are not followed.
func Survey(ctx context.Context, root string) (*Totals, error) {
	root = filepath.Clean(root)
	if err := CheckRoot(root); err != nil {
		return nil, err
	}

	start := time.Now()
	c := &collector{}

	conf := &fastwalk.Config{
		Follow: false,
	}

	//nolint:varnamelen // d is standard for DirEntry
	err := fastwalk.Walk(conf, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			c.addError()

			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			c.addDir()

			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			c.addError()

			return nil //nolint:nilerr // Intentionally skip errors during walk
		}

		c.addFile(path, info.Size())

		return nil
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	totals := c.totals
	totals.Elapsed = time.Since(start)

	return &totals, nil
}
