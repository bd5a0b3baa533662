package dirstat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// Recorder persists directory statistics as they are produced.
type Recorder interface {
	Record(ctx context.Context, stat DirectoryStatistic) error
}

// Analyzer computes per-directory image statistics for a tree.
type Analyzer struct {
	// Log receives the nested directory lines and per-file failures.
	Log Logger
	// Workers bounds concurrent classification within one directory.
	Workers int
	// SkipUnreadable logs unreadable entries and continues instead of aborting.
	SkipUnreadable bool
	// Recorder, if set, receives each statistic after it is logged.
	Recorder Recorder
	// Progress, if set, counts classified files.
	Progress *Progress
}

// indent returns the prefix of log lines for a directory at depth.
func indent(depth int) string {
	return strings.Repeat("  ", depth+1)
}

// CheckRoot validates that root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("accessing path %q: %w", root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path %q is not a directory", root)
	}

	return nil
}

// Run analyzes the tree at root. Each directory logs its name on entry and its
// summary once all of its subdirectories and files are done. The distinct
// extensions of the whole tree are logged last.
func (a *Analyzer) Run(ctx context.Context, root string) (*Report, error) {
	start := time.Now()

	root = filepath.Clean(root)
	if err := CheckRoot(root); err != nil {
		return nil, err
	}

	exts := NewExtensionSet()
	report := &Report{Root: root}

	walker := Walker{
		SkipUnreadable: a.SkipUnreadable,
		OnError: func(path string, err error) {
			report.Errors++
			a.Log.Error(fmt.Sprintf("Skipped unreadable path %s: %v", path, err))
		},
		Enter: func(dir string, depth int) {
			a.Log.Info(fmt.Sprintf("%s[%s]", indent(depth), filepath.Base(dir)))
		},
		Files: func(ctx context.Context, dir string, files []FileEntry, depth int) error {
			stat := a.analyzeBatch(dir, files, exts)

			a.Log.Info(fmt.Sprintf("%s[%s: %s]", indent(depth), filepath.Base(dir), stat.Summary()))
			report.add(stat)

			if a.Recorder != nil {
				if err := a.Recorder.Record(ctx, stat); err != nil {
					a.Log.Error(fmt.Sprintf("Failed to record statistics of %s: %v", dir, err))
				}
			}

			return nil
		},
	}

	if err := walker.Walk(ctx, root); err != nil {
		return nil, err
	}

	report.Extensions = exts.Sorted()
	a.Log.Info(strings.Join(report.Extensions, ", "))

	report.Elapsed = time.Since(start)

	return report, nil
}

// analyzeBatch classifies files concurrently and folds the results. Files whose
// probe fails are logged, counted as files and as errors, and excluded from the
// image statistics.
func (a *Analyzer) analyzeBatch(dir string, files []FileEntry, exts *ExtensionSet) DirectoryStatistic {
	records := make([]FileRecord, len(files))
	errs := make([]error, len(files))

	workers := a.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := pool.New().WithMaxGoroutines(workers)

	for i, f := range files {
		exts.Add(Ext(f.Path))

		p.Go(func() {
			records[i], errs[i] = Classify(f.Path, f.Size)
			a.Progress.Add(f.Size)
		})
	}

	p.Wait()

	ok := records[:0]
	failed := 0

	for i, err := range errs {
		if err != nil {
			failed++
			a.Log.Error(fmt.Sprintf("Failed to get metadata of file: %s: %v", files[i].Path, err))

			continue
		}

		ok = append(ok, records[i])
	}

	stat := Aggregate(dir, ok)
	stat.Count += failed
	stat.Errors = failed

	return stat
}
