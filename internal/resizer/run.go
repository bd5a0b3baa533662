package resizer

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/idelchi/imgtree/internal/dirstat"
)

// Summary counts the outcomes of a resize run.
type Summary struct {
	// Copied is the number of non-image files copied verbatim.
	Copied int64 `json:"copied"`
	// Kept is the number of images copied without resizing.
	Kept int64 `json:"kept"`
	// Resized is the number of images downscaled.
	Resized int64 `json:"resized"`
	// Failed is the number of files that could not be written.
	Failed int64 `json:"failed"`
	// Skipped is the number of unreadable entries passed over.
	Skipped int64 `json:"skipped"`
	// Output is the root of the mirrored tree.
	Output string `json:"output"`
	// Elapsed is the total time taken.
	Elapsed time.Duration `json:"elapsed"`
}

// Files returns the number of files handled, successfully or not.
func (s *Summary) Files() int64 {
	return s.Copied + s.Kept + s.Resized + s.Failed
}

func (s *Summary) add(r Result) {
	switch r.Action {
	case ActionCopy:
		s.Copied++
	case ActionKeep:
		s.Kept++
	case ActionResize:
		s.Resized++
	}
}

// Resizer drives an Engine over a tree.
type Resizer struct {
	Engine *Engine
	Mapper Mapper
	// Log receives one line per file.
	Log dirstat.Logger
	// Workers bounds concurrent files within one directory.
	Workers int
	// SkipUnreadable logs unreadable entries and continues instead of aborting.
	SkipUnreadable bool
	// Progress, if set, counts handled files.
	Progress *dirstat.Progress
}

// outcome is the result of one file task.
type outcome struct {
	result Result
	err    error
}

// Run mirrors the tree at Mapper.InputRoot. Directories are handled one at a
// time; the files of a directory run concurrently and are all finished before
// the walk moves on.
func (r *Resizer) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()

	root := filepath.Clean(r.Mapper.InputRoot)
	if err := dirstat.CheckRoot(root); err != nil {
		return nil, err
	}

	summary := &Summary{Output: r.Mapper.Root()}

	walker := dirstat.Walker{
		SkipUnreadable: r.SkipUnreadable,
		OnError: func(path string, err error) {
			summary.Skipped++
			r.Log.Error(fmt.Sprintf("Skipped unreadable path %s: %v", path, err))
		},
		Files: func(_ context.Context, _ string, files []dirstat.FileEntry, _ int) error {
			for _, o := range r.processBatch(files) {
				if o.err != nil {
					summary.Failed++

					continue
				}

				summary.add(o.result)
			}

			return nil
		},
	}

	if err := walker.Walk(ctx, root); err != nil {
		return nil, err
	}

	summary.Elapsed = time.Since(start)

	return summary, nil
}

func (r *Resizer) processBatch(files []dirstat.FileEntry) []outcome {
	outcomes := make([]outcome, len(files))

	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	p := pool.New().WithMaxGoroutines(workers)

	for i, f := range files {
		p.Go(func() {
			outcomes[i] = r.processFile(f.Path)
			r.Progress.Add(f.Size)
		})
	}

	p.Wait()

	return outcomes
}

// processFile handles one file and logs its outcome.
func (r *Resizer) processFile(input string) outcome {
	output, err := r.Mapper.Map(input)
	if err != nil {
		r.Log.Error(err.Error())

		return outcome{err: err}
	}

	result, err := r.Engine.ResizeOrCopy(input, output)
	if err != nil {
		r.Log.Error(err.Error())

		return outcome{err: err}
	}

	r.Log.Info(result.Message())

	return outcome{result: result}
}
