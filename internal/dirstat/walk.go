package dirstat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileEntry is a regular file found while listing a directory.
type FileEntry struct {
	// Path is the file path, rooted at the walk root.
	Path string
	// Size is the size in bytes.
	Size int64
}

// Walker visits a directory tree depth-first.
//
// For every directory, Enter fires once the directory has been listed, then
// each subdirectory is walked to completion in listing order, and finally
// Files receives the directory's own files. Files may process the batch
// concurrently but must not return before every file is done.
type Walker struct {
	// Enter is called before any child of dir is visited.
	Enter func(dir string, depth int)
	// Files is called with the direct file children of dir.
	Files func(ctx context.Context, dir string, files []FileEntry, depth int) error
	// SkipUnreadable reports listing and stat failures through OnError and
	// continues instead of aborting the walk.
	SkipUnreadable bool
	// OnError receives failures skipped because of SkipUnreadable.
	OnError func(path string, err error)
}

// Walk walks the tree rooted at root.
func (w *Walker) Walk(ctx context.Context, root string) error {
	return w.walk(ctx, filepath.Clean(root), 0)
}

func (w *Walker) walk(ctx context.Context, dir string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return w.fail(dir, fmt.Errorf("listing directory %q: %w", dir, err))
	}

	if w.Enter != nil {
		w.Enter(dir, depth)
	}

	files := make([]FileEntry, 0, len(entries))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())

		// Stat follows symlinks, so linked directories are recursed into.
		info, err := os.Stat(path)
		if err != nil {
			if err := w.fail(path, fmt.Errorf("accessing path %q: %w", path, err)); err != nil {
				return err
			}

			continue
		}

		switch {
		case info.IsDir():
			if err := w.walk(ctx, path, depth+1); err != nil {
				return err
			}
		case info.Mode().IsRegular():
			files = append(files, FileEntry{Path: path, Size: info.Size()})
		}
	}

	if w.Files == nil {
		return nil
	}

	return w.Files(ctx, dir, files, depth)
}

func (w *Walker) fail(path string, err error) error {
	if !w.SkipUnreadable {
		return err
	}

	if w.OnError != nil {
		w.OnError(path, err)
	}

	return nil
}
