package dirstat

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"

	// Register decoders for the recognized extensions.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// ErrProbe marks a file with an image extension whose dimensions could not be read.
var ErrProbe = errors.New("reading image metadata")

//nolint:gochecknoglobals // Fixed extension table
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".bmp":  {},
	".jfif": {},
}

// ImageExtensions returns the recognized image extensions, sorted.
func ImageExtensions() []string {
	exts := make([]string, 0, len(imageExtensions))
	for ext := range imageExtensions {
		exts = append(exts, ext)
	}

	slices.Sort(exts)

	return exts
}

// Ext returns the lowercased extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsImage reports whether path has a recognized image extension.
func IsImage(path string) bool {
	_, ok := imageExtensions[Ext(path)]

	return ok
}

// Probe reads the pixel dimensions of an image from its header without
// decoding the pixel data. Failures wrap ErrProbe.
func Probe(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrProbe, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(bufio.NewReader(f))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: %w", ErrProbe, path, err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%w: %q: invalid dimensions %dx%d", ErrProbe, path, cfg.Width, cfg.Height)
	}

	return cfg.Width, cfg.Height, nil
}

// Classify builds the FileRecord for a file of the given size. Non-images are
// never opened.
func Classify(path string, size int64) (FileRecord, error) {
	record := FileRecord{Path: path, Size: size}

	if !IsImage(path) {
		return record, nil
	}

	width, height, err := Probe(path)
	if err != nil {
		return FileRecord{}, err
	}

	record.IsImage = true
	record.Width = width
	record.Height = height

	return record, nil
}
