package resizer

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/nfnt/resize"
	"golang.org/x/image/bmp"

	"github.com/idelchi/imgtree/internal/dirstat"
)

// Action is what the engine did with a file.
type Action int

const (
	// ActionCopy is a byte copy of a non-image.
	ActionCopy Action = iota
	// ActionKeep is a byte copy of an image already within bounds.
	ActionKeep
	// ActionResize is a downscaled re-encode.
	ActionResize
)

func (a Action) String() string {
	switch a {
	case ActionCopy:
		return "copy"
	case ActionKeep:
		return "keep"
	case ActionResize:
		return "resize"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Result describes a successful ResizeOrCopy.
type Result struct {
	Action Action
	Output string
	// Width and Height are the source dimensions (images only).
	Width, Height int
	// NewWidth and NewHeight are the written dimensions (ActionResize only).
	NewWidth, NewHeight int
}

// Message is the log line for the result.
func (r Result) Message() string {
	switch r.Action {
	case ActionKeep:
		return "Copied, no resize needed: " + r.Output
	case ActionResize:
		return fmt.Sprintf("Resized: [%d,%d] -> [%d,%d] %s", r.Width, r.Height, r.NewWidth, r.NewHeight, r.Output)
	default:
		return "Not image, plain copy: " + r.Output
	}
}

// Engine decides per file between a byte copy and a downscaled re-encode.
type Engine struct {
	MaxWidth  int
	MaxHeight int
	// JPEGQuality is used when re-encoding JPEG files.
	JPEGQuality int
	// Interpolation is the resampling filter.
	Interpolation resize.InterpolationFunction
}

// NewEngine returns an engine with Lanczos3 resampling and JPEG quality 90.
func NewEngine(maxWidth, maxHeight int) *Engine {
	return &Engine{
		MaxWidth:      maxWidth,
		MaxHeight:     maxHeight,
		JPEGQuality:   90,
		Interpolation: resize.Lanczos3,
	}
}

// TargetSize fits width x height into maxWidth x maxHeight, preserving the
// aspect ratio and truncating to whole pixels.
//
// The width pass runs first. When the height also exceeds its bound, the
// height pass recomputes both dimensions from the original size and replaces
// the width pass result, even if the new width then exceeds maxWidth.
func TargetSize(width, height, maxWidth, maxHeight int) (int, int) {
	newWidth, newHeight := width, height

	if width > maxWidth {
		newWidth = maxWidth
		newHeight = int(float64(height) * (float64(maxWidth) / float64(width)))
	}

	if height > maxHeight {
		newWidth = int(float64(width) * (float64(maxHeight) / float64(height)))
		newHeight = maxHeight
	}

	return max(newWidth, 1), max(newHeight, 1)
}

// ResizeOrCopy writes input to output. Non-images and images within bounds are
// copied byte for byte; larger images are downscaled and re-encoded in their
// own format. Missing output directories are created. Errors name the file.
func (e *Engine) ResizeOrCopy(input, output string) (Result, error) {
	if !dirstat.IsImage(input) {
		if err := copyFile(input, output); err != nil {
			return Result{}, fmt.Errorf("failed to copy file %s: %w", input, err)
		}

		return Result{Action: ActionCopy, Output: output}, nil
	}

	width, height, err := dirstat.Probe(input)
	if err != nil {
		return Result{}, fmt.Errorf("failed to get metadata of file %s: %w", input, err)
	}

	result := Result{Output: output, Width: width, Height: height}

	if width <= e.MaxWidth && height <= e.MaxHeight {
		if err := copyFile(input, output); err != nil {
			return Result{}, fmt.Errorf("failed to copy file %s: %w", input, err)
		}

		result.Action = ActionKeep

		return result, nil
	}

	result.Action = ActionResize
	result.NewWidth, result.NewHeight = TargetSize(width, height, e.MaxWidth, e.MaxHeight)

	if err := e.resizeFile(input, output, result.NewWidth, result.NewHeight); err != nil {
		return Result{}, fmt.Errorf("failed to save file %s: %w", output, err)
	}

	return result, nil
}

// ensureDir creates the parent directory of path if it is missing.
func ensureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	return nil
}

// create opens path for writing, truncating it. The returned finish closes the
// file and removes it when err is non-nil.
func create(path string) (*os.File, func(err error) error, error) {
	if err := ensureDir(path); err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	finish := func(err error) error {
		err = errors.Join(err, f.Close())
		if err != nil {
			_ = os.Remove(path)
		}

		return err
	}

	return f, finish, nil
}

func copyFile(input, output string) error {
	src, err := os.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, finish, err := create(output)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)

	return finish(err)
}

func (e *Engine) resizeFile(input, output string, width, height int) error {
	src, err := os.Open(input)
	if err != nil {
		return err
	}
	defer src.Close()

	img, format, err := image.Decode(bufio.NewReader(src))
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	scaled := resize.Resize(uint(width), uint(height), img, e.Interpolation) //nolint:gosec // Dimensions are positive

	dst, finish, err := create(output)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(dst)

	switch format {
	case "jpeg":
		err = jpeg.Encode(w, scaled, &jpeg.Options{Quality: e.JPEGQuality})
	case "png":
		err = png.Encode(w, scaled)
	case "gif":
		err = gif.Encode(w, scaled, nil)
	case "bmp":
		err = bmp.Encode(w, scaled)
	default:
		err = fmt.Errorf("unsupported image format %q", format)
	}

	if err == nil {
		err = w.Flush()
	}

	return finish(err)
}
