package dirstat

import (
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/idelchi/imgtree/internal/bytesize"
)

// FileRecord describes one classified file.
type FileRecord struct {
	// Path is the file path.
	Path string `json:"path"`
	// Size is the size in bytes.
	Size int64 `json:"size"`
	// IsImage is set when the extension is recognized and the probe succeeded.
	IsImage bool `json:"is_image"`
	// Width is the pixel width (images only).
	Width int `json:"width,omitempty"`
	// Height is the pixel height (images only).
	Height int `json:"height,omitempty"`
}

// DirectoryStatistic summarizes the direct file children of one directory.
//
// Count covers every file; the size and dimension fields cover images only.
type DirectoryStatistic struct {
	// Path is the directory path.
	Path string `json:"path"`
	// Count is the number of direct file children.
	Count int `json:"count"`
	// Images is the number of files classified as images.
	Images int `json:"images"`
	// Errors is the number of image files whose metadata could not be read.
	Errors int `json:"errors"`

	SumSize int64   `json:"sum_size"`
	MaxSize int64   `json:"max_size"`
	AvgSize float64 `json:"avg_size"`

	SumWidth int64   `json:"sum_width"`
	MaxWidth int     `json:"max_width"`
	AvgWidth float64 `json:"avg_width"`

	SumHeight int64   `json:"sum_height"`
	MaxHeight int     `json:"max_height"`
	AvgHeight float64 `json:"avg_height"`
}

// Aggregate folds records into the statistic for dir. Averages are zero when
// no record is an image.
func Aggregate(dir string, records []FileRecord) DirectoryStatistic {
	stat := DirectoryStatistic{Path: dir}

	for _, r := range records {
		stat.Count++

		if !r.IsImage {
			continue
		}

		stat.Images++

		stat.SumSize += r.Size
		stat.MaxSize = max(stat.MaxSize, r.Size)

		stat.SumWidth += int64(r.Width)
		stat.MaxWidth = max(stat.MaxWidth, r.Width)

		stat.SumHeight += int64(r.Height)
		stat.MaxHeight = max(stat.MaxHeight, r.Height)
	}

	if stat.Images > 0 {
		n := float64(stat.Images)
		stat.AvgSize = float64(stat.SumSize) / n
		stat.AvgWidth = float64(stat.SumWidth) / n
		stat.AvgHeight = float64(stat.SumHeight) / n
	}

	return stat
}

// summary is the payload of a directory's exit log line.
type summary struct {
	Files     int    `json:"files"`
	Images    int    `json:"images"`
	Size      string `json:"size"`
	AvgSize   string `json:"avgSize"`
	MaxWidth  int    `json:"maxWidth"`
	AvgWidth  string `json:"avgWidth"`
	MaxHeight int    `json:"maxHeight"`
	AvgHeight string `json:"avgHeight"`
	Errors    int    `json:"errors,omitempty"`
}

// round2 rounds v to two decimal places for display.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func fixed2(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Summary renders the statistic as a compact JSON object with human-readable
// sizes and two-decimal averages.
func (s DirectoryStatistic) Summary() string {
	data, err := json.Marshal(summary{
		Files:     s.Count,
		Images:    s.Images,
		Size:      bytesize.FormatInt(s.SumSize),
		AvgSize:   bytesize.Format(round2(s.AvgSize)),
		MaxWidth:  s.MaxWidth,
		AvgWidth:  fixed2(s.AvgWidth),
		MaxHeight: s.MaxHeight,
		AvgHeight: fixed2(s.AvgHeight),
		Errors:    s.Errors,
	})
	if err != nil {
		// Only strings and ints are marshaled.
		panic(err)
	}

	return string(data)
}

// ExtensionSet accumulates distinct lowercase extensions. It is safe for
// concurrent use and only ever grows.
type ExtensionSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewExtensionSet returns an empty set.
func NewExtensionSet() *ExtensionSet {
	return &ExtensionSet{seen: make(map[string]struct{})}
}

// Add records the given extensions, lowercased. Empty extensions are ignored.
func (s *ExtensionSet) Add(exts ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ext := range exts {
		if ext == "" {
			continue
		}

		s.seen[strings.ToLower(ext)] = struct{}{}
	}
}

// Len returns the number of distinct extensions.
func (s *ExtensionSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.seen)
}

// Sorted returns the extensions in lexical order.
func (s *ExtensionSet) Sorted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	exts := make([]string, 0, len(s.seen))
	for ext := range s.seen {
		exts = append(exts, ext)
	}

	slices.Sort(exts)

	return exts
}

// Report is the result of an analysis run.
type Report struct {
	// Root is the analyzed directory.
	Root string `json:"root"`
	// Directories holds one statistic per directory, in emission order
	// (descendants before their parents).
	Directories []DirectoryStatistic `json:"directories"`
	// Extensions lists every distinct extension seen.
	Extensions []string `json:"extensions"`
	// Files is the total number of files.
	Files int64 `json:"files"`
	// Images is the total number of images.
	Images int64 `json:"images"`
	// ImageBytes is the cumulative size of all images.
	ImageBytes int64 `json:"image_bytes"`
	// Errors counts probe failures and skipped entries.
	Errors int64 `json:"errors"`
	// Elapsed is the total time taken for analysis.
	Elapsed time.Duration `json:"elapsed"`
}

func (r *Report) add(stat DirectoryStatistic) {
	r.Directories = append(r.Directories, stat)
	r.Files += int64(stat.Count)
	r.Images += int64(stat.Images)
	r.ImageBytes += stat.SumSize
	r.Errors += int64(stat.Errors)
}
