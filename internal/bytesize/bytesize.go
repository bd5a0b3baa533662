// Package bytesize renders byte counts in whole binary units.
package bytesize

import (
	"math"
	"strconv"
)

// units are the binary (1024) unit labels in ascending order.
var units = []string{"B", "KB", "MB", "GB", "TB"} //nolint:gochecknoglobals // Unit table

// Format returns bytes in the largest unit whose scaled value is at least one,
// rounded to the nearest integer. Values below one byte (including zero and
// negatives) format as "0 B".
//
// The result differs from humanize.IBytes, which keeps one
// decimal and uses IEC labels ("1.5 KiB").
func Format(bytes float64) string {
	if bytes < 1 || math.IsNaN(bytes) {
		return "0 B"
	}

	exp := 0
	for bytes >= 1024 && exp < len(units)-1 {
		bytes /= 1024
		exp++
	}

	return strconv.FormatFloat(math.Round(bytes), 'f', -1, 64) + " " + units[exp]
}

// FormatInt is Format for integral byte counts.
func FormatInt(bytes int64) string {
	return Format(float64(bytes))
}
