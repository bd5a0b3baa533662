package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/idelchi/imgtree/internal/bytesize"
	"github.com/idelchi/imgtree/internal/dirstat"
	"github.com/idelchi/imgtree/internal/history"
	"github.com/idelchi/imgtree/internal/resizer"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
)

// PrintJSON outputs v in indented JSON format.
func PrintJSON(v any, writer io.Writer) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// displayPath converts to slash format and removes a leading "./".
func displayPath(path string) string {
	return strings.TrimPrefix(filepath.ToSlash(path), "./")
}

// ibytes renders a non-negative byte count with humanize.
func ibytes(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}

// PrintReport outputs an analysis report in human-readable table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintReport(report *dirstat.Report, totals *dirstat.Totals, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintln(w, "\nDirectories:\t\t\t")

	for i, d := range report.Directories {
		fmt.Fprintf(w, "  %d) '%s'\t%d files, %d images\t%s\tavg %.2fx%.2f, max %dx%d\n",
			i+1, displayPath(d.Path), d.Count, d.Images, bytesize.FormatInt(d.SumSize),
			d.AvgWidth, d.AvgHeight, d.MaxWidth, d.MaxHeight)
	}

	fmt.Fprintln(w, "\nExtensions:\t\t\t")

	if len(report.Extensions) == 0 {
		fmt.Fprintln(w, "  (none)")
	} else {
		fmt.Fprintf(w, "  %s\n", strings.Join(report.Extensions, ", "))
	}

	// Stats summary
	fmt.Fprintln(w, "\nStats:\t\t\t")
	fmt.Fprintf(w, "Total directories:\t%s\n", humanize.Comma(int64(len(report.Directories))))
	fmt.Fprintf(w, "Total files:\t%s\n", humanize.Comma(report.Files))
	fmt.Fprintf(w, "Total images:\t%s\n", humanize.Comma(report.Images))
	fmt.Fprintf(w, "Image size:\t%s (%d bytes)\n", ibytes(report.ImageBytes), report.ImageBytes)

	if totals != nil {
		fmt.Fprintf(w, "Tree size:\t%s (%d bytes)\n", ibytes(totals.Bytes), totals.Bytes)
	}

	fmt.Fprintf(w, "Errors:\t%s\n", humanize.Comma(report.Errors))
	fmt.Fprintf(w, "\nElapsed:\t%v\n", report.Elapsed)

	return w.Flush()
}

// PrintSummary outputs a resize summary in human-readable table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintSummary(summary *resizer.Summary, totals *dirstat.Totals, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintln(w, "\nStats:\t\t")
	fmt.Fprintf(w, "Output:\t'%s'\n", displayPath(summary.Output))
	fmt.Fprintf(w, "Resized images:\t%s\n", humanize.Comma(summary.Resized))
	fmt.Fprintf(w, "Copied images:\t%s\n", humanize.Comma(summary.Kept))
	fmt.Fprintf(w, "Copied other files:\t%s\n", humanize.Comma(summary.Copied))
	fmt.Fprintf(w, "Failed:\t%s\n", humanize.Comma(summary.Failed))

	if summary.Skipped > 0 {
		fmt.Fprintf(w, "Skipped entries:\t%s\n", humanize.Comma(summary.Skipped))
	}

	if totals != nil {
		fmt.Fprintf(w, "Input size:\t%s (%d bytes)\n", ibytes(totals.Bytes), totals.Bytes)
	}

	fmt.Fprintf(w, "\nElapsed:\t%v\n", summary.Elapsed)

	return w.Flush()
}

// PrintRuns outputs recorded analysis runs in human-readable table format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintRuns(runs []history.RunInfo, writer io.Writer) error {
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")

		return w.Flush()
	}

	fmt.Fprintln(w, "ID\tStarted\tRoot\tDirectories\tFiles\tImages\tStatus")

	for _, r := range runs {
		status := "finished"
		if r.FinishedAt.IsZero() {
			status = "incomplete"
		}

		fmt.Fprintf(w, "%d\t%s\t'%s'\t%s\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), displayPath(r.Root),
			humanize.Comma(int64(r.Directories)), humanize.Comma(r.Files), humanize.Comma(r.Images), status)
	}

	return w.Flush()
}
