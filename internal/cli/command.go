// Package cli implements the imgtree command-line interface.
package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/idelchi/imgtree/internal/config"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// Execute runs the CLI with the process arguments. An interrupt cancels the
// running walk.
func (c CLI) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.Command().ExecuteContext(ctx)
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var configFile string

	v := config.New()
	d := config.Default()

	root := &cobra.Command{
		Use:   "imgtree",
		Short: "Analyze and downscale directory trees of images",
		Long: heredoc.Doc(`
			imgtree walks a directory tree of mixed files and recognizes images by extension
			(.jpg, .jpeg, .png, .gif, .bmp, .jfif).

			Commands:
			  analyze   log per-directory image statistics (count, size, dimensions)
			  resize    mirror the tree under <output>/<subfolder>, downscaling images
			            larger than the maximum dimensions and copying everything else

			Run output goes to log_<timestamp>.txt and log_<timestamp>.error.txt in the log
			directory. Settings are read from flags, IMGTREE_* environment variables and an
			optional imgtree.{yaml,toml,json} config file, in that order of precedence.
		`),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Bind(v, cmd.Flags()); err != nil {
				return err
			}

			_, err := config.ReadFile(v, configFile)

			return err
		},
	}

	flags := root.PersistentFlags()
	flags.SortFlags = false
	flags.StringVarP(&configFile, "config", "c", "", "Config file (default: ./imgtree.{yaml,toml,json} if present)")
	flags.StringP("input", "i", d.Input, "Input root directory")
	flags.String("log-dir", d.LogDir, "Directory for the log files")
	flags.IntP("workers", "j", d.Workers, "Files processed concurrently within one directory")
	flags.Bool("skip-unreadable", d.SkipUnreadable, "Log and skip unreadable entries instead of aborting")
	flags.StringP("format", "f", d.Format, "Report printed on completion: table, json or none")
	flags.Bool("debug", d.Debug, "Mirror log lines to stderr")

	root.AddCommand(
		analyzeCommand(v),
		resizeCommand(v),
		historyCommand(v),
	)

	return root
}

func analyzeCommand(v *viper.Viper) *cobra.Command {
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "analyze [input]",
		Short: "Log per-directory image statistics",
		Long: heredoc.Doc(`
			Walks the input tree depth-first. Every directory logs its name on entry and a
			summary of its direct files once all of its subdirectories are done:

			  [trip]
			    [day1]
			    [day1: {"files":3,"images":2,"size":"4 MB",...}]
			  [trip: {...}]

			Size and dimension figures cover images only; "files" counts every file.
			The distinct extensions of the whole tree are logged last.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(v, args)
			if err != nil {
				return err
			}

			return analyze(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("db", d.DB, "SQLite database to record statistics in (disabled when empty)")

	return cmd
}

func resizeCommand(v *viper.Viper) *cobra.Command {
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "resize [input]",
		Short: "Mirror the tree, downscaling oversized images",
		Long: heredoc.Doc(`
			Writes every file of the input tree to the same relative path under
			<output>/<subfolder>.

			  - non-images are copied byte for byte
			  - images within --max-width x --max-height are copied byte for byte
			  - larger images are downscaled, keeping the aspect ratio, and re-encoded
			    in their own format

			When only the width is too large, it is scaled to --max-width. When the height
			is too large, it is scaled to --max-height and the width follows from the
			original aspect ratio, regardless of the width adjustment.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(v, args)
			if err != nil {
				return err
			}

			return resize(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.SortFlags = false
	flags.StringP("output", "o", d.Output, "Output root directory")
	flags.String("subfolder", d.Subfolder, "Folder under the output root receiving the mirrored tree")
	flags.IntP("max-width", "W", d.MaxWidth, "Maximum width in pixels")
	flags.IntP("max-height", "H", d.MaxHeight, "Maximum height in pixels")
	flags.Int("jpeg-quality", d.JPEGQuality, "Quality of re-encoded JPEG images (1-100)")

	return cmd
}

func historyCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List analysis runs recorded with --db",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load(v, nil)
			if err != nil {
				return err
			}

			return listHistory(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	cmd.Flags().String("db", "", "SQLite database written by analyze --db")

	return cmd
}
