// Package config resolves runtime settings from defaults, an optional config
// file, IMGTREE_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Keys understood by Load. Flags bound through Bind use the same names with
// dashes instead of underscores.
const (
	KeyInput          = "input"
	KeyOutput         = "output"
	KeySubfolder      = "subfolder"
	KeyMaxWidth       = "max_width"
	KeyMaxHeight      = "max_height"
	KeyLogDir         = "log_dir"
	KeyWorkers        = "workers"
	KeySkipUnreadable = "skip_unreadable"
	KeyJPEGQuality    = "jpeg_quality"
	KeyDB             = "db"
	KeyDebug          = "debug"
	KeyFormat         = "format"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "IMGTREE"

// Config holds all runtime settings.
type Config struct {
	// Paths.
	Input     string // Default: "../images".
	Output    string // Default: "..".
	Subfolder string // Default: "Resized".
	LogDir    string // Default: ".".

	// Resize bounds.
	MaxWidth    int // Default: 1024.
	MaxHeight   int // Default: 1000.
	JPEGQuality int // Default: 90.

	// Behavior.
	Workers        int  // Default: runtime.NumCPU().
	SkipUnreadable bool // Log and skip unreadable entries instead of aborting.
	DB             string
	Debug          bool
	Format         string // "table", "json" or "none".
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Input:       "../images",
		Output:      "..",
		Subfolder:   "Resized",
		LogDir:      ".",
		MaxWidth:    1024,
		MaxHeight:   1000,
		JPEGQuality: 90,
		Workers:     runtime.NumCPU(),
		Format:      "table",
	}
}

// New returns a viper instance primed with the defaults and environment lookup.
func New() *viper.Viper {
	v := viper.New()

	d := Default()
	v.SetDefault(KeyInput, d.Input)
	v.SetDefault(KeyOutput, d.Output)
	v.SetDefault(KeySubfolder, d.Subfolder)
	v.SetDefault(KeyLogDir, d.LogDir)
	v.SetDefault(KeyMaxWidth, d.MaxWidth)
	v.SetDefault(KeyMaxHeight, d.MaxHeight)
	v.SetDefault(KeyJPEGQuality, d.JPEGQuality)
	v.SetDefault(KeyWorkers, d.Workers)
	v.SetDefault(KeySkipUnreadable, d.SkipUnreadable)
	v.SetDefault(KeyDB, d.DB)
	v.SetDefault(KeyDebug, d.Debug)
	v.SetDefault(KeyFormat, d.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	return v
}

// Bind binds every flag in flags whose name maps to a known key.
func Bind(v *viper.Viper, flags *pflag.FlagSet) error {
	var errs []error

	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if !isKnown(key) {
			return
		}

		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, fmt.Errorf("binding flag %q: %w", f.Name, err))
		}
	})

	return errors.Join(errs...)
}

func isKnown(key string) bool {
	switch key {
	case KeyInput, KeyOutput, KeySubfolder, KeyMaxWidth, KeyMaxHeight, KeyLogDir,
		KeyWorkers, KeySkipUnreadable, KeyJPEGQuality, KeyDB, KeyDebug, KeyFormat:
		return true
	}

	return false
}

// ReadFile reads path, or looks for imgtree.{yaml,toml,json} in the working
// directory when path is empty. A missing default file is not an error.
// It returns the file actually used, if any.
func ReadFile(v *viper.Viper, path string) (string, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("imgtree")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return "", nil
		}

		return "", fmt.Errorf("reading config file: %w", err)
	}

	return v.ConfigFileUsed(), nil
}

// Load resolves a Config from v.
func Load(v *viper.Viper) Config {
	return Config{
		Input:          v.GetString(KeyInput),
		Output:         v.GetString(KeyOutput),
		Subfolder:      v.GetString(KeySubfolder),
		LogDir:         v.GetString(KeyLogDir),
		MaxWidth:       v.GetInt(KeyMaxWidth),
		MaxHeight:      v.GetInt(KeyMaxHeight),
		JPEGQuality:    v.GetInt(KeyJPEGQuality),
		Workers:        v.GetInt(KeyWorkers),
		SkipUnreadable: v.GetBool(KeySkipUnreadable),
		DB:             v.GetString(KeyDB),
		Debug:          v.GetBool(KeyDebug),
		Format:         strings.ToLower(v.GetString(KeyFormat)),
	}
}

// Validate checks value ranges and enum fields.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Input) == "" {
		return errors.New("input directory cannot be empty")
	}

	if strings.TrimSpace(c.Output) == "" {
		return errors.New("output directory cannot be empty")
	}

	if c.MaxWidth <= 0 || c.MaxHeight <= 0 {
		return fmt.Errorf("maximum dimensions must be positive, got %dx%d", c.MaxWidth, c.MaxHeight)
	}

	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg quality must be within 1..100, got %d", c.JPEGQuality)
	}

	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}

	switch c.Format {
	case "table", "json", "none":
	default:
		return fmt.Errorf("invalid output format %q: must be one of [table json none]", c.Format)
	}

	return nil
}

// ResizeRoot returns the directory the resize pipeline writes into.
func (c *Config) ResizeRoot() string {
	return filepath.Join(c.Output, c.Subfolder)
}

// ValidatePaths rejects a resize root nested inside the input tree, which would
// make the walk pick up its own output.
func (c *Config) ValidatePaths() error {
	in, err := filepath.Abs(c.Input)
	if err != nil {
		return fmt.Errorf("resolving input path: %w", err)
	}

	out, err := filepath.Abs(c.ResizeRoot())
	if err != nil {
		return fmt.Errorf("resolving output path: %w", err)
	}

	rel, err := filepath.Rel(in, out)
	if err == nil && (rel == "." || !strings.HasPrefix(rel, "..")) {
		return fmt.Errorf("output %q must not be inside input %q", out, in)
	}

	return nil
}
