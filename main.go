// Command imgtree analyzes and downscales directory trees of images.
package main

import (
	"fmt"
	"os"

	"github.com/idelchi/imgtree/internal/cli"
)

// Global variable for CI stamping.
//
//nolint:gochecknoglobals // Version is set at build time
var version = "unknown - unofficial build"

func main() {
	if err := cli.New(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
