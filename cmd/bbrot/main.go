// Command bbrot computes Buddhabrot seed sets and renders them, along with
// the classic escape-time set view. The pipeline is split into subcommands
// so the expensive sampling stage runs once and its seed files feed any
// number of render and animate runs:
//
//	bbrot mandel                      # escape-time set view
//	bbrot compute                     # sample boundary cells, write seeds
//	bbrot render seeds-10M-1M_5M-*.json
//	bbrot animate seeds-10M-1M_5M-*.json
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/brot"
)

// human prints counts with grouping separators for stdout summaries.
var human = message.NewPrinter(language.English)

func main() {
	ctx := context.Background()

	err := rootCmd().ExecuteContext(ctx)
	if err != nil {
		// At this point the error has already been printed; no need to print again.
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "bbrot",
		Short: "Buddhabrot compute and render pipeline",
		Long: `bbrot evaluates the quadratic escape-time recurrence over the plane,
samples the set boundary for long-orbit seeds, and renders orbit-density
images and animations from the persisted seed files.`,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setupLogging(logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level: debug, info, warn, or error")

	cmd.AddCommand(mandelCmd(), computeCmd(), renderCmd(), animateCmd())
	return cmd
}

// setupLogging installs a text handler at the requested level as the library
// logger. Without it the library stays silent.
func setupLogging(level string) error {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("unknown log level %q", level)
	}
	brot.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// paletteByName resolves the --palette flag.
func paletteByName(name string) (brot.Palette, error) {
	switch strings.ToLower(name) {
	case "mandel":
		return brot.MandelPalette(), nil
	case "flame":
		return brot.FlamePalette(), nil
	case "ice":
		return brot.IcePalette(), nil
	}
	return nil, fmt.Errorf("unknown palette %q (want mandel, flame, or ice)", name)
}
