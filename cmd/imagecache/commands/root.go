// Package commands implements the imagecache CLI.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/imagecache/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
)

// options holds the global flags.
type options struct {
	configFile string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "imagecache",
		Short: "Memory-guarded image derivative cache resolver",
		Long: `imagecache decides which source image a derivative is rendered from and
where the derivative is cached.

It derives cache keys from transform parameters, builds cache paths, estimates
decode memory from image headers, and falls back to placeholders when a source
is missing or too large for the memory budget.

Configuration is read from --config (YAML) and IMAGECACHE_* environment
variables, e.g. IMAGECACHE_MEMORY_LIMIT=256M.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (YAML)")

	root.AddCommand(
		newKeyCommand(),
		newPathCommand(),
		newEstimateCommand(),
		newLimitCommand(opts),
		newResolveCommand(opts),
		newHealthCommand(opts),
		newConfigCommand(opts),
		newVersionCommand(),
	)
	root.CompletionOptions.DisableDefaultCmd = true
	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCommand().Execute()
}

// loadSettings loads and validates the configuration.
func (o *options) loadSettings() (*config.Settings, error) {
	s, err := config.Load(o.configFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return s, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "imagecache %s (commit: %s)\n", Version, Commit)
			return err
		},
	}
}
