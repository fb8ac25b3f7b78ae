package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/imagecache/config"
)

func newConfigCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long: `Manage imagecache configuration.

Subcommands:
  init    Write a config file with default values
  show    Print the effective configuration`,
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigShowCommand(opts))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		force    bool
		mediaDir string
		skinRoot string
	)

	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Write a config file with default values",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			s := config.Defaults()
			s.MediaDir = mediaDir
			s.SkinRoot = skinRoot
			if err := config.Save(s, path); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&mediaDir, "media-dir", "", "media base directory")
	cmd.Flags().StringVar(&skinRoot, "skin-root", "", "skin root directory")
	return cmd
}

func newConfigShowCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.loadSettings()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(s); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
