package commands

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/imagecache/budget"
)

func newLimitCommand(opts *options) *cobra.Command {
	var check uint64

	cmd := &cobra.Command{
		Use:   "limit [value]",
		Short: "Show the memory limit and current usage",
		Long: `Parse a memory limit and compare it with the current heap usage.

Without a value the configured memory.limit is used. "runtime" reads the Go
runtime soft memory limit (GOMEMLIMIT).

Examples:
  imagecache limit 256M
  imagecache limit -- -1
  imagecache limit 128M --check 40000000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source budget.LimitSource
			if len(args) == 1 {
				value := args[0]
				if value == "runtime" {
					source = budget.RuntimeMemoryLimit
				} else {
					if _, err := budget.ParseLimit(value); err != nil {
						return err
					}
					source = budget.StaticLimit(value)
				}
			} else {
				s, err := opts.loadSettings()
				if err != nil {
					return err
				}
				source = s.LimitSource()
			}

			b := budget.NewRuntimeBudget(source, nil)
			limit := b.Limit()
			usage := b.CurrentUsage()

			out := cmd.OutOrStdout()
			if limit.Unlimited {
				fmt.Fprintln(out, "limit:  unlimited")
			} else {
				fmt.Fprintf(out, "limit:  %s (%d bytes, %s)\n", limit, limit.Bytes, bytesIEC(limit.Bytes))
			}
			fmt.Fprintf(out, "usage:  %d bytes (%s)\n", usage, bytesIEC(usage))

			if cmd.Flags().Changed("check") {
				verdict := "denied"
				if check <= math.MaxUint64-usage && limit.Allows(usage+check) {
					verdict = "allowed"
				}
				fmt.Fprintf(out, "check:  %d bytes %s\n", check, verdict)
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&check, "check", 0, "test whether an allocation of this many bytes fits")
	return cmd
}
