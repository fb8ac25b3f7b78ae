package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/imagecache/estimate"
	"github.com/jonwraymond/imagecache/storage"
)

func newEstimateCommand() *cobra.Command {
	policy := estimate.DefaultPolicy()

	cmd := &cobra.Command{
		Use:   "estimate <file>...",
		Short: "Estimate the decode memory of image files",
		Long: `Read image headers and print the memory a decode is expected to need.

Files that are missing or not images cost 0 bytes.

Examples:
  imagecache estimate photo.jpg
  imagecache estimate --multiplier 2 *.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys := storage.OSFileSystem{}
			reader := estimate.NewImageHeaderReader(fsys)
			est := estimate.NewEstimator(fsys,
				estimate.WithPolicy(policy),
				estimate.WithHeaderReader(reader),
			)

			rows := make([][]string, 0, len(args))
			for _, path := range args {
				cost := est.Estimate(path)
				row := []string{path, "-", "-", "-", "-", bytesIEC(cost), strconv.FormatUint(cost, 10)}
				if h, err := reader.ReadHeader(path); err == nil {
					row[1] = h.Format
					row[2] = fmt.Sprintf("%dx%d", h.Width, h.Height)
					row[3] = strconv.Itoa(h.BitsPerChannel)
					row[4] = strconv.Itoa(h.Channels)
				}
				rows = append(rows, row)
			}

			printTable(cmd.OutOrStdout(),
				[]string{"File", "Format", "Size", "Bits", "Channels", "Estimate", "Bytes"}, rows)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&policy.Overhead, "overhead", policy.Overhead, "fixed decoder overhead in bytes")
	cmd.Flags().Float64Var(&policy.Multiplier, "multiplier", policy.Multiplier, "safety multiplier over the pixel buffer")
	return cmd
}
