package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/imagecache/cache"
	"github.com/jonwraymond/imagecache/config"
	"github.com/jonwraymond/imagecache/resolve"
)

func newPathCommand() *cobra.Command {
	var (
		tf          transformFlags
		baseDir     string
		store       string
		destination string
		digest      string
	)

	cmd := &cobra.Command{
		Use:   "path <relative-path>",
		Short: "Compute the cache path of a derivative",
		Long: `Compute where the derivative of a source is cached, without touching
the filesystem.

Examples:
  imagecache path /a/b/ab.jpg --base /var/media --destination thumbnail --width 75`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if destination == "" {
				return fmt.Errorf("--destination is required")
			}
			d, ok := cache.DigestByName(digest)
			if !ok {
				return fmt.Errorf("unknown digest %q", digest)
			}
			spec, err := tf.apply(cmd, cache.DefaultTransform())
			if err != nil {
				return err
			}
			key, err := cache.NewKeyDeriver(cache.WithDigest(d)).Derive(spec)
			if err != nil {
				return err
			}

			p := cache.NewPathResolver().Resolve(cache.PathParams{
				BaseDir:      baseDir,
				StoreID:      store,
				Destination:  destination,
				Width:        spec.Width,
				Height:       spec.Height,
				Key:          key,
				RelativePath: resolve.NormalizePath(args[0]),
			})
			_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
			return err
		},
	}

	tf.register(cmd)
	cmd.Flags().StringVar(&baseDir, "base", "", "media base directory")
	cmd.Flags().StringVar(&store, "store", config.DefaultStoreID, "store id")
	cmd.Flags().StringVar(&destination, "destination", "", "image destination, e.g. thumbnail")
	cmd.Flags().StringVar(&digest, "digest", "md5", "key digest (md5|xxhash)")
	return cmd
}
