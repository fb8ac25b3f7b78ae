package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/imagecache/cache"
)

func newKeyCommand() *cobra.Command {
	var (
		tf      transformFlags
		digest  string
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Derive the cache key for a transform",
		Long: `Derive the cache key for a set of transform parameters.

Examples:
  imagecache key
  imagecache key --quality 80 --background 000000
  imagecache key --watermark wm.png --watermark-opacity 50 --explain`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, ok := cache.DigestByName(digest)
			if !ok {
				return fmt.Errorf("unknown digest %q", digest)
			}
			spec, err := tf.apply(cmd, cache.DefaultTransform())
			if err != nil {
				return err
			}

			deriver := cache.NewKeyDeriver(cache.WithDigest(d))
			key, err := deriver.Derive(spec)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if explain {
				fmt.Fprintf(out, "params: %s\n", deriver.Params(spec))
				fmt.Fprintf(out, "digest: %s\n", d.Name())
				fmt.Fprintf(out, "key:    %s\n", key)
				return nil
			}
			fmt.Fprintln(out, key)
			return nil
		},
	}

	tf.register(cmd)
	cmd.Flags().StringVar(&digest, "digest", "md5", "key digest (md5|xxhash)")
	cmd.Flags().BoolVar(&explain, "explain", false, "show the hashed parameter string")
	return cmd
}
