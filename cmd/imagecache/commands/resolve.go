package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/imagecache/resolve"
)

// resolveOutput is the JSON form of a resolution.
type resolveOutput struct {
	Source        string `json:"source"`
	RelativePath  string `json:"relative_path"`
	IsPlaceholder bool   `json:"is_placeholder"`
	Tier          string `json:"tier"`
	Key           string `json:"key"`
	CachePath     string `json:"cache_path"`
	Store         string `json:"store"`
	Destination   string `json:"destination"`
	Admission     string `json:"admission"`
	Estimate      uint64 `json:"estimate_bytes,omitempty"`
	Usage         uint64 `json:"usage_bytes,omitempty"`
	Limit         string `json:"limit,omitempty"`
}

func newResolveOutput(res resolve.Resolution) resolveOutput {
	out := resolveOutput{
		Source:        res.Source.AbsolutePath,
		RelativePath:  res.Source.RelativePath,
		IsPlaceholder: res.Source.IsPlaceholder,
		Tier:          res.Tier.String(),
		Key:           string(res.Key),
		CachePath:     res.CachePath,
		Store:         res.StoreID,
		Destination:   res.Destination,
		Admission:     res.Admission.String(),
	}
	if res.Admission == resolve.AdmissionGranted || res.Admission == resolve.AdmissionDenied {
		out.Estimate = res.Decision.Estimate
		out.Usage = res.Decision.Usage
		out.Limit = res.Decision.Limit.String()
	}
	return out
}

func (o resolveOutput) writeText(w io.Writer) {
	fmt.Fprintf(w, "source:      %s\n", o.Source)
	fmt.Fprintf(w, "relative:    %s\n", o.RelativePath)
	fmt.Fprintf(w, "tier:        %s\n", o.Tier)
	fmt.Fprintf(w, "key:         %s\n", o.Key)
	fmt.Fprintf(w, "cache path:  %s\n", o.CachePath)
	fmt.Fprintf(w, "admission:   %s\n", o.Admission)
	if o.Limit != "" {
		fmt.Fprintf(w, "estimate:    %d bytes (usage %d, limit %s)\n", o.Estimate, o.Usage, o.Limit)
	}
}

func newResolveCommand(opts *options) *cobra.Command {
	var (
		tf          transformFlags
		store       string
		destination string
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve the source image for a derivative",
		Long: `Resolve which file a derivative is rendered from and where it is cached.

The destination preset from the config supplies the transform; transform
flags override it. Missing sources, and sources too large for the memory
budget, fall back to the configured or skin placeholder.

Examples:
  imagecache resolve /a/b/ab.jpg --destination thumbnail
  imagecache resolve no_selection --destination image --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if destination == "" {
				return fmt.Errorf("--destination is required")
			}
			s, err := opts.loadSettings()
			if err != nil {
				return err
			}
			spec, err := tf.apply(cmd, s.Transform(destination))
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, s, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.close(context.Background()) }()

			res, err := a.source.Resolve(ctx, resolve.Request{
				Path:        args[0],
				StoreID:     store,
				Destination: destination,
				Transform:   spec,
			})
			if err != nil {
				return err
			}

			out := newResolveOutput(res)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			out.writeText(cmd.OutOrStdout())
			return nil
		},
	}

	tf.register(cmd)
	cmd.Flags().StringVar(&store, "store", "", "store id (default: configured store_id)")
	cmd.Flags().StringVar(&destination, "destination", "", "image destination, e.g. thumbnail")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
