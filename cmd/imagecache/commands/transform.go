package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/imagecache/cache"
)

// transformFlags are the transform parameters shared by key, path and
// resolve.
type transformFlags struct {
	width, height, quality, angle   int
	background                      string
	keepAspectRatio, keepFrame      bool
	keepTransparency, constrainOnly bool
	wmFile, wmPosition              string
	wmOpacity, wmWidth, wmHeight    int
}

func (f *transformFlags) register(cmd *cobra.Command) {
	d := cache.DefaultTransform()
	fs := cmd.Flags()
	fs.IntVar(&f.width, "width", 0, "target width (0 = unset)")
	fs.IntVar(&f.height, "height", 0, "target height (0 = unset)")
	fs.IntVar(&f.quality, "quality", d.Quality, "output quality 0-100")
	fs.IntVar(&f.angle, "angle", 0, "rotation angle")
	fs.StringVar(&f.background, "background", d.Background.String(), "background colour (hex or r,g,b)")
	fs.BoolVar(&f.keepAspectRatio, "keep-aspect-ratio", d.KeepAspectRatio, "keep aspect ratio")
	fs.BoolVar(&f.keepFrame, "keep-frame", d.KeepFrame, "keep frame")
	fs.BoolVar(&f.keepTransparency, "keep-transparency", d.KeepTransparency, "keep transparency")
	fs.BoolVar(&f.constrainOnly, "constrain-only", d.ConstrainOnly, "only shrink, never enlarge")
	fs.StringVar(&f.wmFile, "watermark", "", "watermark file")
	fs.IntVar(&f.wmOpacity, "watermark-opacity", 0, "watermark opacity 0-100")
	fs.StringVar(&f.wmPosition, "watermark-position", "", "watermark position")
	fs.IntVar(&f.wmWidth, "watermark-width", 0, "watermark width")
	fs.IntVar(&f.wmHeight, "watermark-height", 0, "watermark height")
}

// apply overrides base with the flags set on cmd.
func (f *transformFlags) apply(cmd *cobra.Command, base cache.TransformSpec) (cache.TransformSpec, error) {
	changed := cmd.Flags().Changed
	spec := base

	setInt := func(name string, dst *int, v int) {
		if changed(name) {
			*dst = v
		}
	}
	setBool := func(name string, dst *bool, v bool) {
		if changed(name) {
			*dst = v
		}
	}

	setInt("width", &spec.Width, f.width)
	setInt("height", &spec.Height, f.height)
	setInt("quality", &spec.Quality, f.quality)
	setInt("angle", &spec.Angle, f.angle)
	setBool("keep-aspect-ratio", &spec.KeepAspectRatio, f.keepAspectRatio)
	setBool("keep-frame", &spec.KeepFrame, f.keepFrame)
	setBool("keep-transparency", &spec.KeepTransparency, f.keepTransparency)
	setBool("constrain-only", &spec.ConstrainOnly, f.constrainOnly)

	if changed("background") {
		c, err := cache.ParseRGB(f.background)
		if err != nil {
			return cache.TransformSpec{}, err
		}
		spec.Background = c
	}

	if f.wmFile != "" {
		spec.Watermark = &cache.WatermarkSpec{
			File:     f.wmFile,
			Opacity:  f.wmOpacity,
			Position: f.wmPosition,
			Width:    f.wmWidth,
			Height:   f.wmHeight,
		}
	} else if changed("watermark-opacity") || changed("watermark-position") {
		return cache.TransformSpec{}, fmt.Errorf("%w: watermark options need --watermark", cache.ErrInvalidTransform)
	}

	if err := spec.Validate(); err != nil {
		return cache.TransformSpec{}, err
	}
	return spec, nil
}
