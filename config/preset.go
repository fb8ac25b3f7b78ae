package config

import (
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"

	"github.com/jonwraymond/imagecache/cache"
)

// PresetSettings is the transform configured for a destination. Unset
// booleans keep the defaults of cache.DefaultTransform.
type PresetSettings struct {
	Width            int                `mapstructure:"width" yaml:"width,omitempty"`
	Height           int                `mapstructure:"height" yaml:"height,omitempty"`
	Quality          int                `mapstructure:"quality" yaml:"quality,omitempty"`
	Angle            int                `mapstructure:"angle" yaml:"angle,omitempty"`
	Background       *cache.RGB         `mapstructure:"background" yaml:"background,omitempty"`
	KeepAspectRatio  *bool              `mapstructure:"keep_aspect_ratio" yaml:"keep_aspect_ratio,omitempty"`
	KeepFrame        *bool              `mapstructure:"keep_frame" yaml:"keep_frame,omitempty"`
	KeepTransparency *bool              `mapstructure:"keep_transparency" yaml:"keep_transparency,omitempty"`
	ConstrainOnly    *bool              `mapstructure:"constrain_only" yaml:"constrain_only,omitempty"`
	Watermark        *WatermarkSettings `mapstructure:"watermark" yaml:"watermark,omitempty"`
}

// WatermarkSettings configures a destination watermark.
type WatermarkSettings struct {
	File     string `mapstructure:"file" yaml:"file"`
	Opacity  int    `mapstructure:"opacity" yaml:"opacity"`
	Position string `mapstructure:"position" yaml:"position"`
	Width    int    `mapstructure:"width" yaml:"width,omitempty"`
	Height   int    `mapstructure:"height" yaml:"height,omitempty"`
}

// Transform returns the transform for destination: cache.DefaultTransform
// with the destination preset applied.
func (s *Settings) Transform(destination string) cache.TransformSpec {
	spec := cache.DefaultTransform()

	p, ok := s.Presets[destination]
	if !ok {
		return spec
	}

	spec.Width = p.Width
	spec.Height = p.Height
	spec.Angle = p.Angle
	if p.Quality > 0 {
		spec.Quality = p.Quality
	}
	if p.Background != nil {
		spec.Background = *p.Background
	}
	setBool(&spec.KeepAspectRatio, p.KeepAspectRatio)
	setBool(&spec.KeepFrame, p.KeepFrame)
	setBool(&spec.KeepTransparency, p.KeepTransparency)
	setBool(&spec.ConstrainOnly, p.ConstrainOnly)

	if w := p.Watermark; w != nil && w.File != "" {
		spec.Watermark = &cache.WatermarkSpec{
			File:     w.File,
			Opacity:  w.Opacity,
			Position: w.Position,
			Width:    w.Width,
			Height:   w.Height,
		}
	}
	return spec
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// decodeHooks returns the decode hooks applied when unmarshalling settings.
func decodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(rgbDecodeHook())
}

// rgbDecodeHook converts colour strings such as "#ffffff" or "255,255,255"
// to cache.RGB.
func rgbDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(cache.RGB{}) {
			return data, nil
		}

		s, ok := data.(string)
		if !ok {
			return data, nil
		}

		c, err := cache.ParseRGB(s)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		return c, nil
	}
}
