package estimate

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF header decoding
	_ "image/jpeg" // register JPEG header decoding
	_ "image/png"  // register PNG header decoding

	_ "golang.org/x/image/bmp"  // register BMP header decoding
	_ "golang.org/x/image/tiff" // register TIFF header decoding
	_ "golang.org/x/image/webp" // register WebP header decoding

	"github.com/jonwraymond/imagecache/storage"
)

// Header is the metadata read from an image header.
// Zero BitsPerChannel or Channels means the format did not report it.
type Header struct {
	Width          int
	Height         int
	BitsPerChannel int
	Channels       int
	Format         string
}

// HeaderReader reads image header metadata without decoding pixels.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Must not read beyond what the format needs to report its dimensions.
type HeaderReader interface {
	ReadHeader(path string) (Header, error)
}

// ImageHeaderReader reads headers with image.DecodeConfig.
// JPEG, PNG, GIF, BMP, TIFF and WebP are supported.
type ImageHeaderReader struct {
	FS storage.FileSystem
}

// NewImageHeaderReader creates a header reader over fsys.
func NewImageHeaderReader(fsys storage.FileSystem) *ImageHeaderReader {
	return &ImageHeaderReader{FS: fsys}
}

// ReadHeader opens path and decodes its configuration.
func (r *ImageHeaderReader) ReadHeader(path string) (Header, error) {
	f, err := r.FS.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("estimate: open %s: %w", path, err)
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Header{}, fmt.Errorf("estimate: read header %s: %w", path, err)
	}

	h := Header{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
	}
	h.BitsPerChannel, h.Channels = depth(format, cfg.ColorModel)
	return h, nil
}

// depth reports what each format's header says about bit depth and channel
// count. JPEG carries both; PNG only its bit depth; GIF is always 8-bit RGB.
func depth(format string, model color.Model) (bits, channels int) {
	switch format {
	case "jpeg":
		switch model {
		case color.GrayModel:
			return 8, 1
		case color.CMYKModel:
			return 8, 4
		default:
			return 8, 3
		}
	case "png":
		if _, ok := model.(color.Palette); ok {
			return 8, 0
		}
		switch model {
		case color.Gray16Model, color.RGBA64Model, color.NRGBA64Model:
			return 16, 0
		default:
			return 8, 0
		}
	case "gif":
		return 8, 3
	default:
		return 0, 0
	}
}

var _ HeaderReader = (*ImageHeaderReader)(nil)
