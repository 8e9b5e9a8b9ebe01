package crop

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	// decoders for the allowed upload formats
	_ "image/gif"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

const (
	DefaultQuality = 90
	OutputMimeType = "image/jpeg"

	// upper bound on output pixels, well above a 1080x1920 story frame
	maxOutputPixels = 64 << 20
)

var (
	ErrRenderContextUnavailable = errors.New("crop: render context unavailable")
	ErrEncodingFailed           = errors.New("crop: encoding failed")
	ErrUnsupportedFormat        = errors.New("crop: unsupported image format")
)

// AllowedMimeTypes is the upload allow-list for slide backgrounds.
var AllowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Raster is an encoded crop ready for upload.
type Raster struct {
	Data     []byte
	Width    int
	Height   int
	MimeType string
}

// DetectMime sniffs the content, ignoring whatever the file name or client
// claims, and reports whether it is on the allow-list.
func DetectMime(data []byte) (string, bool) {
	mt := mimetype.Detect(data)
	for m := mt; m != nil; m = m.Parent() {
		if AllowedMimeTypes[m.String()] {
			return m.String(), true
		}
	}
	return mt.String(), false
}

// Decode checks the format against the allow-list and decodes the source image.
func Decode(data []byte) (image.Image, string, error) {
	mime, ok := DetectMime(data)
	if !ok {
		return nil, mime, fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, mime, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return img, mime, nil
}

type Engine struct {
	quality int
}

func NewEngine(quality int) *Engine {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Engine{quality: quality}
}

// Produce copies exactly the source pixels under region into a buffer of the
// region's size and encodes it as JPEG. Parts of the region outside the source
// stay black. The source is only read.
func (e *Engine) Produce(src image.Image, region Region) (*Raster, error) {
	if src == nil || region.Empty() {
		return nil, ErrRenderContextUnavailable
	}
	if int64(region.Width)*int64(region.Height) > maxOutputPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds output limit", ErrRenderContextUnavailable, region.Width, region.Height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, region.Width, region.Height))
	srcRect := region.Rect().Add(src.Bounds().Min)
	draw.Copy(dst, image.Point{}, src, srcRect, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}

	return &Raster{
		Data:     buf.Bytes(),
		Width:    region.Width,
		Height:   region.Height,
		MimeType: OutputMimeType,
	}, nil
}
