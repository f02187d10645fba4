package content

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/url"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

var ErrUnsupportedDataURL = errors.New("content: unsupported data URL")

// DecodeDataURL decodes an image carried in a data URL. The format is
// sniffed from the payload, the declared media type is only checked to be an
// image type. PNG, JPEG, GIF, BMP, WebP and TGA are supported.
func DecodeDataURL(ctx context.Context, dataURL string) (*Image, error) {
	raw, err := parseDataURL(dataURL)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := decodeImage(raw)
	if err != nil {
		return nil, fmt.Errorf("content: decode image: %w", err)
	}
	px := toNRGBA(img)
	b := px.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("content: decode image: empty %s", format)
	}
	return &Image{Source: dataURL, Width: b.Dx(), Height: b.Dy(), Pixels: px}, nil
}

// TGA carries no magic so it is the fallback.
var decoders = []struct {
	format string
	magic  string
	decode func(io.Reader) (image.Image, error)
}{
	{"png", "\x89PNG\r\n\x1a\n", png.Decode},
	{"jpeg", "\xff\xd8", jpeg.Decode},
	{"gif", "GIF8", gif.Decode},
	{"bmp", "BM", bmp.Decode},
	{"webp", "RIFF", webp.Decode},
}

func decodeImage(raw []byte) (image.Image, string, error) {
	for _, d := range decoders {
		if bytes.HasPrefix(raw, []byte(d.magic)) {
			img, err := d.decode(bytes.NewReader(raw))
			return img, d.format, err
		}
	}
	img, err := tga.Decode(bytes.NewReader(raw))
	return img, "tga", err
}

func parseDataURL(s string) ([]byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: missing data: scheme", ErrUnsupportedDataURL)
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrUnsupportedDataURL)
	}
	mediaType, _, _ := strings.Cut(meta, ";")
	if mediaType != "" && !strings.HasPrefix(mediaType, "image/") {
		return nil, fmt.Errorf("%w: media type %q", ErrUnsupportedDataURL, mediaType)
	}

	if strings.HasSuffix(meta, ";base64") {
		raw, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			// Some producers drop the padding
			raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(data, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedDataURL, err)
		}
		return raw, nil
	}
	raw, err := url.PathUnescape(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedDataURL, err)
	}
	return []byte(raw), nil
}

// EncodeDataURL encodes img as a base64 PNG data URL.
func EncodeDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("content: encode png: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DataURLFromBytes wraps an already encoded file in a data URL.
func DataURLFromBytes(mediaType string, raw []byte) string {
	if mediaType == "" {
		mediaType = "image/png"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(raw)
}

func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	switch src.(type) {
	case *image.YCbCr, *image.Gray, *image.RGBA:
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	default:
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.NRGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				dst.SetNRGBA(x, y, c)
			}
		}
	}
	return dst
}
