package decalkit

import (
	"bytes"
	"fmt"
	"image"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"

	"github.com/gekko3d/decalkit/content"
)

// Thumbnail renders content cid as a square lossless WebP of the given size,
// letterboxed on a transparent background. size <= 0 uses the configured
// thumbnail size.
func (s *Session) Thumbnail(cid content.ID, size int) ([]byte, error) {
	c, ok := s.registry.Get(cid)
	if !ok {
		return nil, fmt.Errorf("decalkit: thumbnail: unknown content %s", cid)
	}
	if size <= 0 {
		size = s.cfg.ThumbnailSize
	}
	return EncodeThumbnail(c.Payload.Bitmap(), size)
}

func EncodeThumbnail(src image.Image, size int) ([]byte, error) {
	if src == nil || src.Bounds().Empty() {
		return nil, fmt.Errorf("decalkit: thumbnail: empty bitmap")
	}
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, fitRect(src.Bounds(), size), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, dst, nil); err != nil {
		return nil, fmt.Errorf("decalkit: thumbnail: encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// fitRect centers b scaled to fit a size x size square.
func fitRect(b image.Rectangle, size int) image.Rectangle {
	w, h := b.Dx(), b.Dy()
	tw, th := size, size
	if w >= h {
		th = max(1, h*size/w)
	} else {
		tw = max(1, w*size/h)
	}
	x0, y0 := (size-tw)/2, (size-th)/2
	return image.Rect(x0, y0, x0+tw, y0+th)
}
