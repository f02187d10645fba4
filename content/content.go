// Package content holds the user supplied material decals are made of:
// uploaded images and typed text, plus the registry linking each piece of
// content to the decal instance that shows it.
package content

import (
	"fmt"
	"image"

	"github.com/google/uuid"
)

// ID identifies a piece of content. It is opaque outside this package.
type ID string

func NewID() ID {
	return ID(uuid.NewString())
}

type Kind uint8

const (
	KindImage Kind = iota + 1
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "image":
		*k = KindImage
	case "text":
		*k = KindText
	default:
		return fmt.Errorf("content: unknown kind %q", b)
	}
	return nil
}

// Payload is either *Image or *Text.
type Payload interface {
	Kind() Kind
	// Bitmap is the texture the decal samples.
	Bitmap() *image.NRGBA
	isPayload()
}

type Image struct {
	Source string // data URL
	Width  int
	Height int
	Pixels *image.NRGBA
}

func (*Image) Kind() Kind             { return KindImage }
func (i *Image) Bitmap() *image.NRGBA { return i.Pixels }
func (*Image) isPayload()             {}

// Aspect is height over width, 1 for an empty image.
func (i *Image) Aspect() float32 {
	if i.Width <= 0 || i.Height <= 0 {
		return 1
	}
	return float32(i.Height) / float32(i.Width)
}

type Text struct {
	Text       string
	FontFamily string
	FontSizePt float64
	ColorHex   string
	Raster     *image.NRGBA
}

func (*Text) Kind() Kind             { return KindText }
func (t *Text) Bitmap() *image.NRGBA { return t.Raster }
func (*Text) isPayload()             {}

// Content is a registered payload.
type Content struct {
	ID      ID
	Payload Payload
}

func (c *Content) Kind() Kind {
	if c == nil || c.Payload == nil {
		return 0
	}
	return c.Payload.Kind()
}

// Size is the pixel size of the content's bitmap.
func (c *Content) Size() (w, h int) {
	if c == nil || c.Payload == nil || c.Payload.Bitmap() == nil {
		return 0, 0
	}
	b := c.Payload.Bitmap().Bounds()
	return b.Dx(), b.Dy()
}
