package content

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/HugoSmits86/nativewebp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	return img
}

// writeTGA writes an uncompressed 24-bit top-left TGA.
func writeTGA(b *bytes.Buffer, img *image.NRGBA) error {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	b.Write([]byte{0, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, byte(w), byte(w >> 8), byte(h), byte(h >> 8), 24, 0x20})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.NRGBAAt(x, y)
			b.Write([]byte{c.B, c.G, c.R})
		}
	}
	return nil
}

func TestDecodeDataURLFormats(t *testing.T) {
	src := testImage(8, 4)
	encoders := map[string]func(*bytes.Buffer) error{
		"image/png":   func(b *bytes.Buffer) error { return png.Encode(b, src) },
		"image/jpeg":  func(b *bytes.Buffer) error { return jpeg.Encode(b, src, nil) },
		"image/gif":   func(b *bytes.Buffer) error { return gif.Encode(b, src, nil) },
		"image/bmp":   func(b *bytes.Buffer) error { return bmp.Encode(b, src) },
		"image/webp":  func(b *bytes.Buffer) error { return nativewebp.Encode(b, src, nil) },
		"image/x-tga": func(b *bytes.Buffer) error { return writeTGA(b, src) },
	}
	for mediaType, enc := range encoders {
		t.Run(mediaType, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, enc(&buf))

			img, err := DecodeDataURL(context.Background(), DataURLFromBytes(mediaType, buf.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, 8, img.Width)
			assert.Equal(t, 4, img.Height)
			assert.InDelta(t, 0.5, img.Aspect(), 1e-6)
			assert.Equal(t, KindImage, img.Kind())
		})
	}
}

func TestDecodeDataURLRoundTrip(t *testing.T) {
	url, err := EncodeDataURL(testImage(3, 5))
	require.NoError(t, err)

	img, err := DecodeDataURL(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, url, img.Source)
	assert.Equal(t, color.NRGBA{R: 20, G: 40, B: 200, A: 255}, img.Pixels.NRGBAAt(2, 4))
}

func TestDecodeDataURLRejects(t *testing.T) {
	ctx := context.Background()
	for _, bad := range []string{
		"https://example.com/a.png",
		"data:image/png;base64",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,!!!",
	} {
		_, err := DecodeDataURL(ctx, bad)
		assert.ErrorIs(t, err, ErrUnsupportedDataURL, bad)
	}

	_, err := DecodeDataURL(ctx, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("not a png")))
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	url, _ := EncodeDataURL(testImage(1, 1))
	_, err = DecodeDataURL(cancelled, url)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRasterizeText(t *testing.T) {
	fonts := NewFonts()

	small, err := fonts.Rasterize("Hello", TextStyle{FontSizePt: 16})
	require.NoError(t, err)
	big, err := fonts.Rasterize("Hello", TextStyle{FontSizePt: 48})
	require.NoError(t, err)

	sb, bb := small.Raster.Bounds(), big.Raster.Bounds()
	assert.Greater(t, bb.Dx(), sb.Dx())
	assert.Greater(t, bb.Dy(), sb.Dy())
	assert.Equal(t, DefaultFontFamily, small.FontFamily)
	assert.Equal(t, DefaultColorHex, small.ColorHex)

	// Some pixel got ink
	inked := false
	for i := 3; i < len(big.Raster.Pix); i += 4 {
		if big.Raster.Pix[i] > 0 {
			inked = true
			break
		}
	}
	assert.True(t, inked)
}

func TestRasterizeLineBreaks(t *testing.T) {
	fonts := NewFonts()
	one, err := fonts.Rasterize("ABC", TextStyle{FontSizePt: 20})
	require.NoError(t, err)
	two, err := fonts.Rasterize(`ABC\nABC`, TextStyle{FontSizePt: 20})
	require.NoError(t, err)

	assert.Equal(t, one.Raster.Bounds().Dx(), two.Raster.Bounds().Dx())
	assert.Equal(t, 2*one.Raster.Bounds().Dy(), two.Raster.Bounds().Dy())
}

func TestRasterizeErrors(t *testing.T) {
	fonts := NewFonts()

	_, err := fonts.Rasterize("   ", TextStyle{})
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = fonts.Rasterize("hi", TextStyle{FontFamily: "Comic Sans"})
	assert.ErrorIs(t, err, ErrUnknownFont)

	_, err = fonts.Rasterize("hi", TextStyle{ColorHex: "#12"})
	assert.Error(t, err)

	assert.Error(t, fonts.Register("broken", []byte("nope")))
	assert.False(t, fonts.Has("broken"))
	assert.True(t, fonts.Has("Go Mono"))
}

func TestParseHexColor(t *testing.T) {
	cases := map[string]color.NRGBA{
		"#000000":   {A: 255},
		"ff8000":    {R: 255, G: 128, A: 255},
		"#fff":      {R: 255, G: 255, B: 255, A: 255},
		"#10203040": {R: 0x10, G: 0x20, B: 0x30, A: 0x40},
	}
	for in, want := range cases {
		got, err := ParseHexColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseHexColor("#zzzzzz")
	assert.Error(t, err)
}

func TestRegistryPinningAndSweep(t *testing.T) {
	r := NewRegistry()
	img := r.Register(&Image{Width: 1, Height: 1})
	txt := r.Register(&Text{Text: "x"})
	assert.Equal(t, 2, r.Len())
	assert.NotEqual(t, img.ID, txt.ID)

	// Pinned entries survive
	assert.Equal(t, 0, r.SweepOrphans())

	require.True(t, r.Link(img.ID, "inst-1"))
	r.Release(txt.ID)
	assert.Equal(t, 1, r.SweepOrphans())
	assert.Equal(t, 0, r.SweepOrphans(), "sweeping is idempotent")

	_, ok := r.Get(txt.ID)
	assert.False(t, ok)
	e, ok := r.Lookup(img.ID)
	require.True(t, ok)
	assert.Equal(t, "inst-1", e.Instance)
	assert.False(t, e.Pinned)

	// A stale unlink leaves the entry alone
	assert.False(t, r.Unlink(img.ID, "inst-0"))
	assert.True(t, r.Unlink(img.ID, "inst-1"))
	assert.Equal(t, 1, r.SweepOrphans())
	assert.Equal(t, 0, r.Len())
}

func TestRegistryTablesAndOrder(t *testing.T) {
	r := NewRegistry()
	a := r.Register(&Image{})
	b := r.Register(&Text{})
	c := r.Register(&Image{})

	imgs := r.Images()
	require.Len(t, imgs, 2)
	assert.Equal(t, a.ID, imgs[0].Content.ID)
	assert.Equal(t, c.ID, imgs[1].Content.ID)

	txts := r.Texts()
	require.Len(t, txts, 1)
	assert.Equal(t, b.ID, txts[0].Content.ID)

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.False(t, r.Link(a.ID, "x"))
}

func TestRegistryEditText(t *testing.T) {
	fonts := NewFonts()
	r := NewRegistry()
	first, err := fonts.Rasterize("short", TextStyle{})
	require.NoError(t, err)
	c := r.Register(first)
	r.Link(c.ID, "inst")

	edited, err := r.EditText(c.ID, fonts, "a much longer line", TextStyle{FontSizePt: 40})
	require.NoError(t, err)
	assert.Equal(t, c.ID, edited.ID)

	txt := edited.Payload.(*Text)
	assert.Equal(t, "a much longer line", txt.Text)
	assert.Greater(t, txt.Raster.Bounds().Dx(), first.Raster.Bounds().Dx())

	e, _ := r.Lookup(c.ID)
	assert.True(t, e.Pinned)

	img := r.Register(&Image{})
	_, err = r.EditText(img.ID, fonts, "x", TextStyle{})
	assert.Error(t, err)
}
