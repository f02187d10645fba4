package content

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	ErrEmptyText   = errors.New("content: empty text")
	ErrUnknownFont = errors.New("content: unknown font family")
)

const (
	DefaultFontFamily = "Go"
	DefaultFontSizePt = 32
	DefaultColorHex   = "#000000"

	// Text typed into a single line input uses a literal backslash n to
	// break lines.
	lineBreakEscape = `\n`
)

// Fonts maps font family names to parsed fonts. It is safe for concurrent
// use; every rasterization builds its own face.
type Fonts struct {
	mu       sync.RWMutex
	families map[string]*opentype.Font
}

// NewFonts returns a set preloaded with the Go fonts.
func NewFonts() *Fonts {
	f := &Fonts{families: make(map[string]*opentype.Font)}
	for family, ttf := range map[string][]byte{
		DefaultFontFamily: goregular.TTF,
		"Go Bold":         gobold.TTF,
		"Go Mono":         gomono.TTF,
	} {
		if err := f.Register(family, ttf); err != nil {
			panic(fmt.Sprintf("content: builtin font %s: %v", family, err))
		}
	}
	return f
}

func (f *Fonts) Register(family string, ttf []byte) error {
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return fmt.Errorf("content: parse font %s: %w", family, err)
	}
	f.mu.Lock()
	f.families[family] = parsed
	f.mu.Unlock()
	return nil
}

// LoadFile registers the font file at path under family.
func (f *Fonts) LoadFile(family, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("content: read font file: %w", err)
	}
	return f.Register(family, raw)
}

func (f *Fonts) Has(family string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.families[family]
	return ok
}

func (f *Fonts) lookup(family string) (*opentype.Font, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	parsed, ok := f.families[family]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFont, family)
	}
	return parsed, nil
}

// TextStyle describes how text content is rendered. Zero fields take the
// package defaults.
type TextStyle struct {
	FontFamily string
	FontSizePt float64
	ColorHex   string
}

func (s TextStyle) resolve() TextStyle {
	if s.FontFamily == "" {
		s.FontFamily = DefaultFontFamily
	}
	if s.FontSizePt <= 0 {
		s.FontSizePt = DefaultFontSizePt
	}
	if s.ColorHex == "" {
		s.ColorHex = DefaultColorHex
	}
	return s
}

// Rasterize renders text center aligned without padding. The raster is
// exactly as wide as the longest line and as tall as the line stack.
func (f *Fonts) Rasterize(text string, style TextStyle) (*Text, error) {
	style = style.resolve()
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyText
	}
	col, err := ParseHexColor(style.ColorHex)
	if err != nil {
		return nil, err
	}
	parsed, err := f.lookup(style.FontFamily)
	if err != nil {
		return nil, err
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    style.FontSizePt,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("content: create face: %w", err)
	}
	defer face.Close()

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	if lineHeight <= 0 {
		lineHeight = (metrics.Ascent + metrics.Descent).Ceil()
	}

	widths := make([]fixed.Int26_6, len(lines))
	var maxWidth fixed.Int26_6
	for i, line := range lines {
		widths[i] = font.MeasureString(face, line)
		maxWidth = max(maxWidth, widths[i])
	}
	w := max(maxWidth.Ceil(), 1)
	h := lineHeight * len(lines)

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	for i, line := range lines {
		d.Dot = fixed.Point26_6{
			X: (fixed.I(w) - widths[i]) / 2,
			Y: fixed.I(i*lineHeight) + metrics.Ascent,
		}
		d.DrawString(line)
	}

	return &Text{
		Text:       text,
		FontFamily: style.FontFamily,
		FontSizePt: style.FontSizePt,
		ColorHex:   style.ColorHex,
		Raster:     dst,
	}, nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, lineBreakEscape, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// ParseHexColor accepts #rgb, #rrggbb and #rrggbbaa, with or without the
// leading hash.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("content: invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("content: invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
