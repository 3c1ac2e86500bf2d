// Package render draws og:image cards without a browser.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/3-lines-studio/ogimage/internal/core"
)

const (
	// pixelScale is how much the 7x13 bitmap font gets enlarged.
	pixelScale = 4
	margin     = 12
	lineHeight = 15

	defaultBackground = "#0f172a"
	defaultColor      = "#f8fafc"
)

// VectorRenderer draws a title card: background, title, description.
// Options read: title, description, background, color.
type VectorRenderer struct{}

func NewVectorRenderer() *VectorRenderer {
	return &VectorRenderer{}
}

func (r *VectorRenderer) Render(spec core.ImageSpec) ([]byte, error) {
	width, height := spec.Width, spec.Height
	if width <= 0 {
		width = core.DefaultWidth
	}
	if height <= 0 {
		height = core.DefaultHeight
	}

	bg, err := parseHexColor(spec.Options.String("background"), defaultBackground)
	if err != nil {
		return nil, fmt.Errorf("background: %w", err)
	}
	fg, err := parseHexColor(spec.Options.String("color"), defaultColor)
	if err != nil {
		return nil, fmt.Errorf("color: %w", err)
	}

	small := image.NewRGBA(image.Rect(0, 0, max(1, width/pixelScale), max(1, height/pixelScale)))
	draw.Draw(small, small.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	title := spec.Options.String("title")
	if title == "" {
		title = spec.Path
	}
	maxChars := max(1, (small.Bounds().Dx()-2*margin)/basicfont.Face7x13.Advance)

	y := margin + basicfont.Face7x13.Ascent
	y = drawLines(small, fg, wrapText(title, maxChars), y)

	if desc := spec.Options.String("description"); desc != "" {
		muted := color.RGBA{R: mix(fg.R, bg.R), G: mix(fg.G, bg.G), B: mix(fg.B, bg.B), A: 0xff}
		drawLines(small, muted, wrapText(desc, maxChars), y+lineHeight/2)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), small, small.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawLines(dst draw.Image, c color.Color, lines []string, y int) int {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
	}
	for _, line := range lines {
		if y > dst.Bounds().Dy() {
			break
		}
		d.Dot = fixed.P(margin, y)
		d.DrawString(line)
		y += lineHeight
	}
	return y
}

// wrapText breaks text on spaces so no line exceeds width runes. Words
// longer than width are split.
func wrapText(text string, width int) []string {
	var lines []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			lines = append(lines, string(current))
			current = current[:0]
		}
	}

	for _, word := range strings.Fields(text) {
		w := []rune(word)
		for len(w) > width {
			flush()
			lines = append(lines, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(current) == 0:
			current = append(current, w...)
		case len(current)+1+len(w) <= width:
			current = append(current, ' ')
			current = append(current, w...)
		default:
			flush()
			current = append(current, w...)
		}
	}
	flush()
	return lines
}

func parseHexColor(s, fallback string) (color.RGBA, error) {
	if s == "" {
		s = fallback
	}
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

func mix(a, b uint8) uint8 {
	return uint8((int(a)*2 + int(b)) / 3)
}
