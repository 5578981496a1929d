package termgfx

import (
	"fmt"
	"image"
	"io"
	"strconv"

	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/mattn/go-sixel"
	"github.com/soniakeys/quant/median"
)

// SixelMode selects how the Sixel backend encodes pixels.
type SixelMode int

const (
	// SixelBands emits one colour register and one sixel per column of every
	// 6-row band, sampling the band's top row. Fast, no quantisation.
	SixelBands SixelMode = iota
	// SixelPalette quantises to an optimised palette with dithering and
	// encodes through go-sixel.
	SixelPalette
)

func (m SixelMode) String() string {
	if m == SixelPalette {
		return "palette"
	}
	return "bands"
}

const (
	sixelRegisters      = 256
	DefaultSixelColors  = 256
	minSixelColors      = 2
	sixelBandHeight     = 6
	sixelCharBase       = 0x3f
	sixelPercentDivisor = 255
)

// renderSixel positions the cursor and writes a Sixel DCS. Only the DCS is
// tmux-wrapped, the cursor move goes to tmux itself.
func (r *ImageRenderer) renderSixel(w io.Writer, rgb []byte, width, height int, p Placement) error {
	var body []byte
	switch r.sixelMode {
	case SixelPalette:
		if err := r.encodeSixelPalette(rgb, width, height); err != nil {
			return err
		}
		body = r.sixel.Bytes()
	default:
		r.body = appendSixelBands(r.body[:0], rgb, width, height)
		body = r.body
	}

	out := appendCursorPosition(r.esc[:0], p.Row, p.Col)
	if r.inTmux {
		out = AppendTmuxPassthrough(out, body)
	} else {
		out = append(out, body...)
	}
	r.esc = out

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write sixel image: %w", err)
	}
	return nil
}

// appendSixelBands encodes rgb as a plain Sixel image without compression.
func appendSixelBands(dst, rgb []byte, width, height int) []byte {
	dst = append(dst, "\x1bPq"...)
	for y := 0; y < height; y += sixelBandHeight {
		rows := min(sixelBandHeight, height-y)
		// bit n set = pixel row y+n painted
		sixelChar := byte(sixelCharBase + (1<<rows - 1))
		for x := range width {
			i := (y*width + x) * 3
			reg := x % sixelRegisters
			dst = append(dst, '#')
			dst = strconv.AppendInt(dst, int64(reg), 10)
			dst = append(dst, ";2;"...)
			dst = strconv.AppendInt(dst, int64(rgb[i])*100/sixelPercentDivisor, 10)
			dst = append(dst, ';')
			dst = strconv.AppendInt(dst, int64(rgb[i+1])*100/sixelPercentDivisor, 10)
			dst = append(dst, ';')
			dst = strconv.AppendInt(dst, int64(rgb[i+2])*100/sixelPercentDivisor, 10)
			dst = append(dst, '#')
			dst = strconv.AppendInt(dst, int64(reg), 10)
			dst = append(dst, sixelChar)
		}
		dst = append(dst, "$-"...)
	}
	return append(dst, "\x1b\\"...)
}

// encodeSixelPalette median-cut quantises the image, dithers it with
// Floyd-Steinberg and encodes the result into r.sixel.
func (r *ImageRenderer) encodeSixelPalette(rgb []byte, width, height int) error {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for s, d := 0, 0; s+2 < len(rgb); s, d = s+3, d+4 {
		img.Pix[d] = rgb[s]
		img.Pix[d+1] = rgb[s+1]
		img.Pix[d+2] = rgb[s+2]
		img.Pix[d+3] = 0xff
	}

	colors := clampSixelColors(r.sixelColors)
	palette := median.Quantizer(colors).Palette(img).ColorPalette()

	ditherer := dither.NewDitherer(palette)
	ditherer.Matrix = dither.FloydSteinberg
	var dithered image.Image = img
	if d := ditherer.Dither(img); d != nil {
		dithered = d
	}

	r.sixel.Reset()
	enc := sixel.NewEncoder(&r.sixel)
	enc.Colors = colors
	enc.Dither = false
	if err := enc.Encode(dithered); err != nil {
		return fmt.Errorf("failed to encode sixel: %w", err)
	}
	if r.sixel.Len() == 0 {
		return fmt.Errorf("sixel encoding produced empty output")
	}
	return nil
}

func clampSixelColors(n int) int {
	switch {
	case n <= 0:
		return DefaultSixelColors
	case n < minSixelColors:
		return minSixelColors
	case n > sixelRegisters:
		return sixelRegisters
	default:
		return n
	}
}

