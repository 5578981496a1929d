package termgfx

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/charmbracelet/x/mosaic"
)

// BlockMode selects how the Blocks backend draws cells.
type BlockMode int

const (
	// BlocksDensity maps luminance to shade glyphs without colour.
	BlocksDensity BlockMode = iota
	// BlocksHalf draws coloured upper/lower half blocks with mosaic.
	BlocksHalf
)

func (m BlockMode) String() string {
	if m == BlocksHalf {
		return "halfblocks"
	}
	return "density"
}

// Blocks backend cell size estimate, in pixels.
const (
	blockCellWidth  = 8
	blockCellHeight = 16
)

// densityGlyphs is indexed by luminance/32.
var densityGlyphs = [8]rune{' ', '░', '░', '▒', '▒', '▓', '▓', '█'}

func densityGlyph(r, g, b byte) rune {
	lum := (int(r) + int(g) + int(b)) / 3
	return densityGlyphs[min(lum/32, len(densityGlyphs)-1)]
}

func (r *ImageRenderer) renderBlocks(w io.Writer, rgb []byte, width, height int, p Placement) error {
	cols, rows := p.cells(width, height, blockCellWidth, blockCellHeight)
	if r.blockMode == BlocksHalf {
		return r.renderHalfBlocks(w, rgb, width, height, p, cols, rows)
	}

	ppx := width / cols
	ppy := height / rows
	for cy := range rows {
		r.line.Reset()
		for cx := range cols {
			px, py := cx*ppx, cy*ppy
			if px >= width || py >= height {
				r.line.WriteByte(' ')
				continue
			}
			i := (py*width + px) * 3
			r.line.WriteRune(densityGlyph(rgb[i], rgb[i+1], rgb[i+2]))
		}
		if err := r.writeLine(w, p.Row+cy, p.Col); err != nil {
			return err
		}
	}
	return nil
}

// renderHalfBlocks renders through mosaic and positions every output line
// explicitly, mosaic itself only separates lines with newlines.
func (r *ImageRenderer) renderHalfBlocks(w io.Writer, rgb []byte, width, height int, p Placement, cols, rows int) error {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for s, d := 0, 0; s+2 < len(rgb); s, d = s+3, d+4 {
		img.Pix[d] = rgb[s]
		img.Pix[d+1] = rgb[s+1]
		img.Pix[d+2] = rgb[s+2]
		img.Pix[d+3] = 0xff
	}

	// mosaic sizes in pixels and packs a 2x2 block into each cell
	m := mosaic.New().Width(cols * 2).Height(rows * 2)
	out := m.Render(img)
	for i, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		r.line.Reset()
		r.line.WriteString(line)
		if err := r.writeLine(w, p.Row+i, p.Col); err != nil {
			return err
		}
	}
	return nil
}

// writeLine emits the line buffer at row, col as one write.
func (r *ImageRenderer) writeLine(w io.Writer, row, col int) error {
	out := appendCursorPosition(r.esc[:0], row, col)
	out = append(out, r.line.Bytes()...)
	r.esc = out
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write block line: %w", err)
	}
	return nil
}
