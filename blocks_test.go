package termgfx

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocksRedSquare(t *testing.T) {
	r := NewImageRenderer(Blocks, false)
	var buf bytes.Buffer

	err := r.RenderImage(&buf, solidRGB(4, 4, 255, 0, 0), 4, 4, Placement{WidthCells: 2, HeightCells: 1})
	require.NoError(t, err)
	assert.Equal(t, "\x1b[1;1H░░", buf.String())
}

func TestDensityGlyph(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b byte
		want    rune
	}{
		{"black", 0, 0, 0, ' '},
		{"pure red", 255, 0, 0, '░'},
		{"mid grey", 100, 100, 100, '▒'},
		{"light grey", 200, 200, 200, '▓'},
		{"white", 255, 255, 255, '█'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, densityGlyph(tt.r, tt.g, tt.b))
		})
	}
}

func TestBlocksEstimatedCells(t *testing.T) {
	r := NewImageRenderer(Blocks, false)
	var buf bytes.Buffer

	// 16x32 pixels at 8x16 per cell -> 2x2 cells
	require.NoError(t, r.RenderImage(&buf, solidRGB(16, 32, 255, 255, 255), 16, 32, At(4, 3)))
	assert.Equal(t, "\x1b[4;5H██\x1b[5;5H██", buf.String())
}

func TestBlocksMoreCellsThanPixels(t *testing.T) {
	r := NewImageRenderer(Blocks, false)
	var buf bytes.Buffer

	require.NoError(t, r.RenderImage(&buf, solidRGB(2, 1, 255, 255, 255), 2, 1, Placement{WidthCells: 4, HeightCells: 2}))
	lines := strings.Split(buf.String(), "\x1b[")
	assert.Len(t, lines, 3)
	assert.Equal(t, "1;1H████", lines[1])
}

func TestBlocksFromRGBA(t *testing.T) {
	r := NewImageRenderer(Blocks, false)
	var buf bytes.Buffer

	// alpha is dropped, fully transparent red still reads as red
	require.NoError(t, r.RenderImageRGBA(&buf, solidRGBA(4, 4, 255, 0, 0, 0), 4, 4, Placement{WidthCells: 2, HeightCells: 1}))
	assert.Equal(t, "\x1b[1;1H░░", buf.String())
}

func TestBlocksHalfMode(t *testing.T) {
	r := NewImageRenderer(Blocks, false)
	r.SetBlockMode(BlocksHalf)
	var buf bytes.Buffer

	require.NoError(t, r.RenderImage(&buf, solidRGB(8, 8, 0, 200, 0), 8, 8, Placement{Col: 2, Row: 1, WidthCells: 4, HeightCells: 2}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b[2;3H"))
	assert.NotContains(t, out, "\n")
}

func TestBlocksHalfModeCellSpan(t *testing.T) {
	tests := []struct {
		name       string
		cols, rows int
	}{
		{"two by one", 2, 1},
		{"four by three", 4, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewImageRenderer(Blocks, false)
			r.SetBlockMode(BlocksHalf)
			var w lineRecorder

			err := r.RenderImage(&w, solidRGB(4, 4, 255, 0, 0), 4, 4, Placement{Col: 1, Row: 2, WidthCells: tt.cols, HeightCells: tt.rows})
			require.NoError(t, err)

			require.Len(t, w.writes, tt.rows)
			for y, line := range w.writes {
				assert.True(t, strings.HasPrefix(line, fmt.Sprintf("\x1b[%d;2H", 3+y)), "row %d: %q", y, line)
				assert.Equal(t, tt.cols, ansi.StringWidth(line), "row %d: %q", y, line)
				assert.Contains(t, line, "2;255;0;0", "row %d keeps the source colour", y)
				assert.NotContains(t, line, "2;127;0;0", "row %d mixes in black", y)
			}
		})
	}
}

// lineRecorder keeps every Write as a separate string.
type lineRecorder struct {
	writes []string
}

func (l *lineRecorder) Write(p []byte) (int, error) {
	l.writes = append(l.writes, string(p))
	return len(p), nil
}
