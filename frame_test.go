package termgfx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T, backend GraphicsBackend) (*Renderer, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	ctx := TerminalContext{Geometry: GeometryWithCharSize(80, 24, 10, 20)}
	r, err := NewRendererWithContext(&buf, ctx, RendererOptions{Backend: backend})
	require.NoError(t, err)
	return r, &buf
}

func TestRendererFrame(t *testing.T) {
	r, buf := newTestRenderer(t, Kitty)

	require.NoError(t, r.BeginFrame())
	assert.Zero(t, buf.Len(), "output is buffered until the frame ends")

	require.NoError(t, r.RenderImage(solidRGB(4, 4, 255, 0, 0), 4, 4, Placement{Col: 2, Row: 3, WidthCells: 2, HeightCells: 1}))
	assert.Equal(t, DirtyRegion{MinCol: 2, MinRow: 3, MaxCol: 4, MaxRow: 4, Dirty: true}, r.DirtyRegion())

	require.NoError(t, r.EndFrame())
	out := buf.String()
	assert.Regexp(t, `^\x1b\[\?25l\x1b_Ga=d,d=I,i=1,q=2\x1b\\\x1b\[4;3H\x1b_Ga=T,`, out)
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("\x1b[?25h")))
	assert.False(t, r.DirtyRegion().Dirty)
}

func TestRendererFrameKeepsImages(t *testing.T) {
	r, buf := newTestRenderer(t, Kitty)

	require.NoError(t, r.BeginFrameWithOptions(false))
	require.NoError(t, r.EndFrame())
	assert.Equal(t, "\x1b[?25l\x1b[?25h", buf.String())
}

func TestRendererAltScreen(t *testing.T) {
	r, buf := newTestRenderer(t, Blocks)

	require.NoError(t, r.EnterAltScreen())
	assert.Equal(t, "\x1b[?1049h", buf.String(), "alt screen switch is flushed immediately")
	assert.True(t, r.InAltScreen())
	assert.Equal(t, DirtyRegion{MaxCol: 80, MaxRow: 24, Dirty: true}, r.DirtyRegion())

	require.NoError(t, r.EnterAltScreen())
	assert.Equal(t, "\x1b[?1049h", buf.String(), "entering twice is a no-op")

	buf.Reset()
	require.NoError(t, r.Close())
	assert.Equal(t, "\x1b[?1049l\x1b[?25h", buf.String())
	assert.False(t, r.InAltScreen())
}

func TestRendererText(t *testing.T) {
	r, buf := newTestRenderer(t, Blocks)

	require.NoError(t, r.MoveCursor(4, 1))
	require.NoError(t, r.WriteText("hi"))
	require.NoError(t, r.WriteStyled("bold", "\x1b[1m"))
	require.NoError(t, r.WriteRepeated('─', 3))
	require.NoError(t, r.Clear())
	require.NoError(t, r.Flush())

	assert.Equal(t, "\x1b[2;5Hhi\x1b[1mbold\x1b[0m───\x1b[2J", buf.String())
	assert.Equal(t, DirtyRegion{MaxCol: 80, MaxRow: 24, Dirty: true}, r.DirtyRegion())
}

func TestRendererEstimatesDirtyCells(t *testing.T) {
	r, _ := newTestRenderer(t, Blocks)

	require.NoError(t, r.RenderImage(solidRGB(100, 40, 0, 0, 0), 100, 40, At(1, 1)))
	assert.Equal(t, DirtyRegion{MinCol: 1, MinRow: 1, MaxCol: 11, MaxRow: 3, Dirty: true}, r.DirtyRegion())
}

func TestRendererRejectedImageStaysClean(t *testing.T) {
	tests := []struct {
		name   string
		render func(r *Renderer) error
		want   error
	}{
		{
			name: "short RGB buffer",
			render: func(r *Renderer) error {
				return r.RenderImage(make([]byte, 5), 4, 4, Placement{Col: 3, Row: 3, WidthCells: 4, HeightCells: 2})
			},
			want: ErrInvalidImageBuffer,
		},
		{
			name: "short RGBA buffer",
			render: func(r *Renderer) error {
				return r.RenderImageRGBA(solidRGB(4, 4, 1, 2, 3), 4, 4, At(3, 3))
			},
			want: ErrInvalidImageBuffer,
		},
		{
			name: "negative placement",
			render: func(r *Renderer) error {
				return r.RenderImage(solidRGB(4, 4, 1, 2, 3), 4, 4, At(-1, 0))
			},
			want: ErrInvalidPlacement,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, buf := newTestRenderer(t, Kitty)

			assert.ErrorIs(t, tt.render(r), tt.want)
			assert.Equal(t, DirtyRegion{}, r.DirtyRegion())
			require.NoError(t, r.Flush())
			assert.Zero(t, buf.Len())
		})
	}
}

func TestRendererRenderPNG(t *testing.T) {
	r, buf := newTestRenderer(t, Blocks)

	img := image.NewNRGBA(image.Rect(0, 0, 8, 16))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var encoded bytes.Buffer
	require.NoError(t, png.Encode(&encoded, img))

	require.NoError(t, r.RenderPNG(encoded.Bytes(), At(0, 0)))
	require.NoError(t, r.Flush())
	assert.Equal(t, "\x1b[1;1H█", buf.String())

	assert.Error(t, r.RenderPNG([]byte("not an image"), At(0, 0)))
}

func TestRendererRenderGoImage(t *testing.T) {
	r, buf := newTestRenderer(t, Blocks)

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := range 4 {
		for x := range 4 {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	require.NoError(t, r.RenderGoImage(img, Placement{WidthCells: 2, HeightCells: 1}))
	require.NoError(t, r.Flush())
	assert.Equal(t, "\x1b[1;1H░░", buf.String())
}

func TestRendererOptions(t *testing.T) {
	var buf bytes.Buffer
	ctx := TerminalContext{Geometry: GeometryWithCharSize(80, 24, 10, 20)}

	_, err := NewRendererWithContext(&buf, ctx, RendererOptions{Backend: GraphicsBackend(9)})
	assert.ErrorIs(t, err, ErrUnknownBackend)

	r, err := NewRendererWithContext(&buf, ctx, RendererOptions{
		Backend:             Sixel,
		DisablePlaceholders: true,
		SixelMode:           SixelPalette,
		SixelColors:         32,
		BlockMode:           BlocksHalf,
	})
	require.NoError(t, err)
	assert.Equal(t, Sixel, r.GraphicsBackend())
	assert.False(t, r.Images().UnicodePlaceholders())
	assert.False(t, r.InMultiplexer())
}

func TestRendererDetectsBackend(t *testing.T) {
	clearEnv(t, detectEnvVars...)
	withFramebuffer(t, false)
	t.Setenv(BackendEnv, "sixel")

	r, _ := newTestRenderer(t, 0)
	assert.Equal(t, Sixel, r.GraphicsBackend())
}

func TestRendererScratchBuffer(t *testing.T) {
	r, _ := newTestRenderer(t, Blocks)
	r.ScratchBuffer().WriteString("leftover")
	assert.Zero(t, r.ScratchBuffer().Len())
}

func TestRendererSetGeometry(t *testing.T) {
	r, _ := newTestRenderer(t, Blocks)
	r.SetGeometry(120, 40)
	cols, rows := r.Context().CharDimensions()
	assert.Equal(t, 120, cols)
	assert.Equal(t, 40, rows)
	w, h := r.Context().PixelDimensions()
	assert.Equal(t, 1200, w)
	assert.Equal(t, 800, h)
}
