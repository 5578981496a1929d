package termgfx

import (
	"bytes"
	"fmt"
	"io"

	"github.com/apex/log"
)

// Placement positions an image on the cell grid. Col and Row are 0-indexed.
// A zero WidthCells or HeightCells is estimated from the pixel size.
type Placement struct {
	Col         int
	Row         int
	WidthCells  int
	HeightCells int
}

// At returns a placement at col, row with an estimated cell span.
func At(col, row int) Placement {
	return Placement{Col: col, Row: row}
}

func (p Placement) validate() error {
	if p.Col < 0 || p.Row < 0 || p.WidthCells < 0 || p.HeightCells < 0 {
		return fmt.Errorf("%w: col=%d row=%d cells=%dx%d", ErrInvalidPlacement, p.Col, p.Row, p.WidthCells, p.HeightCells)
	}
	return nil
}

// cells returns the cell span, estimating missing values from a cellW x cellH pixel cell.
func (p Placement) cells(width, height, cellW, cellH int) (cols, rows int) {
	cols, rows = p.WidthCells, p.HeightCells
	if cols == 0 {
		cols = max((width+cellW-1)/cellW, 1)
	}
	if rows == 0 {
		rows = max((height+cellH-1)/cellH, 1)
	}
	return cols, rows
}

// ImageRenderer encodes pixel buffers for one graphics backend.
//
// It is not safe for concurrent use. All buffers are owned by the renderer
// and reused between calls so steady-state animation does not allocate.
type ImageRenderer struct {
	backend      GraphicsBackend
	inTmux       bool
	placeholders bool

	sixelMode   SixelMode
	sixelColors int
	blockMode   BlockMode
	fbDevice    string

	// scratch buffers
	line   bytes.Buffer
	esc    []byte
	seq    []byte
	params []byte
	body   []byte
	b64    []byte
	rgb    []byte
	png    bytes.Buffer
	sixel  bytes.Buffer

	animationImageID     uint32
	hasAnimationImage    bool
	animationInitialized bool

	pane *TmuxPane
}

// NewImageRenderer creates a renderer for backend. When inTmux is set the
// pane origin is queried once and cached, see RefreshPaneInfo.
func NewImageRenderer(backend GraphicsBackend, inTmux bool) *ImageRenderer {
	r := &ImageRenderer{
		backend:      backend,
		inTmux:       inTmux,
		placeholders: true,
		sixelColors:  DefaultSixelColors,
		fbDevice:     framebufferDevice,
		esc:          make([]byte, 0, 256),
	}
	r.line.Grow(512)
	if inTmux {
		EnableTmuxPassthrough()
		log.WithField("allow-passthrough", IsTmuxPassthroughEnabled()).Debug("tmux output")
		r.RefreshPaneInfo()
	}
	return r
}

// Backend returns the backend this renderer encodes for
func (r *ImageRenderer) Backend() GraphicsBackend { return r.backend }

// InTmux reports whether output is wrapped for tmux passthrough
func (r *ImageRenderer) InTmux() bool { return r.inTmux }

// SetUnicodePlaceholders selects Unicode placeholder placement for Kitty
// inside tmux. Disabling it falls back to positioned passthrough, which
// does not survive pane scrolling or redraws.
func (r *ImageRenderer) SetUnicodePlaceholders(enabled bool) { r.placeholders = enabled }

// UnicodePlaceholders reports whether placeholder placement is enabled
func (r *ImageRenderer) UnicodePlaceholders() bool { return r.placeholders }

// SetSixelMode selects the Sixel encoding
func (r *ImageRenderer) SetSixelMode(mode SixelMode) { r.sixelMode = mode }

// SetSixelColors sets the palette size for SixelPalette, clamped to 2..256
func (r *ImageRenderer) SetSixelColors(n int) { r.sixelColors = clampSixelColors(n) }

// SetBlockMode selects the Blocks rendering style
func (r *ImageRenderer) SetBlockMode(mode BlockMode) { r.blockMode = mode }

// SetFramebufferDevice overrides the framebuffer device path
func (r *ImageRenderer) SetFramebufferDevice(path string) {
	if path != "" {
		r.fbDevice = path
	}
}

// RefreshPaneInfo re-queries the tmux pane origin. This spawns tmux, so call
// it on resize or focus changes, never per frame.
func (r *ImageRenderer) RefreshPaneInfo() {
	if !r.inTmux {
		r.pane = nil
		return
	}
	if pane, ok := QueryTmuxPane(); ok {
		r.pane = &pane
	} else {
		r.pane = nil
	}
}

// PaneOffset returns the cached tmux pane geometry, if any.
func (r *ImageRenderer) PaneOffset() (TmuxPane, bool) {
	if r.pane == nil {
		return TmuxPane{}, false
	}
	return *r.pane, true
}

// AnimationImageID returns the image slot holding the last transmitted frame.
func (r *ImageRenderer) AnimationImageID() (uint32, bool) {
	return r.animationImageID, r.hasAnimationImage
}

// AnimationInitialized reports whether a frame has been transmitted since the last reset.
func (r *ImageRenderer) AnimationInitialized() bool { return r.animationInitialized }

// ResetAnimation forgets the transmitted frame without touching the terminal.
func (r *ImageRenderer) ResetAnimation() {
	r.animationImageID = 0
	r.hasAnimationImage = false
	r.animationInitialized = false
}

// RenderImage draws an RGB buffer (3 bytes per pixel) at p.
// Output is written to w but not flushed.
func (r *ImageRenderer) RenderImage(w io.Writer, data []byte, width, height int, p Placement) error {
	if err := r.check(data, width, height, RGB, p); err != nil {
		return err
	}
	switch r.backend {
	case Framebuffer:
		return writeFramebuffer(r.fbDevice, data)
	case Kitty:
		return r.renderKitty(w, data, width, height, RGB, p)
	case Sixel:
		return r.renderSixel(w, data, width, height, p)
	case Blocks:
		return r.renderBlocks(w, data, width, height, p)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownBackend, int(r.backend))
	}
}

// RenderImageRGBA draws an RGBA buffer (4 bytes per pixel, straight alpha) at p.
// Kitty keeps the alpha channel, Sixel and Blocks draw a flattened RGB copy.
func (r *ImageRenderer) RenderImageRGBA(w io.Writer, data []byte, width, height int, p Placement) error {
	if err := r.check(data, width, height, RGBA, p); err != nil {
		return err
	}
	switch r.backend {
	case Framebuffer:
		return writeFramebuffer(r.fbDevice, data)
	case Kitty:
		return r.renderKitty(w, data, width, height, RGBA, p)
	case Sixel:
		r.rgb = FlattenRGBA(r.rgb, data)
		return r.renderSixel(w, r.rgb, width, height, p)
	case Blocks:
		r.rgb = FlattenRGBA(r.rgb, data)
		return r.renderBlocks(w, r.rgb, width, height, p)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownBackend, int(r.backend))
	}
}

func (r *ImageRenderer) check(data []byte, width, height int, format PixelFormat, p Placement) error {
	if err := ValidateBuffer(data, width, height, format); err != nil {
		log.WithFields(log.Fields{
			"backend": r.backend.String(),
			"format":  format.String(),
			"width":   width,
			"height":  height,
			"len":     len(data),
		}).Debug("rejecting image buffer")
		return err
	}
	return p.validate()
}

// DeleteAllImages resets the animation state and, on Kitty, deletes the
// image slot and all of its placements. Other backends have nothing to delete.
func (r *ImageRenderer) DeleteAllImages(w io.Writer) error {
	r.ResetAnimation()
	if r.backend != Kitty {
		return nil
	}
	r.esc = r.appendKittyDelete(r.esc[:0])
	if _, err := w.Write(r.esc); err != nil {
		return fmt.Errorf("failed to delete kitty images: %w", err)
	}
	return nil
}
