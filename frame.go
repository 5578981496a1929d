package termgfx

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/apex/log"
)

// WRITE_BUFFER_CAPACITY is the default size of the frame output buffer.
const WRITE_BUFFER_CAPACITY = 16 * 1024

// RendererOptions configures a Renderer. The zero value detects everything.
type RendererOptions struct {
	// Backend forces a backend; zero means detect (TERMGFX_BACKEND first)
	Backend GraphicsBackend
	// DisablePlaceholders uses positioned passthrough for Kitty inside tmux
	DisablePlaceholders bool
	SixelMode           SixelMode
	SixelColors         int
	BlockMode           BlockMode
	FramebufferDevice   string
	// WriteBufferSize defaults to WRITE_BUFFER_CAPACITY
	WriteBufferSize int
}

// Renderer batches terminal output for one frame at a time and owns the
// image renderer for the selected backend.
type Renderer struct {
	writer      *bufio.Writer
	fd          int
	context     TerminalContext
	images      *ImageRenderer
	inAltScreen bool
	dirty       DirtyRegion
	scratch     strings.Builder
	cell        []byte
}

// NewRenderer creates a renderer writing to out. If out is a terminal its
// size is used for the context, otherwise an 80x24 geometry is assumed.
func NewRenderer(out io.Writer, opts RendererOptions) (*Renderer, error) {
	fd := -1
	if f, ok := out.(*os.File); ok {
		fd = int(f.Fd())
	}
	return newRenderer(out, fd, DetectContext(fd), opts)
}

// NewStdoutRenderer creates a renderer on os.Stdout.
func NewStdoutRenderer(opts RendererOptions) (*Renderer, error) {
	return NewRenderer(os.Stdout, opts)
}

// NewRendererWithContext creates a renderer with an explicit terminal context.
func NewRendererWithContext(out io.Writer, ctx TerminalContext, opts RendererOptions) (*Renderer, error) {
	return newRenderer(out, -1, ctx, opts)
}

func newRenderer(out io.Writer, fd int, ctx TerminalContext, opts RendererOptions) (*Renderer, error) {
	backend := opts.Backend
	forced := backend != 0
	switch {
	case !forced:
		backend = DetectBackendWithOverride()
	case !backend.Valid():
		return nil, fmt.Errorf("%w: %d", ErrUnknownBackend, int(backend))
	}

	size := opts.WriteBufferSize
	if size <= 0 {
		size = WRITE_BUFFER_CAPACITY
	}

	images := NewImageRenderer(backend, ctx.Capabilities.InMultiplexer)
	images.SetUnicodePlaceholders(!opts.DisablePlaceholders)
	images.SetSixelMode(opts.SixelMode)
	images.SetSixelColors(opts.SixelColors)
	images.SetBlockMode(opts.BlockMode)
	images.SetFramebufferDevice(opts.FramebufferDevice)

	log.WithFields(log.Fields{
		"backend": backend.Name(),
		"forced":  forced,
		"tmux":    ctx.Capabilities.InMultiplexer,
		"cols":    ctx.Geometry.Cols,
		"rows":    ctx.Geometry.Rows,
	}).Debug("graphics backend")

	r := &Renderer{
		writer:  bufio.NewWriterSize(out, size),
		fd:      fd,
		context: ctx,
		images:  images,
	}
	r.scratch.Grow(256)
	return r, nil
}

// GraphicsBackend returns the selected backend
func (r *Renderer) GraphicsBackend() GraphicsBackend { return r.images.Backend() }

// Images returns the underlying image renderer
func (r *Renderer) Images() *ImageRenderer { return r.images }

// EnterAltScreen switches to the alternate screen and flushes immediately.
func (r *Renderer) EnterAltScreen() error {
	if r.inAltScreen {
		return nil
	}
	if _, err := r.writer.WriteString("\x1b[?1049h"); err != nil {
		return err
	}
	if err := r.writer.Flush(); err != nil {
		return err
	}
	r.inAltScreen = true
	r.dirty.MarkAll(r.context.CharDimensions())
	return nil
}

// ExitAltScreen returns to the main screen and flushes immediately.
func (r *Renderer) ExitAltScreen() error {
	if !r.inAltScreen {
		return nil
	}
	if _, err := r.writer.WriteString("\x1b[?1049l"); err != nil {
		return err
	}
	if err := r.writer.Flush(); err != nil {
		return err
	}
	r.inAltScreen = false
	r.dirty.Clear()
	return nil
}

// InAltScreen reports whether the alternate screen is active
func (r *Renderer) InAltScreen() bool { return r.inAltScreen }

// Clear erases the screen and marks it all dirty.
func (r *Renderer) Clear() error {
	if _, err := r.writer.WriteString("\x1b[2J"); err != nil {
		return err
	}
	r.dirty.MarkAll(r.context.CharDimensions())
	return nil
}

// MoveCursor moves to the 0-indexed col, row.
func (r *Renderer) MoveCursor(col, row int) error {
	r.cell = appendCursorPosition(r.cell[:0], row, col)
	_, err := r.writer.Write(r.cell)
	return err
}

// HideCursor is buffered until the next flush.
func (r *Renderer) HideCursor() error {
	_, err := r.writer.WriteString("\x1b[?25l")
	return err
}

// ShowCursor is buffered until the next flush.
func (r *Renderer) ShowCursor() error {
	_, err := r.writer.WriteString("\x1b[?25h")
	return err
}

// WriteText writes text at the cursor.
func (r *Renderer) WriteText(text string) error {
	_, err := r.writer.WriteString(text)
	return err
}

// WriteStyled writes style, text and an SGR reset.
func (r *Renderer) WriteStyled(text, style string) error {
	if _, err := r.writer.WriteString(style); err != nil {
		return err
	}
	if _, err := r.writer.WriteString(text); err != nil {
		return err
	}
	_, err := r.writer.WriteString("\x1b[0m")
	return err
}

// WriteRepeated writes ch count times.
func (r *Renderer) WriteRepeated(ch rune, count int) error {
	var enc [utf8.UTFMax]byte
	n := utf8.EncodeRune(enc[:], ch)
	for range count {
		if _, err := r.writer.Write(enc[:n]); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes all buffered output.
func (r *Renderer) Flush() error {
	return r.writer.Flush()
}

// DirtyRegion returns the region changed since the last EndFrame
func (r *Renderer) DirtyRegion() DirtyRegion { return r.dirty }

// MarkDirty adds a rect to the dirty region
func (r *Renderer) MarkDirty(col, row, width, height int) {
	r.dirty.MarkRegion(col, row, width, height)
}

// ClearDirty marks everything clean
func (r *Renderer) ClearDirty() { r.dirty.Clear() }

// Context returns the terminal context
func (r *Renderer) Context() TerminalContext { return r.context }

// RefreshGeometry re-reads the terminal size and the tmux pane. Call on resize.
func (r *Renderer) RefreshGeometry() {
	if r.fd >= 0 {
		r.context.RefreshGeometry(r.fd)
	}
	r.images.RefreshPaneInfo()
}

// SetGeometry replaces the geometry, for callers that learn the size from
// resize events instead of the tty.
func (r *Renderer) SetGeometry(cols, rows int) {
	g := r.context.Geometry
	r.context.Geometry = GeometryWithCharSize(cols, rows, g.CharWidth, g.CharHeight)
}

// RefreshPaneInfo re-queries the tmux pane. Call on pane switch or focus gain.
func (r *Renderer) RefreshPaneInfo() { r.images.RefreshPaneInfo() }

// RenderImage draws an RGB buffer through the frame buffer.
// Rejected buffers and placements leave the dirty region untouched.
func (r *Renderer) RenderImage(data []byte, width, height int, p Placement) error {
	if err := r.images.check(data, width, height, RGB, p); err != nil {
		return err
	}
	r.markImage(width, height, p)
	return r.images.RenderImage(r.writer, data, width, height, p)
}

// RenderImageRGBA draws an RGBA buffer through the frame buffer.
func (r *Renderer) RenderImageRGBA(data []byte, width, height int, p Placement) error {
	if err := r.images.check(data, width, height, RGBA, p); err != nil {
		return err
	}
	r.markImage(width, height, p)
	return r.images.RenderImageRGBA(r.writer, data, width, height, p)
}

// RenderGoImage converts img to RGBA and renders it.
func (r *Renderer) RenderGoImage(img image.Image, p Placement) error {
	data, width, height := ImageToRGBA(img)
	return r.RenderImageRGBA(data, width, height, p)
}

// RenderPNG decodes an encoded image (PNG, JPEG or GIF) and renders it.
func (r *Renderer) RenderPNG(encoded []byte, p Placement) error {
	img, _, err := image.Decode(bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	return r.RenderGoImage(img, p)
}

func (r *Renderer) markImage(width, height int, p Placement) {
	w, h := p.WidthCells, p.HeightCells
	if w == 0 {
		w = width / estimateCellWidth
	}
	if h == 0 {
		h = height / estimateCellHeight
	}
	r.dirty.MarkRegion(p.Col, p.Row, w, h)
}

// ClearImages deletes every image tracked by the image renderer.
func (r *Renderer) ClearImages() error {
	return r.images.DeleteAllImages(r.writer)
}

// SetUnicodePlaceholders toggles Kitty placeholder placement inside tmux.
func (r *Renderer) SetUnicodePlaceholders(enabled bool) {
	r.images.SetUnicodePlaceholders(enabled)
}

// InMultiplexer reports whether output goes through tmux
func (r *Renderer) InMultiplexer() bool { return r.context.Capabilities.InMultiplexer }

// BeginFrame hides the cursor and clears images. Use BeginFrameWithOptions
// to keep static images across frames.
func (r *Renderer) BeginFrame() error {
	return r.BeginFrameWithOptions(true)
}

// BeginFrameWithOptions hides the cursor and optionally clears images.
func (r *Renderer) BeginFrameWithOptions(clearGraphics bool) error {
	if err := r.HideCursor(); err != nil {
		return err
	}
	if clearGraphics {
		return r.ClearImages()
	}
	return nil
}

// EndFrame shows the cursor, flushes and resets the dirty region.
func (r *Renderer) EndFrame() error {
	if err := r.ShowCursor(); err != nil {
		return err
	}
	if err := r.Flush(); err != nil {
		return err
	}
	r.dirty.Clear()
	return nil
}

// ScratchBuffer returns an emptied builder for composing output.
func (r *Renderer) ScratchBuffer() *strings.Builder {
	r.scratch.Reset()
	return &r.scratch
}

// Close leaves the alternate screen, restores the cursor and flushes.
func (r *Renderer) Close() error {
	exitErr := r.ExitAltScreen()
	showErr := r.ShowCursor()
	flushErr := r.Flush()
	switch {
	case exitErr != nil:
		return exitErr
	case showErr != nil:
		return showErr
	default:
		return flushErr
	}
}
