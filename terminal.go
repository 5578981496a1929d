package termgfx

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Fallbacks used when the output is not a terminal.
const (
	DefaultCols       = 80
	DefaultRows       = 24
	DefaultCharWidth  = estimateCellWidth
	DefaultCharHeight = estimateCellHeight
)

// TerminalGeometry is the size of the terminal in cells and estimated pixels.
type TerminalGeometry struct {
	Cols        int
	Rows        int
	CharWidth   int
	CharHeight  int
	PixelWidth  int
	PixelHeight int
}

// GeometryWithCharSize builds a geometry for cols x rows cells of the given pixel size.
func GeometryWithCharSize(cols, rows, charWidth, charHeight int) TerminalGeometry {
	return TerminalGeometry{
		Cols:        cols,
		Rows:        rows,
		CharWidth:   charWidth,
		CharHeight:  charHeight,
		PixelWidth:  cols * charWidth,
		PixelHeight: rows * charHeight,
	}
}

// DetectGeometry reads the window size of fd. Pixel sizes are estimated
// with a 10x20 cell since the kernel rarely reports them.
func DetectGeometry(fd int) TerminalGeometry {
	cols, rows, err := term.GetSize(fd)
	if err != nil || cols <= 0 || rows <= 0 {
		cols, rows = DefaultCols, DefaultRows
	}
	return GeometryWithCharSize(cols, rows, DefaultCharWidth, DefaultCharHeight)
}

// TerminalCapabilities are the features advertised by the environment.
type TerminalCapabilities struct {
	KittyGraphics bool
	Sixel         bool
	TrueColor     bool
	Colors256     bool
	InMultiplexer bool
}

// DetectCapabilities inspects TERM, COLORTERM, TMUX and friends.
func DetectCapabilities() TerminalCapabilities {
	termEnv := os.Getenv("TERM")
	colorTerm := os.Getenv("COLORTERM")
	return TerminalCapabilities{
		KittyGraphics: KittySupported(),
		Sixel:         SixelSupported(),
		TrueColor:     colorTerm == "truecolor" || colorTerm == "24bit",
		Colors256:     strings.Contains(termEnv, "256color") || colorTerm != "",
		InMultiplexer: InTmux(),
	}
}

// NeedsKittyPassthrough reports whether Kitty commands must be wrapped for tmux.
func (c TerminalCapabilities) NeedsKittyPassthrough() bool {
	return c.KittyGraphics && c.InMultiplexer
}

// TerminalContext bundles geometry and capabilities for one output.
type TerminalContext struct {
	Geometry     TerminalGeometry
	Capabilities TerminalCapabilities
}

// DetectContext detects the context for the terminal on fd.
func DetectContext(fd int) TerminalContext {
	return TerminalContext{
		Geometry:     DetectGeometry(fd),
		Capabilities: DetectCapabilities(),
	}
}

// RefreshGeometry re-reads the window size of fd.
func (c *TerminalContext) RefreshGeometry(fd int) {
	c.Geometry = DetectGeometry(fd)
}

// CharDimensions returns the terminal size in cells.
func (c TerminalContext) CharDimensions() (cols, rows int) {
	return c.Geometry.Cols, c.Geometry.Rows
}

// PixelDimensions returns the estimated terminal size in pixels.
func (c TerminalContext) PixelDimensions() (width, height int) {
	return c.Geometry.PixelWidth, c.Geometry.PixelHeight
}
