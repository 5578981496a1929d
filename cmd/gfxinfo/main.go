package main

import (
	"fmt"
	"io"
	"os"

	"github.com/blacktop/go-termgfx"
	"github.com/blacktop/go-termgfx/pkg/csi"
)

func main() {
	ctx := termgfx.DetectContext(int(os.Stdout.Fd()))
	report(os.Stdout, ctx)
}

func report(w io.Writer, ctx termgfx.TerminalContext) {
	fmt.Fprintln(w, "=== Terminal Graphics Detection ===")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  TERM: %s\n", os.Getenv("TERM"))
	fmt.Fprintf(w, "  TERM_PROGRAM: %s\n", os.Getenv("TERM_PROGRAM"))
	fmt.Fprintf(w, "  %s: %s\n", termgfx.BackendEnv, os.Getenv(termgfx.BackendEnv))
	fmt.Fprintf(w, "  In tmux: %v\n", ctx.Capabilities.InMultiplexer)
	fmt.Fprintln(w)

	caps := ctx.Capabilities
	fmt.Fprintln(w, "Capabilities:")
	fmt.Fprintf(w, "  Kitty graphics: %v\n", caps.KittyGraphics)
	fmt.Fprintf(w, "  Sixel: %v\n", caps.Sixel)
	fmt.Fprintf(w, "  True color: %v\n", caps.TrueColor)
	fmt.Fprintf(w, "  256 colors: %v\n", caps.Colors256)
	fmt.Fprintf(w, "  Kitty passthrough: %v\n", caps.NeedsKittyPassthrough())
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Geometry:")
	cols, rows := ctx.CharDimensions()
	pw, ph := ctx.PixelDimensions()
	fmt.Fprintf(w, "  Cells: %dx%d\n", cols, rows)
	fmt.Fprintf(w, "  Pixels (estimated): %dx%d\n", pw, ph)
	if cw, chh, ok := csi.CellSize(caps.InMultiplexer); ok {
		fmt.Fprintf(w, "  Cell size (queried): %dx%d\n", cw, chh)
	} else {
		fmt.Fprintf(w, "  Cell size: not reported, using %dx%d\n", ctx.Geometry.CharWidth, ctx.Geometry.CharHeight)
	}
	fmt.Fprintln(w)

	if caps.InMultiplexer {
		termgfx.EnableTmuxPassthrough()
		fmt.Fprintln(w, "tmux:")
		fmt.Fprintf(w, "  Forced: %v\n", termgfx.IsTmuxForced())
		fmt.Fprintf(w, "  allow-passthrough set: %v\n", termgfx.IsTmuxPassthroughEnabled())
		if pane, ok := termgfx.QueryTmuxPane(); ok {
			fmt.Fprintf(w, "  Pane origin: col %d, row %d\n", pane.Left, pane.Top)
			fmt.Fprintf(w, "  Pane size: %dx%d\n", pane.Width, pane.Height)
		} else {
			fmt.Fprintln(w, "  Pane: not available")
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "=== Backend ===")
	fmt.Fprintf(w, "Detected: %s\n", termgfx.DetectBackend().Name())
	fmt.Fprintf(w, "Selected: %s\n", termgfx.DetectBackendWithOverride().Name())
}
