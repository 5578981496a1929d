/*
Package termgfx draws raster images inside a character-cell terminal.

It picks one of four backends from the environment and encodes raw pixel
buffers for it:

  - Linux framebuffer, for bare consoles without X11 or Wayland
  - Kitty graphics protocol, direct or through tmux with Unicode placeholders
  - Sixel
  - Unicode shade blocks, the fallback that works everywhere

Basic Usage:

	r, err := termgfx.NewStdoutRenderer(termgfx.RendererOptions{})
	if err != nil {
	    log.Fatal(err)
	}
	defer r.Close()

	r.BeginFrame()
	r.RenderImage(rgb, 320, 200, termgfx.Placement{Col: 2, Row: 1, WidthCells: 32, HeightCells: 10})
	r.EndFrame()

Animation:

Every Kitty transmission uses image id 1, so re-rendering each frame replaces
the previous frame in place. BeginFrame deletes the image first; use
BeginFrameWithOptions(false) for static images that should persist.

tmux:

Inside tmux every Kitty chunk is wrapped in a DCS passthrough and the image is
placed with Unicode placeholder cells, so it scrolls and clips with the pane.
Positioned passthrough is still available:

	r.SetUnicodePlaceholders(false)

In that mode the pane origin is added to the coordinates. The origin comes from
a tmux subprocess, so it is cached; call RefreshPaneInfo after a resize or
when the pane regains focus.

Backend selection can be forced with TERMGFX_BACKEND (kitty, sixel, blocks,
framebuffer).
*/
package termgfx
