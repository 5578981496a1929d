package termgfx

import (
	"os/exec"
	"strconv"
	"strings"

	"github.com/apex/log"
)

// TmuxPane is the position and size of the current tmux pane, in cells.
type TmuxPane struct {
	Top    int
	Left   int
	Width  int
	Height int
}

// tmuxDisplayMessage runs tmux display-message; replaced in tests.
var tmuxDisplayMessage = func(format string) ([]byte, error) {
	return exec.Command("tmux", "display-message", "-p", format).Output()
}

// QueryTmuxPane asks tmux for the current pane geometry.
// It spawns a subprocess, so callers cache the result and only
// re-query on resize or focus changes.
func QueryTmuxPane() (TmuxPane, bool) {
	out, err := tmuxDisplayMessage("#{pane_top} #{pane_left} #{pane_width} #{pane_height}")
	if err != nil {
		log.WithError(err).Debug("tmux pane query failed")
		return TmuxPane{}, false
	}
	pane, ok := parseTmuxPane(string(out))
	if !ok {
		log.WithField("output", strings.TrimSpace(string(out))).Debug("unexpected tmux pane output")
	}
	return pane, ok
}

// parseTmuxPane parses "top left [width height]".
func parseTmuxPane(out string) (TmuxPane, bool) {
	fields := strings.Fields(out)
	if len(fields) < 2 {
		return TmuxPane{}, false
	}
	vals := make([]int, 0, 4)
	for _, f := range fields[:min(len(fields), 4)] {
		v, err := strconv.Atoi(f)
		if err != nil || v < 0 {
			return TmuxPane{}, false
		}
		vals = append(vals, v)
	}
	pane := TmuxPane{Top: vals[0], Left: vals[1]}
	if len(vals) == 4 {
		pane.Width = vals[2]
		pane.Height = vals[3]
	}
	return pane, true
}
